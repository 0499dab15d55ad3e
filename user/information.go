package user

import (
	"regexp"
	"strings"
)

// Gender values accepted by Information.
const (
	GenderMale           = "male"
	GenderFemale         = "female"
	GenderNonBinary      = "nonbinary"
	GenderOther          = "other"
	GenderPreferNotToSay = "prefernottosay"
)

var (
	namePattern     = regexp.MustCompile(`^[\p{L}\s'-]{1,50}$`)
	phonePattern    = regexp.MustCompile(`^\+([1-9]\d{0,3})(\d{7,})$`)
	locationPattern = regexp.MustCompile(`^[a-zA-Z\s]{2,50}$`)
)

// Information is the optional profile of an account. Empty fields are unset.
type Information struct {
	FirstName string
	LastName  string
	Gender    string
	Phone     string
	City      string
	Country   string
}

// FullName joins the first and last name.
func (i Information) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// InformationUpdate carries the profile fields to replace. Nil fields are
// left untouched.
type InformationUpdate struct {
	FirstName *string
	LastName  *string
	Gender    *string
	Phone     *string
	City      *string
	Country   *string
}

// Empty reports whether no field is present.
func (u InformationUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Gender == nil &&
		u.Phone == nil && u.City == nil && u.Country == nil
}

// apply validates every present field and returns the merged profile. The
// receiver is not modified when any field fails.
func (i Information) apply(u InformationUpdate) (Information, error) {
	if u.Empty() {
		return i, ErrNoInformationToUpdate
	}

	next := i
	if u.FirstName != nil {
		v := strings.TrimSpace(*u.FirstName)
		if !namePattern.MatchString(v) {
			return i, ErrInvalidFullName.WithDetail("firstName", "letters, spaces, apostrophes and hyphens only, at most 50")
		}
		next.FirstName = v
	}
	if u.LastName != nil {
		v := strings.TrimSpace(*u.LastName)
		if !namePattern.MatchString(v) {
			return i, ErrInvalidFullName.WithDetail("lastName", "letters, spaces, apostrophes and hyphens only, at most 50")
		}
		next.LastName = v
	}
	if u.Gender != nil {
		v := strings.ToLower(strings.TrimSpace(*u.Gender))
		switch v {
		case GenderMale, GenderFemale, GenderNonBinary, GenderOther, GenderPreferNotToSay:
		default:
			return i, ErrInvalidGender
		}
		next.Gender = v
	}
	if u.Phone != nil {
		v := strings.TrimSpace(*u.Phone)
		if !phonePattern.MatchString(v) {
			return i, ErrInvalidPhone
		}
		next.Phone = v
	}
	if u.City != nil {
		v := strings.TrimSpace(*u.City)
		if !locationPattern.MatchString(v) {
			return i, ErrInvalidLocation.WithDetail("city", "2 to 50 letters")
		}
		next.City = v
	}
	if u.Country != nil {
		v := strings.TrimSpace(*u.Country)
		if !locationPattern.MatchString(v) {
			return i, ErrInvalidLocation.WithDetail("country", "2 to 50 letters")
		}
		next.Country = v
	}
	return next, nil
}
