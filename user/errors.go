package user

import (
	"errors"

	"github.com/MrEthical07/goIdentity/domainerr"
)

const (
	scopeUser           = "user"
	scopeAuthentication = "authentication"
	scopeInformation    = "information"
)

var (
	ErrUserDeleted                    = domainerr.Validation(scopeUser, "USER_DELETED", "user was deleted")
	ErrInvalidCredentials             = domainerr.Validation(scopeUser, "INVALID_CREDENTIALS", "invalid credentials")
	ErrAtLeastOneAuthPropertyRequired = domainerr.Validation(scopeUser, "AT_LEAST_ONE_AUTH_PROPERTY_REQUIRED", "email or password is required")
	ErrUnknownStatus                  = domainerr.Validation(scopeUser, "UNKNOWN_STATUS", "unknown user status")

	ErrUserBlocked                  = domainerr.Business(scopeUser, "USER_BLOCKED", "user is temporarily blocked")
	ErrUserAlreadyVerified          = domainerr.Business(scopeUser, "USER_ALREADY_VERIFIED", "user is already verified")
	ErrVerificationInProgress       = domainerr.Business(scopeUser, "VERIFICATION_USER_IN_PROGRESS", "a verification code was already sent")
	ErrInvalidVerificationCode      = domainerr.Business(scopeUser, "INVALID_VERIFICATION_USER_CODE", "verification code is invalid or expired")
	ErrNoMultifactorCodeToValidate  = domainerr.Business(scopeUser, "NO_MULTIFACTOR_CODE_TO_VALIDATE", "no active multifactor method")
	ErrMultifactorMethodsExceeded   = domainerr.Business(scopeUser, "MULTIFACTOR_METHODS_EXCEEDED", "multifactor method limit reached")
	ErrMultifactorRepeatedContact   = domainerr.Business(scopeUser, "MULTIFACTOR_REPEATED_CONTACT", "contact already registered")
	ErrMultifactorNotFound          = domainerr.Business(scopeUser, "MULTIFACTOR_NOT_FOUND", "multifactor method not found")
	ErrMultifactorAuthInitialized   = domainerr.Business(scopeUser, "MULTIFACTOR_AUTH_INITIALIZED", "multifactor code sent, login paused")
	ErrMultifactorAuthReinitialized = domainerr.Business(scopeUser, "MULTIFACTOR_AUTH_REINITIALIZED", "multifactor code expired and was sent again")
	ErrUserNotBlocked               = domainerr.Business(scopeUser, "USER_NOT_BLOCKED", "user is not blocked")
	ErrUserAlreadyActive            = domainerr.Business(scopeUser, "USER_ALREADY_ACTIVE", "user is already active")
	ErrUserNotActive                = domainerr.Business(scopeUser, "USER_NOT_ACTIVE", "user is not active")
	ErrEmailAlreadyRegistered       = domainerr.Business(scopeUser, "EMAIL_ALREADY_REGISTERED", "email is already registered")

	ErrInvalidEmail    = domainerr.Validation(scopeAuthentication, "INVALID_EMAIL", "email is malformed")
	ErrInvalidPassword = domainerr.Validation(scopeAuthentication, "INVALID_PASSWORD", "password does not meet the complexity rules")
	ErrSameEmailUpdate = domainerr.Validation(scopeAuthentication, "SAME_EMAIL_UPDATE", "new email equals the current one")

	ErrNoInformationToUpdate = domainerr.Validation(scopeInformation, "NO_INFORMATION_PROPERTIES_TO_UPDATE", "no information fields to update")
	ErrInvalidFullName       = domainerr.Validation(scopeInformation, "INVALID_FULL_NAME", "name is malformed")
	ErrInvalidGender         = domainerr.Validation(scopeInformation, "INVALID_GENDER", "unsupported gender")
	ErrInvalidPhone          = domainerr.Validation(scopeInformation, "INVALID_PHONE", "phone must be E.164")
	ErrInvalidLocation       = domainerr.Validation(scopeInformation, "INVALID_LOCATION", "city or country is malformed")
)

// ErrNotFound is returned by repositories when no account matches.
var ErrNotFound = errors.New("user not found")
