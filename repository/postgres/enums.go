package postgres

import (
	"context"
	"fmt"
	"maps"

	"github.com/MrEthical07/goIdentity/mfa"
	"github.com/MrEthical07/goIdentity/user"
	"gorm.io/gorm"
)

// Lookup maps enum values to their table ids and back. It is immutable
// once built.
type Lookup struct {
	table   string
	byValue map[string]uint
	byID    map[uint]string
}

func newLookup(table string, rows []enumModel) Lookup {
	l := Lookup{
		table:   table,
		byValue: make(map[string]uint, len(rows)),
		byID:    make(map[uint]string, len(rows)),
	}
	for _, r := range rows {
		l.byValue[r.Value] = r.ID
		l.byID[r.ID] = r.Value
	}
	return l
}

// ID returns the row id of value.
func (l Lookup) ID(value string) (uint, error) {
	id, ok := l.byValue[value]
	if !ok {
		return 0, fmt.Errorf("%w: %s has no row for %q", ErrUnknownEnum, l.table, value)
	}
	return id, nil
}

// Value returns the value stored under id.
func (l Lookup) Value(id uint) (string, error) {
	v, ok := l.byID[id]
	if !ok {
		return "", fmt.Errorf("%w: %s has no row with id %d", ErrUnknownEnum, l.table, id)
	}
	return v, nil
}

// Len returns the number of known values.
func (l Lookup) Len() int { return len(l.byValue) }

// Values returns a copy of the value to id table.
func (l Lookup) Values() map[string]uint { return maps.Clone(l.byValue) }

// Lookups bundles the enum tables the account repository needs.
type Lookups struct {
	UserStatuses Lookup
	MFAMethods   Lookup
	MFAStatuses  Lookup
}

// SyncEnumTable inserts every supported value missing from table and
// returns the resulting lookup. Rows that are no longer supported are kept.
func SyncEnumTable(ctx context.Context, db *gorm.DB, table string, supported []string) (Lookup, error) {
	var rows []enumModel
	if err := db.WithContext(ctx).Table(table).Order("id").Find(&rows).Error; err != nil {
		return Lookup{}, fmt.Errorf("read %s: %w", table, err)
	}

	existing := newLookup(table, rows)
	var missing []enumModel
	for _, v := range supported {
		if _, ok := existing.byValue[v]; !ok {
			missing = append(missing, enumModel{Value: v})
		}
	}
	if len(missing) == 0 {
		return existing, nil
	}

	if err := db.WithContext(ctx).Table(table).Create(&missing).Error; err != nil {
		return Lookup{}, fmt.Errorf("insert into %s: %w", table, err)
	}

	rows = rows[:0]
	if err := db.WithContext(ctx).Table(table).Order("id").Find(&rows).Error; err != nil {
		return Lookup{}, fmt.Errorf("re-read %s: %w", table, err)
	}
	return newLookup(table, rows), nil
}

// SyncEnums syncs the account status, MFA method and MFA status tables.
func SyncEnums(ctx context.Context, db *gorm.DB) (Lookups, error) {
	var (
		out Lookups
		err error
	)
	if out.UserStatuses, err = SyncEnumTable(ctx, db, userStatusTable, values(user.SupportedStatuses)); err != nil {
		return Lookups{}, err
	}
	if out.MFAMethods, err = SyncEnumTable(ctx, db, mfaMethodTable, values(mfa.SupportedKinds)); err != nil {
		return Lookups{}, err
	}
	if out.MFAStatuses, err = SyncEnumTable(ctx, db, mfaStatusTable, values(mfa.SupportedStatuses)); err != nil {
		return Lookups{}, err
	}
	return out, nil
}

func values[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
