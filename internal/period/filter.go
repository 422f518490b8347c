package period

import (
	"fmt"

	"etfseasonal/internal/stats"
)

// Spec narrows a family table to one period. Exactly one of Period or Name
// is meaningful, depending on the family.
type Spec struct {
	// Period is the month or week number for period-indexed families.
	Period int
	// Name is the holiday or TWW period for category families.
	Name string
}

// ByPeriod returns a spec selecting a month or week number.
func ByPeriod(n int) *Spec { return &Spec{Period: n} }

// ByName returns a spec selecting a named category.
func ByName(name string) *Spec { return &Spec{Name: name} }

// Selector is the UI selection used to index into a collection.
type Selector struct {
	Family    Family
	YearRange YearRange
	Spec      *Spec
}

// Filter resolves the table for base and yr in c and narrows it to spec.
//
// A missing key fails with stats.ErrKeyNotFound. An existing key whose rows
// do not match the spec yields an empty table and no error. Row order is the
// source order and the source table is never modified.
func Filter(c stats.Collection, base Family, yr YearRange, spec *Spec) (*stats.Table, error) {
	key, err := ResolveKey(base, yr)
	if err != nil {
		return nil, err
	}
	src, err := c.Table(key)
	if err != nil {
		return nil, err
	}
	return Narrow(src, base, spec)
}

// Apply is Filter driven by a Selector.
func (s Selector) Apply(c stats.Collection) (*stats.Table, error) {
	return Filter(c, s.Family, s.YearRange, s.Spec)
}

// Narrow applies the family's row selection to an already resolved table.
func Narrow(src *stats.Table, base Family, spec *Spec) (*stats.Table, error) {
	if spec == nil {
		return src.Clone(), nil
	}

	if col, ok := PeriodColumn(base); ok {
		if !src.HasColumn(col) {
			return nil, fmt.Errorf("%w: %s table has no %q column", stats.ErrSchema, base, col)
		}
		return src.Select(func(row int) bool {
			v, ok := stats.ToInt(src.Value(row, col))
			return ok && v == spec.Period
		}), nil
	}

	if col, ok := CategoryColumn(base); ok {
		if !src.HasColumn(col) {
			return nil, fmt.Errorf("%w: %s table has no %q column", stats.ErrSchema, base, col)
		}
		names := map[string]bool{spec.Name: true}
		if base == CompiledTWW {
			names[WeekAfter(spec.Name)] = true
		}
		return src.Select(func(row int) bool {
			v, ok := src.Value(row, col).(string)
			return ok && names[v]
		}), nil
	}

	return src.Clone(), nil
}

// RequireRows turns an empty table into stats.ErrFilterEmpty.
func RequireRows(t *stats.Table, what string) (*stats.Table, error) {
	if t.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", stats.ErrFilterEmpty, what)
	}
	return t, nil
}

// SplitPair splits t into the rows whose column equals first and the rows
// whose column equals second, each in source order.
func SplitPair(t *stats.Table, column, first, second string) (*stats.Table, *stats.Table) {
	match := func(name string) func(int) bool {
		return func(row int) bool {
			v, ok := t.Value(row, column).(string)
			return ok && v == name
		}
	}
	return t.Select(match(first)), t.Select(match(second))
}
