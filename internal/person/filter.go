package person

import (
	"fmt"
	"strings"
)

// Filter records which optional criteria are active. A nil field is not applied;
// all active fields must match.
type Filter struct {
	Name    *string
	Surname *string
	Sex     *Sex
}

// NewFilter builds a Filter from optional raw query values. A supplied but
// unparseable sex yields ErrInvalidArgument.
func NewFilter(name, surname, sex *string) (Filter, error) {
	var f Filter
	if name != nil {
		v := *name
		f.Name = &v
	}
	if surname != nil {
		v := *surname
		f.Surname = &v
	}
	if sex != nil {
		s, err := ParseSex(*sex)
		if err != nil {
			return Filter{}, err
		}
		f.Sex = &s
	}
	return f, nil
}

// IsEmpty reports whether the filter matches every person.
func (f Filter) IsEmpty() bool {
	return f.Name == nil && f.Surname == nil && f.Sex == nil
}

// Matches evaluates the filter against p in memory.
func (f Filter) Matches(p Person) bool {
	if f.Name != nil && !containsFold(p.Name, *f.Name) {
		return false
	}
	if f.Surname != nil && !containsFold(p.Surname, *f.Surname) {
		return false
	}
	if f.Sex != nil && p.Sex != *f.Sex {
		return false
	}
	return true
}

// where renders the filter as SQL appended to "WHERE 1=1", numbering
// placeholders from $1.
func (f Filter) where() (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		sb.WriteString(" AND ")
		sb.WriteString(fmt.Sprintf(clause, len(args)))
	}
	if f.Name != nil {
		add("strpos(lower(name), lower($%d)) > 0", *f.Name)
	}
	if f.Surname != nil {
		add("strpos(lower(surname), lower($%d)) > 0", *f.Surname)
	}
	if f.Sex != nil {
		add("sex = $%d", string(*f.Sex))
	}
	return sb.String(), args
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
