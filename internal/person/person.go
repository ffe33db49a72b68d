package person

import (
	"fmt"
	"sort"
	"strings"
)

// Sex is stored and returned in upper case.
type Sex string

const (
	SexMale   Sex = "MALE"
	SexFemale Sex = "FEMALE"
)

// AllowedSexes lists every accepted Sex value.
var AllowedSexes = []Sex{SexMale, SexFemale}

// ParseSex trims and upper-cases raw before matching it against AllowedSexes.
func ParseSex(raw string) (Sex, error) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if v == "" {
		return "", fmt.Errorf("%w: sex must not be blank", ErrInvalidArgument)
	}
	for _, s := range AllowedSexes {
		if Sex(v) == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: invalid value for sex: %q", ErrInvalidArgument, raw)
}

// Person is the stored entity. ID and Version are owned by the repository.
type Person struct {
	ID             int64
	Name           string
	Surname        string
	PIN            string
	Sex            Sex
	EmailAddresses []string
	PhoneNumbers   []string
	Version        int
}

// clone returns a deep copy so callers never share slices with a store.
func (p Person) clone() Person {
	p.EmailAddresses = append([]string{}, p.EmailAddresses...)
	p.PhoneNumbers = append([]string{}, p.PhoneNumbers...)
	return p
}

// mergeSet returns the sorted union of current and extra without duplicates.
func mergeSet(current []string, extra ...string) []string {
	seen := make(map[string]struct{}, len(current)+len(extra))
	out := make([]string, 0, len(current)+len(extra))
	for _, group := range [][]string{current, extra} {
		for _, v := range group {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
