package vale

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
)

// IsUUID accepts strings holding a UUID in any form uuid.Parse accepts.
func IsUUID() *Validator {
	return IsNamed("IsUUID", func(obj any) bool {
		s, ok := obj.(string)
		if !ok {
			return false
		}
		_, err := uuid.Parse(s)
		return err == nil
	})
}

// IsSemver accepts semantic version strings satisfying constraint
// (e.g. ">= 1.2, < 2"). An empty constraint accepts any valid version.
func IsSemver(constraint string) (*Validator, error) {
	var c *semver.Constraints
	if constraint != "" {
		var err error
		c, err = semver.NewConstraint(constraint)
		if err != nil {
			return nil, fmt.Errorf("vale: IsSemver(%q): %w", constraint, err)
		}
	}
	label := "IsSemver"
	if constraint != "" {
		label = fmt.Sprintf("IsSemver[%q]", constraint)
	}
	return IsNamed(label, func(obj any) bool {
		s, ok := obj.(string)
		if !ok {
			return false
		}
		v, err := semver.NewVersion(s)
		if err != nil {
			return false
		}
		return c == nil || c.Check(v)
	}), nil
}

// IsLen accepts strings, slices, arrays, maps and channels whose length is
// within [minLen, maxLen]. A negative maxLen means unbounded.
func IsLen(minLen, maxLen int) *Validator {
	label := fmt.Sprintf("IsLen[%d, %d]", minLen, maxLen)
	return IsNamed(label, func(obj any) bool {
		v := reflect.ValueOf(obj)
		switch v.Kind() {
		case reflect.String, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		default:
			return false
		}
		n := v.Len()
		return n >= minLen && (maxLen < 0 || n <= maxLen)
	})
}

// IsMatch accepts strings matching the regular expression pattern.
func IsMatch(pattern string) (*Validator, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("vale: IsMatch(%q): %w", pattern, err)
	}
	return IsNamed(fmt.Sprintf("IsMatch[%q]", pattern), func(obj any) bool {
		s, ok := obj.(string)
		return ok && re.MatchString(s)
	}), nil
}
