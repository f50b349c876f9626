// Package tz resolves user supplied timezone strings to *time.Location.
//
// Common North American abbreviations are accepted as aliases for their IANA
// zones. The IANA database is embedded, so resolution does not depend on the
// host's zoneinfo files.
package tz

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/dmitrijs2005/todobot/internal/common"
)

var aliases = map[string]string{
	"PST": "US/Pacific",
	"PDT": "US/Pacific",
	"EST": "US/Eastern",
	"EDT": "US/Eastern",
	"CST": "US/Central",
	"CDT": "US/Central",
	"MST": "US/Mountain",
	"MDT": "US/Mountain",
	"GMT": "Etc/GMT",
	"UTC": "UTC",
}

// Resolve returns the location for input together with the canonical name
// that should be stored for the user.
func Resolve(input string) (*time.Location, string, error) {
	name := strings.TrimSpace(input)
	if name == "" || strings.EqualFold(name, "Local") {
		return nil, "", fmt.Errorf("%w: %q", common.ErrInvalidTimezone, input)
	}
	if canonical, ok := aliases[strings.ToUpper(name)]; ok {
		name = canonical
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q", common.ErrInvalidTimezone, input)
	}
	return loc, loc.String(), nil
}

// MustResolve is Resolve for configuration defaults known to be valid.
func MustResolve(input string) *time.Location {
	loc, _, err := Resolve(input)
	if err != nil {
		panic(err)
	}
	return loc
}
