// Package schedule holds the pure scheduling rules applied to a user's task
// list: due date parsing, overdue rollover, ordering and selection.
//
// Functions here never lock or persist anything. The store and the services
// call them while holding the owning user's lock.
package schedule

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/todobot/internal/common"
	"github.com/dmitrijs2005/todobot/internal/datex"
)

// MaxOffsetDays caps relative due dates at roughly one hundred years.
const MaxOffsetDays = 36500

// ParseDue turns user input into a due date relative to today, the caller's
// local calendar day. It accepts YYYY-MM-DD or a non-negative number of days.
// Empty input means "no due date" and yields nil.
//
// Explicit dates earlier than today are moved to today.
func ParseDue(input string, today datex.Date) (*datex.Date, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, nil
	}

	if isDigits(s) {
		n, err := strconv.Atoi(s)
		if err != nil || n > MaxOffsetDays {
			return nil, fmt.Errorf("%w: offset %q out of range", common.ErrInvalidDate, s)
		}
		return today.AddDays(n).Ptr(), nil
	}

	d, err := datex.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q, use YYYY-MM-DD or a number of days", common.ErrInvalidDate, s)
	}
	if d.Before(today) {
		d = today
	}
	return d.Ptr(), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
