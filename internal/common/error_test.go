package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsSurviveWrapping(t *testing.T) {
	all := []error{
		ErrNotFound, ErrInvalidDate, ErrInvalidTimezone, ErrEmptyName, ErrInvalidTaskID,
		ErrNoTasks, ErrSelfAssignment, ErrNotRecipient, ErrAssignmentClosed,
		ErrAssignmentExpired, ErrInvalidToken,
	}
	seen := map[string]bool{}
	for _, e := range all {
		wrapped := fmt.Errorf("handler: %w", fmt.Errorf("service: %w", e))
		assert.True(t, errors.Is(wrapped, e), e.Error())
		assert.False(t, seen[e.Error()], "duplicate message %q", e.Error())
		seen[e.Error()] = true
	}
}
