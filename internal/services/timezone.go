// Package services contains the command-facing business logic. The REPL,
// the HTTP surface and the reminder scheduler all go through these types
// rather than touching the store directly.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/todobot/internal/logging"
	"github.com/dmitrijs2005/todobot/internal/models"
	"github.com/dmitrijs2005/todobot/internal/store"
	"github.com/dmitrijs2005/todobot/internal/tz"
)

// TimezoneService keeps each user's timezone preference.
type TimezoneService struct {
	store *store.Store
	def   *time.Location
	log   logging.Logger

	cache sync.Map // canonical name -> *time.Location
}

// NewTimezoneService uses def for users who never set a timezone.
func NewTimezoneService(s *store.Store, def *time.Location, log logging.Logger) *TimezoneService {
	if def == nil {
		def = time.UTC
	}
	if log == nil {
		log = logging.Nop()
	}
	return &TimezoneService{store: s, def: def, log: log.With("module", "timezone")}
}

// Set validates input and stores its canonical name. Nothing is stored when
// validation fails.
func (s *TimezoneService) Set(ctx context.Context, userID, input string) (string, error) {
	loc, canonical, err := tz.Resolve(input)
	if err != nil {
		return "", err
	}
	s.cache.Store(canonical, loc)

	err = s.store.Update(ctx, userID, func(u *models.UserState) (bool, error) {
		if u.Timezone == canonical {
			return false, nil
		}
		u.Timezone = canonical
		return true, nil
	})
	if err != nil {
		return "", err
	}
	s.log.Info(ctx, "timezone set", "user", userID, "timezone", canonical)
	return canonical, nil
}

// Get returns the user's location, or the default when unset.
func (s *TimezoneService) Get(ctx context.Context, userID string) *time.Location {
	var name string
	_ = s.store.View(ctx, userID, func(u *models.UserState) error {
		name = u.Timezone
		return nil
	})
	return s.LocationOf(name)
}

func (s *TimezoneService) Default() *time.Location {
	return s.def
}

// LocationOf resolves a stored timezone name, falling back to the default
// for empty or unresolvable names.
func (s *TimezoneService) LocationOf(name string) *time.Location {
	if name == "" {
		return s.def
	}
	if loc, ok := s.cache.Load(name); ok {
		return loc.(*time.Location)
	}
	loc, _, err := tz.Resolve(name)
	if err != nil {
		return s.def
	}
	s.cache.Store(name, loc)
	return loc
}
