// Package timezone maps a venue city's IANA zone name to a *time.Location.
package timezone

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // resolution must not depend on the host's zoneinfo
)

// ErrUnknownZone is returned when a zone name is empty or not present in the
// tz database.
var ErrUnknownZone = errors.New("unknown timezone")

// DefaultZone is assigned to new cities when the editor leaves it blank.
const DefaultZone = "Europe/Moscow"

// Resolver caches loaded locations. Failed lookups are cached too, so a city
// with a misspelled zone costs one tz database lookup per process.
type Resolver struct {
	cache sync.Map // name -> entry
}

type entry struct {
	loc *time.Location
	err error
}

// NewResolver returns an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the location for name.
func (r *Resolver) Resolve(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownZone)
	}
	if v, ok := r.cache.Load(name); ok {
		e := v.(entry)
		return e.loc, e.err
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		err = fmt.Errorf("%w: %q", ErrUnknownZone, name)
		loc = nil
	}
	// "Local" resolves to the host zone, which is never what a venue means.
	if err == nil && name == "Local" {
		loc, err = nil, fmt.Errorf("%w: %q", ErrUnknownZone, name)
	}
	r.cache.Store(name, entry{loc: loc, err: err})
	return loc, err
}

// Validate reports whether name resolves. Used by the admin API before a
// city is saved.
func (r *Resolver) Validate(name string) error {
	_, err := r.Resolve(name)
	return err
}
