package clock

import (
	"fmt"
	"sync"
	"time"
	// zone data is embedded so LoadZone works on images without /usr/share/zoneinfo
	_ "time/tzdata"
)

// DefaultZone is the civil time zone reminders are interpreted in when none is configured
const DefaultZone = "Asia/Kolkata"

// FormLayout is the layout of an HTML datetime-local input
const FormLayout = "2006-01-02T15:04"

// Zone is the single civil time zone the system reasons in.
//
// A civil timestamp is a time.Time whose wall clock reads the local time in
// the zone and whose location is UTC. Stored due times and "now" are both
// civil, so they compare directly regardless of the host's time zone.
type Zone struct {
	loc *time.Location
}

// LoadZone loads a zone by IANA name
func LoadZone(name string) (Zone, error) {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Zone{}, fmt.Errorf("invalid time zone %q: %w", name, err)
	}
	return Zone{loc: loc}, nil
}

// NewZone wraps an already loaded location
func NewZone(loc *time.Location) Zone {
	return Zone{loc: loc}
}

// Location returns the underlying location, UTC for the zero Zone
func (z Zone) Location() *time.Location {
	if z.loc == nil {
		return time.UTC
	}
	return z.loc
}

// Name returns the IANA name of the zone
func (z Zone) Name() string {
	return z.Location().String()
}

// Civil converts an instant into a civil timestamp in the zone.
// Precision is truncated to microseconds to match what Postgres stores.
func (z Zone) Civil(t time.Time) time.Time {
	local := t.In(z.Location())
	y, mo, d := local.Date()
	h, mi, s := local.Clock()
	civil := time.Date(y, mo, d, h, mi, s, local.Nanosecond(), time.UTC)
	return civil.Truncate(time.Microsecond)
}

// Instant converts a civil timestamp back to the real instant in the zone
func (z Zone) Instant(civil time.Time) time.Time {
	y, mo, d := civil.Date()
	h, mi, s := civil.Clock()
	return time.Date(y, mo, d, h, mi, s, civil.Nanosecond(), z.Location())
}

// ParseLocal parses a naive wall clock value (no offset) as civil time in the zone
func (z Zone) ParseLocal(layout, value string) (time.Time, error) {
	t, err := time.ParseInLocation(layout, value, z.Location())
	if err != nil {
		return time.Time{}, err
	}
	return z.Civil(t), nil
}

// Format renders a civil timestamp with the zone abbreviation appended
func (z Zone) Format(civil time.Time, layout string) string {
	inst := z.Instant(civil)
	abbr, _ := inst.Zone()
	return fmt.Sprintf("%s (%s)", inst.Format(layout), abbr)
}

// Clock supplies the current civil time
type Clock interface {
	Now() time.Time
}

// SystemClock reads the process clock and converts it into the zone
type SystemClock struct {
	Zone Zone
}

// NewSystemClock creates a clock for the given zone
func NewSystemClock(zone Zone) *SystemClock {
	return &SystemClock{Zone: zone}
}

// Now implements Clock
func (c *SystemClock) Now() time.Time {
	return c.Zone.Civil(time.Now())
}

// Fixed is a settable clock for tests
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed creates a clock frozen at the given civil time
func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

// Now implements Clock
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set moves the clock to t
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// Advance moves the clock forward by d
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
