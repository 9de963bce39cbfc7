package weather

import (
	"fmt"
	"time"
)

// tonightWindow is how long before sunset "Today" becomes "Tonight".
const tonightWindow = 2 * time.Hour

// Clock converts between the configured location's time zone (remote) and
// the process time zone (local).
type Clock struct {
	Remote *time.Location
	Local  *time.Location
	Now    func() time.Time
}

// NewClock returns a clock for the IANA zone tz. An empty tz means the
// configured location shares the process time zone.
func NewClock(tz string) (*Clock, error) {
	remote := time.Local
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid time zone %q: %w", tz, err)
		}
		remote = loc
	}
	return &Clock{Remote: remote, Local: time.Local, Now: time.Now}, nil
}

// ToLocal converts an instant to the process time zone.
func (c *Clock) ToLocal(t time.Time) time.Time {
	return t.In(c.Local)
}

// ToRemote converts an instant to the configured location's time zone.
func (c *Clock) ToRemote(t time.Time) time.Time {
	return t.In(c.Remote)
}

// RemoteNow is the current time at the configured location.
func (c *Clock) RemoteNow() time.Time {
	return c.ToRemote(c.Now())
}

// Today is the current calendar date at the configured location, as
// midnight in the remote zone.
func (c *Clock) Today() time.Time {
	return DateOf(c.RemoteNow())
}

// DayLabel names a forecast day relative to today at the remote location:
// "Today" ("Tonight" from two hours before sunset on), "Tomorrow", or the
// weekday name.
func (c *Clock) DayLabel(date time.Time, sunset *time.Time) string {
	today := c.Today()
	day := DateOf(c.ToRemote(date))

	switch {
	case sameDate(day, today):
		if sunset != nil && !c.Now().Before(sunset.Add(-tonightWindow)) {
			return "Tonight"
		}
		return "Today"
	case sameDate(day, today.AddDate(0, 0, 1)):
		return "Tomorrow"
	default:
		return day.Weekday().String()
	}
}

// DateOf truncates t to midnight in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
