// Package availability produces the bookable calendar offered during the
// appointment flow.
package availability

import (
	"sync"
	"time"
)

// horizonDays is the calendar window generated after "today".
const horizonDays = 14

// slotTimes is the fixed set of bookable times for every open day.
var slotTimes = []string{"10:00", "12:00", "15:00", "17:00"}

// Slot is one bookable calendar date with its bookable times.
type Slot struct {
	Date  time.Time `json:"date"`
	Times []string  `json:"times"`
}

// Generate returns the bookable days now+1 .. now+14, excluding Sundays, each
// carrying the fixed slot times. Pure given now: dates are strictly
// increasing and truncated to midnight in now's location.
func Generate(now time.Time) []Slot {
	slots := make([]Slot, 0, horizonDays)
	for d := 1; d <= horizonDays; d++ {
		day := now.AddDate(0, 0, d)
		if day.Weekday() == time.Sunday {
			continue
		}
		date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, now.Location())
		slots = append(slots, Slot{Date: date, Times: append([]string(nil), slotTimes...)})
	}
	return slots
}

// Provider supplies the current bookable calendar.
type Provider interface {
	Current() []Slot
}

// CachedProvider caches the generated calendar and rebuilds it when the
// calendar day changes. Generating once per day instead of once per process
// keeps long-running bots from offering stale dates.
type CachedProvider struct {
	nowFn func() time.Time

	mu    sync.Mutex
	day   string
	slots []Slot
}

// NewCachedProvider creates a provider using time.Now when nowFn is nil.
func NewCachedProvider(nowFn func() time.Time) *CachedProvider {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &CachedProvider{nowFn: nowFn}
}

// Current returns the calendar for today, regenerating at most once per day.
func (p *CachedProvider) Current() []Slot {
	now := p.nowFn()
	day := now.Format("2006-01-02")

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.day != day {
		p.slots = Generate(now)
		p.day = day
	}
	out := make([]Slot, len(p.slots))
	copy(out, p.slots)
	return out
}
