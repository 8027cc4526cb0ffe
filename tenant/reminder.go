package tenant

import (
	"math"
	"sort"
	"time"
)

// Severity classifies how close an agreement is to its end date.
type Severity string

const (
	SeverityUpcoming Severity = "upcoming"
	SeverityUrgent   Severity = "urgent"
	SeverityExpired  Severity = "expired"
)

// Default reminder thresholds, in days.
const (
	DefaultWindowDays = 30
	DefaultUrgentDays = 7
)

// Reminder reports a tenant whose agreement ends soon or has ended.
type Reminder struct {
	Tenant        *Tenant   `json:"tenant"`
	EndDate       time.Time `json:"end_date"`
	DaysRemaining int       `json:"days_remaining"`
	Severity      Severity  `json:"severity"`
}

// ReminderOpts tunes Reminders. Zero thresholds fall back to the defaults.
type ReminderOpts struct {
	WindowDays int
	UrgentDays int
	// Dismissed holds tenant IDs (string form) the caller has hidden.
	Dismissed map[string]bool
}

// Reminders returns a reminder for every tenant whose agreement ends
// within the window or has already ended, soonest first.
func Reminders(tenants []*Tenant, now time.Time, opts ReminderOpts) []Reminder {
	window := opts.WindowDays
	if window <= 0 {
		window = DefaultWindowDays
	}
	urgent := opts.UrgentDays
	if urgent <= 0 {
		urgent = DefaultUrgentDays
	}

	var out []Reminder
	for _, t := range tenants {
		if t == nil || opts.Dismissed[t.ID.String()] {
			continue
		}
		end, ok := t.AgreementEndDate()
		if !ok {
			continue
		}

		days := DaysUntil(now, end)
		if days > window {
			continue
		}

		sev := SeverityUpcoming
		switch {
		case days <= 0:
			sev = SeverityExpired
		case days <= urgent:
			sev = SeverityUrgent
		}

		out = append(out, Reminder{
			Tenant:        t,
			EndDate:       end,
			DaysRemaining: days,
			Severity:      sev,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysRemaining < out[j].DaysRemaining
	})
	return out
}

// DaysUntil returns the number of days from now to end, rounded up.
func DaysUntil(now, end time.Time) int {
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}
