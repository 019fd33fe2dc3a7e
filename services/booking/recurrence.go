package booking

import (
	"time"

	"walkly/models"
)

const dateLayout = "2006-01-02"

// maxOccurrences caps rule expansion so a malformed rule cannot fan out into
// an unbounded batch.
const maxOccurrences = 366

// ValidateRule rejects malformed recurrence rules with a field-level reason.
func ValidateRule(rule models.RecurrenceRule, now time.Time) error {
	switch rule.Frequency {
	case models.FrequencyDaily, models.FrequencyWeekly:
	default:
		return NewValidationError("rule.frequency", "must be \"daily\" or \"weekly\"")
	}

	if rule.DurationMin <= 0 {
		return NewValidationError("rule.durationMin", "must be a positive number of minutes")
	}
	if rule.TimeOfDay < 0 || rule.TimeOfDay >= 24*60 {
		return NewValidationError("rule.timeOfDayMin", "must be within a single day")
	}

	start, err := time.ParseInLocation(dateLayout, rule.StartDate, time.Local)
	if err != nil {
		return NewValidationError("rule.startDate", "must be formatted as YYYY-MM-DD")
	}
	firstStart := start.Add(time.Duration(rule.TimeOfDay) * time.Minute)
	if firstStart.Before(now) {
		return NewValidationError("rule.startDate", "series cannot start in the past")
	}

	hasCount := rule.Count > 0
	hasUntil := rule.Until != ""
	if hasCount == hasUntil {
		return NewValidationError("rule.count", "exactly one of count or until must terminate the series")
	}
	if hasCount && rule.Count > maxOccurrences {
		return NewValidationError("rule.count", "series is too long")
	}
	if hasUntil {
		until, err := time.ParseInLocation(dateLayout, rule.Until, time.Local)
		if err != nil {
			return NewValidationError("rule.until", "must be formatted as YYYY-MM-DD")
		}
		if until.Before(start) {
			return NewValidationError("rule.until", "end date is before the start date")
		}
	}

	return nil
}

// ExpandRule materializes a validated rule into concrete occurrence windows,
// chronologically ordered.
func ExpandRule(rule models.RecurrenceRule) []models.Occurrence {
	start, _ := time.ParseInLocation(dateLayout, rule.StartDate, time.Local)

	var until time.Time
	if rule.Until != "" {
		u, _ := time.ParseInLocation(dateLayout, rule.Until, time.Local)
		until = u
	}

	day := start
	if rule.Frequency == models.FrequencyWeekly {
		for day.Weekday() != rule.Weekday {
			day = day.AddDate(0, 0, 1)
		}
	}

	exempt := make(map[string]bool, len(rule.ExemptDays))
	for _, d := range rule.ExemptDays {
		exempt[d] = true
	}

	duration := time.Duration(rule.DurationMin) * time.Minute
	offset := time.Duration(rule.TimeOfDay) * time.Minute

	var occs []models.Occurrence
	for len(occs) < maxOccurrences {
		if rule.Until != "" && day.After(until) {
			break
		}
		if rule.Count > 0 && len(occs) >= rule.Count {
			break
		}

		skip := rule.Frequency == models.FrequencyDaily && exempt[day.Weekday().String()]
		if !skip {
			occStart := day.Add(offset)
			occs = append(occs, models.Occurrence{Start: occStart, End: occStart.Add(duration)})
		}

		if rule.Frequency == models.FrequencyWeekly {
			day = day.AddDate(0, 0, 7)
		} else {
			day = day.AddDate(0, 0, 1)
		}
	}
	return occs
}
