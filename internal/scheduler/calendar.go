package scheduler

import (
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Dev-ALPM/imixs-workflow/internal/apperrors"
)

// calendarParser accepts the 5/6-field cron dialect robfig/cron understands,
// with seconds optional, matching the calendar expression's per-field grain
// (second, minute, hour, dayOfWeek, dayOfMonth, month).
var calendarParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseCalendarExpression parses a newline-separated key=value calendar
// expression into a cron.Schedule. Unknown keys are ignored; "year",
// "start" and "end" have no cron equivalent and are applied as a
// wrapping bound on top of the parsed schedule.
func ParseCalendarExpression(text string) (cron.Schedule, error) {
	fields := map[string]string{
		"second":     "0",
		"minute":     "*",
		"hour":       "*",
		"dayOfMonth": "*",
		"month":      "*",
		"dayOfWeek":  "*",
	}
	var year, start, end, timezone string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		switch k {
		case "second", "minute", "hour", "dayOfMonth", "month", "dayOfWeek":
			fields[k] = v
		case "year":
			year = v
		case "start":
			start = v
		case "end":
			end = v
		case "timezone":
			timezone = v
		default:
			// unknown keys are ignored.
		}
	}

	spec := strings.Join([]string{
		fields["second"], fields["minute"], fields["hour"],
		fields["dayOfMonth"], fields["month"], fields["dayOfWeek"],
	}, " ")
	if timezone != "" {
		spec = "CRON_TZ=" + timezone + " " + spec
	}

	sched, err := calendarParser.Parse(spec)
	if err != nil {
		return nil, apperrors.SchedulerError("scheduler", "INVALID_CALENDAR_EXPRESSION", "parsing calendar expression", err)
	}

	if year == "" && start == "" && end == "" {
		return sched, nil
	}

	bounded := &boundedSchedule{Schedule: sched}
	if year != "" {
		y, err := strconv.Atoi(year)
		if err != nil {
			return nil, apperrors.SchedulerError("scheduler", "INVALID_CALENDAR_EXPRESSION", "year must be numeric", err)
		}
		bounded.year = &y
	}
	if start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return nil, apperrors.SchedulerError("scheduler", "INVALID_CALENDAR_EXPRESSION", "start must be RFC3339", err)
		}
		bounded.start = &t
	}
	if end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return nil, apperrors.SchedulerError("scheduler", "INVALID_CALENDAR_EXPRESSION", "end must be RFC3339", err)
		}
		bounded.end = &t
	}
	return bounded, nil
}

// boundedSchedule wraps a cron.Schedule and additionally restricts firings
// to a given year and/or [start,end) window, fields the cron grammar itself
// has no room for.
type boundedSchedule struct {
	cron.Schedule
	year       *int
	start, end *time.Time
}

// Next returns the zero time once no future firing can satisfy the bounds,
// which cron.Cron treats as "never fires again".
func (b *boundedSchedule) Next(t time.Time) time.Time {
	for {
		next := b.Schedule.Next(t)
		if next.IsZero() {
			return next
		}
		if b.end != nil && !next.Before(*b.end) {
			return time.Time{}
		}
		if b.start != nil && next.Before(*b.start) {
			t = *b.start
			continue
		}
		if b.year != nil && next.Year() != *b.year {
			if next.Year() > *b.year {
				return time.Time{}
			}
			t = next
			continue
		}
		return next
	}
}
