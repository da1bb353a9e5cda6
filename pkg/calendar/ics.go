package calendar

import (
	"bytes"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// Event is a single entry rendered into an iCalendar document
type Event struct {
	ID          string
	Title       string
	Description string
	StartAt     time.Time
	EndAt       *time.Time
	CreatedAt   time.Time
}

// DefaultDuration is used when an event has no end time
const DefaultDuration = time.Hour

// Export serialises events into an iCalendar (.ics) document named after the club.
// Events without an end time last DefaultDuration.
func Export(calendarName string, events []Event) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//club-api//schedules//EN")
	cal.SetVersion("2.0")
	cal.SetCalscale("GREGORIAN")
	if calendarName != "" {
		cal.SetXWRCalName(calendarName)
	}

	now := time.Now().UTC()
	for _, event := range events {
		e := cal.AddEvent(fmt.Sprintf("%s@club-api", event.ID))
		e.SetDtStampTime(now)
		if !event.CreatedAt.IsZero() {
			e.SetCreatedTime(event.CreatedAt)
		}

		e.SetStartAt(event.StartAt)
		if event.EndAt != nil && !event.EndAt.IsZero() {
			e.SetEndAt(*event.EndAt)
		} else {
			e.SetEndAt(event.StartAt.Add(DefaultDuration))
		}

		e.SetSummary(event.Title)
		if event.Description != "" {
			e.SetDescription(event.Description)
		}
		e.SetStatus(ics.ObjectStatusConfirmed)
		e.SetClass(ics.ClassificationPublic)
	}

	var buf bytes.Buffer
	if err := cal.SerializeTo(&buf); err != nil {
		return nil, fmt.Errorf("error serializing calendar: %w", err)
	}
	return buf.Bytes(), nil
}
