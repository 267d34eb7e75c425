package calendar

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/pkg/errors"
)

const (
	ICSContentType = "text/calendar; charset=utf-8"
	ICSFilename    = "calendar.ics"

	uidDomain = "@masomo"
)

// ExportICS renders events as an iCalendar document with one VEVENT per event.
// Event clocks are read in loc and written in UTC.
func ExportICS(events []Event, loc *time.Location, prodID string, stamp time.Time) (string, error) {
	if loc == nil {
		loc = time.UTC
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	if prodID != "" {
		cal.SetProductId(prodID)
	}

	for _, ev := range events {
		start, end, err := ev.Window(loc)
		if err != nil {
			return "", errors.Wrapf(err, "exporting event %s", ev.ID)
		}

		vevent := cal.AddEvent(ev.ID + uidDomain)
		vevent.SetDtStampTime(stamp.UTC())
		vevent.SetStartAt(start)
		vevent.SetEndAt(end)
		vevent.SetSummary(ev.Title)
		if desc := describe(ev); desc != "" {
			vevent.SetDescription(desc)
		}
		if ev.Location != "" {
			vevent.SetLocation(ev.Location)
		}
		vevent.AddProperty(ics.ComponentPropertyCategories, categories(ev))
	}

	return cal.Serialize(), nil
}

func describe(ev Event) string {
	lines := make([]string, 0, 3)
	if ev.Description != "" {
		lines = append(lines, ev.Description)
	}
	if ev.Subject != "" {
		lines = append(lines, "Subject: "+ev.Subject)
	}
	if ev.Instructor != "" {
		lines = append(lines, "Instructor: "+ev.Instructor)
	}
	return strings.Join(lines, "\n")
}

// categories lists the event type followed by its tags. CATEGORIES is comma separated.
func categories(ev Event) string {
	cats := make([]string, 0, len(ev.Tags)+1)
	cats = append(cats, strings.ToUpper(string(ev.Type)))
	for _, tag := range ev.Tags {
		if tag = strings.TrimSpace(strings.ReplaceAll(tag, ",", " ")); tag != "" {
			cats = append(cats, tag)
		}
	}
	return strings.Join(cats, ",")
}
