package calendar

import "time"

type CellKind string

// Grid cell kinds
const (
	KindPrevious CellKind = "previous"
	KindCurrent  CellKind = "current"
	KindNext     CellKind = "next"
)

// Day is a single calendar grid cell.
type Day struct {
	Date    string   `json:"date"` // YYYY-MM-DD
	Day     int      `json:"day"`
	Kind    CellKind `json:"kind"`
	IsToday bool     `json:"is_today"`
	Label   string   `json:"label"`
	Events  []Event  `json:"events"`
}

type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Days  []Day      `json:"days"`
}

type Week struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  []Day  `json:"days"`
}

func newDay(t time.Time, kind CellKind) Day {
	date := ISODate(t)
	return Day{Date: date, Day: t.Day(), Kind: kind, Label: FormatDate(date)}
}

// MonthDays returns the grid cells of ref's month. Weeks start on Sunday: the final days of
// the previous month lead the grid and the first days of the next month trail it,
// so the number of cells is always a multiple of 7.
func MonthDays(ref time.Time) []Day {
	year, month, _ := ref.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, ref.Location())
	daysInMonth := first.AddDate(0, 1, -1).Day()

	leading := int(first.Weekday())
	trailing := (7 - (leading+daysInMonth)%7) % 7

	days := make([]Day, 0, leading+daysInMonth+trailing)
	for i := leading; i > 0; i-- {
		days = append(days, newDay(first.AddDate(0, 0, -i), KindPrevious))
	}
	for i := 0; i < daysInMonth; i++ {
		days = append(days, newDay(first.AddDate(0, 0, i), KindCurrent))
	}
	next := first.AddDate(0, 1, 0)
	for i := 0; i < trailing; i++ {
		days = append(days, newDay(next.AddDate(0, 0, i), KindNext))
	}
	return days
}

// WeekDates returns the seven consecutive dates (at midnight) of anchor's week, starting on Sunday.
func WeekDates(anchor time.Time) [7]time.Time {
	sunday := midnight(anchor).AddDate(0, 0, -int(anchor.Weekday()))

	var dates [7]time.Time
	for i := range dates {
		dates[i] = sunday.AddDate(0, 0, i)
	}
	return dates
}

// IndexByDate groups events by their ISO date, keeping their order.
func IndexByDate(events []Event) map[string][]Event {
	index := make(map[string][]Event)
	for _, ev := range events {
		index[ev.Date] = append(index[ev.Date], ev)
	}
	return index
}

func fill(days []Day, events []Event, now time.Time) {
	today := ISODate(now)
	index := IndexByDate(events)
	for i := range days {
		days[i].IsToday = days[i].Date == today
		days[i].Events = index[days[i].Date]
		if days[i].Events == nil {
			days[i].Events = []Event{}
		}
	}
}

// BuildMonth aggregates events into the month grid of ref.
// now is expected in the same location as ref.
func BuildMonth(ref, now time.Time, events []Event) Month {
	days := MonthDays(ref)
	fill(days, events, now)
	return Month{Year: ref.Year(), Month: ref.Month(), Days: days}
}

// BuildWeek aggregates events into the week of anchor.
// Cells outside of anchor's month are marked as previous or next.
func BuildWeek(anchor, now time.Time, events []Event) Week {
	dates := WeekDates(anchor)
	days := make([]Day, 0, len(dates))
	for _, d := range dates {
		kind := KindCurrent
		if d.Year() < anchor.Year() || (d.Year() == anchor.Year() && d.Month() < anchor.Month()) {
			kind = KindPrevious
		} else if d.Year() > anchor.Year() || (d.Year() == anchor.Year() && d.Month() > anchor.Month()) {
			kind = KindNext
		}
		days = append(days, newDay(d, kind))
	}
	fill(days, events, now)
	return Week{Start: days[0].Date, End: days[len(days)-1].Date, Days: days}
}
