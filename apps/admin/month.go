package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/trezcool/masomo-calendar/core/calendar"
)

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// printMonth prints the month grid, one week per line, followed by the month's agenda.
// Days holding events are suffixed with `*`, today is wrapped in brackets.
func (cli *commandLine) printMonth(year int, month time.Month) error {
	m, err := cli.svc.Month(context.Background(), year, month, nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "%s %d\n", month, year)
	fmt.Fprintln(cli.out, strings.Join(weekdays, "  "))

	var agenda []calendar.Day
	for i, d := range m.Days {
		cell := fmt.Sprintf("%2d", d.Day)
		switch {
		case d.Kind != calendar.KindCurrent:
			cell = "  "
		case d.IsToday:
			cell = "[" + strings.TrimSpace(cell) + "]"
		}
		if d.Kind == calendar.KindCurrent && len(d.Events) > 0 {
			cell += "*"
			agenda = append(agenda, d)
		}
		fmt.Fprintf(cli.out, "%-5s", cell)
		if i%7 == 6 {
			fmt.Fprintln(cli.out)
		}
	}

	for _, d := range agenda {
		fmt.Fprintf(cli.out, "\n%s\n", d.Label)
		for _, ev := range d.Events {
			fmt.Fprintf(cli.out, "  %s-%s  %-10s %s\n", ev.StartTime, ev.EndTime, ev.Type, ev.Title)
		}
	}
	return nil
}
