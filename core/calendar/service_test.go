package calendar_test

import (
	"context"
	"encoding/base64"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-calendar/core"
	"github.com/trezcool/masomo-calendar/core/calendar"
	emailsvc "github.com/trezcool/masomo-calendar/services/email"
	inmemdb "github.com/trezcool/masomo-calendar/storage/database/inmem"
	"github.com/trezcool/masomo-calendar/tests"
)

func newService(t *testing.T, opts ...func(conf *core.Config)) *calendar.Service {
	t.Helper()
	conf := core.NewTestConfig()
	for _, opt := range opts {
		opt(conf)
	}
	core.ParseEmailTemplates(conf, testutil.NopLogger{})

	svc := calendar.NewService(inmemdb.NewEventRepository(inmemdb.NewDB()), emailsvc.NewConsoleServiceMock(conf, testutil.NopLogger{}), testutil.NopLogger{}, conf)
	svc.SetNowFunc(func() time.Time { return testutil.Now })
	return svc
}

func TestService_Month(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	testutil.CreateEvent(t, svc, "Algebra", calendar.TypeClass, "2025-06-18", "10:00", "11:00")
	testutil.CreateEvent(t, svc, "Mid-term", calendar.TypeExam, "2025-06-19", "08:00", "11:00")
	testutil.CreateEvent(t, svc, "Trip", calendar.TypeEvent, "2025-07-03", "08:00", "16:00")
	testutil.CreateEvent(t, svc, "Out of grid", calendar.TypeEvent, "2025-07-06", "08:00", "16:00")

	m, err := svc.Month(ctx, 2025, time.June, nil)
	require.NoError(t, err)
	require.Len(t, m.Days, 35)

	var count int
	for _, d := range m.Days {
		count += len(d.Events)
		if d.Date == "2025-06-18" {
			assert.True(t, d.IsToday)
			require.Len(t, d.Events, 1)
			assert.Equal(t, calendar.StatusOngoing, d.Events[0].Status)
		}
	}
	assert.Equal(t, 3, count) // trailing cells included

	m, err = svc.Month(ctx, 2025, time.June, &calendar.QueryFilter{Types: []calendar.EventType{calendar.TypeExam}})
	require.NoError(t, err)
	count = 0
	for _, d := range m.Days {
		for _, ev := range d.Events {
			assert.Equal(t, calendar.TypeExam, ev.Type)
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestService_Week(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	testutil.CreateEvent(t, svc, "Sunday", calendar.TypeEvent, "2025-06-15", "10:00", "11:00")
	testutil.CreateEvent(t, svc, "Saturday", calendar.TypeEvent, "2025-06-21", "10:00", "11:00")
	testutil.CreateEvent(t, svc, "Next week", calendar.TypeEvent, "2025-06-22", "10:00", "11:00")

	w, err := svc.Week(ctx, "2025-06-18", &calendar.QueryFilter{Search: "day"})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-15", w.Start)
	assert.Equal(t, "2025-06-21", w.End)
	assert.Len(t, w.Days[0].Events, 1)
	assert.Len(t, w.Days[6].Events, 1)

	_, err = svc.Week(ctx, "june 18", nil)
	require.Error(t, err)
	verr, ok := err.(*core.ValidationError)
	require.True(t, ok)
	assert.Equal(t, "date", verr.Fields[0].Field)
}

func TestService_Today(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	testutil.CreateEvent(t, svc, "Done", calendar.TypeClass, "2025-06-18", "08:00", "09:00")
	testutil.CreateEvent(t, svc, "Now", calendar.TypeClass, "2025-06-18", "10:00", "11:00")
	testutil.CreateEvent(t, svc, "Later", calendar.TypeClass, "2025-06-18", "14:00", "15:00")
	testutil.CreateEvent(t, svc, "Tomorrow", calendar.TypeClass, "2025-06-19", "10:00", "11:00")

	today, err := svc.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-18", today.Date)
	assert.Equal(t, "Wednesday, June 18, 2025", today.Label)
	require.Len(t, today.Events, 3)
	assert.Equal(t, calendar.StatusCompleted, today.Events[0].Status)
	assert.Equal(t, calendar.StatusOngoing, today.Events[1].Status)
	assert.Equal(t, calendar.StatusUpcoming, today.Events[2].Status)
}

func TestService_UpdateDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	validate, _ := testutil.NewValidator()

	ev := testutil.CreateEvent(t, svc, "Algebra", calendar.TypeClass, "2025-06-20", "10:00", "11:00")

	ue := calendar.UpdateEvent{Title: "Geometry"}
	require.NoError(t, ue.Validate(ev, validate))
	assert.True(t, testutil.Now.Equal(ev.CreatedAt))

	later := testutil.Now.Add(time.Hour)
	svc.SetNowFunc(func() time.Time { return later })
	updated, err := svc.Update(ctx, ev.ID, ue)
	require.NoError(t, err)
	assert.Equal(t, "Geometry", updated.Title)
	assert.Equal(t, ev.Date, updated.Date)
	assert.Equal(t, ev.CreatedAt, updated.CreatedAt)
	assert.True(t, later.Equal(updated.UpdatedAt))

	_, err = svc.Update(ctx, "missing", ue)
	assert.Equal(t, calendar.ErrNotFound, err)

	require.NoError(t, svc.Delete(ctx, ev.ID))
	_, err = svc.GetByID(ctx, ev.ID)
	assert.Equal(t, calendar.ErrNotFound, err)
	assert.Equal(t, calendar.ErrNotFound, svc.Delete(ctx, ev.ID))
}

func TestService_UpdateKeepsStoredStatus(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	validate, _ := testutil.NewValidator()

	created := testutil.CreateEvent(t, svc, "Assembly", calendar.TypeEvent, "2025-06-18", "08:00", "09:00")
	ev, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, calendar.StatusCompleted, ev.Status)

	ue := calendar.UpdateEvent{Date: "2025-06-19"}
	require.NoError(t, ue.Validate(ev, validate))
	updated, err := svc.Update(ctx, ev.ID, ue)
	require.NoError(t, err)
	assert.Equal(t, calendar.StatusUpcoming, updated.Status)

	ev, err = svc.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, calendar.StatusUpcoming, ev.Status)

	// an explicit status is stored as given
	ue = calendar.UpdateEvent{Status: calendar.StatusCompleted}
	require.NoError(t, ue.Validate(ev, validate))
	updated, err = svc.Update(ctx, ev.ID, ue)
	require.NoError(t, err)
	assert.Equal(t, calendar.StatusCompleted, updated.Status)
}

func TestService_TodayFollowsWrites(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	validate, _ := testutil.NewValidator()

	now := time.Date(2025, time.June, 18, 9, 30, 0, 0, time.UTC)
	svc.SetNowFunc(func() time.Time { return now })

	ev := testutil.CreateEvent(t, svc, "Algebra", calendar.TypeClass, "2025-06-18", "09:00", "10:00")
	_, err := svc.Tracker().Refresh(ctx)
	require.NoError(t, err)
	today, err := svc.Today(ctx)
	require.NoError(t, err)
	require.Len(t, today.Events, 1)
	assert.Equal(t, calendar.StatusOngoing, today.Events[0].Status)

	ev, err = svc.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	ue := calendar.UpdateEvent{StartTime: "14:00", EndTime: "15:00", Status: calendar.StatusUpcoming}
	require.NoError(t, ue.Validate(ev, validate))
	_, err = svc.Update(ctx, ev.ID, ue)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = svc.Tracker().Refresh(ctx)
	require.NoError(t, err)
	today, err = svc.Today(ctx)
	require.NoError(t, err)
	require.Len(t, today.Events, 1)
	ev, err = svc.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, calendar.StatusUpcoming, ev.Status)
	assert.Equal(t, ev.Status, today.Events[0].Status)

	// writes show up without waiting for the next tick
	testutil.CreateEvent(t, svc, "Debate", calendar.TypeEvent, "2025-06-18", "16:00", "17:00")
	today, err = svc.Today(ctx)
	require.NoError(t, err)
	assert.Len(t, today.Events, 2)

	require.NoError(t, svc.Delete(ctx, ev.ID))
	today, err = svc.Today(ctx)
	require.NoError(t, err)
	require.Len(t, today.Events, 1)
	assert.Equal(t, "Debate", today.Events[0].Title)
}

func TestService_TodayInLocation(t *testing.T) {
	eat := time.FixedZone("EAT", 3*60*60)
	svc := newService(t, func(conf *core.Config) {
		conf.Calendar.TimeZone = "Africa/Nairobi"
		conf.Calendar.Location = eat
	})
	ctx := context.Background()

	// still the 18th in UTC, already the 19th in Nairobi
	svc.SetNowFunc(func() time.Time { return time.Date(2025, time.June, 18, 22, 30, 0, 0, time.UTC) })

	ev := testutil.CreateEvent(t, svc, "Night watch", calendar.TypeEvent, "2025-06-19", "01:00", "02:00")
	testutil.CreateEvent(t, svc, "Yesterday", calendar.TypeEvent, "2025-06-18", "23:00", "23:59")

	today, err := svc.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-19", today.Date)
	require.Len(t, today.Events, 1)
	assert.Equal(t, ev.ID, today.Events[0].ID)
	assert.Equal(t, calendar.StatusOngoing, today.Events[0].Status)

	got, err := svc.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, calendar.StatusOngoing, got.Status)

	m, err := svc.Month(ctx, 2025, time.June, nil)
	require.NoError(t, err)
	for _, d := range m.Days {
		assert.Equal(t, d.Date == "2025-06-19", d.IsToday, d.Date)
	}
}

func TestService_Exports(t *testing.T) {
	emailsvc.ClearSentMessages()
	svc := newService(t)
	ctx := context.Background()

	testutil.CreateEvent(t, svc, "Algebra", calendar.TypeClass, "2025-06-18", "10:00", "11:00")
	testutil.CreateEvent(t, svc, "Mid-term", calendar.TypeExam, "2025-06-19", "08:00", "11:00")

	ics, err := svc.ExportICS(ctx, &calendar.QueryFilter{Types: []calendar.EventType{calendar.TypeExam}})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(ics, "BEGIN:VEVENT"))
	assert.Contains(t, ics, "SUMMARY:Mid-term")

	filter := &calendar.QueryFilter{DateFrom: "2025-06-01", DateTo: "2025-06-30"}
	n, err := svc.EmailExport(ctx, filter, mail.Address{Name: "Amani", Address: "amani@test.test"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sent := emailsvc.SentMessages()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, "amani@test.test", msg.To[0].Address)
	assert.Contains(t, msg.TextContent, "Hi Amani,")
	assert.Contains(t, msg.TextContent, "(2 events) for Sunday, June 1, 2025 to Monday, June 30, 2025.")
	assert.Contains(t, msg.HTMLContent, "<strong>2</strong>")
	require.Len(t, msg.Attachments, 1)

	content, err := base64.StdEncoding.DecodeString(msg.Attachments[0].Content.String())
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(content), "BEGIN:VEVENT"))
}
