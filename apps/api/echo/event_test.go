package echoapi_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-calendar/core/calendar"
)

func seedEvents(t *testing.T, app testApp) (algebra, final, pta calendar.Event) {
	algebra = app.createEvent(t, calendar.NewEvent{
		Title: "Algebra", Type: calendar.TypeClass, Subject: "Mathematics", Instructor: "Mr. Kabila",
		Tags: []string{"core"}, Date: "2025-06-20", StartTime: "09:00", EndTime: "10:00",
	})
	final = app.createEvent(t, calendar.NewEvent{
		Title: "Physics Final", Type: calendar.TypeExam, Subject: "Physics", Location: "Hall A",
		Tags: []string{"term 2"}, Date: "2025-06-25", StartTime: "08:00", EndTime: "11:00",
	})
	pta = app.createEvent(t, calendar.NewEvent{
		Title: "PTA Meeting", Type: calendar.TypeMeeting, Instructor: "Principal",
		Date: "2025-06-10", StartTime: "14:00", EndTime: "15:00",
	})
	return
}

func Test_eventApi_query(t *testing.T) {
	app := setup(t)
	algebra, final, pta := seedEvents(t, app)

	path := func(search, ordering, from, to string, types ...calendar.EventType) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if from != "" {
			v.Add("date_from", from)
		}
		if to != "" {
			v.Add("date_to", to)
		}
		for _, typ := range types {
			v.Add("type", string(typ))
		}
		return "/v1/events?" + v.Encode()
	}

	token := app.studentToken(t)
	empty := marchallList(t)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/events", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Get all", path: "/v1/events", token: token, wantData: marchallList(t, pta, algebra, final)},
		{name: "ordering=-date", path: path("", "-date", "", ""), token: token, wantData: marchallList(t, final, algebra, pta)},
		// filtering
		{name: "search (unknown)", path: path("lol", "", "", ""), token: token, wantData: empty},
		{name: "search=MATH (subject)", path: path("MATH", "", "", ""), token: token, wantData: marchallList(t, algebra)},
		{name: "search=term (tags)", path: path("term", "", "", ""), token: token, wantData: marchallList(t, final)},
		{name: "search=principal (instructor)", path: path("principal", "", "", ""), token: token, wantData: marchallList(t, pta)},
		{
			name: "type=exam,meeting", path: path("", "", "", "", calendar.TypeExam, calendar.TypeMeeting),
			token: token, wantData: marchallList(t, pta, final),
		},
		{name: "type (unknown)", path: path("", "", "", "", "lol"), token: token, wantData: empty},
		{
			name: "date_from & date_to", path: path("", "", "2025-06-15", "2025-06-21"),
			token: token, wantData: marchallList(t, algebra),
		},
		{
			name: "date_from (invalid)", path: path("", "", "lol", ""), token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"date_from": "date_from must be a valid date (YYYY-MM-DD)"}),
		},
		{name: "types", path: "/v1/events/types", token: token, wantData: marchallObj(t, calendar.Types)},
	}

	runHttpTests(t, app, tests)
}

func Test_eventApi_retrieve(t *testing.T) {
	app := setup(t)
	algebra, _, _ := seedEvents(t, app)
	token := app.studentToken(t)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/events/" + algebra.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Unknown", path: "/v1/events/lol", token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "Found", path: "/v1/events/" + algebra.ID, token: token, wantData: marchallObj(t, algebra)},
	}

	runHttpTests(t, app, tests)
}

func Test_eventApi_create(t *testing.T) {
	app := setup(t)
	path := "/v1/events"

	required := "this field is required"
	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: path, body: []byte("{}"),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Admin required", method: http.MethodPost, path: path, body: []byte("{}"), token: app.studentToken(t),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Required fields", method: http.MethodPost, path: path, body: []byte("{}"), token: app.adminToken(t),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"title": required, "type": required, "date": required, "start_time": required, "end_time": required,
			}),
		},
		{
			name: "Invalid type & clock", method: http.MethodPost, path: path, token: app.adminToken(t),
			body: marchallObj(t, calendar.NewEvent{Title: "Lol", Type: "party", Date: "2025-06-20", StartTime: "9am", EndTime: "10:00"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"type": "invalid event type", "start_time": "start_time must be a valid time (HH:MM)",
			}),
		},
		{
			name: "End before start", method: http.MethodPost, path: path, token: app.adminToken(t),
			body:     marchallObj(t, calendar.NewEvent{Title: "Lol", Type: calendar.TypeTest, Date: "2025-06-20", StartTime: "10:00", EndTime: "09:00"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"end_time": "end time must be after start time"}),
		},
	}
	runHttpTests(t, app, tests)

	t.Run("Created", func(t *testing.T) {
		body := marchallObj(t, calendar.NewEvent{
			Title: "  Chemistry quiz ", Type: "TEST", Subject: "Chemistry", Tags: []string{" lab "},
			Date: "2025-06-23", StartTime: "13:00", EndTime: "13:30",
		})
		req, rec := newAuthRequest(http.MethodPost, path, app.adminToken(t), body)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var ev calendar.Event
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
		assert.NotEmpty(t, ev.ID)
		assert.Equal(t, "Chemistry quiz", ev.Title)
		assert.Equal(t, calendar.TypeTest, ev.Type)
		assert.Equal(t, []string{"lab"}, ev.Tags)
		assert.Equal(t, calendar.StatusUpcoming, ev.Status)

		stored, err := app.svc.GetByID(req.Context(), ev.ID)
		require.NoError(t, err)
		assert.Equal(t, ev.Title, stored.Title)
	})
}

func Test_eventApi_update(t *testing.T) {
	app := setup(t)
	algebra, _, _ := seedEvents(t, app)
	path := "/v1/events/" + algebra.ID

	tests := []httpTest{
		{
			name: "Admin required", method: http.MethodPut, path: path, body: []byte("{}"), token: app.studentToken(t),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Unknown", method: http.MethodPut, path: "/v1/events/lol", body: []byte("{}"), token: app.adminToken(t),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "End before start", method: http.MethodPut, path: path, body: []byte(`{"end_time": "08:00"}`), token: app.adminToken(t),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"end_time": "end time must be after start time"}),
		},
		{
			name: "Invalid status", method: http.MethodPut, path: path, body: []byte(`{"status": "lol"}`), token: app.adminToken(t),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"status": "invalid event status"}),
		},
	}
	runHttpTests(t, app, tests)

	t.Run("Updated", func(t *testing.T) {
		body := []byte(`{"title": "Algebra II", "location": "Room 4", "instructor": ""}`)
		req, rec := newAuthRequest(http.MethodPut, path, app.adminToken(t), body)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var ev calendar.Event
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
		assert.Equal(t, algebra.ID, ev.ID)
		assert.Equal(t, "Algebra II", ev.Title)
		assert.Equal(t, "Room 4", ev.Location)
		assert.Equal(t, "", ev.Instructor) // explicitly cleared
		assert.Equal(t, algebra.Subject, ev.Subject)
		assert.Equal(t, algebra.Tags, ev.Tags)
		assert.Equal(t, algebra.Date, ev.Date)
		assert.Equal(t, algebra.StartTime, ev.StartTime)
		assert.True(t, algebra.CreatedAt.Equal(ev.CreatedAt))
	})

	t.Run("Rescheduled", func(t *testing.T) {
		assembly := app.createEvent(t, calendar.NewEvent{
			Title: "Assembly", Type: calendar.TypeEvent, Date: "2025-06-18", StartTime: "08:00", EndTime: "09:00",
		})
		req, rec := newAuthRequest(http.MethodGet, "/v1/events/"+assembly.ID, app.studentToken(t))
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var ev calendar.Event
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
		require.Equal(t, calendar.StatusCompleted, ev.Status)

		req, rec = newAuthRequest(http.MethodPut, "/v1/events/"+assembly.ID, app.adminToken(t), []byte(`{"date": "2025-06-19"}`))
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
		assert.Equal(t, "2025-06-19", ev.Date)
		assert.Equal(t, calendar.StatusUpcoming, ev.Status)

		stored, err := app.svc.GetByID(req.Context(), assembly.ID)
		require.NoError(t, err)
		assert.Equal(t, calendar.StatusUpcoming, stored.Status)
	})
}

func Test_eventApi_destroy(t *testing.T) {
	app := setup(t)
	algebra, final, pta := seedEvents(t, app)

	tests := []httpTest{
		{
			name: "Admin required", method: http.MethodDelete, path: "/v1/events/" + algebra.ID, token: app.studentToken(t),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Unknown", method: http.MethodDelete, path: "/v1/events/lol", token: app.adminToken(t),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
	}
	runHttpTests(t, app, tests)

	t.Run("Deleted", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/events/"+algebra.ID, app.adminToken(t))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/v1/events/"+algebra.ID, app.studentToken(t))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Delete multiple", func(t *testing.T) {
		v := url.Values{"id": {final.ID, pta.ID, "lol"}}
		req, rec := newAuthRequest(http.MethodDelete, "/v1/events?"+v.Encode(), app.adminToken(t))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/v1/events", app.studentToken(t))
		app.server.ServeHTTP(rec, req)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("Delete multiple (unknown)", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/events?id=lol", app.adminToken(t))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
