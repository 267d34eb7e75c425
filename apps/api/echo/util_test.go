package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/masomo-calendar/apps/api/echo"
	"github.com/trezcool/masomo-calendar/core"
	"github.com/trezcool/masomo-calendar/core/calendar"
	emailsvc "github.com/trezcool/masomo-calendar/services/email"
	inmemdb "github.com/trezcool/masomo-calendar/storage/database/inmem"
	"github.com/trezcool/masomo-calendar/tests"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

type testApp struct {
	conf   *core.Config
	svc    *calendar.Service
	server *Server
}

func setup(t *testing.T) testApp {
	t.Helper()
	conf := core.NewTestConfig()
	logger := testutil.NopLogger{}

	validate, translator := testutil.NewValidator()
	core.ParseEmailTemplates(conf, logger)
	emailsvc.ClearSentMessages()

	svc := calendar.NewService(
		inmemdb.NewEventRepository(inmemdb.NewDB()),
		emailsvc.NewConsoleServiceMock(conf, logger),
		logger,
		conf,
	)
	svc.SetNowFunc(func() time.Time { return testutil.Now })

	server := NewServer(ServerDeps{
		Conf:        conf,
		Logger:      logger,
		CalendarSvc: svc,
		Validate:    validate,
		Translator:  translator,
	})
	t.Cleanup(func() { _ = server.Close() })

	return testApp{conf: conf, svc: svc, server: server}
}

func (app testApp) createEvent(t *testing.T, ne calendar.NewEvent) calendar.Event {
	t.Helper()
	ev, err := app.svc.Create(context.Background(), ne)
	require.NoError(t, err)
	return ev
}

func (app testApp) studentToken(t *testing.T) string {
	return getToken(t, app.conf, Identity{ID: "student-1", Name: "Hero", Email: "hero@test.cd", IsStudent: true})
}

func (app testApp) adminToken(t *testing.T) string {
	return getToken(t, app.conf, Identity{ID: "admin-1", Name: "Admin", Email: "admin@test.cd", IsAdmin: true})
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, id Identity) string {
	token, err := GenerateToken(NewClaims(id, conf), conf)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHttpTests(t *testing.T, app testApp, tests []httpTest) {
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			if tt.wantCode == 0 {
				tt.wantCode = http.StatusOK
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
