package emailsvc

import (
	"bytes"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-calendar/core"
)

type testLogger struct{ errors []string }

func (l *testLogger) Debug(string, ...interface{})        {}
func (l *testLogger) Info(string, ...interface{})         {}
func (l *testLogger) Warn(string, ...interface{})         {}
func (l *testLogger) Error(msg string, _ ...interface{}) { l.errors = append(l.errors, msg) }
func (l *testLogger) Fatal(string, ...interface{})        {}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	ClearSentMessages()
	conf := core.NewTestConfig()
	logger := new(testLogger)
	svc := NewConsoleServiceMock(conf, logger)

	withAttachment := &core.EmailMessage{
		To:      []mail.Address{{Name: "Amani", Address: "amani@test.test"}},
		Subject: "Your calendar",
		BodyStr: "see attached",
	}
	require.NoError(t, withAttachment.Attach(bytes.NewBufferString("BEGIN:VCALENDAR"), "calendar.ics", "text/calendar"))

	svc.SendMessages(
		withAttachment,
		&core.EmailMessage{Subject: "no recipients", BodyStr: "dropped"},
		&core.EmailMessage{To: []mail.Address{{Address: "x@test.test"}}, Subject: "no content"},
	)

	sent := SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "see attached", sent[0].TextContent)
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, "calendar.ics", sent[0].Attachments[0].Filename)
	assert.Equal(t, "text/calendar", sent[0].Attachments[0].ContentType)
	assert.Empty(t, logger.errors)

	ClearSentMessages()
	assert.Empty(t, SentMessages())
}

func TestConsoleService_send(t *testing.T) {
	conf := core.NewTestConfig()
	svc := consoleService{from: conf.DefaultFromEmail(), subjPrefix: "[Masomo] ", disableOutput: true}

	msg := core.EmailMessage{
		To:          []mail.Address{{Address: "a@test.test"}},
		Subject:     "hi",
		TextContent: "hello",
		HTMLContent: "<p>hello</p>",
	}
	require.NoError(t, msg.Attach(strings.NewReader("data"), "a.txt"))
	assert.NoError(t, svc.send(msg))
}

func TestSendgridService_prepare(t *testing.T) {
	conf := core.NewTestConfig()
	conf.SendgridApiKey = "key"
	svc := NewSendgridService(conf, new(testLogger)).(*sendgridService)

	msg := core.EmailMessage{
		To:          []mail.Address{{Name: "Amani", Address: "amani@test.test"}},
		Cc:          []mail.Address{{Address: "cc@test.test"}},
		Subject:     "Your calendar",
		TextContent: "text",
	}
	require.NoError(t, msg.Attach(strings.NewReader("BEGIN:VCALENDAR"), "calendar.ics", "text/calendar"))

	m := svc.prepare(msg)
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[Masomo] Your calendar", m.Personalizations[0].Subject)
	require.Len(t, m.Personalizations[0].To, 1)
	assert.Equal(t, "amani@test.test", m.Personalizations[0].To[0].Address)
	assert.Len(t, m.Personalizations[0].CC, 1)
	require.Len(t, m.Content, 1) // no html
	assert.Equal(t, "text/plain", m.Content[0].Type)
	require.Len(t, m.Attachments, 1)
	assert.Equal(t, "attachment", m.Attachments[0].Disposition)
	assert.Equal(t, conf.DefaultFromEmail().Address, m.From.Address)
}
