package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, parser *LineParser, line string) []Event {
	t.Helper()
	events, err := parser.Parse(line)
	require.NoError(t, err)
	return events
}

func TestParsePlainLineMessageSent(t *testing.T) {
	parser := NewLineParser(nil)

	line := "2026-08-12 10:15:23,456 INFO  [com.acme.dispatch.MessageSender] (worker-3) Message sent to 4915112345678 via waba 111222333: wamid=wamid.ABC123 message_id=msg-001"
	events := mustParse(t, parser, line)

	require.Len(t, events, 2)

	assert.Equal(t, EventLogLine, events[0].Kind)
	assert.Equal(t, "info", events[0].Level)
	assert.Empty(t, events[0].Message, "message text is only kept for error/warn")

	sent := events[1]
	assert.Equal(t, EventMessageSent, sent.Kind)
	assert.Equal(t, "111222333", sent.WabaNumber)
	assert.Equal(t, "wamid.ABC123", sent.TransportID)
	assert.Equal(t, "msg-001", sent.MessageID)
	assert.Equal(t, time.Date(2026, 8, 12, 10, 15, 23, 456*int(time.Millisecond), time.UTC), sent.Timestamp)
}

func TestParsePlainLineMultipleMatches(t *testing.T) {
	parser := NewLineParser(nil)

	line := "2026-08-12 10:15:23,000 INFO  [com.acme.dispatch.JobRunner] (worker-1) Job report-42 completed"
	events := mustParse(t, parser, line)

	require.Len(t, events, 2, "a line may match the level pattern and an event pattern")
	assert.Equal(t, EventLogLine, events[0].Kind)
	assert.Equal(t, EventJobCompleted, events[1].Kind)
	assert.Equal(t, "report-42", events[1].JobID)
}

func TestParsePlainLineStoreAndCache(t *testing.T) {
	parser := NewLineParser(nil)

	events := mustParse(t, parser, "2026-08-12 10:15:25,456 INFO  [com.acme.persistence.MessageStore] Stored message confirmation: waba=111222333 wamid=wamid.ABC123 message_id=msg-001")
	require.Len(t, events, 2)
	stored := events[1]
	assert.Equal(t, EventMessageStored, stored.Kind)
	assert.Equal(t, "111222333", stored.WabaNumber)
	assert.Equal(t, "wamid.ABC123", stored.TransportID)
	assert.Equal(t, "msg-001", stored.MessageID)

	events = mustParse(t, parser, "2026-08-12 10:15:26,000 DEBUG [com.acme.cache.TemplateCache] Cache hit for waba 111222333")
	require.Len(t, events, 2)
	assert.Equal(t, EventCacheHit, events[1].Kind)
	assert.Equal(t, "111222333", events[1].WabaNumber)
}

func TestParsePlainLineErrorKeepsMessage(t *testing.T) {
	parser := NewLineParser(nil)

	line := "2026-08-12 10:15:23,000 ERROR [com.acme.dispatch.MessageSender] delivery failed: connection reset"
	events := mustParse(t, parser, line)

	require.Len(t, events, 1)
	assert.Equal(t, "error", events[0].Level)
	assert.Equal(t, line, events[0].Message)
}

func TestParsePlainLineWarningNormalized(t *testing.T) {
	parser := NewLineParser(nil)

	events := mustParse(t, parser, "2026-08-12 10:15:23,000 WARNING [com.acme.dispatch] slow consumer")
	require.Len(t, events, 1)
	assert.Equal(t, "warn", events[0].Level)
}

func TestParsePlainLineWithoutTimestamp(t *testing.T) {
	parser := NewLineParser(nil)

	events := mustParse(t, parser, "INFO Job nightly-1 completed")
	require.Len(t, events, 2)
	assert.True(t, events[0].Timestamp.IsZero())
	assert.True(t, events[1].Timestamp.IsZero())
}

func TestParseEmptyLine(t *testing.T) {
	parser := NewLineParser(nil)

	events := mustParse(t, parser, "   ")
	assert.Empty(t, events)
}

func TestParseJSONLine(t *testing.T) {
	parser := NewLineParser(nil)

	line := `{"level":"ERROR","message":"delivery failed","@timestamp":"2026-08-12T10:15:23.456Z","logger_name":"com.acme.dispatch.MessageSender"}`
	events := mustParse(t, parser, line)

	require.Len(t, events, 1)
	assert.Equal(t, EventLogLine, events[0].Kind)
	assert.Equal(t, "error", events[0].Level)
	assert.Equal(t, "delivery failed", events[0].Message)
	assert.Equal(t, 2026, events[0].Timestamp.Year())
}

func TestParseJSONLineMalformed(t *testing.T) {
	parser := NewLineParser(nil)

	_, err := parser.Parse(`{"level":"INFO","message":`)
	assert.Error(t, err)
}

func TestParseJSONLineMissingFields(t *testing.T) {
	parser := NewLineParser(nil)

	_, err := parser.Parse(`{"level":"INFO","message":"ok"}`)
	assert.Error(t, err)
}

const callbackLine = `{"level":"INFO","message":"Received status callback: {\"object\":\"whatsapp_business_account\",\"entry\":[{\"id\":\"1\",\"changes\":[{\"value\":{\"metadata\":{\"phone_number_id\":\"111222333\"},\"statuses\":[{\"id\":\"wamid.XYZ\",\"status\":\"read\",\"biz_opaque_callback_data\":\"{\\\"message_id\\\":\\\"msg-007\\\"}\"}]},\"field\":\"messages\"}]}]}","@timestamp":"2026-08-12T10:15:23.456Z","logger_name":"com.acme.webhook.StatusCallbackProcessor"}`

func TestParseCallbackRead(t *testing.T) {
	parser := NewLineParser(nil)

	events := mustParse(t, parser, callbackLine)

	require.Len(t, events, 2)
	sent := events[1]
	assert.Equal(t, EventMessageSent, sent.Kind)
	assert.Equal(t, "111222333", sent.WabaNumber)
	assert.Equal(t, "wamid.XYZ", sent.TransportID)
	assert.Equal(t, "msg-007", sent.MessageID)
}

func TestParseCallbackNonReadIgnored(t *testing.T) {
	parser := NewLineParser(nil)

	line := `{"level":"INFO","message":"Received status callback: {\"entry\":[{\"changes\":[{\"value\":{\"metadata\":{\"phone_number_id\":\"111222333\"},\"statuses\":[{\"id\":\"wamid.XYZ\",\"status\":\"delivered\"}]}}]}]}","@timestamp":"2026-08-12T10:15:23Z","logger_name":"com.acme.webhook.StatusCallbackProcessor"}`
	events := mustParse(t, parser, line)

	require.Len(t, events, 1)
	assert.Equal(t, EventLogLine, events[0].Kind)
}

func TestParseCallbackMalformedPayloadRecovered(t *testing.T) {
	parser := NewLineParser(nil)

	line := `{"level":"INFO","message":"Received status callback: {not json","@timestamp":"2026-08-12T10:15:23Z","logger_name":"com.acme.webhook.StatusCallbackProcessor"}`
	events := mustParse(t, parser, line)

	require.Len(t, events, 1, "the log line event survives a malformed payload")
	assert.Equal(t, 1, parser.NestedFailures)
}

func TestParseCallbackMalformedOpaqueDataSkipsEvent(t *testing.T) {
	parser := NewLineParser(nil)

	line := `{"level":"INFO","message":"Received status callback: {\"entry\":[{\"changes\":[{\"value\":{\"metadata\":{\"phone_number_id\":\"111222333\"},\"statuses\":[{\"id\":\"wamid.XYZ\",\"status\":\"read\",\"biz_opaque_callback_data\":\"not json\"}]}}]}]}","@timestamp":"2026-08-12T10:15:23Z","logger_name":"com.acme.webhook.StatusCallbackProcessor"}`
	events := mustParse(t, parser, line)

	require.Len(t, events, 1)
	assert.Equal(t, 1, parser.NestedFailures)
}

func TestParseJSONLineLoggerFilter(t *testing.T) {
	filter, err := NewLineFilter([]string{"com.acme.webhook.*"})
	require.NoError(t, err)
	parser := NewLineParser(filter)

	events := mustParse(t, parser, `{"level":"INFO","message":"ok","@timestamp":"2026-08-12T10:15:23Z","logger_name":"com.acme.dispatch.MessageSender"}`)
	assert.Empty(t, events, "non-matching logger lines are skipped before parsing")

	events = mustParse(t, parser, callbackLine)
	assert.Len(t, events, 2)
}
