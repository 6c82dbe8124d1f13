package main

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Plain-text matchers. A single line may match several of these
// independently (e.g. a level and a job completion).
var (
	timestampRegex = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}),(\d{3})`)
	levelRegex     = regexp.MustCompile(`(?i)\b(TRACE|DEBUG|INFO|WARNING|WARN|ERROR|FATAL)\b`)
	jobRegex       = regexp.MustCompile(`(?i)\bjob ([\w.-]+) completed\b`)
	sentRegex      = regexp.MustCompile(`Message sent to (\+?\d+) via waba (\d+): wamid=(\S+) message_id=(\S+)`)
	storeRegex     = regexp.MustCompile(`Stored message confirmation: waba=(\d+) wamid=(\S+) message_id=(\S+)`)
	cacheRegex     = regexp.MustCompile(`Cache hit for waba (\d+)`)
)

// Logger names containing this marker carry WhatsApp webhook callback
// payloads in their message field.
const callbackLoggerMarker = "callback"

// jsonLogLine is the JSON log envelope emitted by the delivery pipeline.
type jsonLogLine struct {
	Level      string `json:"level"`
	Message    string `json:"message"`
	Timestamp  string `json:"@timestamp"`
	LoggerName string `json:"logger_name"`
}

// callbackPayload is the subset of the WhatsApp status webhook we care about.
type callbackPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Statuses []struct {
					ID                    string `json:"id"`
					Status                string `json:"status"`
					BizOpaqueCallbackData string `json:"biz_opaque_callback_data"`
				} `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// opaqueCallbackData is the secondary JSON document embedded inside
// biz_opaque_callback_data, set by the upstream system at dispatch time.
type opaqueCallbackData struct {
	MessageID string `json:"message_id"`
}

// LineParser turns raw log lines into typed events. Lines starting with
// '{' are treated as JSON envelopes, everything else goes through the
// plain-text matchers.
type LineParser struct {
	filter *LineFilter

	// NestedFailures counts malformed embedded callback payloads. These
	// are recovered per line, never fatal.
	NestedFailures int
}

func NewLineParser(filter *LineFilter) *LineParser {
	return &LineParser{filter: filter}
}

// Parse extracts zero or more events from one line. A non-nil error means
// the line looked like JSON but could not be decoded; the caller skips the
// line and continues.
func (p *LineParser) Parse(line string) ([]Event, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "{") {
		return p.parseJSONLine(trimmed)
	}

	return p.parsePlainLine(trimmed), nil
}

func (p *LineParser) parsePlainLine(line string) []Event {
	var events []Event

	var ts time.Time
	if m := timestampRegex.FindStringSubmatch(line); m != nil {
		parsed, err := time.Parse("2006-01-02 15:04:05,000", m[1]+","+m[2])
		if err == nil {
			ts = parsed
		}
	}

	if m := levelRegex.FindStringSubmatch(line); m != nil {
		ev := Event{Kind: EventLogLine, Timestamp: ts, Level: normalizeLevel(m[1])}
		if ev.Level == "error" || ev.Level == "warn" {
			ev.Message = line
		}
		events = append(events, ev)
	}

	if m := jobRegex.FindStringSubmatch(line); m != nil {
		events = append(events, Event{Kind: EventJobCompleted, Timestamp: ts, JobID: m[1]})
	}

	if m := sentRegex.FindStringSubmatch(line); m != nil {
		// Group 1 is the recipient phone number, which the report does
		// not track.
		events = append(events, Event{
			Kind:        EventMessageSent,
			Timestamp:   ts,
			WabaNumber:  m[2],
			TransportID: m[3],
			MessageID:   m[4],
		})
	}

	if m := storeRegex.FindStringSubmatch(line); m != nil {
		events = append(events, Event{
			Kind:        EventMessageStored,
			Timestamp:   ts,
			WabaNumber:  m[1],
			TransportID: m[2],
			MessageID:   m[3],
		})
	}

	if m := cacheRegex.FindStringSubmatch(line); m != nil {
		events = append(events, Event{Kind: EventCacheHit, Timestamp: ts, WabaNumber: m[1]})
	}

	return events
}

func (p *LineParser) parseJSONLine(line string) ([]Event, error) {
	var entry jsonLogLine
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		return nil, fmt.Errorf("malformed JSON log line: %w", err)
	}
	if entry.Level == "" || entry.Timestamp == "" || entry.LoggerName == "" {
		return nil, fmt.Errorf("JSON log line missing required fields (level=%q, @timestamp=%q, logger_name=%q)",
			entry.Level, entry.Timestamp, entry.LoggerName)
	}

	if p.filter != nil && !p.filter.MatchLogger(entry.LoggerName) {
		return nil, nil
	}

	ts := parseLogTimestamp(entry.Timestamp)

	ev := Event{Kind: EventLogLine, Timestamp: ts, Level: normalizeLevel(entry.Level)}
	if ev.Level == "error" || ev.Level == "warn" {
		ev.Message = entry.Message
	}
	events := []Event{ev}

	if strings.Contains(strings.ToLower(entry.LoggerName), callbackLoggerMarker) {
		if sent, ok := p.parseCallback(entry.Message, ts); ok {
			events = append(events, sent)
		}
	}

	return events, nil
}

// parseCallback matches the embedded WhatsApp status payload inside a
// callback logger's message. Only payloads whose status is "read" count as
// a completed dispatch.
func (p *LineParser) parseCallback(message string, ts time.Time) (Event, bool) {
	start := strings.Index(message, "{")
	if start < 0 {
		return Event{}, false
	}

	var payload callbackPayload
	if err := json.Unmarshal([]byte(message[start:]), &payload); err != nil {
		p.NestedFailures++
		logParseFailure("callback payload", err)
		return Event{}, false
	}

	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return Event{}, false
	}
	value := payload.Entry[0].Changes[0].Value
	if len(value.Statuses) == 0 {
		return Event{}, false
	}
	status := value.Statuses[0]
	if status.Status != "read" {
		return Event{}, false
	}

	ev := Event{
		Kind:        EventMessageSent,
		Timestamp:   ts,
		WabaNumber:  value.Metadata.PhoneNumberID,
		TransportID: status.ID,
	}

	if status.BizOpaqueCallbackData != "" {
		var opaque opaqueCallbackData
		if err := json.Unmarshal([]byte(status.BizOpaqueCallbackData), &opaque); err != nil {
			p.NestedFailures++
			logParseFailure("biz_opaque_callback_data", err)
			return Event{}, false
		}
		ev.MessageID = opaque.MessageID
	}

	return ev, true
}

// parseLogTimestamp accepts the timestamp formats seen across the
// pipeline's JSON logs.
func parseLogTimestamp(raw string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.000Z0700",
		"2006-01-02 15:04:05,000",
	}
	for _, format := range formats {
		if ts, err := time.Parse(format, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func normalizeLevel(level string) string {
	level = strings.ToLower(level)
	if level == "warning" {
		level = "warn"
	}
	return level
}
