package main

import (
	"fmt"
	"time"
)

// EventKind identifies what a parsed log line described.
type EventKind int

const (
	EventLogLine EventKind = iota
	EventJobCompleted
	EventMessageSent
	EventMessageStored
	EventCacheHit
)

func (k EventKind) String() string {
	switch k {
	case EventLogLine:
		return "log_line"
	case EventJobCompleted:
		return "job_completed"
	case EventMessageSent:
		return "message_sent"
	case EventMessageStored:
		return "message_stored"
	case EventCacheHit:
		return "cache_hit"
	}
	return "unknown"
}

// Event is one typed occurrence extracted from a log line. Fields other
// than Kind and Timestamp are filled per kind; a zero Timestamp means the
// line carried no parsable timestamp.
type Event struct {
	Kind      EventKind
	Timestamp time.Time

	Level   string // log_line: normalized lowercase level
	Message string // log_line: full message text for error/warn levels

	JobID string // job_completed

	WabaNumber  string // message_sent, message_stored, cache_hit
	TransportID string // message_sent, message_stored (wamid)
	MessageID   string // message_sent, message_stored
}

// PendingSend is a dispatched message awaiting its store confirmation,
// keyed in the accumulator by transport id.
type PendingSend struct {
	WabaNumber string
	MessageID  string
	SentAt     time.Time
}

// ProcessingTime records the send-to-store latency of one message.
type ProcessingTime struct {
	TransportID string  `json:"transportId"`
	MessageID   string  `json:"messageId"`
	WabaNumber  string  `json:"waba"`
	ElapsedMs   float64 `json:"elapsedMs"`
}

// LevelRecord is an error or warning line kept verbatim for the report.
type LevelRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// WabaStats aggregates activity of a single WhatsApp Business Account.
type WabaStats struct {
	Number       string
	Messages     int
	MessageIDs   map[string]struct{}
	TransportIDs map[string]struct{}
}

// BucketStats counts activity inside one time bucket.
type BucketStats struct {
	BucketTS  string `json:"bucket"`
	Lines     int    `json:"lines"`
	Jobs      int    `json:"jobs"`
	Messages  int    `json:"messages"`
	Stores    int    `json:"stores"`
	CacheHits int    `json:"cacheHits"`
}

// String returns a compact single-line representation for console output.
func (b *BucketStats) String() string {
	return fmt.Sprintf("Bucket:%s | Lines:%-6d | Jobs:%-5d | Messages:%-6d | Stores:%-6d | CacheHits:%d",
		b.BucketTS, b.Lines, b.Jobs, b.Messages, b.Stores, b.CacheHits)
}
