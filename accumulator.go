package main

import (
	"time"
)

// ScanStats is the fold target for a single scan: every extracted event is
// applied once, in input order. The struct is owned by the scanning loop,
// so no locking is needed.
type ScanStats struct {
	bucketSize time.Duration

	LinesScanned  int
	ParseFailures int

	// Timestamp bounds over all log-level lines, zero until the first
	// timestamp-bearing line is seen.
	FirstTS time.Time
	LastTS  time.Time

	LogLevels map[string]int

	JobsCompleted int
	UniqueJobIDs  map[string]struct{}

	MessagesSent       int
	StoreOperations    int
	CacheHits          int
	UniqueWabas        map[string]struct{}
	UniqueMessageIDs   map[string]struct{}
	UniqueTransportIDs map[string]struct{}

	Wabas   map[string]*WabaStats
	Buckets map[string]*BucketStats

	// Pending holds sends awaiting a store confirmation, keyed by
	// transport id. Entries are consumed exactly once on match and are
	// never evicted during a run.
	Pending map[string]PendingSend

	ProcessingTimes []ProcessingTime
	Errors          []LevelRecord
	Warnings        []LevelRecord
}

// NewScanStats creates an empty accumulator with the given bucket size.
func NewScanStats(bucketSize time.Duration) *ScanStats {
	return &ScanStats{
		bucketSize:         bucketSize,
		LogLevels:          make(map[string]int),
		UniqueJobIDs:       make(map[string]struct{}),
		UniqueWabas:        make(map[string]struct{}),
		UniqueMessageIDs:   make(map[string]struct{}),
		UniqueTransportIDs: make(map[string]struct{}),
		Wabas:              make(map[string]*WabaStats),
		Buckets:            make(map[string]*BucketStats),
		Pending:            make(map[string]PendingSend),
	}
}

// Apply folds one event into the accumulator. Absent optional fields make
// that field's contribution a no-op, never an error.
func (s *ScanStats) Apply(ev Event) {
	switch ev.Kind {
	case EventLogLine:
		s.applyLogLine(ev)
	case EventJobCompleted:
		s.applyJobCompleted(ev)
	case EventMessageSent:
		s.applyMessageSent(ev)
	case EventMessageStored:
		s.applyMessageStored(ev)
	case EventCacheHit:
		s.applyCacheHit(ev)
	}
}

func (s *ScanStats) applyLogLine(ev Event) {
	if ev.Level != "" {
		s.LogLevels[ev.Level]++
	}

	if !ev.Timestamp.IsZero() {
		if s.FirstTS.IsZero() || ev.Timestamp.Before(s.FirstTS) {
			s.FirstTS = ev.Timestamp
		}
		if s.LastTS.IsZero() || ev.Timestamp.After(s.LastTS) {
			s.LastTS = ev.Timestamp
		}
		s.bucket(ev.Timestamp).Lines++
	}

	switch ev.Level {
	case "error":
		s.Errors = append(s.Errors, LevelRecord{Timestamp: ev.Timestamp, Level: ev.Level, Message: ev.Message})
	case "warn":
		s.Warnings = append(s.Warnings, LevelRecord{Timestamp: ev.Timestamp, Level: ev.Level, Message: ev.Message})
	}
}

func (s *ScanStats) applyJobCompleted(ev Event) {
	s.JobsCompleted++
	if ev.JobID != "" {
		s.UniqueJobIDs[ev.JobID] = struct{}{}
	}
	if !ev.Timestamp.IsZero() {
		s.bucket(ev.Timestamp).Jobs++
	}
}

func (s *ScanStats) applyMessageSent(ev Event) {
	s.MessagesSent++

	if ev.WabaNumber != "" {
		s.UniqueWabas[ev.WabaNumber] = struct{}{}

		waba, exists := s.Wabas[ev.WabaNumber]
		if !exists {
			waba = &WabaStats{
				Number:       ev.WabaNumber,
				MessageIDs:   make(map[string]struct{}),
				TransportIDs: make(map[string]struct{}),
			}
			s.Wabas[ev.WabaNumber] = waba
		}
		waba.Messages++
		if ev.MessageID != "" {
			waba.MessageIDs[ev.MessageID] = struct{}{}
		}
		if ev.TransportID != "" {
			waba.TransportIDs[ev.TransportID] = struct{}{}
		}
	}

	if ev.MessageID != "" {
		s.UniqueMessageIDs[ev.MessageID] = struct{}{}
	}

	if ev.TransportID != "" {
		s.UniqueTransportIDs[ev.TransportID] = struct{}{}
		// A repeated send for the same wamid overwrites the prior entry.
		s.Pending[ev.TransportID] = PendingSend{
			WabaNumber: ev.WabaNumber,
			MessageID:  ev.MessageID,
			SentAt:     ev.Timestamp,
		}
	}

	if !ev.Timestamp.IsZero() {
		s.bucket(ev.Timestamp).Messages++
	}
}

func (s *ScanStats) applyMessageStored(ev Event) {
	s.StoreOperations++

	if ev.TransportID != "" {
		if pending, ok := s.Pending[ev.TransportID]; ok {
			if !ev.Timestamp.IsZero() && !pending.SentAt.IsZero() {
				s.ProcessingTimes = append(s.ProcessingTimes, ProcessingTime{
					TransportID: ev.TransportID,
					MessageID:   pending.MessageID,
					WabaNumber:  pending.WabaNumber,
					ElapsedMs:   float64(ev.Timestamp.Sub(pending.SentAt)) / float64(time.Millisecond),
				})
			}
			// One-shot consumption: a second store for the same wamid
			// measures nothing.
			delete(s.Pending, ev.TransportID)
		}
	}

	if !ev.Timestamp.IsZero() {
		s.bucket(ev.Timestamp).Stores++
	}
}

func (s *ScanStats) applyCacheHit(ev Event) {
	s.CacheHits++
	if ev.WabaNumber != "" {
		s.UniqueWabas[ev.WabaNumber] = struct{}{}
	}
	if !ev.Timestamp.IsZero() {
		s.bucket(ev.Timestamp).CacheHits++
	}
}

// bucket returns the entry for the bucket containing ts, creating it
// lazily on first reference.
func (s *ScanStats) bucket(ts time.Time) *BucketStats {
	key := bucketKey(ts, s.bucketSize)
	b, exists := s.Buckets[key]
	if !exists {
		b = &BucketStats{BucketTS: key}
		s.Buckets[key] = b
	}
	return b
}

// bucketKey formats the start of the bucket containing ts. Keys sort
// lexicographically in chronological order for same-offset timestamps.
func bucketKey(ts time.Time, bucketSize time.Duration) string {
	return bucketTime(ts, bucketSize).Format(time.RFC3339)
}

// bucketTime returns the start time of the bucket that contains the given
// timestamp. Buckets align to clock boundaries (e.g. for 5m buckets:
// 00:00, 05:00, 10:00, ...).
func bucketTime(ts time.Time, bucketSize time.Duration) time.Time {
	year, month, day := ts.Date()
	dayStart := time.Date(year, month, day, 0, 0, 0, 0, ts.Location())

	secondsSinceDayStart := ts.Sub(dayStart).Seconds()
	bucketIndex := int(secondsSinceDayStart / bucketSize.Seconds())

	return dayStart.Add(time.Duration(bucketIndex) * bucketSize)
}
