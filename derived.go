package main

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ErrNoTimestamps is the single hard-stop condition of the pipeline: the
// scanned file never yielded a parsable timestamp, so no report can be
// computed.
var ErrNoTimestamps = errors.New("no timestamps found in log file")

// Rate is a per-second rate that renders as null when the scan window has
// zero duration, keeping the JSON artifact valid.
type Rate float64

func (r Rate) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(r)) || math.IsInf(float64(r), 0) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(r))
}

// DurationReport describes the scanned time window.
type DurationReport struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Ms      float64   `json:"ms"`
	Seconds float64   `json:"seconds"`
	Minutes float64   `json:"minutes"`
}

// RatesReport holds the per-second throughput rates.
type RatesReport struct {
	MessagesPerSecond Rate `json:"messagesPerSecond"`
	JobsPerSecond     Rate `json:"jobsPerSecond"`
}

// JobsReport summarizes job completions.
type JobsReport struct {
	Total  int `json:"total"`
	Unique int `json:"unique"`
}

// MessagesReport summarizes message dispatches.
type MessagesReport struct {
	Total              int `json:"total"`
	UniqueMessageIDs   int `json:"uniqueMessageIds"`
	UniqueTransportIDs int `json:"uniqueTransportIds"`
	UniqueWabas        int `json:"uniqueWabas"`
}

// WabaReport is the per-account slice of the message distribution.
type WabaReport struct {
	Number             string  `json:"number"`
	Messages           int     `json:"messages"`
	Percentage         float64 `json:"percentage"`
	UniqueMessageIDs   int     `json:"uniqueMessageIds"`
	UniqueTransportIDs int     `json:"uniqueTransportIds"`
}

// ProcessingReport holds send-to-store latency statistics. Available is
// false when no latency was ever measured, which is distinct from a
// measured latency of zero.
type ProcessingReport struct {
	Available        bool             `json:"available"`
	MeasuredMessages int              `json:"measuredMessages"`
	AvgTimeMs        float64          `json:"avgTimeMs"`
	MinTimeMs        float64          `json:"minTimeMs"`
	MaxTimeMs        float64          `json:"maxTimeMs"`
	Records          []ProcessingTime `json:"records"`
}

// PeakReport names the bucket with the highest message throughput.
type PeakReport struct {
	Bucket   string `json:"bucket"`
	Messages int    `json:"messages"`
}

// Report is the immutable snapshot computed once from the final
// accumulator state.
type Report struct {
	RunID       string `json:"runId"`
	SourceFile  string `json:"sourceFile"`
	GeneratedAt string `json:"generatedAt"`

	Duration DurationReport `json:"duration"`
	Rates    RatesReport    `json:"rates"`

	Jobs            JobsReport     `json:"jobs"`
	Messages        MessagesReport `json:"messages"`
	StoreOperations int            `json:"storeOperations"`
	SuccessRate     float64        `json:"successRate"`

	CacheHits    int     `json:"cacheHits"`
	CacheDensity float64 `json:"cacheDensity"`

	Wabas      []WabaReport     `json:"wabas"`
	Processing ProcessingReport `json:"processing"`
	Peak       PeakReport       `json:"peak"`

	LogLevels map[string]int `json:"logLevels"`
	Errors    []LevelRecord  `json:"errors"`
	Warnings  []LevelRecord  `json:"warnings"`

	Buckets []BucketStats `json:"buckets"`

	LinesScanned  int `json:"linesScanned"`
	ParseFailures int `json:"parseFailures"`
}

// BuildReport computes the derived metrics from the final accumulator
// state. It fails only when no timestamps were observed at all.
func BuildReport(stats *ScanStats, sourceFile string) (*Report, error) {
	if stats.FirstTS.IsZero() || stats.LastTS.IsZero() {
		return nil, ErrNoTimestamps
	}

	duration := stats.LastTS.Sub(stats.FirstTS)
	durationSec := duration.Seconds()

	report := &Report{
		RunID:       uuid.NewString(),
		SourceFile:  sourceFile,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Duration: DurationReport{
			Start:   stats.FirstTS,
			End:     stats.LastTS,
			Ms:      float64(duration) / float64(time.Millisecond),
			Seconds: durationSec,
			Minutes: duration.Minutes(),
		},
		Rates: ratesFor(stats, durationSec),
		Jobs: JobsReport{
			Total:  stats.JobsCompleted,
			Unique: len(stats.UniqueJobIDs),
		},
		Messages: MessagesReport{
			Total:              stats.MessagesSent,
			UniqueMessageIDs:   len(stats.UniqueMessageIDs),
			UniqueTransportIDs: len(stats.UniqueTransportIDs),
			UniqueWabas:        len(stats.UniqueWabas),
		},
		StoreOperations: stats.StoreOperations,
		CacheHits:       stats.CacheHits,
		LogLevels:       stats.LogLevels,
		Errors:          stats.Errors,
		Warnings:        stats.Warnings,
		LinesScanned:    stats.LinesScanned,
		ParseFailures:   stats.ParseFailures,
	}

	if stats.MessagesSent > 0 {
		report.SuccessRate = float64(stats.StoreOperations) / float64(stats.MessagesSent) * 100
	}

	if len(stats.UniqueWabas) > 0 {
		report.CacheDensity = float64(stats.CacheHits) / float64(len(stats.UniqueWabas))
	}

	report.Wabas = wabaDistribution(stats)
	report.Processing = processingStats(stats.ProcessingTimes)
	report.Buckets, report.Peak = bucketSummary(stats.Buckets)

	return report, nil
}

// ratesFor computes the per-second rates. A zero-duration window is
// degenerate: rates become NaN (rendered as null in JSON) rather than a
// misleading number.
func ratesFor(stats *ScanStats, durationSec float64) RatesReport {
	if durationSec == 0 {
		return RatesReport{
			MessagesPerSecond: Rate(math.NaN()),
			JobsPerSecond:     Rate(math.NaN()),
		}
	}
	return RatesReport{
		MessagesPerSecond: Rate(float64(stats.MessagesSent) / durationSec),
		JobsPerSecond:     Rate(float64(stats.JobsCompleted) / durationSec),
	}
}

// wabaDistribution computes the percentage share of each account, sorted
// by message count descending so the busiest accounts lead the report.
func wabaDistribution(stats *ScanStats) []WabaReport {
	reports := make([]WabaReport, 0, len(stats.Wabas))
	for _, waba := range stats.Wabas {
		entry := WabaReport{
			Number:             waba.Number,
			Messages:           waba.Messages,
			UniqueMessageIDs:   len(waba.MessageIDs),
			UniqueTransportIDs: len(waba.TransportIDs),
		}
		if stats.MessagesSent > 0 {
			entry.Percentage = float64(waba.Messages) / float64(stats.MessagesSent) * 100
		}
		reports = append(reports, entry)
	}

	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Messages != reports[j].Messages {
			return reports[i].Messages > reports[j].Messages
		}
		return reports[i].Number < reports[j].Number
	})

	return reports
}

func processingStats(records []ProcessingTime) ProcessingReport {
	report := ProcessingReport{
		MeasuredMessages: len(records),
		Records:          records,
	}
	if len(records) == 0 {
		return report
	}

	report.Available = true
	report.MinTimeMs = records[0].ElapsedMs
	report.MaxTimeMs = records[0].ElapsedMs

	var total float64
	for _, r := range records {
		total += r.ElapsedMs
		if r.ElapsedMs < report.MinTimeMs {
			report.MinTimeMs = r.ElapsedMs
		}
		if r.ElapsedMs > report.MaxTimeMs {
			report.MaxTimeMs = r.ElapsedMs
		}
	}
	report.AvgTimeMs = total / float64(len(records))

	return report
}

// bucketSummary orders buckets by key (chronological for same-offset
// timestamps) and picks the peak-throughput bucket. Ties keep the first
// bucket in sorted order.
func bucketSummary(buckets map[string]*BucketStats) ([]BucketStats, PeakReport) {
	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	ordered := make([]BucketStats, 0, len(keys))
	var peak PeakReport
	for i, key := range keys {
		b := buckets[key]
		ordered = append(ordered, *b)
		if i == 0 || b.Messages > peak.Messages {
			peak = PeakReport{Bucket: b.BucketTS, Messages: b.Messages}
		}
	}

	return ordered, peak
}
