package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// ReportStore persists one run's statistics to SQLite. Tables are reset on
// every save: the store always reflects the current run only, historical
// runs are never accumulated.
type ReportStore struct {
	dbPath string
}

func NewReportStore(dbPath string) *ReportStore {
	return &ReportStore{dbPath: dbPath}
}

// InitDB ensures the database schema exists and applies the usual
// performance pragmas.
func (s *ReportStore) InitDB() error {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	schema := []string{
		`CREATE TABLE IF NOT EXISTS run_info (
			run_id TEXT NOT NULL,
			source_file TEXT NOT NULL,
			generated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS bucket_stats (
			bucket_ts TEXT NOT NULL UNIQUE,
			lines INTEGER NOT NULL,
			jobs INTEGER NOT NULL,
			messages INTEGER NOT NULL,
			stores INTEGER NOT NULL,
			cache_hits INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_bucket_ts ON bucket_stats(bucket_ts);`,
		`CREATE TABLE IF NOT EXISTS processing_times (
			transport_id TEXT NOT NULL,
			message_id TEXT NOT NULL,
			waba TEXT NOT NULL,
			elapsed_ms REAL NOT NULL
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			log.Printf("Warning: failed to set pragma during init: %v\n", err)
		}
	}

	return nil
}

// SaveRun replaces the store's contents with this run's report in a single
// transaction.
func (s *ReportStore) SaveRun(report *Report) error {
	defer func(start time.Time) {
		log.Printf("    SaveRun took %v", time.Since(start))
	}(time.Now())

	log.Printf("=== Saving %d buckets and %d processing records to database: %s ===\n",
		len(report.Buckets), len(report.Processing.Records), s.dbPath)

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	for _, table := range []string{"run_info", "bucket_stats", "processing_times"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			tx.Rollback()
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if _, err := tx.Exec(
		"INSERT INTO run_info (run_id, source_file, generated_at) VALUES (?, ?, ?)",
		report.RunID, report.SourceFile, report.GeneratedAt,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("inserting run info: %w", err)
	}

	bucketStmt, err := tx.Prepare(
		"INSERT INTO bucket_stats (bucket_ts, lines, jobs, messages, stores, cache_hits) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing bucket insert: %w", err)
	}
	defer bucketStmt.Close()

	for _, b := range report.Buckets {
		if _, err := bucketStmt.Exec(b.BucketTS, b.Lines, b.Jobs, b.Messages, b.Stores, b.CacheHits); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting bucket %s: %w", b.BucketTS, err)
		}
	}

	procStmt, err := tx.Prepare(
		"INSERT INTO processing_times (transport_id, message_id, waba, elapsed_ms) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing processing insert: %w", err)
	}
	defer procStmt.Close()

	for _, p := range report.Processing.Records {
		if _, err := procStmt.Exec(p.TransportID, p.MessageID, p.WabaNumber, p.ElapsedMs); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting processing record %s: %w", p.TransportID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// BucketFilter restricts QueryBuckets results to a time range. Zero values
// mean no bound on that side.
type BucketFilter struct {
	MinTS      string
	MaxTS      string
	MaxResults int
}

// QueryBuckets reads bucket stats back with SQL-level filtering, ordered
// chronologically.
func (s *ReportStore) QueryBuckets(filter BucketFilter) ([]BucketStats, error) {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := "SELECT bucket_ts, lines, jobs, messages, stores, cache_hits FROM bucket_stats WHERE 1=1"
	var args []interface{}

	if filter.MinTS != "" {
		query += " AND bucket_ts >= ?"
		args = append(args, filter.MinTS)
	}
	if filter.MaxTS != "" {
		query += " AND bucket_ts <= ?"
		args = append(args, filter.MaxTS)
	}

	query += " ORDER BY bucket_ts ASC"

	if filter.MaxResults > 0 {
		query += " LIMIT ?"
		args = append(args, filter.MaxResults)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []BucketStats
	for rows.Next() {
		var b BucketStats
		if err := rows.Scan(&b.BucketTS, &b.Lines, &b.Jobs, &b.Messages, &b.Stores, &b.CacheHits); err != nil {
			log.Printf("Error scanning row: %v\n", err)
			continue
		}
		buckets = append(buckets, b)
	}

	return buckets, rows.Err()
}

// QueryProcessingTimes reads back the processing-time records, optionally
// restricted to one WABA number.
func (s *ReportStore) QueryProcessingTimes(waba string) ([]ProcessingTime, error) {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := "SELECT transport_id, message_id, waba, elapsed_ms FROM processing_times"
	var args []interface{}
	if waba != "" {
		query += " WHERE waba = ?"
		args = append(args, waba)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ProcessingTime
	for rows.Next() {
		var p ProcessingTime
		if err := rows.Scan(&p.TransportID, &p.MessageID, &p.WabaNumber, &p.ElapsedMs); err != nil {
			log.Printf("Error scanning row: %v\n", err)
			continue
		}
		records = append(records, p)
	}

	return records, rows.Err()
}
