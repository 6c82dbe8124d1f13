package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

func main() {
	output := flag.String("output", "all", "Report outputs: json, html, console or all")
	bucketSize := flag.Duration("bucket-size", 1*time.Minute, "Time bucket size (1m, 5m, 10m, 15m, 20m, 30m, 60m)")
	dbPath := flag.String("db-path", "", "Path to SQLite database file for this run's statistics")
	serveAddr := flag.String("serve", "", "Serve the finished report over HTTP on this address (host:port)")
	loggerPatterns := flag.String("logger", "", "Comma-separated glob patterns to filter JSON lines by logger name")
	configPath := flag.String("config", "", "Path to TOML config file")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	version := flag.Bool("version", false, "Print version info and exit")
	flag.Parse()

	if *version {
		showVersion()
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// Explicit flags win over config-file values.
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	if setFlags["output"] {
		cfg.Output = *output
	}
	if setFlags["bucket-size"] {
		cfg.BucketSize = duration{*bucketSize}
	}
	if setFlags["db-path"] {
		cfg.DBPath = *dbPath
	}
	if setFlags["serve"] {
		cfg.ServeAddr = *serveAddr
	}
	if setFlags["logger"] {
		cfg.LoggerPatterns = strings.Split(*loggerPatterns, ",")
	}
	if setFlags["verbose"] {
		cfg.Verbose = *verbose
	}

	switch cfg.Output {
	case "json", "html", "console", "all":
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown output format %q (want json, html, console or all)\n", cfg.Output)
		os.Exit(2)
	}

	validSizes := map[time.Duration]bool{
		1 * time.Minute:  true,
		5 * time.Minute:  true,
		10 * time.Minute: true,
		15 * time.Minute: true,
		20 * time.Minute: true,
		30 * time.Minute: true,
		60 * time.Minute: true,
	}
	if !validSizes[cfg.BucketSize.Duration] {
		fmt.Fprintln(os.Stderr, "Error: invalid bucket size. Allowed values: 1m, 5m, 10m, 15m, 20m, 30m, 60m")
		os.Exit(2)
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <logfile>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	logPath := flag.Arg(0)

	setupLogging("log_report.log")

	log.Println("=== Message Delivery Log Report ===")
	log.Printf("=== Scanning %s (bucket size %v) ===\n", logPath, cfg.BucketSize.Duration)

	stats, err := scanFile(logPath, cfg)
	if err != nil {
		log.Fatalf("Failed to scan %s: %v", logPath, err)
	}

	report, err := BuildReport(stats, logPath)
	if err != nil {
		// The one hard-stop of the pipeline; no artifacts are written.
		log.Fatalf("Failed to build report: %v", err)
	}

	html, err := writeArtifacts(cfg, report, logPath, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	var store *ReportStore
	if cfg.DBPath != "" {
		store = NewReportStore(cfg.DBPath)
		if err := store.InitDB(); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		if err := store.SaveRun(report); err != nil {
			log.Fatalf("Failed to save run to database: %v", err)
		}
	}

	if cfg.Verbose {
		log.Print("    " + scanResourcesString())
	}

	if cfg.ServeAddr != "" {
		if err := StartReportServer(cfg.ServeAddr, report, html, store); err != nil {
			log.Fatalf("Report server error: %v", err)
		}
	}
}

// writeArtifacts renders the selected outputs next to the input file and
// returns the HTML bytes when they were rendered (html, all, or serve
// mode). Unselected outputs are suppressed entirely.
func writeArtifacts(cfg *Config, report *Report, logPath string, console io.Writer) ([]byte, error) {
	if cfg.Output == "json" || cfg.Output == "all" {
		jsonPath := logPath + ".report.json"
		if err := WriteJSONReport(report, jsonPath); err != nil {
			return nil, err
		}
		log.Printf("=== JSON report written to %s ===\n", jsonPath)
	}

	var html []byte
	if cfg.Output == "html" || cfg.Output == "all" || cfg.ServeAddr != "" {
		var err error
		html, err = RenderHTMLReport(report)
		if err != nil {
			return nil, err
		}
	}
	if cfg.Output == "html" || cfg.Output == "all" {
		htmlPath := logPath + ".report.html"
		if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
			return nil, err
		}
		log.Printf("=== HTML report written to %s ===\n", htmlPath)
	}

	if cfg.Output == "console" || cfg.Output == "all" {
		WriteConsoleReport(console, report)
	}

	return html, nil
}

// scanFile runs the single pass over the input: one line in flight at a
// time, per-line failures logged and skipped.
func scanFile(logPath string, cfg *Config) (*ScanStats, error) {
	filter, err := NewLineFilter(cfg.LoggerPatterns)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(logPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stats := NewScanStats(cfg.BucketSize.Duration)
	parser := NewLineParser(filter)

	scanner := bufio.NewScanner(f)
	// Callback payload lines can get long.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		stats.LinesScanned++

		events, err := parser.Parse(line)
		if err != nil {
			stats.ParseFailures++
			logParseFailure("log line", err)
			continue
		}

		for _, ev := range events {
			stats.Apply(ev)
			if cfg.Verbose && ev.Kind != EventLogLine {
				log.Printf("[line %d] %s waba=%s wamid=%s\n", stats.LinesScanned, ev.Kind, ev.WabaNumber, ev.TransportID)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	stats.ParseFailures += parser.NestedFailures

	log.Printf("=== Scanned %d lines, %d parse failures ===\n", stats.LinesScanned, stats.ParseFailures)

	return stats, nil
}
