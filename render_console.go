package main

import (
	"fmt"
	"io"
	"math"
	"time"
)

// WriteConsoleReport prints the condensed summary.
func WriteConsoleReport(w io.Writer, report *Report) {
	fmt.Fprintln(w, "\n=== Message Delivery Report ===")
	fmt.Fprintf(w, "Source: %s\n", report.SourceFile)
	fmt.Fprintf(w, "Window: %s .. %s (%.1fs)\n",
		report.Duration.Start.Format(time.RFC3339),
		report.Duration.End.Format(time.RFC3339),
		report.Duration.Seconds)
	fmt.Fprintf(w, "Lines scanned: %d (parse failures: %d)\n", report.LinesScanned, report.ParseFailures)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Jobs completed:   %d (%d unique)\n", report.Jobs.Total, report.Jobs.Unique)
	fmt.Fprintf(w, "Messages sent:    %d (%d unique ids, %d wamids, %d WABAs)\n",
		report.Messages.Total, report.Messages.UniqueMessageIDs,
		report.Messages.UniqueTransportIDs, report.Messages.UniqueWabas)
	fmt.Fprintf(w, "Store operations: %d (success rate %.2f%%)\n", report.StoreOperations, report.SuccessRate)
	fmt.Fprintf(w, "Cache hits:       %d (density %.2f per WABA)\n", report.CacheHits, report.CacheDensity)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Rates: %s messages/s, %s jobs/s\n",
		formatRate(report.Rates.MessagesPerSecond),
		formatRate(report.Rates.JobsPerSecond))

	if report.Processing.Available {
		fmt.Fprintf(w, "Processing time:  avg %.2fms  min %.2fms  max %.2fms  (%d measured)\n",
			report.Processing.AvgTimeMs, report.Processing.MinTimeMs,
			report.Processing.MaxTimeMs, report.Processing.MeasuredMessages)
	} else {
		fmt.Fprintln(w, "Processing time:  not available (no matched send/store pairs)")
	}

	if report.Peak.Bucket != "" {
		fmt.Fprintf(w, "Peak throughput:  %d messages in bucket %s\n", report.Peak.Messages, report.Peak.Bucket)
	}
	fmt.Fprintln(w)

	if len(report.Wabas) > 0 {
		fmt.Fprintln(w, "Per-WABA distribution:")
		for _, waba := range report.Wabas {
			fmt.Fprintf(w, "  %-16s %6d messages  %6.2f%%\n", waba.Number, waba.Messages, waba.Percentage)
		}
		fmt.Fprintln(w)
	}

	if len(report.LogLevels) > 0 {
		fmt.Fprintln(w, "Log levels:")
		for _, level := range []string{"trace", "debug", "info", "warn", "error", "fatal"} {
			if n, ok := report.LogLevels[level]; ok {
				fmt.Fprintf(w, "  %-8s %d\n", level, n)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Errors: %d, Warnings: %d\n", len(report.Errors), len(report.Warnings))
	fmt.Fprintln(w)
}

func formatRate(r Rate) string {
	if math.IsNaN(float64(r)) || math.IsInf(float64(r), 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", float64(r))
}
