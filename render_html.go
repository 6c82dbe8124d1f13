package main

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
)

//go:embed web/report.tmpl
var webFiles embed.FS

// htmlReportData is the template payload: the report itself plus the
// bucket series pre-encoded for the inline chart script.
type htmlReportData struct {
	*Report
	BucketSeries    template.JS
	MessagesPerSec  string
	JobsPerSec      string
	ErrorCount      int
	WarningCount    int
	ProcessingCount int
}

// RenderHTMLReport renders the self-contained HTML artifact: inline
// styles, an inline chart script, and collapsible detail tables.
func RenderHTMLReport(report *Report) ([]byte, error) {
	tmpl, err := template.ParseFS(webFiles, "web/report.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing report template: %w", err)
	}

	series, err := json.Marshal(report.Buckets)
	if err != nil {
		return nil, fmt.Errorf("encoding bucket series: %w", err)
	}

	data := htmlReportData{
		Report:          report,
		BucketSeries:    template.JS(series),
		MessagesPerSec:  formatRate(report.Rates.MessagesPerSecond),
		JobsPerSec:      formatRate(report.Rates.JobsPerSecond),
		ErrorCount:      len(report.Errors),
		WarningCount:    len(report.Warnings),
		ProcessingCount: len(report.Processing.Records),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering HTML report: %w", err)
	}

	return buf.Bytes(), nil
}
