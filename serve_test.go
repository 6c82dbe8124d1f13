package main

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportAppServesHTML(t *testing.T) {
	report := sampleReport(t)
	html, err := RenderHTMLReport(report)
	require.NoError(t, err)

	app := newReportApp(report, html, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Message Delivery Report")
}

func TestReportAppServesJSONReport(t *testing.T) {
	report := sampleReport(t)
	app := newReportApp(report, nil, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/report", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, 200, resp.StatusCode)

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Equal(t, report.RunID, decoded["runId"])
}

func TestReportAppBucketsFromMemory(t *testing.T) {
	report := sampleReport(t)
	app := newReportApp(report, nil, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/buckets?min_ts=2026-08-12T10:16:00Z", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, 200, resp.StatusCode)

	var buckets []BucketStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&buckets))
	for _, b := range buckets {
		assert.GreaterOrEqual(t, b.BucketTS, "2026-08-12T10:16:00Z")
	}
}

func TestReportAppBucketsFromStore(t *testing.T) {
	report := sampleReport(t)
	store := testStore(t)
	require.NoError(t, store.SaveRun(report))

	app := newReportApp(report, nil, store)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/buckets", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, 200, resp.StatusCode)

	var buckets []BucketStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&buckets))
	assert.Len(t, buckets, len(report.Buckets))
}

func TestReportAppProcessingByWaba(t *testing.T) {
	report := sampleReport(t)
	app := newReportApp(report, nil, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/processing?waba=111", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, 200, resp.StatusCode)

	var records []ProcessingTime
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, "wamid.A", records[0].TransportID)
}
