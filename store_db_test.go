package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *ReportStore {
	t.Helper()
	store := NewReportStore(filepath.Join(t.TempDir(), "report.db"))
	require.NoError(t, store.InitDB())
	return store
}

func TestSaveAndQueryRun(t *testing.T) {
	store := testStore(t)
	report := sampleReport(t)

	require.NoError(t, store.SaveRun(report))

	buckets, err := store.QueryBuckets(BucketFilter{})
	require.NoError(t, err)
	require.Len(t, buckets, len(report.Buckets))
	assert.Equal(t, report.Buckets[0].BucketTS, buckets[0].BucketTS)
	assert.Equal(t, report.Buckets[0].Messages, buckets[0].Messages)

	records, err := store.QueryProcessingTimes("")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "wamid.A", records[0].TransportID)
	assert.InDelta(t, 2000.0, records[0].ElapsedMs, 0.001)
}

func TestQueryBucketsFiltered(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.SaveRun(sampleReport(t)))

	buckets, err := store.QueryBuckets(BucketFilter{MinTS: "2026-08-12T10:16:00Z"})
	require.NoError(t, err)
	for _, b := range buckets {
		assert.GreaterOrEqual(t, b.BucketTS, "2026-08-12T10:16:00Z")
	}

	buckets, err = store.QueryBuckets(BucketFilter{MaxTS: "2026-08-12T10:15:00Z"})
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, "2026-08-12T10:15:00Z", buckets[0].BucketTS)

	buckets, err = store.QueryBuckets(BucketFilter{MaxResults: 1})
	require.NoError(t, err)
	assert.Len(t, buckets, 1)
}

func TestQueryProcessingTimesByWaba(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.SaveRun(sampleReport(t)))

	records, err := store.QueryProcessingTimes("111")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	records, err = store.QueryProcessingTimes("999")
	require.NoError(t, err)
	assert.Empty(t, records)
}

// A second save replaces the previous run entirely: the store only ever
// holds the current run.
func TestSaveRunReplacesPreviousRun(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.SaveRun(sampleReport(t)))

	second := sampleReport(t)
	second.Buckets = second.Buckets[:1]
	second.Processing.Records = nil
	require.NoError(t, store.SaveRun(second))

	buckets, err := store.QueryBuckets(BucketFilter{})
	require.NoError(t, err)
	assert.Len(t, buckets, 1)

	records, err := store.QueryProcessingTimes("")
	require.NoError(t, err)
	assert.Empty(t, records)
}
