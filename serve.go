package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// filterBucketsByTimestamp narrows the in-memory bucket list to an
// optional [minTS, maxTS] range of bucket keys.
func filterBucketsByTimestamp(buckets []BucketStats, minTS, maxTS string) []BucketStats {
	if minTS == "" && maxTS == "" {
		return buckets
	}

	var filtered []BucketStats
	for _, b := range buckets {
		if minTS != "" && b.BucketTS < minTS {
			continue
		}
		if maxTS != "" && b.BucketTS > maxTS {
			continue
		}
		filtered = append(filtered, b)
	}

	return filtered
}

// newReportApp builds the HTTP app serving a finished report: the HTML
// artifact at /, the full report at /api/report, and filtered bucket stats
// at /api/buckets. The store is optional; when present, bucket queries are
// answered from the database.
func newReportApp(report *Report, html []byte, store *ReportStore) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Message Delivery Report",
	})

	// 20 requests/s with a small burst is plenty for a report viewer.
	limiter := rate.NewLimiter(rate.Limit(20), 40)
	app.Use(func(c *fiber.Ctx) error {
		if !limiter.Allow() {
			return c.Status(fiber.StatusTooManyRequests).SendString("rate limit exceeded")
		}
		return c.Next()
	})

	app.Get("/", func(c *fiber.Ctx) error {
		c.Type("html")
		return c.Send(html)
	})

	app.Get("/api/report", func(c *fiber.Ctx) error {
		return c.JSON(report)
	})

	app.Get("/api/buckets", func(c *fiber.Ctx) error {
		minTS := c.Query("min_ts")
		maxTS := c.Query("max_ts")

		if store != nil {
			buckets, err := store.QueryBuckets(BucketFilter{MinTS: minTS, MaxTS: maxTS})
			if err != nil {
				log.Printf("Error querying bucket stats: %v\n", err)
				return c.Status(fiber.StatusInternalServerError).SendString("query failed")
			}
			return c.JSON(buckets)
		}

		return c.JSON(filterBucketsByTimestamp(report.Buckets, minTS, maxTS))
	})

	app.Get("/api/processing", func(c *fiber.Ctx) error {
		waba := c.Query("waba")

		if store != nil {
			records, err := store.QueryProcessingTimes(waba)
			if err != nil {
				log.Printf("Error querying processing times: %v\n", err)
				return c.Status(fiber.StatusInternalServerError).SendString("query failed")
			}
			return c.JSON(records)
		}

		records := report.Processing.Records
		if waba != "" {
			var filtered []ProcessingTime
			for _, r := range records {
				if r.WabaNumber == waba {
					filtered = append(filtered, r)
				}
			}
			records = filtered
		}
		return c.JSON(records)
	})

	return app
}

// StartReportServer serves the finished report until the process is
// interrupted.
func StartReportServer(addr string, report *Report, html []byte, store *ReportStore) error {
	app := newReportApp(report, html, store)
	log.Printf("=== Report server starting on %s ===\n", addr)
	return app.Listen(addr)
}
