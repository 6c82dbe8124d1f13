package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// timestampWriter prefixes every log line with a wall-clock timestamp.
type timestampWriter struct {
	writer io.Writer
}

func (w *timestampWriter) Write(p []byte) (n int, err error) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf("[%s] %s", timestamp, string(p))
	return w.writer.Write([]byte(message))
}

// setupLogging routes diagnostics to both stderr and a rotating file, so a
// scan leaves a trace next to its artifacts without growing unbounded.
func setupLogging(logFilePath string) {
	fileLogger := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     0,
		Compress:   false,
	}

	multiWriter := io.MultiWriter(os.Stderr, fileLogger)

	log.SetOutput(&timestampWriter{writer: multiWriter})
	log.SetFlags(0) // timestamps are handled by the writer
}

// logParseFailure reports a recovered per-line parse problem. These never
// abort the scan.
func logParseFailure(what string, err error) {
	log.Printf("Parse failure (%s): %v\n", what, err)
}
