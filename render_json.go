package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteJSONReport writes the report as an indented JSON document.
func WriteJSONReport(report *Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating JSON report: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("encoding JSON report: %w", err)
	}

	return nil
}
