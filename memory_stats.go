package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/process"
)

// scanResources captures the process footprint after a scan, logged in
// verbose mode so operators can judge whether a file is too large for the
// in-memory accumulator.
type scanResources struct {
	HeapAllocMB float64
	RSSMB       float64
}

func getScanResources() (*scanResources, error) {
	res := &scanResources{}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	res.HeapAllocMB = float64(m.Alloc) / 1024 / 1024

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return res, err
	}
	memInfo, err := proc.MemoryInfo()
	if err != nil {
		return res, err
	}
	res.RSSMB = float64(memInfo.RSS) / 1024 / 1024

	return res, nil
}

func (r *scanResources) String() string {
	return fmt.Sprintf("RSS=%.1fMB HeapAlloc=%.1fMB", r.RSSMB, r.HeapAllocMB)
}

func scanResourcesString() string {
	res, err := getScanResources()
	if err != nil {
		return fmt.Sprintf("Error getting memory stats: %v", err)
	}
	return res.String()
}
