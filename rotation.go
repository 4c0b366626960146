package astrolog

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// rotationCategory selects which file family a rotation pass applies to.
type rotationCategory int

const (
	categoryGeneral rotationCategory = iota
	categoryCrash
)

// EnforceLimit deletes the oldest files of a category until no more than max
// remain. It runs before a new file of the category is created, so the new
// file never counts against its own limit. General logs match
// "<prefix> *.log", crash files match "Crash *.crash". Returns the number of
// files deleted. max <= 0 disables the policy.
//
// Ties in last-write time are broken by enumeration order: the first file
// found wins deletion, which is non-deterministic under true timestamp ties.
func EnforceLimit(dir string, category rotationCategory, prefix string, max int) int {
	if max <= 0 {
		return 0
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	type candidate struct {
		name    string
		modTime time.Time
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() || !matchesCategory(entry.Name(), category, prefix) {
			continue
		}
		info, errInfo := entry.Info()
		if errInfo != nil {
			continue
		}
		candidates = append(candidates, candidate{name: entry.Name(), modTime: info.ModTime()})
	}

	deleted := 0
	for len(candidates) > max {
		oldest := 0
		for i := 1; i < len(candidates); i++ {
			if candidates[i].modTime.Before(candidates[oldest].modTime) {
				oldest = i
			}
		}
		if err := os.Remove(filepath.Join(dir, candidates[oldest].name)); err == nil {
			deleted++
		}
		// Drop the candidate even on a failed remove so the loop terminates
		candidates = append(candidates[:oldest], candidates[oldest+1:]...)
	}
	return deleted
}

// matchesCategory reports whether a file name belongs to the rotation set.
func matchesCategory(name string, category rotationCategory, prefix string) bool {
	switch category {
	case categoryGeneral:
		return strings.HasPrefix(name, sanitizePrefix(prefix)+" ") &&
			strings.HasSuffix(name, logExtension)
	case categoryCrash:
		return strings.HasPrefix(name, crashFilePrefix+" ") &&
			strings.HasSuffix(name, crashExtension)
	}
	return false
}
