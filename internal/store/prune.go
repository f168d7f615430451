package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tjfontaine/openalerts/internal/domain"
)

// Prune rewrites the log, dropping lines older than maxAgeDays and then
// dropping the oldest remaining lines until the file fits maxSizeKB. Lines
// without a parseable ts are kept. The rewrite goes through a temp file and
// rename so a crash mid-prune never loses the log.
func (s *Store) Prune(maxSizeKB, maxAgeDays int) error {
	f, err := os.Open(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open log: %w", err)
	}

	cutoff := domain.Now() - float64(maxAgeDays)*86400
	var kept []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var probe struct {
			TS *float64 `json:"ts"`
		}
		if err := json.Unmarshal([]byte(line), &probe); err == nil &&
			probe.TS != nil && *probe.TS < cutoff {
			continue
		}
		kept = append(kept, line)
	}
	scanErr := scanner.Err()
	f.Close()
	if scanErr != nil {
		return fmt.Errorf("scan log: %w", scanErr)
	}

	// Drop from the front until the total size fits.
	maxBytes := maxSizeKB * 1024
	total := 0
	for _, line := range kept {
		total += len(line) + 1
	}
	start := 0
	for start < len(kept) && total > maxBytes {
		total -= len(kept[start]) + 1
		start++
	}
	kept = kept[start:]

	tmp := s.Path() + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	w := bufio.NewWriter(out)
	for _, line := range kept {
		fmt.Fprintln(w, line)
	}
	if err := w.Flush(); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp log: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("swap log: %w", err)
	}
	return nil
}
