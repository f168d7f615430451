// Package store persists events and alerts as one JSON object per line in
// events.jsonl under the state directory. The log is append-only between
// prune passes and is the engine's only durable state.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tjfontaine/openalerts/internal/domain"
)

// LogFileName is the JSONL file appended under the state directory.
const LogFileName = "events.jsonl"

// Store appends events and alerts to a shared JSONL log. Safe for
// concurrent use.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. The directory is created on first
// append.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the full path of the log file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, LogFileName)
}

// AppendEvent serializes the event and appends it to the log.
func (s *Store) AppendEvent(event domain.Event) error {
	return s.appendJSON(event)
}

// AppendAlert serializes the alert and appends it to the log. Attached
// events are dropped to keep alert lines compact.
func (s *Store) AppendAlert(alert domain.Alert) error {
	alert.Events = nil
	return s.appendJSON(alert)
}

func (s *Store) appendJSON(v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal log line: %w", err)
	}
	f, err := os.OpenFile(s.Path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append log line: %w", err)
	}
	return f.Sync()
}

// History is the result of replaying the log: the most recent events and
// alerts in file order.
type History struct {
	Events []domain.Event
	Alerts []domain.Alert
}

// LoadHistory replays the log and returns up to eventLimit trailing events
// and alertLimit trailing alerts. Alert lines are recognized by carrying
// both rule_id and fingerprint; event lines by a type field. Lines that are
// neither, or that fail to parse, are skipped. A missing log yields an
// empty history.
func (s *Store) LoadHistory(eventLimit, alertLimit int) (*History, error) {
	h := &History{}
	f, err := os.Open(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var probe struct {
			Type        string `json:"type"`
			RuleID      string `json:"rule_id"`
			Fingerprint string `json:"fingerprint"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			continue
		}
		switch {
		case probe.RuleID != "" && probe.Fingerprint != "":
			var alert domain.Alert
			if err := json.Unmarshal(line, &alert); err != nil {
				continue
			}
			h.Alerts = append(h.Alerts, alert)
		case probe.Type != "":
			var event domain.Event
			if err := json.Unmarshal(line, &event); err != nil {
				continue
			}
			h.Events = append(h.Events, event)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan log: %w", err)
	}

	if eventLimit > 0 && len(h.Events) > eventLimit {
		h.Events = h.Events[len(h.Events)-eventLimit:]
	}
	if alertLimit > 0 && len(h.Alerts) > alertLimit {
		h.Alerts = h.Alerts[len(h.Alerts)-alertLimit:]
	}
	return h, nil
}

// WarmCooldowns replays stored alerts into the cooldown sink so a restarted
// engine does not re-fire conditions already alerted before the restart.
// Returns the number of alerts applied.
func (s *Store) WarmCooldowns(set func(fingerprint string, ts float64)) (int, error) {
	h, err := s.LoadHistory(0, 0)
	if err != nil {
		return 0, err
	}
	for _, a := range h.Alerts {
		set(a.Fingerprint, a.TS)
	}
	return len(h.Alerts), nil
}
