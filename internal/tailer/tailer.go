// Package tailer follows an events.jsonl written by another process and
// feeds its event lines into the engine. This is the serve-mode input
// path: the monitored agent appends to the log, the tailer replays the
// appends live.
package tailer

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tjfontaine/openalerts/internal/domain"
)

// pollInterval is the fallback cadence used when filesystem notification is
// unavailable, and the safety net alongside it.
const pollInterval = 500 * time.Millisecond

// Ingester is the sink for tailed events. Satisfied by engine.Engine.
type Ingester interface {
	Ingest(ctx context.Context, event domain.Event)
}

// Tailer follows one JSONL file from its current end. Alert lines written
// by a co-located engine are skipped so alerts are never re-ingested as
// events. If the file is truncated (rotated), reading restarts from the
// top.
type Tailer struct {
	path   string
	sink   Ingester
	logger *slog.Logger
	offset int64
}

// New creates a Tailer for path delivering into sink.
func New(path string, sink Ingester, logger *slog.Logger) *Tailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tailer{path: path, sink: sink, logger: logger}
}

// Run follows the file until ctx is done. The file may not exist yet; the
// tailer waits for it to appear. Existing content is skipped so only lines
// appended after Run starts are ingested.
func (t *Tailer) Run(ctx context.Context) error {
	if info, err := os.Stat(t.path); err == nil {
		t.offset = info.Size()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		t.logger.Warn("fsnotify unavailable, polling only",
			slog.String("error", err.Error()))
		watcher = nil
	}
	if watcher != nil {
		defer watcher.Close()
		// Watch the directory: the file itself may not exist yet, and
		// rename-style rotation replaces the inode.
		if err := watcher.Add(filepath.Dir(t.path)); err != nil {
			t.logger.Warn("watch failed, polling only",
				slog.String("error", err.Error()))
			watcher.Close()
			watcher = nil
		}
	}

	poll := time.NewTicker(pollInterval)
	defer poll.Stop()

	var notify chan fsnotify.Event
	if watcher != nil {
		notify = make(chan fsnotify.Event) // never closed before watcher
		go func() {
			for {
				select {
				case ev, ok := <-watcher.Events:
					if !ok {
						return
					}
					select {
					case notify <- ev:
					case <-ctx.Done():
						return
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return
					}
					t.logger.Warn("watch error", slog.String("error", err.Error()))
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-notify:
			t.drain(ctx)
		case <-poll.C:
			t.drain(ctx)
		}
	}
}

// drain reads everything appended since the last offset and ingests the
// event lines.
func (t *Tailer) drain(ctx context.Context) {
	f, err := os.Open(t.path)
	if err != nil {
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return
	}
	if info.Size() < t.offset {
		// Truncated or rotated: start over.
		t.offset = 0
	}
	if info.Size() == t.offset {
		return
	}
	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		t.offset += int64(len(line)) + 1
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
		if probe.RuleID != "" && probe.Fingerprint != "" {
			continue
		}
		if probe.Type == "" {
			continue
		}
		var event domain.Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		t.sink.Ingest(ctx, event)
	}
}
