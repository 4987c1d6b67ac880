// Package debuglog provides structured JSONL logging for notechat.
// Writes to {stateDir}/notechat.log at configurable debug levels.
//
// Level 1 records run events. Level 2 adds turn and response bodies.
package debuglog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pbrown/notechat/internal/models"
)

// LogFileName is the log file created inside the state directory
const LogFileName = "notechat.log"

// Logger writes structured log entries to the debug log file.
// Every entry of one Logger shares a run id.
type Logger struct {
	stateDir   string
	debugLevel int
	runID      string
	now        func() time.Time
}

// New creates a Logger with a fresh run id.
// Logging is a no-op if debugLevel is below the level of each call.
func New(stateDir string, debugLevel int) *Logger {
	return &Logger{
		stateDir:   stateDir,
		debugLevel: debugLevel,
		runID:      uuid.NewString(),
		now:        time.Now,
	}
}

// RunID returns the id stamped on every entry
func (l *Logger) RunID() string {
	return l.runID
}

// Path returns the log file location
func (l *Logger) Path() string {
	return filepath.Join(l.stateDir, LogFileName)
}

// TurnEntry is a compact representation of a turn for logging
type TurnEntry struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
	Length  int    `json:"length"`
}

func (l *Logger) turnEntries(turns []models.Turn) []TurnEntry {
	entries := make([]TurnEntry, len(turns))
	for i, t := range turns {
		entries[i] = TurnEntry{Role: string(t.Role), Length: len(t.Content)}
		if l.debugLevel >= 2 {
			entries[i].Content = t.Content
		}
	}
	return entries
}

// LogRunStart logs the start of a run against a note
func (l *Logger) LogRunStart(path, model string) {
	if l.debugLevel < 1 {
		return
	}

	l.write(map[string]interface{}{
		"event": "run_started",
		"level": "info",
		"path":  path,
		"model": model,
	})
}

// LogParsed logs the turn counts before and after filtering
func (l *Logger) LogParsed(path string, parsed int, kept []models.Turn) {
	if l.debugLevel < 1 {
		return
	}

	l.write(map[string]interface{}{
		"event":  "note_parsed",
		"level":  "info",
		"path":   path,
		"parsed": parsed,
		"kept":   len(kept),
		"turns":  l.turnEntries(kept),
	})
}

// LogAbort logs a run that stopped before calling the model.
// reason: "read_failed", "mark_failed"
func (l *Logger) LogAbort(path, reason, detail string) {
	if l.debugLevel < 1 {
		return
	}

	l.write(map[string]interface{}{
		"event":  "run_aborted",
		"level":  "warn",
		"path":   path,
		"reason": reason,
		"detail": detail,
	})
}

// LogCallStart logs the outgoing chat request
func (l *Logger) LogCallStart(path, model string, turns int) {
	if l.debugLevel < 1 {
		return
	}

	l.write(map[string]interface{}{
		"event": "call_started",
		"level": "info",
		"path":  path,
		"model": model,
		"turns": turns,
	})
}

// LogCallDone logs a successful call and the phase timings of the run
func (l *Logger) LogCallDone(path, model, response string, phases map[string]int64) {
	if l.debugLevel < 1 {
		return
	}

	entry := map[string]interface{}{
		"event":           "call_succeeded",
		"level":           "info",
		"path":            path,
		"model":           model,
		"response_length": len(response),
		"phases_ms":       phases,
	}
	if l.debugLevel >= 2 {
		entry["response"] = response
	}
	l.write(entry)
}

// LogCallFailed logs a failed call. The note already carries the error block
// unless resolveErr is non-empty.
func (l *Logger) LogCallFailed(path, model, errMsg, resolveErr string, phases map[string]int64) {
	if l.debugLevel < 1 {
		return
	}

	l.write(map[string]interface{}{
		"event":         "call_failed",
		"level":         "error",
		"path":          path,
		"model":         model,
		"error":         errMsg,
		"resolve_error": resolveErr,
		"phases_ms":     phases,
	})
}

// LogRecover logs a manual placeholder recovery
func (l *Logger) LogRecover(path, model string, found bool) {
	if l.debugLevel < 1 {
		return
	}

	l.write(map[string]interface{}{
		"event": "placeholder_recovered",
		"level": "info",
		"path":  path,
		"model": model,
		"found": found,
	})
}

func (l *Logger) write(entry map[string]interface{}) {
	entry["timestamp"] = l.now().Format(time.RFC3339)
	entry["run_id"] = l.runID

	if err := os.MkdirAll(l.stateDir, 0755); err != nil {
		return
	}

	f, err := os.OpenFile(l.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	f.WriteString(string(data) + "\n")
}
