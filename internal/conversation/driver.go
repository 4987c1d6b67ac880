// Package conversation runs one chat exchange against a note file.
//
// A run parses the note into turns, drops control-marker turns, marks the
// note with an in-flight placeholder, makes exactly one chat call and then
// replaces the placeholder with either the reply or an error block.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pbrown/notechat/internal/chat"
	"github.com/pbrown/notechat/internal/checkpoint"
	"github.com/pbrown/notechat/internal/config"
	"github.com/pbrown/notechat/internal/models"
	"github.com/pbrown/notechat/internal/notefile"
	"github.com/pbrown/notechat/internal/timing"
	"github.com/pbrown/notechat/internal/transcript"
)

// Abort reasons passed to Logger.LogAbort
const (
	AbortReadFailed = "read_failed"
	AbortMarkFailed = "mark_failed"
)

// Logger receives run events. *debuglog.Logger satisfies it.
type Logger interface {
	LogRunStart(path, model string)
	LogParsed(path string, parsed int, kept []models.Turn)
	LogAbort(path, reason, detail string)
	LogCallStart(path, model string, turns int)
	LogCallDone(path, model, response string, phases map[string]int64)
	LogCallFailed(path, model, errMsg, resolveErr string, phases map[string]int64)
	LogRecover(path, model string, found bool)
}

// NopLogger discards every event
type NopLogger struct{}

func (NopLogger) LogRunStart(string, string) {}
func (NopLogger) LogParsed(string, int, []models.Turn) {}
func (NopLogger) LogAbort(string, string, string) {}
func (NopLogger) LogCallStart(string, string, int) {}
func (NopLogger) LogCallDone(string, string, string, map[string]int64) {}
func (NopLogger) LogCallFailed(string, string, string, string, map[string]int64) {}
func (NopLogger) LogRecover(string, string, bool) {}

// CallError reports a failed chat call. The note already carries an error
// block for it when it is returned.
type CallError struct {
	Model string
	Err   error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("calling %s: %v", e.Model, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Options configures a Driver. Client is required.
type Options struct {
	Client            chat.Client
	Notes             *notefile.Manager  // default: notefile.NewManager()
	Logger            Logger             // default: NopLogger
	Ledger            *checkpoint.Ledger // optional pending-call record
	RunID             string
	DefaultModel      string // default: config.DefaultModel
	MaxOutputTokens   int    // default: config.DefaultMaxOutputTokens
	SystemInstruction string // default: config.DefaultSystemInstruction
	Clock             timing.Clock
}

// Driver orchestrates conversation runs
type Driver struct {
	client            chat.Client
	notes             *notefile.Manager
	logger            Logger
	ledger            *checkpoint.Ledger
	runID             string
	defaultModel      string
	maxOutputTokens   int
	systemInstruction string
	clock             timing.Clock
}

// NewDriver creates a Driver, filling unset options with defaults
func NewDriver(opts Options) *Driver {
	d := &Driver{
		client:            opts.Client,
		notes:             opts.Notes,
		logger:            opts.Logger,
		ledger:            opts.Ledger,
		runID:             opts.RunID,
		defaultModel:      opts.DefaultModel,
		maxOutputTokens:   opts.MaxOutputTokens,
		systemInstruction: opts.SystemInstruction,
		clock:             opts.Clock,
	}
	if d.notes == nil {
		d.notes = notefile.NewManager()
	}
	if d.logger == nil {
		d.logger = NopLogger{}
	}
	if d.defaultModel == "" {
		d.defaultModel = config.DefaultModel
	}
	if d.maxOutputTokens <= 0 {
		d.maxOutputTokens = config.DefaultMaxOutputTokens
	}
	if d.systemInstruction == "" {
		d.systemInstruction = config.DefaultSystemInstruction
	}
	return d
}

// Model returns model, or the default model when model is blank
func (d *Driver) Model(model string) string {
	if strings.TrimSpace(model) == "" {
		return d.defaultModel
	}
	return model
}

// Run performs one exchange and returns the reply.
//
// A note that cannot be read yields a *transcript.ParseError and is never
// written. A failed call yields a *CallError after the error block has been
// written to the note.
func (d *Driver) Run(ctx context.Context, path, model string) (string, error) {
	model = d.Model(model)
	timer := timing.NewWithClock(d.clock)
	d.logger.LogRunStart(path, model)

	var turns []models.Turn
	err := timer.Measure(timing.PhaseParse, func() error {
		parsed, err := transcript.ParseFile(path)
		if err != nil {
			return err
		}
		turns = transcript.Filter(parsed)
		d.logger.LogParsed(path, len(parsed), turns)
		return nil
	})
	if err != nil {
		d.logger.LogAbort(path, AbortReadFailed, err.Error())
		return "", err
	}

	err = timer.Measure(timing.PhaseMark, func() error {
		return d.notes.Insert(path, model)
	})
	if err != nil {
		d.logger.LogAbort(path, AbortMarkFailed, err.Error())
		return "", fmt.Errorf("marking note: %w", err)
	}
	d.markPending(path, model)

	d.logger.LogCallStart(path, model, len(turns))
	var response string
	callErr := timer.Measure(timing.PhaseCall, func() error {
		var err error
		response, err = d.client.Send(ctx, chat.Request{
			Turns:             turns,
			Model:             model,
			MaxOutputTokens:   d.maxOutputTokens,
			SystemInstruction: d.systemInstruction,
		})
		return err
	})

	if callErr != nil {
		resolveErr := timer.Measure(timing.PhaseResolve, func() error {
			return d.notes.ResolveFailure(path, model, callErr.Error())
		})
		d.logger.LogCallFailed(path, model, callErr.Error(), errString(resolveErr), runPhases(timer))
		if resolveErr != nil {
			return "", errors.Join(&CallError{Model: model, Err: callErr}, fmt.Errorf("writing error block: %w", resolveErr))
		}
		d.clearPending(path)
		return "", &CallError{Model: model, Err: callErr}
	}

	err = timer.Measure(timing.PhaseResolve, func() error {
		return d.notes.ResolveSuccess(path, model, response)
	})
	if err != nil {
		d.logger.LogCallFailed(path, model, "", err.Error(), runPhases(timer))
		return "", fmt.Errorf("writing response: %w", err)
	}
	d.logger.LogCallDone(path, model, response, runPhases(timer))
	d.clearPending(path)

	return response, nil
}

// Recover removes a placeholder left by an interrupted run. The model comes
// from the pending ledger when it has an entry for path, otherwise from
// model (or the default). Returns the model used and whether a placeholder
// was found.
func (d *Driver) Recover(path, model string) (string, bool, error) {
	model = d.Model(model)
	if d.ledger != nil {
		entry, ok, err := d.ledger.Get(path)
		if err != nil {
			return model, false, fmt.Errorf("reading pending ledger: %w", err)
		}
		if ok {
			model = entry.Model
		}
	}

	found, err := d.notes.Clear(path, model)
	if err != nil {
		return model, false, fmt.Errorf("clearing placeholder: %w", err)
	}
	d.clearPending(path)
	d.logger.LogRecover(path, model, found)

	return model, found, nil
}

// Ledger failures never change what is written to the note.
func (d *Driver) markPending(path, model string) {
	if d.ledger == nil {
		return
	}
	_ = d.ledger.Mark(checkpoint.Entry{Path: path, Model: model, RunID: d.runID})
}

func (d *Driver) clearPending(path string) {
	if d.ledger == nil {
		return
	}
	_ = d.ledger.Clear(path)
}

// runPhases returns the recorded phases plus the total run time
func runPhases(timer *timing.Timer) map[string]int64 {
	phases := timer.Phases()
	phases[timing.PhaseTotal] = timer.ElapsedMs()
	return phases
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
