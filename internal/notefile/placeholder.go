// Package notefile applies the in-flight placeholder protocol to a note.
//
// Before a chat call the note is scrubbed of control lines and a trailing
// "Calling <model>..." block is appended. After the call that block is
// removed again and the response, or an error report, is appended as a new
// delimited block. Every change rewrites the whole file under an advisory
// lock.
package notefile

import (
	"strings"
	"unicode"

	"github.com/pbrown/notechat/internal/lock"
	"github.com/pbrown/notechat/internal/transcript"
)

const blockSeparator = "\n\n" + transcript.Delimiter + "\n\n"

// Placeholder returns the exact block appended while a call to model is in flight
func Placeholder(model string) string {
	return blockSeparator + "Calling " + model + "..."
}

// ResponseBlock frames a model response as a trailing transcript block
func ResponseBlock(response string) string {
	return blockSeparator + response + blockSeparator
}

// ErrorBlock frames a failure report as a trailing transcript block
func ErrorBlock(errText string) string {
	return blockSeparator + "Error: " + errText + blockSeparator
}

// Manager rewrites notes around an external call
type Manager struct{}

// NewManager creates a Manager
func NewManager() *Manager {
	return &Manager{}
}

// Insert strips control-marker lines from the note and appends the
// in-flight placeholder for model.
func (m *Manager) Insert(path, model string) error {
	return lock.Update(path, func(content string) (string, error) {
		return transcript.StripControlLines(content) + Placeholder(model) + "\n", nil
	})
}

// ResolveSuccess removes the placeholder for model and appends response.
// If no placeholder is present the response is still appended.
func (m *Manager) ResolveSuccess(path, model, response string) error {
	return lock.Update(path, func(content string) (string, error) {
		content, _ = removePlaceholder(content, model)
		return content + ResponseBlock(response), nil
	})
}

// ResolveFailure removes the placeholder for model and appends an error block.
// Like ResolveSuccess it never drops earlier content.
func (m *Manager) ResolveFailure(path, model, errText string) error {
	return lock.Update(path, func(content string) (string, error) {
		content, _ = removePlaceholder(content, model)
		return content + ErrorBlock(errText), nil
	})
}

// Clear removes a stale placeholder for model left by an interrupted run,
// appending nothing. Reports whether a placeholder was found. It fails with
// lock.ErrBusy instead of waiting when another process holds the note.
func (m *Manager) Clear(path, model string) (bool, error) {
	var found bool
	err := lock.TryUpdate(path, func(content string) (string, error) {
		cleaned, ok := removePlaceholder(content, model)
		if !ok {
			return content, nil
		}
		found = true
		return cleaned + "\n", nil
	})
	return found, err
}

// removePlaceholder trims trailing whitespace and removes the last occurrence
// of the placeholder block. Only trailing space is trimmed so the block still
// matches when the note held nothing but the placeholder.
func removePlaceholder(content, model string) (string, bool) {
	content = strings.TrimRightFunc(content, unicode.IsSpace)

	marker := Placeholder(model)
	idx := strings.LastIndex(content, marker)
	if idx < 0 {
		return content, false
	}
	return content[:idx] + content[idx+len(marker):], true
}
