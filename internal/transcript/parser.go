// Package transcript turns note text into an ordered list of chat turns.
//
// A note is split on the literal delimiter "---". Blocks alternate between
// user and assistant by their position in the split; blank blocks are skipped
// without shifting that alternation. A note without any delimiter is a single
// user turn.
package transcript

import (
	"fmt"
	"os"
	"strings"

	"github.com/pbrown/notechat/internal/models"
)

// Delimiter separates turns in a note. It is matched as a bare substring.
const Delimiter = "---"

// ParseError reports that a note could not be read
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("reading note %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseFile reads the note at path and parses it into turns.
// The only failure mode is an I/O error, returned as *ParseError.
func ParseFile(path string) ([]models.Turn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return Parse(string(data)), nil
}

// Parse splits note text into turns. Any text is parseable.
func Parse(text string) []models.Turn {
	blocks := strings.Split(text, Delimiter)

	if len(blocks) == 1 {
		return []models.Turn{{Role: models.RoleUser, Content: strings.TrimSpace(text)}}
	}

	turns := make([]models.Turn, 0, len(blocks))
	for i, block := range blocks {
		content := strings.TrimSpace(block)
		if content == "" {
			continue
		}
		turns = append(turns, models.Turn{
			Role:    models.RoleForIndex(i),
			Content: content,
		})
	}
	return turns
}
