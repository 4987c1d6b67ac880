// Package phrases picks a random line from a phrases file
package phrases

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"
)

// ErrNoPhrases is returned when the file has no non-blank lines
var ErrNoPhrases = errors.New("no phrases found")

// Load reads the non-blank lines of a phrases file, trimmed
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening phrases file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading phrases file: %w", err)
	}
	return lines, nil
}

// Pick returns one uniformly random phrase from path.
// A nil rng uses a time-seeded source.
func Pick(path string, rng *rand.Rand) (string, error) {
	lines, err := Load(path)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", ErrNoPhrases
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return lines[rng.Intn(len(lines))], nil
}
