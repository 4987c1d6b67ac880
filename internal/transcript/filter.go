package transcript

import (
	"strings"

	"github.com/pbrown/notechat/internal/models"
)

// ControlMarkers are sentinel lines meaning "ignore this turn".
// Matching is exact and case-sensitive against trimmed text.
var ControlMarkers = []string{"cc", "c0", "c1", "c2", "c3", "c4", "c5", "c6", "c7"}

var controlMarkerSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(ControlMarkers))
	for _, m := range ControlMarkers {
		set[m] = struct{}{}
	}
	return set
}()

// IsControlMarker reports whether s, once trimmed, is exactly a control marker
func IsControlMarker(s string) bool {
	_, ok := controlMarkerSet[strings.TrimSpace(s)]
	return ok
}

// Filter returns the turns whose content is not a bare control marker.
// A turn with a marker plus other text is kept. The input is not modified.
func Filter(turns []models.Turn) []models.Turn {
	kept := make([]models.Turn, 0, len(turns))
	for _, turn := range turns {
		if IsControlMarker(turn.Content) {
			continue
		}
		kept = append(kept, turn)
	}
	return kept
}

// StripControlLines removes every line of text that is only a control marker.
// It works on raw lines rather than turns and is applied to the file itself
// before the in-flight placeholder is appended. The whole text is trimmed
// first, so leading and trailing blank lines do not survive either.
func StripControlLines(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if IsControlMarker(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
