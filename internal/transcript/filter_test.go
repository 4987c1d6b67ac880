package transcript

import (
	"testing"

	"github.com/pbrown/notechat/internal/models"
)

func Test_Filter_RemovesExactMarkers(t *testing.T) {
	turns := []models.Turn{
		{Role: models.RoleUser, Content: "Q1"},
		{Role: models.RoleAssistant, Content: "A1"},
		{Role: models.RoleUser, Content: "cc"},
	}

	filtered := Filter(turns)

	if len(filtered) != 2 {
		t.Fatalf("expected 2 turns, got %d: %+v", len(filtered), filtered)
	}
	if filtered[0].Content != "Q1" || filtered[1].Content != "A1" {
		t.Errorf("unexpected turns kept: %+v", filtered)
	}
	if len(turns) != 3 {
		t.Error("Filter must not modify its input")
	}
}

func Test_Filter_EveryMarker(t *testing.T) {
	for _, marker := range ControlMarkers {
		filtered := Filter([]models.Turn{{Role: models.RoleUser, Content: "  " + marker + "\n"}})
		if len(filtered) != 0 {
			t.Errorf("expected %q to be filtered", marker)
		}
	}
}

func Test_Filter_KeepsMarkerWithText(t *testing.T) {
	turns := []models.Turn{
		{Role: models.RoleUser, Content: "c1 please"},
		{Role: models.RoleUser, Content: "c1"},
		{Role: models.RoleUser, Content: "CC"},
		{Role: models.RoleUser, Content: "c8"},
	}

	filtered := Filter(turns)

	if len(filtered) != 3 {
		t.Fatalf("expected 3 turns, got %d: %+v", len(filtered), filtered)
	}
	for _, turn := range filtered {
		if turn.Content == "c1" {
			t.Errorf("bare marker c1 should have been removed")
		}
	}
}

func Test_Filter_Empty(t *testing.T) {
	if got := Filter(nil); len(got) != 0 {
		t.Errorf("expected no turns, got %+v", got)
	}
}

func Test_IsControlMarker(t *testing.T) {
	cases := map[string]bool{
		"cc":        true,
		" c7 ":      true,
		"c0\r":      true,
		"c8":        false,
		"Cc":        false,
		"cc please": false,
		"":          false,
	}
	for input, want := range cases {
		if got := IsControlMarker(input); got != want {
			t.Errorf("IsControlMarker(%q) = %v, want %v", input, got, want)
		}
	}
}

func Test_StripControlLines(t *testing.T) {
	input := "\n\nQ1\ncc\n---\nA1\n  c3  \n---\nc1 please\ncc"

	got := StripControlLines(input)

	expected := "Q1\n---\nA1\n---\nc1 please"
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func Test_StripControlLines_NoMarkers(t *testing.T) {
	input := "Hello\n\nworld"

	if got := StripControlLines(input); got != input {
		t.Errorf("expected text unchanged, got %q", got)
	}
}

func Test_StripControlLines_OnlyMarkers(t *testing.T) {
	if got := StripControlLines("cc\nc0\n"); got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
}
