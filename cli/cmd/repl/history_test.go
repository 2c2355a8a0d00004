package repl

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestHistoryPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("load missing file: %v", err)
	}

	for _, e := range []HistoryEntry{
		{"let x = 1", modeEval},
		{"vars", modeCtrl},
		{"  print(x)  ", modeEval},
		{"", modeEval},
	} {
		if err := h.Write(e.Line, e.Mode); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if want := "E:let x = 1\nC:vars\nE:print(x)\n"; string(data) != want {
		t.Errorf("file:\n%q\nwant:\n%q", data, want)
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(reloaded.Entries(), h.Entries()) {
		t.Errorf("reloaded %v, want %v", reloaded.Entries(), h.Entries())
	}
}

func TestHistoryDedup(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	writes := []HistoryEntry{
		{"a", modeEval},
		{"a", modeEval},
		{"b", modeEval},
		{"a", modeCtrl},
		{"a", modeEval},
	}

	for _, e := range writes {
		if err := h.Write(e.Line, e.Mode); err != nil {
			t.Fatal(err)
		}
	}

	want := []HistoryEntry{
		{"b", modeEval},
		{"a", modeCtrl},
		{"a", modeEval},
	}

	if got := h.Entries(); !slices.Equal(got, want) {
		t.Errorf("entries %v, want %v", got, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != "E:b\nC:a\nE:a\n" {
		t.Errorf("file not rewritten: %q", data)
	}
}

func TestHistoryEntry(t *testing.T) {
	h := NewHistory("")

	if err := h.Write("x", modeEval); err != nil {
		t.Fatal(err)
	}

	if e, err := h.Entry(0); err != nil || e.Line != "x" {
		t.Errorf("Entry(0) = %v, %v", e, err)
	}

	for _, i := range []int{-1, 1} {
		if _, err := h.Entry(i); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Entry(%d): got %v", i, err)
		}
	}
}

func TestDecodeHistory(t *testing.T) {
	tests := []struct {
		line string
		want HistoryEntry
	}{
		{"E:let x = 1", HistoryEntry{"let x = 1", modeEval}},
		{"C:help", HistoryEntry{"help", modeCtrl}},
		{"print(1)", HistoryEntry{"print(1)", modeEval}},
	}

	for _, tt := range tests {
		if got := decodeHistory(tt.line); got != tt.want {
			t.Errorf("decodeHistory(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
