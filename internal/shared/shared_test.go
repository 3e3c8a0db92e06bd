package shared

import (
	"bytes"
	"testing"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	logger.Info("test message")

	if buf.Len() == 0 {
		t.Error("expected log output to be written")
	}
}

func TestGenerateID(t *testing.T) {
	id1 := GenerateID()
	id2 := GenerateID()

	if id1 == "" || id2 == "" {
		t.Error("expected non-empty IDs")
	}
	if id1 == id2 {
		t.Error("expected unique IDs")
	}
}

func TestGenerateState(t *testing.T) {
	state, err := GenerateState()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(state) != 32 {
		t.Errorf("expected 32 hex characters, got %d", len(state))
	}
}

func TestVisibilityString(t *testing.T) {
	if VisibilityString(true) != "Public" {
		t.Error("expected Public")
	}
	if VisibilityString(false) != "Private" {
		t.Error("expected Private")
	}
}
