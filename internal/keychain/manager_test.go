package keychain

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
)

func newTestManager() *Manager {
	return &Manager{backend: ringBackend{ring: keyring.NewArrayKeyring(nil)}}
}

func TestSaveLoadAPIKey(t *testing.T) {
	m := newTestManager()

	if err := m.SaveAPIKey("Groq", "gsk_test"); err != nil {
		t.Fatalf("SaveAPIKey: %v", err)
	}
	got, err := m.LoadAPIKey("groq")
	if err != nil {
		t.Fatalf("LoadAPIKey: %v", err)
	}
	if got != "gsk_test" {
		t.Errorf("LoadAPIKey = %q", got)
	}

	if _, err := m.LoadAPIKey("openrouter"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadAPIKey(openrouter) err = %v, want ErrNotFound", err)
	}
}

func TestSaveAPIKeyValidation(t *testing.T) {
	m := newTestManager()

	tests := []struct {
		name     string
		provider string
		key      string
	}{
		{name: "unknown provider", provider: "anthropic", key: "x"},
		{name: "empty key", provider: "groq", key: "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.SaveAPIKey(tt.provider, tt.key); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestClearAPIKeys(t *testing.T) {
	m := newTestManager()
	for _, p := range Providers {
		if err := m.SaveAPIKey(p, p+"-key"); err != nil {
			t.Fatalf("SaveAPIKey(%s): %v", p, err)
		}
	}

	if err := m.ClearAPIKey("groq"); err != nil {
		t.Fatalf("ClearAPIKey: %v", err)
	}
	if _, err := m.LoadAPIKey("groq"); !errors.Is(err, ErrNotFound) {
		t.Errorf("groq key still present, err = %v", err)
	}
	if v, _ := m.LoadAPIKey("openrouter"); v != "openrouter-key" {
		t.Errorf("openrouter key = %q", v)
	}

	if err := m.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	// Clearing an empty keyring is not an error.
	if err := m.ClearAll(); err != nil {
		t.Fatalf("second ClearAll: %v", err)
	}
	if _, err := m.LoadAPIKey("openrouter"); !errors.Is(err, ErrNotFound) {
		t.Errorf("openrouter key still present, err = %v", err)
	}
}
