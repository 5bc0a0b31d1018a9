// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCostMicros(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name      string
		model     string
		tokensIn  int
		tokensOut int
		expected  int64
	}{
		{
			name:      "gpt-4o typical request",
			model:     "gpt-4o",
			tokensIn:  1000,
			tokensOut: 1000,
			expected:  2500 + 10000,
		},
		{
			name:      "claude sonnet small request",
			model:     "claude-3-5-sonnet",
			tokensIn:  100,
			tokensOut: 50,
			expected:  300 + 750,
		},
		{
			name:      "unknown model is free",
			model:     "llama-self-hosted",
			tokensIn:  5000,
			tokensOut: 5000,
			expected:  0,
		},
		{
			name:     "zero tokens",
			model:    "gpt-4o",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.CostMicros(tt.model, tt.tokensIn, tt.tokensOut)
			if got != tt.expected {
				t.Errorf("CostMicros(%s, %d, %d) = %d, want %d",
					tt.model, tt.tokensIn, tt.tokensOut, got, tt.expected)
			}
		})
	}
}

func TestProvider(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		model    string
		expected string
	}{
		{"gpt-4o", "openai"},
		{"claude-3-5-sonnet", "anthropic"},
		{"gemini-1.5-pro", "google"},
		{"claude-9-future", "anthropic"}, // prefix fallback
		{"o1-preview", "openai"},         // prefix fallback
		{"totally-custom", "unknown"},
	}

	for _, tt := range tests {
		if got := r.Provider(tt.model); got != tt.expected {
			t.Errorf("Provider(%s) = %s, want %s", tt.model, got, tt.expected)
		}
	}
}

func TestListSorted(t *testing.T) {
	r := DefaultRegistry()
	infos := r.List()

	if len(infos) == 0 {
		t.Fatal("Expected default registry to contain models")
	}
	for i := 1; i < len(infos); i++ {
		if infos[i-1].ID >= infos[i].ID {
			t.Errorf("List not sorted: %s before %s", infos[i-1].ID, infos[i].ID)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.yaml")

	yamlContent := `models:
  - id: gpt-4o
    provider: openai
    input_per_1k_micros: 9999
    output_per_1k_micros: 8888
  - id: in-house-7b
    provider: local
    input_per_1k_micros: 0
    output_per_1k_micros: 0
`
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	r, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	// File entry overrides the default
	info, ok := r.Lookup("gpt-4o")
	if !ok {
		t.Fatal("Expected gpt-4o in registry")
	}
	if info.InputPer1KMicros != 9999 {
		t.Errorf("Expected override pricing 9999, got %d", info.InputPer1KMicros)
	}

	// New entry is added, defaults survive
	if _, ok := r.Lookup("in-house-7b"); !ok {
		t.Error("Expected in-house-7b in registry")
	}
	if _, ok := r.Lookup("claude-3-5-sonnet"); !ok {
		t.Error("Expected default claude-3-5-sonnet to survive merge")
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/models.yaml"); err == nil {
		t.Error("Expected error for missing file")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("models:\n  - id: [broken"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}
