// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

// Package models holds the static model registry: per-model metadata and
// pricing keyed by model id. The registry is loaded once at startup and is
// immutable afterwards, so it can be shared freely across components.
package models

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Info describes one routable model.
// Pricing is stored in microdollars per 1K tokens so cost math stays in
// integers end to end; conversion to dollars happens only at presentation.
type Info struct {
	ID                string `json:"id" yaml:"id"`
	Provider          string `json:"provider" yaml:"provider"`
	DisplayName       string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	MaxTokens         int    `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	InputPer1KMicros  int64  `json:"input_per_1k_micros" yaml:"input_per_1k_micros"`
	OutputPer1KMicros int64  `json:"output_per_1k_micros" yaml:"output_per_1k_micros"`
}

// Registry is an immutable model-id -> Info mapping.
type Registry struct {
	models map[string]Info
}

// defaultModels contains pricing for common models reachable through the
// routing proxy (USD per 1K tokens, expressed in microdollars).
var defaultModels = []Info{
	{ID: "gpt-4o", Provider: "openai", DisplayName: "GPT-4o", MaxTokens: 16384, InputPer1KMicros: 2500, OutputPer1KMicros: 10000},
	{ID: "gpt-4o-mini", Provider: "openai", DisplayName: "GPT-4o mini", MaxTokens: 16384, InputPer1KMicros: 150, OutputPer1KMicros: 600},
	{ID: "gpt-4-turbo", Provider: "openai", DisplayName: "GPT-4 Turbo", MaxTokens: 4096, InputPer1KMicros: 10000, OutputPer1KMicros: 30000},
	{ID: "o1-mini", Provider: "openai", DisplayName: "o1-mini", MaxTokens: 65536, InputPer1KMicros: 3000, OutputPer1KMicros: 12000},
	{ID: "claude-3-5-sonnet", Provider: "anthropic", DisplayName: "Claude 3.5 Sonnet", MaxTokens: 8192, InputPer1KMicros: 3000, OutputPer1KMicros: 15000},
	{ID: "claude-3-5-haiku", Provider: "anthropic", DisplayName: "Claude 3.5 Haiku", MaxTokens: 8192, InputPer1KMicros: 800, OutputPer1KMicros: 4000},
	{ID: "claude-3-opus", Provider: "anthropic", DisplayName: "Claude 3 Opus", MaxTokens: 4096, InputPer1KMicros: 15000, OutputPer1KMicros: 75000},
	{ID: "gemini-1.5-pro", Provider: "google", DisplayName: "Gemini 1.5 Pro", MaxTokens: 8192, InputPer1KMicros: 1250, OutputPer1KMicros: 5000},
	{ID: "gemini-1.5-flash", Provider: "google", DisplayName: "Gemini 1.5 Flash", MaxTokens: 8192, InputPer1KMicros: 75, OutputPer1KMicros: 300},
	{ID: "mistral-large-latest", Provider: "mistral", DisplayName: "Mistral Large", MaxTokens: 8192, InputPer1KMicros: 2000, OutputPer1KMicros: 6000},
}

// NewRegistry creates a registry from an explicit model list.
func NewRegistry(infos []Info) *Registry {
	m := make(map[string]Info, len(infos))
	for _, info := range infos {
		m[info.ID] = info
	}
	return &Registry{models: m}
}

// DefaultRegistry creates a registry with built-in pricing.
func DefaultRegistry() *Registry {
	return NewRegistry(defaultModels)
}

// registryFile is the YAML layout for a model config file.
type registryFile struct {
	Models []Info `yaml:"models"`
}

// LoadFromFile loads the registry from a YAML file. Entries in the file are
// merged over the built-in defaults, matching by model id.
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model config: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse model config: %w", err)
	}

	merged := make(map[string]Info, len(defaultModels)+len(file.Models))
	for _, info := range defaultModels {
		merged[info.ID] = info
	}
	for _, info := range file.Models {
		if info.ID == "" {
			return nil, fmt.Errorf("model config entry missing id")
		}
		merged[info.ID] = info
	}

	infos := make([]Info, 0, len(merged))
	for _, info := range merged {
		infos = append(infos, info)
	}
	return NewRegistry(infos), nil
}

// Lookup returns the Info for a model id.
func (r *Registry) Lookup(modelID string) (Info, bool) {
	info, ok := r.models[modelID]
	return info, ok
}

// Provider returns the provider name for a model, or "unknown" if the model
// is not registered. Unregistered models are still routable; the proxy
// decides what it accepts.
func (r *Registry) Provider(modelID string) string {
	if info, ok := r.models[modelID]; ok {
		return info.Provider
	}
	// Model ids are usually prefixed with a recognizable family name.
	switch {
	case strings.HasPrefix(modelID, "gpt-"), strings.HasPrefix(modelID, "o1-"):
		return "openai"
	case strings.HasPrefix(modelID, "claude-"):
		return "anthropic"
	case strings.HasPrefix(modelID, "gemini-"):
		return "google"
	}
	return "unknown"
}

// CostMicros computes the cost of a request in microdollars. Unregistered
// models cost zero; the ledger still records their token counts.
func (r *Registry) CostMicros(modelID string, tokensIn, tokensOut int) int64 {
	info, ok := r.models[modelID]
	if !ok {
		return 0
	}
	return int64(tokensIn)*info.InputPer1KMicros/1000 + int64(tokensOut)*info.OutputPer1KMicros/1000
}

// List returns all registered models sorted by id.
func (r *Registry) List() []Info {
	infos := make([]Info, 0, len(r.models))
	for _, info := range r.models {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
