package catalog

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry maps chat-model aliases to concrete Bedrock model ids. Aliases
// are loaded once from embedded YAML; lookups are read-only afterwards, the
// mutex guards against future hot-reload additions.
type Registry struct {
	models map[string]*Model
	mu     sync.RWMutex
}

// NewRegistry loads the embedded model catalog.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		models: make(map[string]*Model),
	}

	if err := r.loadFile("bedrock"); err != nil {
		return nil, fmt.Errorf("load bedrock catalog: %w", err)
	}

	return r, nil
}

func (r *Registry) loadFile(name string) error {
	filename := fmt.Sprintf("config/%s.yaml", name)
	data, err := configFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read %s: %w", filename, err)
	}

	var file modelFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("unmarshal %s: %w", filename, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for alias, model := range file.Models {
		model.Alias = alias
		r.models[alias] = model
	}

	return nil
}

// Resolve returns the Bedrock model id for an alias. Unknown or empty
// aliases report ok=false; the caller falls back to its configured default
// model rather than failing the turn.
func (r *Registry) Resolve(alias string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	model, ok := r.models[alias]
	if !ok {
		return "", false
	}
	return model.BedrockID, true
}

// List returns all catalog entries sorted by alias.
func (r *Registry) List() []Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Model, 0, len(r.models))
	for _, model := range r.models {
		out = append(out, *model)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out
}
