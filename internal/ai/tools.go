package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// ToolFunc executes one named tool. Input is the raw JSON arguments the
// model produced.
type ToolFunc func(ctx context.Context, input json.RawMessage) (interface{}, error)

// ToolRegistry holds the fixed set of tools the assistant may call.
type ToolRegistry struct {
	mu    sync.RWMutex
	specs map[string]Tool
	funcs map[string]ToolFunc
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		specs: make(map[string]Tool),
		funcs: make(map[string]ToolFunc),
	}
}

func (r *ToolRegistry) Register(spec Tool, fn ToolFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[spec.Name] = spec
	r.funcs[spec.Name] = fn
}

// Specs returns the tool schemas in stable order for the request payload.
func (r *ToolRegistry) Specs() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)

	specs := make([]Tool, 0, len(names))
	for _, name := range names {
		specs = append(specs, r.specs[name])
	}
	return specs
}

// Dispatch runs one tool by name.
func (r *ToolRegistry) Dispatch(ctx context.Context, name string, input json.RawMessage) (interface{}, error) {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	return fn(ctx, input)
}

// ObjectSchema is a shorthand for the JSON schema of a tool's arguments.
func ObjectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func StringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func NumberProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "number", "description": description}
}
