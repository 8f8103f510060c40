package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Action is a navigation request replayed against a wizard by the API
type Action string

const (
	ActionNone     Action = ""
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
)

// Flow is the type-erased view of a Definition used by HTTP handlers that only
// see raw JSON.
type Flow interface {
	ID() string
	// Evaluate decodes data, positions the wizard at current, applies action
	// and reports the resulting state.
	Evaluate(data json.RawMessage, current int, action Action) (Evaluation, error)
	// ValidDraft reports whether raw decodes as a draft for this wizard
	ValidDraft(raw json.RawMessage) error
}

type flow[T any] struct {
	def Definition[T]
}

// FlowOf wraps a typed definition
func FlowOf[T any](def Definition[T]) Flow {
	return flow[T]{def: def}
}

func (f flow[T]) ID() string { return f.def.ID }

func (f flow[T]) Evaluate(data json.RawMessage, current int, action Action) (Evaluation, error) {
	var value T
	if len(data) > 0 {
		if err := json.Unmarshal(data, &value); err != nil {
			return Evaluation{}, fmt.Errorf("invalid %s wizard data: %w", f.def.ID, err)
		}
	}

	s := New(f.def, nil, "", value, nil)
	s.current = s.clamp(current)

	switch action {
	case ActionNone:
	case ActionNext:
		s.Next(context.Background())
	case ActionPrevious:
		s.Previous(context.Background())
	default:
		return Evaluation{}, fmt.Errorf("unknown wizard action %q", action)
	}
	return s.Evaluate(), nil
}

func (f flow[T]) ValidDraft(raw json.RawMessage) error {
	var d Draft[T]
	if err := json.Unmarshal(raw, &d); err != nil {
		return fmt.Errorf("invalid %s draft: %w", f.def.ID, err)
	}
	if d.Step < 0 {
		return fmt.Errorf("invalid %s draft: negative step", f.def.ID)
	}
	return nil
}

// Registry maps wizard ids to flows
type Registry struct {
	flows map[string]Flow
}

// NewRegistry builds a registry from flows; later duplicates win
func NewRegistry(flows ...Flow) *Registry {
	r := &Registry{flows: make(map[string]Flow, len(flows))}
	for _, f := range flows {
		r.flows[f.ID()] = f
	}
	return r
}

// DefaultRegistry holds every wizard the product ships
func DefaultRegistry() *Registry {
	return NewRegistry(
		FlowOf(StreamWizard),
		FlowOf(AnalysisWizard),
		FlowOf(OppScanWizard),
	)
}

// Get looks up a flow by wizard id
func (r *Registry) Get(id string) (Flow, bool) {
	f, ok := r.flows[id]
	return f, ok
}

// IDs lists the registered wizard ids in sorted order
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.flows))
	for id := range r.flows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
