package catalog

import (
	"iter"
	"sort"
	"sync"
)

// Registry manages the command catalog with thread-safe operations. The
// catalog is read-only after load; write operations exist for construction
// and for merging builtin catalogs with deployment-provided ones.
type Registry interface {
	Register(name string, spec CommandSpec) error
	Lookup(name string) (*CommandSpec, error)
	List() []CommandSpec
	ListFor(application string) iter.Seq[CommandSpec]
	Validate(inv ActionInvocation) error

	Clone() Registry
	Merge(other Registry) Registry
}

// InMemoryRegistry is a thread-safe in-memory implementation of Registry.
type InMemoryRegistry struct {
	mu    sync.RWMutex
	specs map[string]CommandSpec
}

var _ Registry = (*InMemoryRegistry)(nil)

// NewInMemoryRegistry creates an empty command registry.
func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		specs: make(map[string]CommandSpec),
	}
}

// Register adds a command spec under the given name.
func (r *InMemoryRegistry) Register(name string, spec CommandSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return &ValidationError{Kind: "empty_name", Command: name}
	}
	if spec.Name != "" && spec.Name != name {
		return &ValidationError{Kind: "name_mismatch", Command: name}
	}
	spec.Name = name
	r.specs[name] = spec
	return nil
}

// Lookup retrieves a command spec by name. Returns a copy to keep the
// catalog immutable from the caller's side.
func (r *InMemoryRegistry) Lookup(name string) (*CommandSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, exists := r.specs[name]
	if !exists {
		return nil, &UnknownCommandError{Name: name}
	}
	out := spec.Clone()
	return &out, nil
}

// Has checks if a command exists in the registry.
func (r *InMemoryRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.specs[name]
	return exists
}

// Count returns the number of commands in the registry.
func (r *InMemoryRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.specs)
}

// List returns all registered command specs sorted by name.
func (r *InMemoryRegistry) List() []CommandSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]CommandSpec, 0, len(r.specs))
	for _, spec := range r.specs {
		specs = append(specs, spec.Clone())
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// ListFor returns a lazy, restartable sequence of the specs available for
// the given application context. The catalog itself stays a flat namespace;
// filtering only consults each spec's application tags.
func (r *InMemoryRegistry) ListFor(application string) iter.Seq[CommandSpec] {
	return func(yield func(CommandSpec) bool) {
		for _, spec := range r.List() {
			if !spec.AvailableFor(application) {
				continue
			}
			if !yield(spec) {
				return
			}
		}
	}
}

// Clone creates a deep copy of the registry.
func (r *InMemoryRegistry) Clone() Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cloned := NewInMemoryRegistry()
	for name, spec := range r.specs {
		cloned.specs[name] = spec.Clone()
	}
	return cloned
}

// Merge creates a new registry containing commands from both registries.
// On conflict, entries from the other registry take precedence.
func (r *InMemoryRegistry) Merge(other Registry) Registry {
	merged := r.Clone().(*InMemoryRegistry)
	for _, spec := range other.List() {
		merged.specs[spec.Name] = spec
	}
	return merged
}

// Validate checks an invocation against the catalog: the command name must
// resolve, every required parameter must be present, and no argument outside
// the spec's parameter list is accepted. Unknown extra arguments are
// rejected rather than ignored so that hallucinated parameters surface as
// errors. Type coercion is the handler's responsibility.
func (r *InMemoryRegistry) Validate(inv ActionInvocation) error {
	spec, err := r.Lookup(inv.Command)
	if err != nil {
		return err
	}

	for _, param := range spec.Parameters {
		if !param.Required() {
			continue
		}
		if _, ok := inv.Args[param.Name]; !ok {
			return &ValidationError{
				Kind:     KindMissingRequiredArgument,
				Command:  inv.Command,
				Argument: param.Name,
			}
		}
	}

	for arg := range inv.Args {
		if _, ok := spec.Parameter(arg); !ok {
			return &ValidationError{
				Kind:     KindUnexpectedArgument,
				Command:  inv.Command,
				Argument: arg,
			}
		}
	}

	return nil
}
