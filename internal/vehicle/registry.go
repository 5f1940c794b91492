package vehicle

import (
	"fmt"
	"sort"
	"sync"

	"github.com/san-kum/mv2dsim/internal/confnode"
	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// Constructor builds an unconfigured model for a vehicle bound to parent.
type Constructor func(parent Parent, node confnode.Node) (Model, error)

// Registry maps class discriminators to constructors. Registration happens at
// process start; the first Construct seals the registry.
type Registry struct {
	mu     sync.RWMutex
	ctors  map[string]Constructor
	sealed bool
}

func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Default holds the built-in models, registered from their packages' init.
var Default = NewRegistry()

func (r *Registry) Register(class string, ctor Constructor) error {
	if class == "" || ctor == nil {
		return fmt.Errorf("vehicle: register needs a class and a constructor")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%w: cannot register %q", dynamo.ErrRegistrySealed, class)
	}
	if _, ok := r.ctors[class]; ok {
		return fmt.Errorf("%w: %q", dynamo.ErrDuplicateType, class)
	}
	r.ctors[class] = ctor
	return nil
}

// MustRegister is Register for init functions; a collision is fatal.
func (r *Registry) MustRegister(class string, ctor Constructor) {
	if err := r.Register(class, ctor); err != nil {
		panic(err)
	}
}

// Construct looks up class and invokes its constructor. The returned vehicle
// has no parameters loaded; callers normally go through Factory instead.
func (r *Registry) Construct(class string, parent Parent, node confnode.Node) (*Vehicle, error) {
	r.mu.Lock()
	r.sealed = true
	ctor, ok := r.ctors[class]
	r.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownVehicleType, class)
	}

	m, err := ctor(parent, node)
	if err != nil {
		return nil, fmt.Errorf("construct %s: %w", class, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: constructor for %q returned no model", dynamo.ErrContractViolation, class)
	}
	return newVehicle(class, parent, m), nil
}

func (r *Registry) Has(class string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[class]
	return ok
}

// Classes returns the registered discriminators in sorted order.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Register(class string, ctor Constructor) error { return Default.Register(class, ctor) }

func MustRegister(class string, ctor Constructor) { Default.MustRegister(class, ctor) }

func Classes() []string { return Default.Classes() }
