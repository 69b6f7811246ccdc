package tariff

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ogulcanaydogan/callbill/pkg/model"
)

// Registry manages named tariff plans.
type Registry struct {
	mu    sync.RWMutex
	plans map[string]model.TariffConfig
}

// NewRegistry creates an empty plan registry.
func NewRegistry() *Registry {
	return &Registry{
		plans: make(map[string]model.TariffConfig),
	}
}

// Register adds a validated plan to the registry.
func (r *Registry) Register(t model.TariffConfig) error {
	if t.Name == "" {
		return fmt.Errorf("plan has no name")
	}
	if err := Validate(t); err != nil {
		return fmt.Errorf("plan %q: %w", t.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plans[t.Name]; exists {
		return fmt.Errorf("plan %q already registered", t.Name)
	}
	r.plans[t.Name] = t
	return nil
}

// Get returns a plan by name.
func (r *Registry) Get(name string) (model.TariffConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.plans[name]
	if !ok {
		return model.TariffConfig{}, fmt.Errorf("%w: %q", ErrPlanNotFound, name)
	}
	return t, nil
}

// List returns all registered plan names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.plans))
	for name := range r.plans {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered plans ordered by name.
func (r *Registry) All() []model.TariffConfig {
	names := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()

	plans := make([]model.TariffConfig, 0, len(names))
	for _, name := range names {
		plans = append(plans, r.plans[name])
	}
	return plans
}

// LoadDir registers every *.yaml and *.yml file in dir. A missing directory is not an error.
func (r *Registry) LoadDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("scan plans dir: %w", err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	for _, path := range paths {
		t, err := LoadFile(path)
		if err != nil {
			return err
		}
		if err := r.Register(t); err != nil {
			return fmt.Errorf("register %s: %w", path, err)
		}
	}
	return nil
}
