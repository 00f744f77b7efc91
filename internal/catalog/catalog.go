// Package catalog holds the weighted scenario table for a test
package catalog

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/service-perf-validator/loadtest-engine/internal/model"
)

// ErrNoScenarios is returned when selection is attempted on an empty catalog
var ErrNoScenarios = errors.New("catalog has no scenarios")

// Catalog is a mutable, weighted set of scenarios. Mutation happens between
// runs; during a run workers only read it.
type Catalog struct {
	mu        sync.RWMutex
	scenarios []model.Scenario
}

// New builds a catalog from an initial scenario set
func New(scenarios []model.Scenario) (*Catalog, error) {
	c := &Catalog{}
	for _, sc := range scenarios {
		if err := c.Add(sc); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add inserts a scenario, replacing any existing scenario with the same name
func (c *Catalog) Add(sc model.Scenario) error {
	if sc.Weight <= 0 {
		return fmt.Errorf("scenario %q weight must be positive, got %v", sc.Name, sc.Weight)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.scenarios {
		if c.scenarios[i].Name == sc.Name {
			c.scenarios[i] = sc
			return nil
		}
	}
	c.scenarios = append(c.scenarios, sc)
	return nil
}

// Remove deletes a scenario by name. Removing an unknown name is a no-op.
func (c *Catalog) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.scenarios {
		if c.scenarios[i].Name == name {
			c.scenarios = append(c.scenarios[:i], c.scenarios[i+1:]...)
			return
		}
	}
}

// Len returns the number of scenarios
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.scenarios)
}

// Scenarios returns a copy of the current scenario set
func (c *Catalog) Scenarios() []model.Scenario {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Scenario, len(c.scenarios))
	copy(out, c.scenarios)
	return out
}

// TotalWeight returns the sum of all scenario weights
func (c *Catalog) TotalWeight() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalWeightLocked()
}

func (c *Catalog) totalWeightLocked() float64 {
	var total float64
	for _, sc := range c.scenarios {
		total += sc.Weight
	}
	return total
}

// Validate reports whether the catalog can drive a run
func (c *Catalog) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.scenarios) == 0 {
		return ErrNoScenarios
	}
	return nil
}

// Select picks a scenario proportionally to its weight using a uniform draw
// in [0, totalWeight). The last scenario is the fallback so the walk always
// terminates, even when floating-point rounding pushes the draw past the
// final cumulative bound. A nil rand source falls back to the shared one.
func (c *Catalog) Select(r *rand.Rand) (model.Scenario, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.scenarios) == 0 {
		return model.Scenario{}, ErrNoScenarios
	}

	var draw float64
	if r != nil {
		draw = r.Float64() * c.totalWeightLocked()
	} else {
		draw = rand.Float64() * c.totalWeightLocked()
	}

	var cumulative float64
	for _, sc := range c.scenarios {
		cumulative += sc.Weight
		if draw < cumulative {
			return sc, nil
		}
	}
	return c.scenarios[len(c.scenarios)-1], nil
}
