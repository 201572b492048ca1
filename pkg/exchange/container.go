package exchange

import (
	"fmt"
	"slices"
	"sync"

	"graviex/pkg/core"
)

// Container is a thread-safe registry of exchange clients keyed by name.
type Container struct {
	mu        sync.RWMutex
	exchanges map[string]Exchange
}

// NewContainer creates and returns a new empty exchange container.
func NewContainer() *Container {
	return &Container{
		exchanges: make(map[string]Exchange),
	}
}

// Register adds an exchange under its own Name, replacing any previous entry.
func (c *Container) Register(ex Exchange) error {
	if ex == nil {
		return fmt.Errorf("exchange is nil")
	}
	name := ex.Name()
	if name == "" {
		return fmt.Errorf("exchange has no name")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.exchanges[name] = ex
	return nil
}

// Get retrieves an exchange instance by name.
func (c *Container) Get(name string) (Exchange, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ex, exists := c.exchanges[name]
	if !exists {
		return nil, fmt.Errorf("exchange %q not found", name)
	}
	return ex, nil
}

// Names returns the registered exchange names in sorted order.
func (c *Container) Names() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.exchanges))
	for name := range c.exchanges {
		names = append(names, name)
	}
	c.mu.RUnlock()

	slices.Sort(names)
	return names
}

// Supporting returns the sorted names of the exchanges that support op.
func (c *Container) Supporting(op core.Operation) []string {
	c.mu.RLock()
	var names []string
	for name, ex := range c.exchanges {
		if ex.Has(op) {
			names = append(names, name)
		}
	}
	c.mu.RUnlock()

	slices.Sort(names)
	return names
}

// Unregister removes an exchange from the container by name.
func (c *Container) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.exchanges, name)
}

// Exists checks whether an exchange with the given name is registered.
func (c *Container) Exists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.exchanges[name]
	return exists
}
