package fdr

import (
	"fmt"
	"sync"

	"github.com/c360/fdrgateway/errors"
)

// Registry maps operation keys to their descriptors. Registration happens
// once at process start; after that the registry is read-only and safe for
// concurrent lookup from many goroutines.
type Registry struct {
	operations map[string]Operation
	mu         sync.RWMutex
}

// NewRegistry creates a new empty operation registry.
func NewRegistry() *Registry {
	return &Registry{
		operations: make(map[string]Operation),
	}
}

// Register adds an operation to the registry. Registering an empty key or
// the same key twice is a configuration defect and fails.
func (r *Registry) Register(op Operation) error {
	if op.Key == "" {
		return errors.WrapConfiguration(
			errors.ErrInvalidConfig, "Registry", "Register", "operation key validation")
	}
	if op.Action == "" {
		return errors.WrapConfiguration(
			errors.ErrInvalidConfig, "Registry", "Register",
			fmt.Sprintf("action validation for %q", op.Key))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.operations[op.Key]; exists {
		msg := fmt.Errorf("%w: %q", errors.ErrDuplicateOperation, op.Key)
		return errors.WrapConfiguration(msg, "Registry", "Register", "duplicate key check")
	}

	r.operations[op.Key] = op
	return nil
}

// Resolve looks up an operation by key. An unknown key is a programmer
// error, reported as a configuration-kind error before any transport call
// is attempted; there is no best-effort fallback.
func (r *Registry) Resolve(key string) (Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	op, exists := r.operations[key]
	if !exists {
		msg := fmt.Errorf("%w: %q", errors.ErrUnknownOperation, key)
		return Operation{}, errors.WrapConfiguration(msg, "Registry", "Resolve", "operation lookup")
	}
	return op, nil
}

// Keys returns the registered operation keys.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.operations))
	for key := range r.operations {
		keys = append(keys, key)
	}
	return keys
}
