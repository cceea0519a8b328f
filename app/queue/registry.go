package queue

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	log "github.com/go-pkgz/lgr"
)

const separator = ":"

// Factory makes Command from serialized payload
type Factory func(data []byte, s Serializer) (Command, error)

// Typed makes Factory decoding payload into P and passing it to build
func Typed[P any](build func(P) Command) Factory {
	return func(data []byte, s Serializer) (Command, error) {
		var p P
		if err := s.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return build(p), nil
	}
}

// Registry maps stable type ids to command factories. Populated once on startup,
// by direct Register calls or with Discover, and read concurrently after that.
type Registry struct {
	serializer Serializer

	mu         sync.RWMutex
	factories  map[string]Factory
	periodic   []*Periodic
	discovered map[uintptr]bool
}

// NewRegistry makes empty registry with given serializer, JSON if nil
func NewRegistry(s Serializer) *Registry {
	if s == nil {
		s = JSON{}
	}
	return &Registry{serializer: s, factories: map[string]Factory{}, discovered: map[uintptr]bool{}}
}

// Register adds factory for typeID. Fails on empty or already registered type id.
func (r *Registry) Register(typeID string, f Factory) error {
	if typeID == "" || strings.Contains(typeID, separator) {
		return fmt.Errorf("%q: %w", typeID, ErrInvalidTypeID)
	}
	if f == nil {
		return fmt.Errorf("nil factory for %q", typeID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[typeID]; ok {
		return fmt.Errorf("%q: %w", typeID, ErrDuplicateRegistration)
	}
	r.factories[typeID] = f
	log.Printf("[DEBUG] registered command %q", typeID)
	return nil
}

// Discover runs discovery functions registering commands. Each function runs once per registry,
// repeated calls with the same function are ignored, so the order of discovery doesn't matter.
// Functions compared by code pointer, closures made by the same function literal count as one.
func (r *Registry) Discover(fns ...func(*Registry) error) error {
	for _, fn := range fns {
		ptr := reflect.ValueOf(fn).Pointer()
		r.mu.Lock()
		done := r.discovered[ptr]
		r.discovered[ptr] = true
		r.mu.Unlock()
		if done {
			continue
		}
		if err := fn(r); err != nil {
			return fmt.Errorf("discovery failed: %w", err)
		}
	}
	return nil
}

// Has checks if typeID registered
func (r *Registry) Has(typeID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[typeID]
	return ok
}

// TypeIDs returns sorted list of all registered type ids
func (r *Registry) TypeIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]string, 0, len(r.factories))
	for k := range r.factories {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

// Serialize makes message "type_id:payload" for the command. The command's type must be registered,
// otherwise the consumer won't be able to make it back.
func (r *Registry) Serialize(cmd Command) (string, error) {
	if !r.Has(cmd.Name()) {
		return "", fmt.Errorf("can't serialize %q: %w", cmd.Name(), ErrUnknownCommandType)
	}
	data, err := r.serializer.Marshal(cmd.Payload())
	if err != nil {
		return "", fmt.Errorf("can't serialize %q payload: %w", cmd.Name(), err)
	}
	return cmd.Name() + separator + string(data), nil
}

// Deserialize makes Command from message
func (r *Registry) Deserialize(msg string) (Command, error) {
	typeID, data, ok := strings.Cut(msg, separator)
	if !ok || typeID == "" {
		return nil, fmt.Errorf("%.64q: %w", msg, ErrMalformedMessage)
	}
	r.mu.RLock()
	f, found := r.factories[typeID]
	r.mu.RUnlock()
	if !found {
		return nil, fmt.Errorf("%q: %w", typeID, ErrUnknownCommandType)
	}
	cmd, err := f([]byte(data), r.serializer)
	if err != nil {
		return nil, fmt.Errorf("%q, %v: %w", typeID, err, ErrDecodePayload)
	}
	return cmd, nil
}

func (r *Registry) addPeriodic(p *Periodic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.periodic = append(r.periodic, p)
}

// Periodic returns all registered periodic definitions, in registration order
func (r *Registry) Periodic() []*Periodic {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Periodic{}, r.periodic...)
}
