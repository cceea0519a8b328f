package queue

import (
	"context"
	"fmt"
)

// Func turns a plain function into a command type. Arguments of type A are the payload,
// so A should be made of plain values and ids, not live handles.
type Func[A any] struct {
	name string
	fn   func(ctx context.Context, args A) error
	undo func(ctx context.Context, args A) error
}

// NewFunc registers function-backed command with name as type id
func NewFunc[A any](reg *Registry, name string, fn func(ctx context.Context, args A) error) (*Func[A], error) {
	return NewUndoableFunc(reg, name, fn, nil)
}

// NewUndoableFunc registers function-backed command with undo function. Nil undo makes it not undoable.
func NewUndoableFunc[A any](reg *Registry, name string, fn, undo func(ctx context.Context, args A) error) (*Func[A], error) {
	if fn == nil {
		return nil, fmt.Errorf("func %q: nil function", name)
	}
	f := &Func[A]{name: name, fn: fn, undo: undo}
	if err := reg.Register(name, Typed(func(args A) Command { return f.Command(args) })); err != nil {
		return nil, err
	}
	return f, nil
}

// MustFunc is NewFunc panicking on error
func MustFunc[A any](reg *Registry, name string, fn func(ctx context.Context, args A) error) *Func[A] {
	f, err := NewFunc(reg, name, fn)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns type id
func (f *Func[A]) Name() string { return f.name }

// Command makes command calling the function with args
func (f *Func[A]) Command(args A) Command {
	return &funcCommand[A]{def: f, args: args}
}

// Enqueue makes command with args and puts it to the queue
func (f *Func[A]) Enqueue(ctx context.Context, inv *Invoker, args A) error {
	return inv.Enqueue(ctx, f.Command(args))
}

type funcCommand[A any] struct {
	def  *Func[A]
	args A
}

func (c *funcCommand[A]) Name() string { return c.def.name }
func (c *funcCommand[A]) Payload() any { return c.args }

func (c *funcCommand[A]) Execute(ctx context.Context) error {
	return c.def.fn(ctx, c.args)
}

func (c *funcCommand[A]) Undo(ctx context.Context) error {
	if c.def.undo == nil {
		return fmt.Errorf("%q: %w", c.def.name, ErrUndoNotSupported)
	}
	return c.def.undo(ctx, c.args)
}
