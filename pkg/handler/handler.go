// Package handler maps serializable command references to Go functions.
//
// Packed widgets never carry code. An event handler or on-load callback is
// a [Ref] naming a command registered in a [Table]; hydration resolves the
// name back to a function. A reference whose command is not registered is
// reported and skipped, never fatal.
package handler

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/risekit/pkg/errors"
)

// Func is a registered command.
type Func func(ctx context.Context, call Call) error

// Call describes one invocation of a command.
type Call struct {
	// Event is the event name for handlers, "load" for on-load callbacks
	// and "run" for snippet code.
	Event string

	// Target is the widget or plugin handle the command is bound to.
	Target any

	// Args are the arguments stored in the reference.
	Args []string
}

// Ref is the serializable form of a command binding: "name" or
// "name:arg1,arg2".
type Ref struct {
	Command string
	Args    []string
}

// ParseRef parses the String form of a Ref.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	name, args, hasArgs := strings.Cut(s, ":")
	if err := validateName(name); err != nil {
		return Ref{}, err
	}
	r := Ref{Command: name}
	if hasArgs && args != "" {
		r.Args = strings.Split(args, ",")
	}
	return r, nil
}

// String returns the packed form.
func (r Ref) String() string {
	if len(r.Args) == 0 {
		return r.Command
	}
	return r.Command + ":" + strings.Join(r.Args, ",")
}

// MarshalText implements encoding.TextMarshaler.
func (r Ref) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Ref) UnmarshalText(b []byte) error {
	p, err := ParseRef(string(b))
	if err != nil {
		return err
	}
	*r = p
	return nil
}

func validateName(name string) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "command name cannot be empty")
	}
	if strings.ContainsAny(name, ":,;| \t\n") {
		return errors.New(errors.ErrCodeInvalidInput, "invalid command name %q", name)
	}
	return nil
}

// Bound is a resolved reference ready to be invoked.
type Bound struct {
	Ref Ref
	fn  Func
}

// Invoke calls the command for target.
func (b Bound) Invoke(ctx context.Context, event string, target any) error {
	if b.fn == nil {
		return errors.New(errors.ErrCodeUnknownCommand, "command %q is not bound", b.Ref.Command)
	}
	return b.fn(ctx, Call{Event: event, Target: target, Args: b.Ref.Args})
}

// Table is a command registry. It is safe for concurrent use; one table is
// shared by every tree of an application.
type Table struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{funcs: make(map[string]Func)}
}

// Register adds a command. Registering a name twice is an error since
// functions cannot be compared for an idempotent re-registration.
func (t *Table) Register(name string, fn Func) error {
	if err := validateName(name); err != nil {
		return err
	}
	if fn == nil {
		return errors.New(errors.ErrCodeInvalidInput, "command %q: nil function", name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.funcs[name]; ok {
		return errors.New(errors.ErrCodeInvalidInput, "command %q already registered", name)
	}
	t.funcs[name] = fn
	return nil
}

// MustRegister is Register that panics on error, for package init code.
func (t *Table) MustRegister(name string, fn Func) {
	if err := t.Register(name, fn); err != nil {
		panic(err)
	}
}

// Resolve binds ref to its registered function.
func (t *Table) Resolve(ref Ref) (Bound, error) {
	t.mu.RLock()
	fn, ok := t.funcs[ref.Command]
	t.mu.RUnlock()
	if !ok {
		return Bound{Ref: ref}, errors.New(errors.ErrCodeUnknownCommand, "unknown command %q", ref.Command)
	}
	return Bound{Ref: ref, fn: fn}, nil
}

// Has reports whether name is registered.
func (t *Table) Has(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.funcs[name]
	return ok
}

// Names returns the registered command names, sorted.
func (t *Table) Names() []string {
	t.mu.RLock()
	names := make([]string, 0, len(t.funcs))
	for n := range t.funcs {
		names = append(names, n)
	}
	t.mu.RUnlock()
	slices.Sort(names)
	return names
}
