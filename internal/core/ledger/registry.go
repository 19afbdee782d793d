package ledger

import (
	"context"
	"fmt"

	"github.com/SscSPs/org_books/internal/apperrors"
)

// Loader fetches every root of one kind, with its contributors attached.
type Loader func(ctx context.Context) ([]Journaler, error)

// Registration ties a root kind to its loader.
type Registration struct {
	Kind string
	Load Loader
}

// Registry is the ordered set of root kinds that take part in bookkeeping.
type Registry struct {
	regs  []Registration
	kinds map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]struct{})}
}

// Register adds a root kind. Kinds are swept in registration order.
func (r *Registry) Register(kind string, load Loader) error {
	if load == nil {
		return fmt.Errorf("%w: nil loader for %q", apperrors.ErrValidation, kind)
	}
	if _, ok := r.kinds[kind]; ok {
		return fmt.Errorf("%w: journaler kind %q", apperrors.ErrDuplicate, kind)
	}
	r.kinds[kind] = struct{}{}
	r.regs = append(r.regs, Registration{Kind: kind, Load: load})
	return nil
}

// MustRegister is Register for wiring code that cannot recover.
func (r *Registry) MustRegister(kind string, load Loader) {
	if err := r.Register(kind, load); err != nil {
		panic(err)
	}
}

// Registrations returns the registered kinds in order.
func (r *Registry) Registrations() []Registration {
	return r.regs
}
