package ledger_test

import (
	"context"
	"testing"

	"github.com/SscSPs/org_books/internal/apperrors"
	"github.com/SscSPs/org_books/internal/core/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noRoots(context.Context) ([]ledger.Journaler, error) { return nil, nil }

func TestRegistry_KeepsOrderAndRejectsDuplicates(t *testing.T) {
	r := ledger.NewRegistry()
	require.NoError(t, r.Register("sale", noRoots))
	require.NoError(t, r.Register("expenseclaim", noRoots))

	err := r.Register("sale", noRoots)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	assert.ErrorIs(t, r.Register("payableinvoice", nil), apperrors.ErrValidation)

	regs := r.Registrations()
	require.Len(t, regs, 2)
	assert.Equal(t, "sale", regs[0].Kind)
	assert.Equal(t, "expenseclaim", regs[1].Kind)
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	r := ledger.NewRegistry()
	r.MustRegister("sale", noRoots)
	assert.Panics(t, func() { r.MustRegister("sale", noRoots) })
}
