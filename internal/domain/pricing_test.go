package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketOptions(t *testing.T) {
	t.Run("grand public sells three tiers", func(t *testing.T) {
		opts := TicketOptions(ClassificationGrandPublic, TypeAtelier)

		require.Len(t, opts, 3)
		assert.Equal(t, TicketOption{Type: TicketNormal, Price: 1500}, opts[0])
		assert.Equal(t, TicketOption{Type: TicketReduit, Price: 900}, opts[1])
		assert.Equal(t, TicketOption{Type: TicketGratuit, Price: 0}, opts[2])
	})

	t.Run("pro classification sells one session ticket", func(t *testing.T) {
		opts := TicketOptions(ClassificationExterneEntreprise, TypeAtelier)

		require.Len(t, opts, 1)
		assert.Equal(t, TicketOption{Type: TicketPro, Price: 48000}, opts[0])
	})

	t.Run("eleves ride free", func(t *testing.T) {
		opts := TicketOptions(ClassificationInterneEleves, TypeAtelier)

		require.Len(t, opts, 1)
		assert.Equal(t, TicketOption{Type: TicketGratuit, Price: 0}, opts[0])
	})

	t.Run("formation priced per tier", func(t *testing.T) {
		opts := TicketOptions(ClassificationFormation, TypeFormationApprofondissement)

		require.Len(t, opts, 1)
		assert.Equal(t, TicketOption{Type: TicketPro, Price: 35000}, opts[0])
	})

	t.Run("unresolved classification has no options", func(t *testing.T) {
		assert.Empty(t, TicketOptions(ClassificationNone, TypeAtelier))
	})
}

func TestPriceFor(t *testing.T) {
	price, ok := PriceFor(ClassificationGrandPublic, TypeAtelier, TicketReduit)
	require.True(t, ok)
	assert.Equal(t, 900, price)

	// A pro ticket is not sold to the general public.
	_, ok = PriceFor(ClassificationGrandPublic, TypeAtelier, TicketPro)
	assert.False(t, ok)

	// A pro audience cannot buy a reduced individual ticket.
	_, ok = PriceFor(ClassificationInterneAsso, TypeAtelier, TicketReduit)
	assert.False(t, ok)
}

func TestDefaultTicket(t *testing.T) {
	opt, ok := DefaultTicket(ClassificationGrandPublic, TypeAtelier)
	require.True(t, ok)
	assert.Equal(t, TicketNormal, opt.Type)

	opt, ok = DefaultTicket(ClassificationInterneAsso, TypeAtelier)
	require.True(t, ok)
	assert.Equal(t, TicketPro, opt.Type)
	assert.Equal(t, 25000, opt.Price)

	_, ok = DefaultTicket(ClassificationNone, TypeAtelier)
	assert.False(t, ok)
}
