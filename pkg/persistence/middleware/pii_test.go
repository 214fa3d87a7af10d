package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{"(?i)password", "^Email$"})
	require.NoError(t, err)
	store := mw(underlying)
	ctx := context.Background()

	s := domain.NewSession("hero", "tavern")
	s.State.Variables["Password"] = domain.TextValue("hunter2")
	s.State.Variables["Email"] = domain.TextValue("ada@example.com")
	s.State.Variables["EmailVerified"] = domain.BoolValue(true)
	s.State.Variables["Gold"] = domain.IntValue(3)
	require.NoError(t, store.Save(ctx, s))

	loaded, err := store.Load(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.State.Variables["Password"].Text())
	assert.Equal(t, middleware.Mask, loaded.State.Variables["Email"].Text())
	assert.True(t, loaded.State.Variables["EmailVerified"].Bool(), "anchored pattern leaves other names alone")
	assert.Equal(t, int64(3), loaded.State.Variables["Gold"].Int())

	assert.Equal(t, "hunter2", s.State.Variables["Password"].Text(), "caller state is untouched")
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain_Order(t *testing.T) {
	underlying := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{"Secret"})
	require.NoError(t, err)
	key := make([]byte, middleware.KeySize)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	require.NoError(t, err)

	// Masking runs first, so the mask is what gets encrypted.
	store := middleware.Chain(underlying, pii, enc)
	ctx := context.Background()

	s := domain.NewSession("hero", "tavern")
	s.State.Variables["Secret"] = domain.TextValue("x")
	require.NoError(t, store.Save(ctx, s))

	raw, err := underlying.Load(ctx, "hero")
	require.NoError(t, err)
	assert.Contains(t, raw.State.Variables, middleware.EnvelopeVariable)

	loaded, err := store.Load(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.State.Variables["Secret"].Text())
}
