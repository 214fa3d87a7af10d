package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(sessionID, "tavern")
		session.State.TextNodeID = "a1b2c3d4"
		session.State.Variables["Name"] = domain.TextValue("Ann")
		session.State.Variables["Gold"] = domain.IntValue(42)
		session.State.Variables["Weight"] = domain.FloatValue(1.5)
		session.State.Variables["Met"] = domain.BoolValue(true)
		session.State.Variables["Who"] = domain.GenderValue(domain.Feminine)
		session.State.ChoicesTaken = []string{"0badf00d", "deadbeef"}

		require.NoError(t, store.Save(ctx, session), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.ID, loaded.ID)
		assert.Equal(t, "tavern", loaded.Script)
		assert.Equal(t, "a1b2c3d4", loaded.State.TextNodeID)
		assert.Equal(t, []string{"0badf00d", "deadbeef"}, loaded.State.ChoicesTaken)

		// Value type tags must survive persistence: an int stays an int.
		assert.Equal(t, session.State.Variables, loaded.State.Variables)
		assert.Equal(t, domain.TypeInt, loaded.State.Variables["Gold"].Type())
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		session := domain.NewSession(sessionID, "tavern")
		session.State.TextNodeID = "ffffffff"
		require.NoError(t, store.Save(ctx, session))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "ffffffff", loaded.State.TextNodeID)
		assert.Empty(t, loaded.State.Variables)
	})

	t.Run("Load Returns Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.State.TextNodeID = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", again.State.TextNodeID)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewSession(sessionID, "tavern")))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Delete of a missing session is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, domain.NewSession(id1, "tavern")))
		require.NoError(t, store.Save(ctx, domain.NewSession(id2, "tavern")))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
