package memory_test

import (
	"testing"

	"github.com/aretw0/parley/pkg/adapters/memory"
	contract "github.com/aretw0/parley/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySource_Contract(t *testing.T) {
	data := map[string]string{
		"tavern": "NPC: Welcome\n",
		"market": "Merchant: Wares!\n",
	}

	bytesData := make(map[string][]byte)
	for k, v := range data {
		bytesData[k] = []byte(v)
	}

	contract.ScriptSourceContractTest(t, memory.NewSource(data), bytesData)
}

func TestMemorySource_Put(t *testing.T) {
	src := memory.NewSource(nil)
	src.Put("tavern", "NPC: Hi\n")

	got, err := src.Read("tavern")
	require.NoError(t, err)
	assert.Equal(t, "NPC: Hi\n", string(got))

	names, err := src.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"tavern"}, names)
}
