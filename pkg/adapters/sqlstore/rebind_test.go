package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	q := "UPDATE t SET a = ? WHERE id = ?"
	assert.Equal(t, q, (&Store{dialect: SQLite}).rebind(q))
	assert.Equal(t, "UPDATE t SET a = $1 WHERE id = $2", (&Store{dialect: Postgres}).rebind(q))
}
