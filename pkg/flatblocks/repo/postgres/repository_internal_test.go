package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSearchClause(t *testing.T) {
	where, args := buildSearchClause("")
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = buildSearchClause("Contact  100%_off")
	assert.Equal(t,
		" WHERE (slug ILIKE $1 OR header ILIKE $1 OR content ILIKE $1) AND (slug ILIKE $2 OR header ILIKE $2 OR content ILIKE $2)",
		where)
	assert.Equal(t, []interface{}{"%contact%", `%100\%\_off%`}, args)
}
