package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatementsAreIdempotent(t *testing.T) {
	steps := Statements()
	assert.NotEmpty(t, steps)

	for _, step := range steps {
		assert.NotEmpty(t, step.Name)
		assert.Contains(t, step.SQL, "IF NOT EXISTS", "step %q must be safe to re-run", step.Name)
	}
}

func TestLedgerTableComesFirst(t *testing.T) {
	steps := Statements()
	assert.True(t, strings.Contains(steps[0].SQL, "CREATE TABLE IF NOT EXISTS llm_usage"))
	assert.Equal(t, "1.0.0", NewRunner().Version())
}
