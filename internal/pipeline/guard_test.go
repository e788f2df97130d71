package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardAdmit(t *testing.T) {
	t.Parallel()

	g := NewGuard(10)
	assert.True(t, g.Admit("a"))
	assert.False(t, g.Admit("a"))
	assert.True(t, g.Admit("b"))
}

func TestGuardEvictsOldestFirst(t *testing.T) {
	t.Parallel()

	g := NewGuard(2)
	assert.True(t, g.Admit("a"))
	assert.True(t, g.Admit("b"))
	assert.True(t, g.Admit("c")) // evicts "a"

	assert.True(t, g.Admit("a"))
	assert.False(t, g.Admit("c"))
}

func TestGuardDefaultCapacity(t *testing.T) {
	t.Parallel()

	g := NewGuard(0)
	assert.Equal(t, defaultGuardCapacity, g.capacity)
}
