package limiter

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestSlotsExhaustAndRelease(t *testing.T) {
    s := New(2)

    rel1, ok := s.Allow()
    require.True(t, ok)
    _, ok = s.Allow()
    require.True(t, ok)

    _, ok = s.Allow()
    assert.False(t, ok, "third acquisition should be refused")

    rel1()
    _, ok = s.Allow()
    assert.True(t, ok, "released slot should be reusable")
}

func TestSlotsDefaultCapacity(t *testing.T) {
    s := New(0)
    _, ok := s.Allow()
    require.True(t, ok)
    _, ok = s.Allow()
    require.True(t, ok)
    _, ok = s.Allow()
    assert.False(t, ok)
}
