package cache

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestDigestStableAndDistinct(t *testing.T) {
    a := Digest([]byte("%PDF-1.4 fake"))
    b := Digest([]byte("%PDF-1.4 fake"))
    c := Digest([]byte("%PDF-1.4 other"))

    assert.Equal(t, a, b)
    assert.NotEqual(t, a, c)
    assert.Len(t, a, 64)
}

func TestKeyEncodesParameters(t *testing.T) {
    c := &ResultCache{keyNS: "plan"}
    k1 := c.Key("abc", 5, 1.0)
    k2 := c.Key("abc", 3, 1.0)
    k3 := c.Key("abc", 5, 2.5)

    assert.Equal(t, "plan:abc:5:1", k1)
    assert.NotEqual(t, k1, k2)
    assert.NotEqual(t, k1, k3)
}
