package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStateStackPushMintsDistinctIDs(t *testing.T) {
	s := NewFileStateStack("scope", func(h string) string { return "H" + h })

	a := s.Push()
	b := s.Push()
	c := s.Push()

	assert.Equal(t, "Hscope.1", a.FID)
	assert.Equal(t, "Hscope.2", b.FID)
	assert.Equal(t, "Hscope.3", c.FID)
	assert.Equal(t, 3, s.Size())
}

func TestFileStateStackCurrentIsTop(t *testing.T) {
	s := NewFileStateStack("scope", nil)
	require.Nil(t, s.Current())
	require.True(t, s.IsEmpty())

	s.Push()
	top := s.Push()
	assert.Same(t, top, s.Current())
}

func TestFileStateStackRemoveAnywhere(t *testing.T) {
	s := NewFileStateStack("scope", nil)
	a := s.Push()
	b := s.Push()
	c := s.Push()

	// Nested files may finish before the enclosing one.
	s.Remove(b.FID)
	assert.Equal(t, 2, s.Size())
	assert.Same(t, c, s.Current())
	assert.Nil(t, s.Find(b.FID))
	assert.Same(t, a, s.Find(a.FID))

	s.Remove(c.FID)
	assert.Same(t, a, s.Current())
}

func TestFileStateStackRemoveUnknownIsNoop(t *testing.T) {
	s := NewFileStateStack("scope", nil)
	s.Push()
	s.Remove("nope")
	assert.Equal(t, 1, s.Size())
}

func TestFileStateStackIDsNeverReused(t *testing.T) {
	s := NewFileStateStack("scope", nil)
	a := s.Push()
	s.Remove(a.FID)
	b := s.Push()
	assert.NotEqual(t, a.FID, b.FID)
}

func TestFileStateStackRandomScopePerInstance(t *testing.T) {
	s1 := NewFileStateStack("", nil)
	s2 := NewFileStateStack("", nil)
	assert.NotEqual(t, s1.Push().FID, s2.Push().FID)
}
