// stack_test.go - Simple test-cases for our stack

package stack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmpty(t *testing.T) {
	s := New[string]()
	require.True(t, s.Empty())

	s.Push("33")
	require.False(t, s.Empty())
}

func TestEmptyPop(t *testing.T) {
	s := New[int]()

	_, err := s.Pop()
	require.Error(t, err)
}

func TestPushPop(t *testing.T) {
	s := New[string]()

	s.Push("33")

	out, err := s.Pop()
	require.NoError(t, err)
	require.Equal(t, "33", out)
}

func TestPeekDoesNotRemove(t *testing.T) {
	s := New[int]()
	s.Push(1)
	s.Push(2)

	top, err := s.Peek()
	require.NoError(t, err)
	require.Equal(t, 2, top)
	require.Equal(t, 2, s.Len())
}

func TestOrderingIsLastInFirstOut(t *testing.T) {
	s := New[int]()
	for _, v := range []int{1, 2, 3} {
		s.Push(v)
	}

	for _, want := range []int{3, 2, 1} {
		got, err := s.Pop()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	require.True(t, s.Empty())
}
