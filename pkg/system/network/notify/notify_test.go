package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscribers(t *testing.T) {
	s := New()
	a, b := 0, 0
	removeA := s.Add(func() { a++ })
	s.Add(func() { b++ })
	assert.Equal(t, 2, s.Len())

	s.Fire()
	removeA()
	s.Fire()

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
	assert.Equal(t, 1, s.Len())
}

func TestUnsubscribeFromCallback(t *testing.T) {
	s := New()
	calls := 0
	var remove func()
	remove = s.Add(func() {
		calls++
		remove()
	})

	s.Fire()
	s.Fire()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, s.Len())
}
