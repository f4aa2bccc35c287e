package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignal_EmitInOrder(t *testing.T) {
	var s Signal[int]
	var got []string

	s.Connect(func(v int) { got = append(got, "a") })
	s.Connect(func(v int) { got = append(got, "b") })
	s.Emit(1)

	assert.Equal(t, []string{"a", "b"}, got)
}

func TestSignal_Disconnect(t *testing.T) {
	var s Signal[string]
	calls := 0

	disconnect := s.Connect(func(string) { calls++ })
	s.Emit("x")
	disconnect()
	disconnect()
	s.Emit("y")

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, s.Len())
}

func TestSignal_DisconnectDuringEmit(t *testing.T) {
	var s Signal[int]
	var seen []int

	var disconnect func()
	disconnect = s.Connect(func(v int) {
		seen = append(seen, v)
		disconnect()
	})
	s.Emit(1)
	s.Emit(2)

	assert.Equal(t, []int{1}, seen, "one-shot listener fires once")
}

func TestSignal_DisconnectOtherDuringEmit(t *testing.T) {
	var s Signal[int]
	secondCalls := 0

	var disconnectSecond func()
	s.Connect(func(int) { disconnectSecond() })
	disconnectSecond = s.Connect(func(int) { secondCalls++ })
	s.Emit(1)

	assert.Equal(t, 0, secondCalls, "listener removed earlier in the same emit is skipped")
}
