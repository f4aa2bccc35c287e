// Package signal implements a small observer list for change streams such as
// a document's content-changed notifications or a kernel's status changes.
package signal

import "sync"

// Signal fans values out to connected listeners.
//
// Listeners run synchronously on the emitting goroutine, in connection order.
// A listener may disconnect itself (or connect others) while being called;
// the change takes effect for the next Emit.
//
// The zero value is ready to use.
type Signal[T any] struct {
	mu        sync.Mutex
	next      int
	listeners []listener[T]
}

type listener[T any] struct {
	id int
	fn func(T)
}

// Connect registers fn and returns a function that disconnects it.
// Disconnecting more than once is a no-op.
func (s *Signal[T]) Connect(fn func(T)) (disconnect func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	id := s.next
	s.listeners = append(s.listeners, listener[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *Signal[T]) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.listeners {
		if l.id == id {
			s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
			return
		}
	}
}

// Emit calls every connected listener with v.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	snapshot := make([]listener[T], len(s.listeners))
	copy(snapshot, s.listeners)
	s.mu.Unlock()

	for _, l := range snapshot {
		if !s.connected(l.id) {
			continue
		}
		l.fn(v)
	}
}

func (s *Signal[T]) connected(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.listeners {
		if l.id == id {
			return true
		}
	}
	return false
}

// Len returns the number of connected listeners.
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}
