// Package scope provides call-scoped ambient values: a value entered on a
// goroutine is visible to any code running later on that same goroutine
// until the matching exit, and invisible to every other goroutine.
//
// encoding/json and yaml.v3 call Marshaler and Unmarshaler hooks
// synchronously on the goroutine that started the traversal, so a value
// entered before the traversal reaches every hook it triggers without being
// threaded through the traversal.
package scope

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// Stack holds one stack of values per goroutine. Entering pushes, exiting
// pops; nested enters on the same goroutine shadow the outer value until they
// exit. The zero value is ready to use.
type Stack[T any] struct {
	mu     sync.Mutex
	frames map[uint64][]T
}

// Enter pushes v for the calling goroutine and returns the function that pops
// it. Callers defer the returned function so the value is removed on every
// return path, including panics.
func (s *Stack[T]) Enter(v T) (exit func()) {
	id := GoroutineID()

	s.mu.Lock()
	if s.frames == nil {
		s.frames = make(map[uint64][]T)
	}
	s.frames[id] = append(s.frames[id], v)
	depth := len(s.frames[id])
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			frames := s.frames[id]
			// Truncate to the depth below this frame so an inner frame that
			// was never exited cannot outlive its parent.
			if len(frames) >= depth {
				frames = frames[:depth-1]
			}
			if len(frames) == 0 {
				delete(s.frames, id)
				return
			}
			s.frames[id] = frames
		})
	}
}

// Current returns the innermost value entered on the calling goroutine.
func (s *Stack[T]) Current() (T, bool) {
	id := GoroutineID()

	s.mu.Lock()
	defer s.mu.Unlock()

	frames := s.frames[id]
	if len(frames) == 0 {
		var zero T
		return zero, false
	}
	return frames[len(frames)-1], true
}

// Depth returns how many values are entered on the calling goroutine.
func (s *Stack[T]) Depth() int {
	id := GoroutineID()

	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames[id])
}

// Len returns the number of goroutines with at least one entered value.
func (s *Stack[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the current goroutine's id from the header line of its
// stack trace ("goroutine 42 [running]:").
func GoroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		panic("scope: cannot parse goroutine id: " + err.Error())
	}
	return id
}
