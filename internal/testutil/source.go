// Package testutil provides test helpers: scripted randomness, scripted
// deity decisions and a Telnet test client.
package testutil

import "sync"

// ScriptedSource is a dice.Source that replays fixed values.
// Intn returns the next scripted int reduced modulo n; Float64 returns the next
// scripted float. Once a script is exhausted it yields zero forever, so an empty
// ScriptedSource makes every IntRange(lo, hi) return lo.
type ScriptedSource struct {
	mu     sync.Mutex
	ints   []int
	floats []float64
	calls  int
}

// NewScriptedSource returns a source replaying ints for Intn calls.
func NewScriptedSource(ints ...int) *ScriptedSource {
	return &ScriptedSource{ints: ints}
}

// WithFloats sets the values replayed by Float64.
func (s *ScriptedSource) WithFloats(floats ...float64) *ScriptedSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.floats = floats
	return s
}

// Intn returns the next scripted int modulo n.
//
// Precondition: n > 0.
func (s *ScriptedSource) Intn(n int) int {
	if n <= 0 {
		panic("testutil: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return ((v % n) + n) % n
}

// Float64 returns the next scripted float, or 0.
func (s *ScriptedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

// Remaining returns how many scripted ints have not been consumed.
func (s *ScriptedSource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ints)
}

// Calls returns the number of draws made so far.
func (s *ScriptedSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// MaxSource is a dice.Source that always returns the largest value: n-1 from
// Intn and a value just below 1 from Float64.
type MaxSource struct{}

// Intn returns n-1.
func (MaxSource) Intn(n int) int { return n - 1 }

// Float64 returns 0.999.
func (MaxSource) Float64() float64 { return 0.999 }
