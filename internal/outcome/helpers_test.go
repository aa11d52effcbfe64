package outcome

import "math"

// scripted replays fixed uniforms, wrapping around when exhausted.
type scripted struct {
	vals []float64
	i    int
}

func script(vals ...float64) *scripted { return &scripted{vals: vals} }

func (s *scripted) Float() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func (s *scripted) Intn(n int) int { return int(s.Float() * float64(n)) }

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
