package score

// Algorithm selects which raw metric and divisor produce a file score.
type Algorithm string

const (
	AlgorithmSize  Algorithm = "size"
	AlgorithmLines Algorithm = "lines"
	AlgorithmWords Algorithm = "words"
)

// Algorithms lists the recognized algorithm names in display order.
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmSize, AlgorithmLines, AlgorithmWords}
}

// Valid reports whether a is one of the recognized algorithms.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmSize, AlgorithmLines, AlgorithmWords:
		return true
	}
	return false
}

func (a Algorithm) String() string {
	return string(a)
}

// Result pairs a file path with its normalized score.
type Result struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// Scorer defines the interface for scoring files
type Scorer interface {
	// Score calculates a normalized score in [0, 1] for a single file
	Score(path string, algorithm Algorithm) (float64, error)
}
