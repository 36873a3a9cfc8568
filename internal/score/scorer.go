package score

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Normalization divisors: a file at or above the divisor scores 1.0.
const (
	sizeDivisor  = 1024.0
	linesDivisor = 100.0
	wordsDivisor = 500.0
)

// Error categories for scoring failures. Callers match with errors.Is.
var (
	ErrNotFound         = errors.New("file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
)

// ParseAlgorithm validates an algorithm name from user input. For an
// unrecognized name the error carries a closest-match suggestion when
// one ranks near enough.
func ParseAlgorithm(name string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if a.Valid() {
		return a, nil
	}

	names := make([]string, 0, 3)
	for _, known := range Algorithms() {
		names = append(names, known.String())
	}

	if suggestion := closestAlgorithm(string(a), names); suggestion != "" {
		return "", fmt.Errorf("%w: unknown algorithm %q (did you mean %q?)", ErrInvalidInput, name, suggestion)
	}
	return "", fmt.Errorf("%w: unknown algorithm %q (expected one of: %s)", ErrInvalidInput, name, strings.Join(names, ", "))
}

// closestAlgorithm returns the known name within edit distance 2 of the
// input, or "" when nothing is close enough to suggest.
func closestAlgorithm(input string, names []string) string {
	best := ""
	bestDistance := 3
	for _, name := range names {
		if d := fuzzy.LevenshteinDistance(input, name); d < bestDistance {
			best = name
			bestDistance = d
		}
	}
	return best
}

// DefaultScorer implements the Scorer interface against an afero filesystem
type DefaultScorer struct {
	fs     afero.Fs
	logger *zerolog.Logger
}

// NewScorer creates a new DefaultScorer
func NewScorer(filesystem afero.Fs, logger *zerolog.Logger) *DefaultScorer {
	return &DefaultScorer{
		fs:     filesystem,
		logger: logger,
	}
}

// Score calculates a normalized score in [0, 1] for the file at path.
// The path is validated before the algorithm name, so a missing file is
// reported as ErrNotFound even when the algorithm is also bad.
func (s *DefaultScorer) Score(path string, algorithm Algorithm) (float64, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		if errors.Is(err, fs.ErrPermission) {
			return 0, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: not a regular file: %s", ErrInvalidInput, path)
	}

	// Readability is a precondition for every algorithm, size included,
	// even though size never reads the content.
	f, err := s.fs.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return 0, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	f.Close()

	switch algorithm {
	case AlgorithmSize:
		return s.scoreBySize(info.Size()), nil
	case AlgorithmLines:
		return s.scoreByLines(path, info.Size())
	case AlgorithmWords:
		return s.scoreByWords(path, info.Size())
	default:
		return 0, fmt.Errorf("%w: unsupported algorithm: %s", ErrInvalidInput, algorithm)
	}
}

func (s *DefaultScorer) scoreBySize(size int64) float64 {
	return clamp(float64(size) / sizeDivisor)
}

// scoreByLines counts newline-terminated records, including a final
// unterminated line. Non-UTF-8 content falls back to size scoring.
func (s *DefaultScorer) scoreByLines(path string, size int64) (float64, error) {
	content, err := s.readFile(path)
	if err != nil {
		return 0, err
	}

	if !utf8.Valid(content) {
		s.logFallback(path, AlgorithmLines)
		return s.scoreBySize(size), nil
	}

	lines := 0
	for _, b := range content {
		if b == '\n' {
			lines++
		}
	}
	if len(content) > 0 && content[len(content)-1] != '\n' {
		lines++
	}

	return clamp(float64(lines) / linesDivisor), nil
}

// scoreByWords counts whitespace-delimited tokens. Non-UTF-8 content
// falls back to size scoring.
func (s *DefaultScorer) scoreByWords(path string, size int64) (float64, error) {
	content, err := s.readFile(path)
	if err != nil {
		return 0, err
	}

	if !utf8.Valid(content) {
		s.logFallback(path, AlgorithmWords)
		return s.scoreBySize(size), nil
	}

	words := len(strings.Fields(string(content)))
	return clamp(float64(words) / wordsDivisor), nil
}

func (s *DefaultScorer) readFile(path string) ([]byte, error) {
	content, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return content, nil
}

func (s *DefaultScorer) logFallback(path string, from Algorithm) {
	if s.logger != nil {
		s.logger.Debug().
			Str("file", path).
			Str("algorithm", from.String()).
			Msg("content is not valid UTF-8, falling back to size scoring")
	}
}

func clamp(score float64) float64 {
	if score > 1.0 {
		return 1.0
	}
	return score
}
