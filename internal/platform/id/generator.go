package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// Generator creates opaque surrogate IDs for leagues and teams.
type Generator interface {
	NewID(prefix string) (string, error)
}

type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

// NewID returns prefix_<24 hex chars>. An empty prefix yields the bare hex.
func (g *RandomGenerator) NewID(prefix string) (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	raw := hex.EncodeToString(buf)
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return raw, nil
	}
	return prefix + "_" + raw, nil
}

// SequenceGenerator hands out prefix_1, prefix_2, ... and is meant for tests
// and dry runs where stable ids make output comparable.
type SequenceGenerator struct {
	next map[string]int
}

func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{next: make(map[string]int)}
}

func (g *SequenceGenerator) NewID(prefix string) (string, error) {
	g.next[prefix]++
	return fmt.Sprintf("%s_%d", prefix, g.next[prefix]), nil
}
