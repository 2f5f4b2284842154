// Package idgen generates short random entity ids: fixed-length strings
// over the lowercase base36 alphabet [a-z0-9].
package idgen

import (
	"errors"
	"fmt"
	"math/big"
	"math/rand/v2"
	"strings"
	"sync"
)

const (
	// Length is the number of base36 characters in a generated id.
	Length = 10
	// MaxAttempts bounds collision retries in Unique.
	MaxAttempts = 64
)

// ErrExhausted is returned by Unique when every attempt collided.
var ErrExhausted = errors.New("could not generate a unique id")

// Generator produces random ids. It is safe for concurrent use.
// Ids are not suitable for anything security related.
type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	length int
}

// New returns a Generator seeded from the runtime's random source.
func New() *Generator {
	return NewSeeded(rand.Uint64(), rand.Uint64())
}

// NewSeeded returns a deterministic Generator, mainly for tests.
func NewSeeded(seed1, seed2 uint64) *Generator {
	return &Generator{
		//nolint:gosec // ids only need to be unlikely to collide
		rng:    rand.New(rand.NewPCG(seed1, seed2)),
		length: Length,
	}
}

// Next returns a fresh id of Length characters.
//
// The algorithm draws two 64-bit words, interprets them as a big-endian
// integer, reduces it mod 36^Length and encodes the result in base36,
// left-padded with zeros.
func (g *Generator) Next() string {
	g.mu.Lock()
	hi, lo := g.rng.Uint64(), g.rng.Uint64()
	g.mu.Unlock()

	n := new(big.Int).SetUint64(hi)
	n.Lsh(n, 64)
	n.Or(n, new(big.Int).SetUint64(lo))

	mod := new(big.Int).Exp(big.NewInt(36), big.NewInt(int64(g.length)), nil)
	n.Mod(n, mod)

	encoded := n.Text(36)
	if pad := g.length - len(encoded); pad > 0 {
		encoded = strings.Repeat("0", pad) + encoded
	}
	return encoded
}

// Unique returns an id for which taken reports false, regenerating on
// collision.
func (g *Generator) Unique(taken func(id string) bool) (string, error) {
	for range MaxAttempts {
		id := g.Next()
		if !taken(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%d attempts: %w", MaxAttempts, ErrExhausted)
}
