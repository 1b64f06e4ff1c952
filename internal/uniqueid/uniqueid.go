package uniqueid

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"
)

// Alphabet excludes visually ambiguous characters (0/O, 1/I).
// Its length is 32, which divides 256, so a plain modulo on a random
// byte keeps the draw uniform.
const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const idLength = 8

const prefix = "YUKTI"

// Generator mints registrant ids of the form YUKTI-<year>-<8 chars>.
// Collision resistance is probabilistic only (32^8 possible suffixes);
// the store's unique index surfaces a clash as an insert error.
type Generator struct {
	rand io.Reader
	now  func() time.Time
}

func New() *Generator {
	return &Generator{
		rand: rand.Reader,
		now:  time.Now,
	}
}

// NewWithSource is for tests that need a deterministic byte source or clock.
func NewWithSource(r io.Reader, now func() time.Time) *Generator {
	return &Generator{rand: r, now: now}
}

func (g *Generator) Generate() (string, error) {
	buf := make([]byte, idLength)

	_, err := io.ReadFull(g.rand, buf)

	if err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}

	return fmt.Sprintf("%s-%d-%s", prefix, g.now().Year(), string(buf)), nil
}
