// Package sessionid generates time-sortable identifiers for server sessions.
//
// An ID is a UUIDv7 encoded as 26 characters of Crockford base32, so IDs
// created later sort after IDs created earlier.
package sessionid

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"time"
)

// Length is the number of characters in an ID
const Length = 26

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

var encoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// RandSource supplies the random part of an ID. *rand.Rand from
// math/rand/v2 satisfies it.
type RandSource interface {
	IntN(n int) int
}

// Generator creates IDs from a clock and a source of randomness
type Generator struct {
	rand RandSource
	now  func() time.Time
}

// NewGenerator creates a generator. A nil source uses crypto/rand.
func NewGenerator(src RandSource) *Generator {
	return &Generator{rand: src, now: time.Now}
}

// New creates an ID using crypto/rand
func New() string {
	return NewGenerator(nil).New()
}

// New creates an ID
func (g *Generator) New() string {
	var uuid [16]byte

	ms := g.now().UnixMilli()
	for i := 0; i < 6; i++ {
		uuid[i] = byte(ms >> (40 - 8*i))
	}

	if g.rand != nil {
		for i := 6; i < len(uuid); i++ {
			uuid[i] = byte(g.rand.IntN(256))
		}
	} else if _, err := rand.Read(uuid[6:]); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}

	uuid[6] = (uuid[6] & 0x0f) | 0x70 // version 7
	uuid[8] = (uuid[8] & 0x3f) | 0x80 // RFC 4122 variant

	return encoding.EncodeToString(uuid[:])
}

// Validate checks that id has the length and alphabet of a generated ID
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("session ID must be exactly %d characters, got %d", Length, len(id))
	}
	for i, r := range id {
		if !strings.ContainsRune(alphabet, r) {
			return fmt.Errorf("invalid character %c at position %d", r, i)
		}
	}
	if _, err := encoding.DecodeString(id); err != nil {
		return fmt.Errorf("invalid session ID: %w", err)
	}
	return nil
}
