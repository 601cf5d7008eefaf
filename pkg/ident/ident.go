// Package ident generates entity ids, ledger row ids and payment codes.
package ident

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	codeMin = 10000000
	codeMax = 99999999
)

var codeSpan = big.NewInt(codeMax - codeMin + 1)

// Generator produces identifiers. Implementations must be safe for concurrent use.
type Generator interface {
	// NewID returns an opaque, globally unique entity id.
	NewID() string
	// NewLedgerID returns a unique id that sorts by creation time.
	NewLedgerID() string
	// NewPaymentCode returns an 8-digit code drawn uniformly from [10000000, 99999999].
	NewPaymentCode() string
}

// Random is the production Generator backed by crypto/rand.
type Random struct{}

// New returns the production generator.
func New() Random { return Random{} }

func (Random) NewID() string {
	return uuid.NewString()
}

func (Random) NewLedgerID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.DefaultEntropy()).String()
}

func (Random) NewPaymentCode() string {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		// crypto/rand only fails when the OS entropy source is unavailable.
		panic(fmt.Sprintf("ident: read random code: %v", err))
	}
	return fmt.Sprintf("%08d", codeMin+n.Int64())
}

var _ Generator = Random{}
