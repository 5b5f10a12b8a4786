// Package refgen implements the reference-token collaborator: every new
// billing record gets a 6-digit numeric GUID and payment attempts get an
// opaque unique reference. The engine consumes these through the Generator
// interface and relies on store uniqueness constraints, never on the
// generator, for collision safety.
package refgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	guidMin = 100000
	guidMax = 999999
)

// Generator produces record GUIDs and payment references.
type Generator interface {
	GUID() (int, error)
	PaymentReference() (string, error)
}

type generator struct {
	prefix string
}

// New builds a Generator. The prefix tags payment references for log grep-ability.
func New(prefix string) Generator {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "PAY"
	}
	return &generator{prefix: prefix}
}

// GUID returns a random numeric GUID in [100000, 999999].
func (g *generator) GUID() (int, error) {
	span := big.NewInt(guidMax - guidMin + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, fmt.Errorf("generate guid: %w", err)
	}
	return guidMin + int(n.Int64()), nil
}

// PaymentReference returns an opaque unique reference string.
func (g *generator) PaymentReference() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate payment reference: %w", err)
	}
	return fmt.Sprintf("%s-%s", g.prefix, strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))), nil
}
