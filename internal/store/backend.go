package store

import (
	"context"

	"github.com/rotisserie/eris"
)

// Artifact keys. The evaluation log and the config record are the only two
// durable artifacts; each is written as a whole serialized document.
const (
	keyEvaluations = "evaluations"
	keyConfig      = "config"
)

// ErrNotFound is returned by Backend.Load when no record exists for a key.
var ErrNotFound = eris.New("store: not found")

// Backend is a durable whole-document key/value layer. Save overwrites the
// entire artifact; there are no partial writes.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}
