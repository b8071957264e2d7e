// Package allocator mints transaction identifiers that survive
// provider-side and database-side collisions. Upstream callers may
// forward their own order ids, which are not guaranteed unique at
// persistence time; concurrent requests can race on the same candidate.
package allocator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/google/uuid"
)

// DefaultMaxAttempts bounds the insert retry loop.
const DefaultMaxAttempts = 3

// Record is the allocator's view of an existing transaction.
type Record struct {
	Found bool
	// TerminalFailed is true for CANCELLED/FAILED/REJECTED rows, whose
	// ids may be derived from rather than abandoned.
	TerminalFailed bool
}

// Lookup resolves a candidate external id against the ledger.
type Lookup interface {
	ByExternalID(ctx context.Context, externalID string) (Record, error)
}

// Allocator resolves candidate ids and persists records with collision
// retry.
type Allocator struct {
	lookup      Lookup
	maxAttempts int
	logger      *slog.Logger

	// now and newID are swappable for tests.
	now   func() time.Time
	newID func() string
}

// New creates an allocator over the given ledger lookup.
func New(lookup Lookup, logger *slog.Logger) *Allocator {
	return &Allocator{
		lookup:      lookup,
		maxAttempts: DefaultMaxAttempts,
		logger:      logger.With("component", "allocator"),
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
}

// Allocate returns a usable external id for a new transaction.
//
// An empty candidate yields a fresh random id. A free candidate is kept
// unchanged. A candidate held by a terminal-failed record returns
// "<candidate>_<unix-ts>", preserving traceability to the original
// attempt. A candidate held by an active record returns a fresh random
// id with no relation to it; the active record is left untouched.
func (a *Allocator) Allocate(ctx context.Context, candidate string) (string, error) {
	if candidate == "" {
		return a.newID(), nil
	}

	rec, err := a.lookup.ByExternalID(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("allocator lookup: %w", err)
	}

	switch {
	case !rec.Found:
		return candidate, nil
	case rec.TerminalFailed:
		derived := fmt.Sprintf("%s_%d", candidate, a.now().Unix())
		a.logger.Info("candidate id held by failed record, deriving",
			"candidate", candidate, "derived", derived)
		return derived, nil
	default:
		fresh := a.newID()
		a.logger.Warn("candidate id held by active record, regenerating",
			"candidate", candidate)
		return fresh, nil
	}
}

// PersistWithRetry runs insert with the given external id, replacing the
// id with a fresh random one on every uniqueness violation. This closes
// the race between Allocate's lookup and the actual insert. After
// maxAttempts it surfaces domain.ErrAllocationExhausted.
//
// insert must persist the record under the id it receives and translate
// uniqueness violations to domain.ErrDuplicateKey.
func (a *Allocator) PersistWithRetry(
	ctx context.Context,
	externalID string,
	insert func(ctx context.Context, externalID string) error,
) (string, error) {
	id := externalID
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		err := insert(ctx, id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, domain.ErrDuplicateKey) {
			return "", err
		}
		a.logger.Warn("external id collided on insert, retrying",
			"external_id", id, "attempt", attempt)
		id = a.newID()
	}
	return "", fmt.Errorf("%w after %d attempts", domain.ErrAllocationExhausted, a.maxAttempts)
}
