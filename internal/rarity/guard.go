package rarity

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/resin/internal/ir"
)

// DefaultMaxRetries is the re-roll budget used when none is configured.
const DefaultMaxRetries = 64

// Policy controls uniqueness enforcement.
type Policy struct {
	// RequireUnique enables the Guard's duplicate check.
	RequireUnique bool

	// MaxRetries bounds re-rolls per item. Exhaustion is reported once a
	// duplicate is found with retries > MaxRetries.
	MaxRetries int

	// IncludeMeta compares full sets including meta layers. When false only
	// the public view is compared.
	IncludeMeta bool

	// IncludeGuaranteed adds guaranteed rolls to the pool so sampled items
	// cannot duplicate them. Guaranteed rolls are never rejected either way.
	IncludeGuaranteed bool
}

// DefaultPolicy returns a policy with uniqueness off and the default budget.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries}
}

// GeneratedRolls is the pool of fingerprints emitted so far in one batch.
//
// It is owned by a single batch run: create it at batch start, pass it to
// the Guard, and drop it when the batch ends. It is never persisted.
//
// Thread-safety: Add is an atomic check-and-insert under a mutex. The
// metadata phase is single-writer; the lock keeps the check correct if
// emission is ever parallelized.
type GeneratedRolls struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewGeneratedRolls creates an empty pool.
func NewGeneratedRolls() *GeneratedRolls {
	return &GeneratedRolls{seen: make(map[string]struct{})}
}

// Add inserts fp and reports whether it was new.
func (g *GeneratedRolls) Add(fp string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.seen[fp]; ok {
		return false
	}
	g.seen[fp] = struct{}{}
	return true
}

// Contains reports whether fp is already in the pool.
func (g *GeneratedRolls) Contains(fp string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.seen[fp]
	return ok
}

// Len returns the number of distinct fingerprints.
func (g *GeneratedRolls) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

// Guard wraps a Resolver with a bounded re-roll loop enforcing uniqueness.
type Guard struct {
	resolver *Resolver
	policy   Policy
	rolls    *GeneratedRolls
	logger   *slog.Logger
}

// NewGuard creates a guard over resolver. rolls may be nil when the policy
// does not require uniqueness; otherwise a nil pool is replaced by a new one.
func NewGuard(resolver *Resolver, policy Policy, rolls *GeneratedRolls, logger *slog.Logger) *Guard {
	if rolls == nil && policy.RequireUnique {
		rolls = NewGeneratedRolls()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		resolver: resolver,
		policy:   policy,
		rolls:    rolls,
		logger:   logger.With("component", "guard"),
	}
}

// Policy returns the guard's uniqueness policy.
func (g *Guard) Policy() Policy {
	return g.policy
}

// ResolveUnique resolves item index and returns the set and the number of
// re-rolls it took.
//
// Without RequireUnique this is a pass-through with no bookkeeping. With it,
// each candidate is fingerprinted (public view unless IncludeMeta) and
// re-rolled while it collides with the pool. The first new candidate is
// added to the pool before returning.
func (g *Guard) ResolveUnique(index int) (ir.AttributeSet, int, error) {
	if !g.policy.RequireUnique {
		set, err := g.resolver.Resolve(index)
		return set, 0, err
	}

	retries := 0
	for {
		set, err := g.resolver.Resolve(index)
		if err != nil {
			return nil, retries, err
		}

		fp, err := g.key(set)
		if err != nil {
			return nil, retries, fmt.Errorf("item %d: %w", index, err)
		}

		if g.rolls.Add(fp) {
			if retries > 0 {
				g.logger.Debug("unique set found after re-rolls", "item", index, "retries", retries)
			}
			return set, retries, nil
		}

		if retries > g.policy.MaxRetries {
			return nil, retries, &UniquenessExhaustedError{
				Index:      index,
				Retries:    retries,
				MaxRetries: g.policy.MaxRetries,
				Generated:  g.rolls.Len(),
			}
		}
		retries++
	}
}

// Register adds a set produced outside the resolver (a guaranteed roll) to
// the pool. It never rejects: a duplicate is only reported via the bool.
func (g *Guard) Register(set ir.AttributeSet) (bool, error) {
	if !g.policy.RequireUnique || !g.policy.IncludeGuaranteed {
		return true, nil
	}
	fp, err := g.key(set)
	if err != nil {
		return false, err
	}
	return g.rolls.Add(fp), nil
}

// key fingerprints the view of set the policy compares on.
func (g *Guard) key(set ir.AttributeSet) (string, error) {
	if g.policy.IncludeMeta {
		return ir.Fingerprint(set)
	}
	return ir.Fingerprint(set.Public())
}
