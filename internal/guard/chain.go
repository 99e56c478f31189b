package guard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/praetor-auth/praetor/internal/access"
)

// Chain is an ordered list of guards. Guards are sorted once at
// construction by ascending priority; registration order breaks ties.
type Chain struct {
	guards   []Guard
	logger   *slog.Logger
	fallback access.Target
}

// NewChain builds a chain from the given guards. The fallback target is
// used when a guard itself fails: evaluation errors degrade to a denial,
// never to an allow.
func NewChain(logger *slog.Logger, guards ...Guard) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	sorted := make([]Guard, len(guards))
	copy(sorted, guards)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return &Chain{guards: sorted, logger: logger, fallback: access.TargetLogin}
}

// Evaluate runs the chain against a route. The first guard producing a
// redirect wins; TargetNone means access proceeds.
func (c *Chain) Evaluate(ctx context.Context, route Route) access.Target {
	for _, g := range c.guards {
		target, err := evaluateOne(ctx, g, route)
		if err != nil {
			// Fail closed: an erroring guard denies with the safe default.
			c.logger.Error("guard evaluation failed",
				slog.String("guard", g.Name()),
				slog.String("path", route.Path),
				slog.Any("error", err))
			return c.fallback
		}
		if target != access.TargetNone {
			return target
		}
	}
	return access.TargetNone
}

// evaluateOne isolates a single guard so that a panic inside it is
// converted to an error instead of escaping the chain.
func evaluateOne(ctx context.Context, g Guard, route Route) (target access.Target, err error) {
	defer func() {
		if r := recover(); r != nil {
			target = access.TargetNone
			err = fmt.Errorf("guard %s panicked: %v", g.Name(), r)
		}
	}()
	return g.Evaluate(ctx, route)
}
