package guard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/praetor-auth/praetor/internal/access"
	"github.com/praetor-auth/praetor/internal/guard"
)

type fakeGuard struct {
	name     string
	priority int
	target   access.Target
	err      error
	panics   bool
	calls    *[]string
}

func (g fakeGuard) Name() string  { return g.name }
func (g fakeGuard) Priority() int { return g.priority }

func (g fakeGuard) Evaluate(ctx context.Context, route guard.Route) (access.Target, error) {
	if g.calls != nil {
		*g.calls = append(*g.calls, g.name)
	}
	if g.panics {
		panic("boom")
	}
	return g.target, g.err
}

func TestChainEvaluatesInPriorityOrder(t *testing.T) {
	var calls []string
	chain := guard.NewChain(nil,
		fakeGuard{name: "third", priority: 2, calls: &calls},
		fakeGuard{name: "first", priority: 0, calls: &calls},
		fakeGuard{name: "second", priority: 1, calls: &calls},
	)

	target := chain.Evaluate(context.Background(), guard.Route{Path: "/x"})
	assert.Equal(t, access.TargetNone, target)
	assert.Equal(t, []string{"first", "second", "third"}, calls)
}

func TestChainShortCircuitsOnFirstRedirect(t *testing.T) {
	var calls []string
	chain := guard.NewChain(nil,
		fakeGuard{name: "first", priority: 0, calls: &calls},
		fakeGuard{name: "second", priority: 1, target: access.TargetLogin, calls: &calls},
		fakeGuard{name: "third", priority: 2, calls: &calls},
	)

	target := chain.Evaluate(context.Background(), guard.Route{Path: "/x"})
	assert.Equal(t, access.TargetLogin, target)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestChainFailsClosedOnError(t *testing.T) {
	var calls []string
	chain := guard.NewChain(nil,
		fakeGuard{name: "broken", priority: 0, err: errors.New("backend down"), calls: &calls},
		fakeGuard{name: "never", priority: 1, calls: &calls},
	)

	target := chain.Evaluate(context.Background(), guard.Route{Path: "/x"})
	assert.Equal(t, access.TargetLogin, target)
	assert.Equal(t, []string{"broken"}, calls)
}

func TestChainFailsClosedOnPanic(t *testing.T) {
	chain := guard.NewChain(nil,
		fakeGuard{name: "panicky", priority: 0, panics: true},
	)

	target := chain.Evaluate(context.Background(), guard.Route{Path: "/x"})
	assert.Equal(t, access.TargetLogin, target)
}

func TestChainStableOrderOnEqualPriority(t *testing.T) {
	var calls []string
	chain := guard.NewChain(nil,
		fakeGuard{name: "a", priority: 1, calls: &calls},
		fakeGuard{name: "b", priority: 1, calls: &calls},
	)
	chain.Evaluate(context.Background(), guard.Route{Path: "/x"})
	assert.Equal(t, []string{"a", "b"}, calls)
}
