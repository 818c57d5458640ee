package registration

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/crosslist/backend/internal/domain/integration"
)

// OrderPuller fans ListOrders out across every configured platform and
// merges the pages into one consolidated slice. A platform failure degrades
// the result to the reachable platforms instead of failing the pull.
type OrderPuller struct {
	registry integration.Registry
	logger   *zap.Logger
}

// NewOrderPuller creates an order reconciliation service.
func NewOrderPuller(registry integration.Registry, logger *zap.Logger) *OrderPuller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderPuller{registry: registry, logger: logger}
}

// PullResult is one consolidated reconciliation pull.
type PullResult struct {
	Orders []integration.Order `json:"orders"`
	// Failed lists platforms that could not be reached this pull
	Failed []integration.PlatformCode `json:"failed,omitempty"`
}

// Pull fetches orders from every registered platform concurrently and
// returns them merged, newest first.
func (p *OrderPuller) Pull(ctx context.Context, opts integration.ListOptions) (*PullResult, error) {
	adapters := p.registry.Adapters()

	type pullOutcome struct {
		code   integration.PlatformCode
		orders []integration.Order
		err    error
	}
	outcomes := make([]pullOutcome, len(adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, adapter := range adapters {
		i, adapter := i, adapter
		g.Go(func() error {
			orders, err := adapter.ListOrders(gctx, opts)
			outcomes[i] = pullOutcome{code: adapter.PlatformCode(), orders: orders, err: err}
			// A single platform failure must not cancel the others.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &PullResult{}
	for _, out := range outcomes {
		if out.err != nil {
			p.logger.Warn("order pull failed for platform",
				zap.String("platform", out.code.String()),
				zap.Error(out.err))
			result.Failed = append(result.Failed, out.code)
			continue
		}
		result.Orders = append(result.Orders, out.orders...)
	}

	sort.Slice(result.Orders, func(i, j int) bool {
		return result.Orders[i].OrderedAt.After(result.Orders[j].OrderedAt)
	})
	return result, nil
}
