package upsert

import "context"

// Executor submits a batch of plans to the aggregate tables. Implementations
// must execute each target table's batch atomically where the store
// supports it, and must tolerate out-of-order, duplicate-key submission
// since Plan is commutative over distinct keys and idempotent on identical
// keys (§5).
type Executor interface {
	Execute(ctx context.Context, plans []Plan) error
}
