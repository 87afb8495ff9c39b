package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nextlevelbuilder/goclaw-analytics/internal/workinghours"
)

// BindingStore implements store.BindingStore against the user bindings
// table (§6).
type BindingStore struct {
	db *sql.DB
}

func NewBindingStore(db *sql.DB) *BindingStore {
	return &BindingStore{db: db}
}

// ListBindings performs a full scan of the (user_id, team_id, org_id)
// binding table (§6).
func (s *BindingStore) ListBindings(ctx context.Context) ([]workinghours.Binding, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, team_id, org_id FROM user_bindings`)
	if err != nil {
		return nil, fmt.Errorf("list user_bindings: %w", err)
	}
	defer rows.Close()

	var out []workinghours.Binding
	for rows.Next() {
		var b workinghours.Binding
		if err := rows.Scan(&b.UserID, &b.TeamID, &b.OrgID); err != nil {
			return nil, fmt.Errorf("scan user_bindings row: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
