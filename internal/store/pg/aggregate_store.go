package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nextlevelbuilder/goclaw-analytics/internal/upsert"
)

// AggregateStore implements upsert.Executor against conversation_summary
// (lifetime) and daily_performance_summary (daily). Each target table's
// batch executes inside its own transaction, so a batch is atomic per
// table (§5 Cancellation: "the upsert plan executes atomically per target
// table where the store supports it").
type AggregateStore struct {
	db *sql.DB
}

func NewAggregateStore(db *sql.DB) *AggregateStore {
	return &AggregateStore{db: db}
}

const lifetimeUpsertSQL = `
INSERT INTO conversation_summary (
	uid, org_id, chat_id, phone_number,
	conversation_starter, last_message_from,
	contact_message_count, agent_message_count, unique_messages, follow_up_count,
	average_response_time, time_to_first_response,
	created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (uid, org_id, chat_id, phone_number) DO UPDATE SET
	conversation_starter = EXCLUDED.conversation_starter,
	last_message_from = EXCLUDED.last_message_from,
	contact_message_count = EXCLUDED.contact_message_count,
	agent_message_count = EXCLUDED.agent_message_count,
	unique_messages = EXCLUDED.unique_messages,
	follow_up_count = EXCLUDED.follow_up_count,
	average_response_time = EXCLUDED.average_response_time,
	time_to_first_response = EXCLUDED.time_to_first_response,
	updated_at = EXCLUDED.updated_at
`

const dailyUpsertSQL = `
INSERT INTO daily_performance_summary (
	activity_date, user_id, org_id, contact_id, user_number,
	conversation_starter, last_message_from,
	contact_message_count, agent_message_count, unique_messages, follow_up_count,
	average_response_time, time_to_first_response,
	created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (activity_date, user_id, org_id, contact_id, user_number) DO UPDATE SET
	conversation_starter = EXCLUDED.conversation_starter,
	last_message_from = EXCLUDED.last_message_from,
	contact_message_count = EXCLUDED.contact_message_count,
	agent_message_count = EXCLUDED.agent_message_count,
	unique_messages = EXCLUDED.unique_messages,
	follow_up_count = EXCLUDED.follow_up_count,
	average_response_time = EXCLUDED.average_response_time,
	time_to_first_response = EXCLUDED.time_to_first_response,
	updated_at = EXCLUDED.updated_at
`

// Execute partitions plans by target table and submits each table's batch
// in its own transaction.
func (s *AggregateStore) Execute(ctx context.Context, plans []upsert.Plan) error {
	var lifetime, daily []upsert.Plan
	for _, p := range plans {
		switch p.Target {
		case upsert.TargetLifetime:
			lifetime = append(lifetime, p)
		case upsert.TargetDaily:
			daily = append(daily, p)
		default:
			return fmt.Errorf("unknown upsert target %q", p.Target)
		}
	}

	if len(lifetime) > 0 {
		if err := s.execBatch(ctx, lifetimeUpsertSQL, lifetime, execLifetime); err != nil {
			return fmt.Errorf("upsert conversation_summary: %w", err)
		}
	}
	if len(daily) > 0 {
		if err := s.execBatch(ctx, dailyUpsertSQL, daily, execDaily); err != nil {
			return fmt.Errorf("upsert daily_performance_summary: %w", err)
		}
	}
	return nil
}

func (s *AggregateStore) execBatch(ctx context.Context, query string, plans []upsert.Plan, bind func(*sql.Stmt, upsert.Plan) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range plans {
		if err := bind(stmt, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func execLifetime(stmt *sql.Stmt, p upsert.Plan) error {
	k, v := p.LifetimeKey, p.Values
	_, err := stmt.Exec(
		k.UID, k.OrgID, k.ChatID, k.PhoneNumber,
		v.ConversationStarter, v.LastMessageFrom,
		v.ContactMessageCount, v.AgentMessageCount, v.UniqueMessages, v.FollowUpCount,
		v.AverageResponseTime, v.TimeToFirstResponse,
		v.CreatedAt, v.UpdatedAt,
	)
	return err
}

func execDaily(stmt *sql.Stmt, p upsert.Plan) error {
	k, v := p.DailyKey, p.Values
	_, err := stmt.Exec(
		k.ActivityDate, k.UserID, k.OrgID, k.ContactID, k.UserNumber,
		v.ConversationStarter, v.LastMessageFrom,
		v.ContactMessageCount, v.AgentMessageCount, v.UniqueMessages, v.FollowUpCount,
		v.AverageResponseTime, v.TimeToFirstResponse,
		v.CreatedAt, v.UpdatedAt,
	)
	return err
}
