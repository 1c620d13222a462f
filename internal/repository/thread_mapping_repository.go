package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-bridge/internal/domain"
)

// ThreadMappingRepository persists the durable ticket-to-thread bindings that
// the in-memory registry is rebuilt from after a restart.
type ThreadMappingRepository interface {
	GetByTicket(ctx context.Context, ticketID string) (*domain.ThreadMapping, error)
	Upsert(ctx context.Context, mapping *domain.ThreadMapping) error
	Delete(ctx context.Context, ticketID string) error
}

type threadMappingRepository struct {
	pool *pgxpool.Pool
}

// NewThreadMappingRepository instantiates repository.
func NewThreadMappingRepository(pool *pgxpool.Pool) ThreadMappingRepository {
	return &threadMappingRepository{pool: pool}
}

func (r *threadMappingRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.ThreadMapping, error) {
	const query = `
        SELECT ticket_id, thread_id, channel_id, created_at
        FROM thread_mappings WHERE ticket_id=$1`
	var mapping domain.ThreadMapping
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&mapping.TicketID,
		&mapping.ThreadID,
		&mapping.ChannelID,
		&mapping.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *threadMappingRepository) Upsert(ctx context.Context, mapping *domain.ThreadMapping) error {
	const query = `
        INSERT INTO thread_mappings (ticket_id, thread_id, channel_id)
        VALUES ($1,$2,$3)
        ON CONFLICT (ticket_id) DO UPDATE SET thread_id=EXCLUDED.thread_id, channel_id=EXCLUDED.channel_id
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		mapping.TicketID,
		mapping.ThreadID,
		mapping.ChannelID,
	).Scan(&mapping.CreatedAt)
}

func (r *threadMappingRepository) Delete(ctx context.Context, ticketID string) error {
	const query = `DELETE FROM thread_mappings WHERE ticket_id=$1`
	cmd, err := r.pool.Exec(ctx, query, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
