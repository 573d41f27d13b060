package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyagen/vidstate/internal/models"
)

// querier is the subset of pgxpool.Pool used by Postgres.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres implements Store using PostgreSQL. Only engine codes are
// persisted; states are decoded on read.
type Postgres struct {
	pool *pgxpool.Pool
	db   querier
}

// NewPostgres creates a Postgres store from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool, db: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

const eventColumns = `id::text, conv_id, user_id, code, occurred_at`

// RecordVideoState inserts ev, storing the state as its engine code.
func (p *Postgres) RecordVideoState(ctx context.Context, ev models.VideoStateEvent) error {
	_, err := p.db.Exec(ctx,
		`INSERT INTO video_state_events (id, conv_id, user_id, code, occurred_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		ev.ID.String(), ev.ConvID, ev.UserID, ev.State.Code(), ev.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("RecordVideoState: %w", err)
	}
	return nil
}

// LatestVideoStates returns the newest event for each user in convID.
func (p *Postgres) LatestVideoStates(ctx context.Context, convID string) ([]models.VideoStateEvent, error) {
	rows, err := p.db.Query(ctx,
		`SELECT DISTINCT ON (user_id) `+eventColumns+`
		 FROM video_state_events
		 WHERE conv_id = $1
		 ORDER BY user_id, occurred_at DESC, created_at DESC`,
		convID,
	)
	if err != nil {
		return nil, fmt.Errorf("LatestVideoStates: %w", err)
	}
	events, err := pgx.CollectRows(rows, collectEvent)
	if err != nil {
		return nil, fmt.Errorf("LatestVideoStates: %w", err)
	}
	return events, nil
}

// ListVideoStateEvents returns history for a conversation, newest first.
func (p *Postgres) ListVideoStateEvents(ctx context.Context, filter EventFilter) ([]models.VideoStateEvent, error) {
	rows, err := p.db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM video_state_events
		 WHERE conv_id = $1 AND ($2 = '' OR user_id = $2)
		 ORDER BY occurred_at DESC, created_at DESC
		 LIMIT $3`,
		filter.ConvID, filter.UserID, filter.NormalizedLimit(),
	)
	if err != nil {
		return nil, fmt.Errorf("ListVideoStateEvents: %w", err)
	}
	events, err := pgx.CollectRows(rows, collectEvent)
	if err != nil {
		return nil, fmt.Errorf("ListVideoStateEvents: %w", err)
	}
	return events, nil
}

// GetVideoStateEvent returns one event or ErrNotFound.
func (p *Postgres) GetVideoStateEvent(ctx context.Context, id uuid.UUID) (*models.VideoStateEvent, error) {
	row := p.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM video_state_events WHERE id = $1`,
		id.String(),
	)
	ev, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetVideoStateEvent: %w", err)
	}
	return &ev, nil
}

func collectEvent(row pgx.CollectableRow) (models.VideoStateEvent, error) {
	return scanEvent(row)
}

// scanEvent reads one row in eventColumns order. A stored code that no
// longer maps to a state fails the read with models.ErrInvalidState.
func scanEvent(row pgx.Row) (models.VideoStateEvent, error) {
	var (
		ev         models.VideoStateEvent
		id         string
		code       int
		occurredAt time.Time
	)
	if err := row.Scan(&id, &ev.ConvID, &ev.UserID, &code, &occurredAt); err != nil {
		return ev, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ev, fmt.Errorf("event id %q: %w", id, err)
	}
	state, err := models.VideoStateFromCode(code)
	if err != nil {
		return ev, fmt.Errorf("event %s: %w", id, err)
	}
	ev.ID = parsed
	ev.State = state
	ev.Code = code
	ev.OccurredAt = occurredAt
	return ev, nil
}
