package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aurcc/bonafide-portal/internal/pkg/dberrors"
	"github.com/aurcc/bonafide-portal/internal/pkg/logger"
)

// SessionsTable is created by the portal_sessions migration.
const SessionsTable = "portal_sessions"

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore keeps sessions in the portal_sessions table as JSONB documents.
type PostgresStore struct {
	db  DBTX
	sb  squirrel.StatementBuilderType
	now func() time.Time
}

// NewPostgresStore creates a PostgresStore
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{
		db:  db,
		sb:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now: time.Now,
	}
}

// Get loads a live session.
func (p *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	return p.get(ctx, id, false)
}

func (p *PostgresStore) get(ctx context.Context, id string, forUpdate bool) (*Session, error) {
	query := p.sb.Select("data").
		From(SessionsTable).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Gt{"expires_at": p.now()}).
		Limit(1)
	if forUpdate {
		query = query.Suffix("FOR UPDATE")
	}
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get session query: %w", err)
	}

	var data []byte
	if err := p.db.QueryRow(ctx, sql, args...).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, p.wrap("load", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

// Save upserts a session.
func (p *PostgresStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	sql, args, err := p.sb.Insert(SessionsTable).
		Columns("id", "data", "expires_at", "updated_at").
		Values(s.ID, data, s.ExpiresAt, p.now()).
		Suffix("ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build save session query: %w", err)
	}

	if _, err := p.db.Exec(ctx, sql, args...); err != nil {
		return p.wrap("save", err)
	}
	return nil
}

// Update locks the session row, applies fn and writes it back in one transaction.
func (p *PostgresStore) Update(ctx context.Context, id string, fn func(*Session)) (*Session, error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return nil, p.wrap("begin update of", err)
	}
	defer tx.Rollback(ctx)

	locked := &PostgresStore{db: tx, sb: p.sb, now: p.now}
	s, err := locked.get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	fn(s)
	if err := locked.Save(ctx, s); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, p.wrap("commit", err)
	}
	return s, nil
}

// Delete removes a session.
func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	sql, args, err := p.sb.Delete(SessionsTable).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete session query: %w", err)
	}
	if _, err := p.db.Exec(ctx, sql, args...); err != nil {
		return p.wrap("delete", err)
	}
	return nil
}

// PurgeExpired deletes every expired session and returns how many rows were removed.
func (p *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	sql, args, err := p.sb.Delete(SessionsTable).Where(squirrel.LtOrEq{"expires_at": p.now()}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build purge sessions query: %w", err)
	}
	tag, err := p.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, p.wrap("purge", err)
	}
	return tag.RowsAffected(), nil
}

func (p *PostgresStore) wrap(op string, err error) error {
	if dberrors.IsUndefinedTableError(err) {
		logger.Error().Err(err).Str("table", SessionsTable).Msg("Session table missing, run the migrate command")
		return fmt.Errorf("session table %s does not exist (run `portal migrate`): %w", SessionsTable, err)
	}
	return fmt.Errorf("failed to %s session: %w", op, err)
}
