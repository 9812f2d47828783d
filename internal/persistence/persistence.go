package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/diogomassis/payments-core/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id                      BIGSERIAL PRIMARY KEY,
	card_number             TEXT        NOT NULL,
	amount                  NUMERIC     NOT NULL CHECK (amount <> 0),
	currency                TEXT        NOT NULL,
	type                    TEXT        NOT NULL CHECK (type IN ('PURCHASE', 'REFUND')),
	created_at              TIMESTAMPTZ NOT NULL,
	original_transaction_id BIGINT      REFERENCES transactions (id),
	bank_transaction_id     TEXT        NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_refunds
	ON transactions (original_transaction_id) WHERE type = 'REFUND';
`

// PostgresLedger keeps the ledger in the transactions table. Amounts cross the
// driver boundary as text so no precision is lost on either side.
type PostgresLedger struct {
	db *pgxpool.Pool
}

func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("[postgres] failed to parse database URL: %w", err)
	}
	config.MaxConns = 30
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("[postgres] failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("[postgres] failed to reach database: %w", err)
	}
	return pool, nil
}

// NewPostgresLedger wraps pool and creates the schema when it is missing.
func NewPostgresLedger(ctx context.Context, pool *pgxpool.Pool) (*PostgresLedger, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("[postgres] failed to migrate schema: %w", err)
	}
	return &PostgresLedger{db: pool}, nil
}

func (p *PostgresLedger) Save(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error) {
	if err := CheckWritable(transaction); err != nil {
		return nil, err
	}
	query := `
		INSERT INTO transactions (card_number, amount, currency, type, created_at, original_transaction_id, bank_transaction_id)
		VALUES ($1, $2::text::numeric, $3, $4, $5, $6, $7)
		RETURNING id
	`
	stored := transaction.Clone()
	arguments := []any{
		stored.CardNumber,
		stored.Amount.String(),
		stored.Currency,
		string(stored.Type),
		stored.Timestamp,
		stored.OriginalTransactionID,
		stored.BankTransactionID,
	}
	if err := p.db.QueryRow(ctx, query, arguments...).Scan(&stored.ID); err != nil {
		return nil, fmt.Errorf("[postgres] failed to insert transaction: %w", err)
	}
	return stored, nil
}

func (p *PostgresLedger) FindByID(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `
		SELECT id, card_number, amount::text, currency, type, created_at, original_transaction_id, bank_transaction_id
		FROM transactions WHERE id = $1
	`
	var (
		t         models.Transaction
		amount    string
		txType    string
		createdAt time.Time
	)
	err := p.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.CardNumber, &amount, &t.Currency, &txType, &createdAt, &t.OriginalTransactionID, &t.BankTransactionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[postgres] failed to load transaction %d: %w", id, err)
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("[postgres] transaction %d has an unreadable amount %q: %w", id, amount, err)
	}
	t.Type = models.TransactionType(txType)
	t.Timestamp = createdAt.UTC()
	return &t, nil
}

func (p *PostgresLedger) SumRefundsByOriginalID(ctx context.Context, originalID int64) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(-SUM(amount), 0)::text
		FROM transactions WHERE original_transaction_id = $1 AND type = 'REFUND'
	`
	var total string
	if err := p.db.QueryRow(ctx, query, originalID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("[postgres] failed to sum refunds of %d: %w", originalID, err)
	}
	sum, err := decimal.NewFromString(total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("[postgres] unreadable refund sum %q: %w", total, err)
	}
	return sum, nil
}

func (p *PostgresLedger) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func (p *PostgresLedger) Close() error {
	p.db.Close()
	return nil
}

// PostgresRefundLocker serializes refunds across service instances with a
// session advisory lock keyed by the original transaction id. Each held lock
// pins one pooled connection until it is released.
type PostgresRefundLocker struct {
	db *pgxpool.Pool
}

func NewPostgresRefundLocker(pool *pgxpool.Pool) *PostgresRefundLocker {
	return &PostgresRefundLocker{db: pool}
}

func (l *PostgresRefundLocker) Lock(ctx context.Context, originalID int64) (func(), error) {
	conn, err := l.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("[postgres] failed to acquire lock connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", originalID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("[postgres] failed to lock refunds of %d: %w", originalID, err)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(unlockCtx, "SELECT pg_advisory_unlock($1)", originalID); err != nil {
			// closing the session drops every advisory lock it holds
			_ = conn.Conn().Close(unlockCtx)
		}
		conn.Release()
	}, nil
}
