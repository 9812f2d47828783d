package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/diogomassis/payments-core/internal/models"
	"github.com/diogomassis/payments-core/internal/persistence"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	sequenceKey = "ledger:seq"
)

func transactionKey(id int64) string {
	return fmt.Sprintf("ledger:tx:%d", id)
}

func refundsKey(originalID int64) string {
	return fmt.Sprintf("ledger:refunds:%d", originalID)
}

// RedisLedger stores each transaction as a JSON string and keeps, per
// purchase, a list of "refundID:amount" members so the refunded total can be
// read without loading every refund record.
type RedisLedger struct {
	client *redis.Client
}

func NewRedisLedger(client *RedisClient) *RedisLedger {
	return &RedisLedger{client: client.Client()}
}

func (r *RedisLedger) Save(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error) {
	if err := persistence.CheckWritable(transaction); err != nil {
		return nil, err
	}

	id, err := r.client.Incr(ctx, sequenceKey).Result()
	if err != nil {
		return nil, fmt.Errorf("[cache] failed to allocate transaction id: %w", err)
	}
	stored := transaction.Clone()
	stored.ID = id

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("[cache] failed to marshal transaction: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, transactionKey(id), data, 0)
		if stored.IsRefund() {
			member := fmt.Sprintf("%d:%s", id, stored.Amount.Abs().String())
			pipe.RPush(ctx, refundsKey(*stored.OriginalTransactionID), member)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("[cache] failed to save transaction %d: %w", id, err)
	}
	return stored.Clone(), nil
}

func (r *RedisLedger) FindByID(ctx context.Context, id int64) (*models.Transaction, error) {
	data, err := r.client.Get(ctx, transactionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[cache] failed to load transaction %d: %w", id, err)
	}

	var transaction models.Transaction
	if err := json.Unmarshal(data, &transaction); err != nil {
		return nil, fmt.Errorf("[cache] failed to unmarshal transaction %d: %w", id, err)
	}
	return &transaction, nil
}

func (r *RedisLedger) SumRefundsByOriginalID(ctx context.Context, originalID int64) (decimal.Decimal, error) {
	members, err := r.client.LRange(ctx, refundsKey(originalID), 0, -1).Result()
	if err != nil {
		return decimal.Zero, fmt.Errorf("[cache] failed to read refunds of %d: %w", originalID, err)
	}

	total := decimal.Zero
	for _, member := range members {
		parts := strings.Split(member, ":")
		if len(parts) < 2 {
			return decimal.Zero, fmt.Errorf("[cache] malformed refund entry %q", member)
		}
		if _, err := strconv.ParseInt(parts[0], 10, 64); err != nil {
			return decimal.Zero, fmt.Errorf("[cache] malformed refund entry %q: %w", member, err)
		}
		amount, err := decimal.NewFromString(parts[len(parts)-1])
		if err != nil {
			return decimal.Zero, fmt.Errorf("[cache] malformed refund entry %q: %w", member, err)
		}
		total = total.Add(amount)
	}
	return total, nil
}

func (r *RedisLedger) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisLedger) Close() error {
	return nil
}
