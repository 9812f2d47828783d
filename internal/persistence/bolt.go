package persistence

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/diogomassis/payments-core/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	transactionsBucket = []byte("transactions")
	refundsBucket      = []byte("refunds")
)

// BoltLedger stores the ledger in a single BoltDB file. Records live in the
// transactions bucket keyed by big-endian id; each purchase that has refunds gets
// a nested bucket under refunds holding refund id -> amount.
type BoltLedger struct {
	db *bolt.DB
}

func NewBoltLedger(path string) (*BoltLedger, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("[bolt] failed to open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(transactionsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(refundsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("[bolt] failed to create buckets: %w", err)
	}

	return &BoltLedger{db: db}, nil
}

func (s *BoltLedger) Save(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error) {
	if err := CheckWritable(transaction); err != nil {
		return nil, err
	}
	stored := transaction.Clone()

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(transactionsBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		stored.ID = int64(seq)

		data, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		if err := b.Put(itob(stored.ID), data); err != nil {
			return err
		}

		if stored.IsRefund() {
			byOriginal, err := tx.Bucket(refundsBucket).CreateBucketIfNotExists(itob(*stored.OriginalTransactionID))
			if err != nil {
				return err
			}
			return byOriginal.Put(itob(stored.ID), []byte(stored.Amount.String()))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("[bolt] failed to save transaction: %w", err)
	}
	return stored, nil
}

func (s *BoltLedger) FindByID(ctx context.Context, id int64) (*models.Transaction, error) {
	var transaction *models.Transaction

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(transactionsBucket).Get(itob(id))
		if v == nil {
			return nil
		}
		transaction = &models.Transaction{}
		return json.Unmarshal(v, transaction)
	})
	if err != nil {
		return nil, fmt.Errorf("[bolt] failed to load transaction %d: %w", id, err)
	}
	return transaction, nil
}

func (s *BoltLedger) SumRefundsByOriginalID(ctx context.Context, originalID int64) (decimal.Decimal, error) {
	total := decimal.Zero

	err := s.db.View(func(tx *bolt.Tx) error {
		byOriginal := tx.Bucket(refundsBucket).Bucket(itob(originalID))
		if byOriginal == nil {
			return nil
		}
		return byOriginal.ForEach(func(k, v []byte) error {
			amount, err := decimal.NewFromString(string(v))
			if err != nil {
				return fmt.Errorf("refund %d: %w", btoi(k), err)
			}
			total = total.Add(amount.Abs())
			return nil
		})
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("[bolt] failed to sum refunds of %d: %w", originalID, err)
	}
	return total, nil
}

func (s *BoltLedger) Ping(ctx context.Context) error {
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(transactionsBucket) == nil {
			return fmt.Errorf("[bolt] bucket %s is missing", transactionsBucket)
		}
		return nil
	})
}

func (s *BoltLedger) Close() error {
	return s.db.Close()
}

func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func btoi(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}
