package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/diogomassis/payments-core/internal/env"
	"github.com/diogomassis/payments-core/internal/persistence"
	"github.com/diogomassis/payments-core/internal/services/cache"
	"github.com/diogomassis/payments-core/internal/services/health"
	"github.com/diogomassis/payments-core/internal/services/locker"
	"github.com/diogomassis/payments-core/internal/services/orchestrator"
)

// ledgerBackend bundles a ledger store with the refund lock that matches its
// deployment scope: in-process for single-process stores, shared for the
// networked ones.
type ledgerBackend struct {
	store  orchestrator.LedgerStore
	locker orchestrator.RefundLocker
	pinger health.Pinger
	close  func() error
}

func openLedger(ctx context.Context, cfg *env.EnvironmentVariables, log zerolog.Logger) (*ledgerBackend, error) {
	switch cfg.LedgerBackend {
	case env.BackendMemory:
		store := persistence.NewMemoryLedger()
		return &ledgerBackend{store: store, locker: locker.NewKeyedLocker(), pinger: store, close: store.Close}, nil

	case env.BackendBolt:
		store, err := persistence.NewBoltLedger(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		return &ledgerBackend{store: store, locker: locker.NewKeyedLocker(), pinger: store, close: store.Close}, nil

	case env.BackendRedis:
		client := cache.NewRedisClient(cfg.RedisAddr)
		if err := client.Ping(ctx); err != nil {
			client.Close()
			return nil, err
		}
		return &ledgerBackend{
			store:  cache.NewRedisLedger(client),
			locker: cache.NewRedisRefundLocker(client, cfg.RefundLockTTL, log),
			pinger: client,
			close:  client.Close,
		}, nil

	case env.BackendPostgres:
		pool, err := persistence.NewPostgresPool(ctx, cfg.DatabaseUrl)
		if err != nil {
			return nil, err
		}
		store, err := persistence.NewPostgresLedger(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return &ledgerBackend{store: store, locker: persistence.NewPostgresRefundLocker(pool), pinger: store, close: store.Close}, nil
	}
	return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
}
