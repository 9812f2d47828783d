package health

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err   atomic.Pointer[error]
	calls atomic.Int32
}

func (f *fakePinger) Ping(ctx context.Context) error {
	f.calls.Add(1)
	if err := f.err.Load(); err != nil {
		return *err
	}
	return nil
}

func (f *fakePinger) fail(err error) {
	f.err.Store(&err)
}

func TestMonitor_CheckAll(t *testing.T) {
	ledger := &fakePinger{}
	cache := &fakePinger{}
	cache.fail(errors.New("connection refused"))
	m := NewMonitor(time.Hour, zerolog.Nop(), NewPingChecker("ledger", ledger), NewPingChecker("cache", cache))

	assert.False(t, m.Healthy(), "nothing probed yet")

	m.CheckAll(context.Background())

	status, found := m.GetStatus("ledger")
	require.True(t, found)
	assert.True(t, status.Healthy)
	assert.Empty(t, status.Error)

	status, found = m.GetStatus("cache")
	require.True(t, found)
	assert.False(t, status.Healthy)
	assert.Equal(t, "connection refused", status.Error)
	assert.False(t, m.Healthy())

	snapshot := m.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "cache", snapshot[0].Name)
	assert.Equal(t, "ledger", snapshot[1].Name)

	cache.err.Store(nil)
	m.CheckAll(context.Background())
	assert.True(t, m.Healthy())
}

func TestMonitor_NotifiesListeners(t *testing.T) {
	ledger := &fakePinger{}
	m := NewMonitor(time.Hour, zerolog.Nop(), NewPingChecker("ledger", ledger))

	var mutex sync.Mutex
	var received []Status
	m.OnUpdate(func(s Status) {
		mutex.Lock()
		defer mutex.Unlock()
		received = append(received, s)
	})

	m.CheckAll(context.Background())
	ledger.fail(errors.New("down"))
	m.CheckAll(context.Background())

	mutex.Lock()
	defer mutex.Unlock()
	require.Len(t, received, 2)
	assert.True(t, received[0].Healthy)
	assert.False(t, received[1].Healthy)
}

func TestMonitor_StartProbesImmediatelyAndStops(t *testing.T) {
	ledger := &fakePinger{}
	m := NewMonitor(10*time.Millisecond, zerolog.Nop(), NewPingChecker("ledger", ledger))

	m.Start()
	assert.Eventually(t, func() bool { return ledger.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	m.Stop()
	m.Stop()

	calls := ledger.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, ledger.calls.Load())
	assert.True(t, m.Healthy())
}
