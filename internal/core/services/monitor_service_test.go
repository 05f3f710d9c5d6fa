package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chatmandu/elections/internal/core/domain"
)

type recordingNotifier struct {
	mu       sync.Mutex
	notified []string
	fail     map[string]bool
}

func (n *recordingNotifier) NotifyEnded(ctx context.Context, election *domain.Election, result *domain.ElectionResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail[election.ID] {
		return errors.New("channel vanished")
	}
	n.notified = append(n.notified, election.ID)
	return nil
}

func (n *recordingNotifier) ids() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.notified...)
}

func TestSweepNotifiesEndedElections(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	election := createTestElection(t, service)
	record := election.Clone()
	record.EndsAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Save(ctx, record))

	notifier := &recordingNotifier{}
	monitor := NewMonitorService(service, notifier, time.Minute, zap.NewNop())

	monitor.Sweep(ctx)
	assert.Equal(t, []string{election.ID}, notifier.ids())

	// The election is already ended; another sweep reports nothing.
	monitor.Sweep(ctx)
	assert.Equal(t, []string{election.ID}, notifier.ids())
}

func TestSweepIsolatesNotifierFailures(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	first := createTestElection(t, service, "A", "B")
	second := createTestElection(t, service, "C", "D")
	for _, e := range []*domain.Election{first, second} {
		record := e.Clone()
		record.EndsAt = time.Now().Add(-time.Minute)
		require.NoError(t, store.Save(ctx, record))
	}

	notifier := &recordingNotifier{fail: map[string]bool{first.ID: true}}
	monitor := NewMonitorService(service, notifier, time.Minute, zap.NewNop())

	monitor.Sweep(ctx)

	// The failing election does not block the other, and both are ended.
	assert.Equal(t, []string{second.ID}, notifier.ids())
	for _, e := range []*domain.Election{first, second} {
		current, err := service.Get(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusEnded, current.Status)
	}
}

func TestRunSweepsImmediatelyAtStart(t *testing.T) {
	service, store := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	election := createTestElection(t, service)
	record := election.Clone()
	record.EndsAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Save(ctx, record))

	notifier := &recordingNotifier{}
	// A long interval: only the startup sweep can fire within this test.
	monitor := NewMonitorService(service, notifier, time.Hour, zap.NewNop())

	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return len(notifier.ids()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
