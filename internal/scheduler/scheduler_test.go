package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/events"
)

type stubJob struct {
	name string
	err  error
	ran  chan struct{}
}

func (j *stubJob) Name() string { return j.name }

func (j *stubJob) Run(_ context.Context) error {
	select {
	case j.ran <- struct{}{}:
	default:
	}
	return j.err
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := New(events.NewBus(), zerolog.Nop())

	err := s.Register("not a cron spec", &stubJob{name: "x"})
	assert.Error(t, err)
}

func TestRegisterValidSchedules(t *testing.T) {
	s := New(events.NewBus(), zerolog.Nop())

	for _, spec := range []string{ScheduleDailyReport, SchedulePriceWarm, ScheduleCacheCleanup, ScheduleS3Backup} {
		assert.NoError(t, s.Register(spec, &stubJob{name: spec}))
	}
}

func TestJobFailurePublishesEvent(t *testing.T) {
	bus := events.NewBus()
	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	s := New(bus, zerolog.Nop())
	job := &stubJob{name: "failing", err: errors.New("boom"), ran: make(chan struct{}, 1)}

	// Every-second schedule so the test does not wait long.
	require.NoError(t, s.Register("* * * * * *", job))
	s.Start()
	defer s.Stop()

	select {
	case <-job.ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job never ran")
	}

	select {
	case event := <-ch:
		assert.Equal(t, events.TypeJobFailed, event.Type)
		assert.Equal(t, "failing", event.Data["job"])
	case <-time.After(3 * time.Second):
		t.Fatal("no failure event published")
	}
}

func TestCacheCleanupJob(t *testing.T) {
	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	cache := clientdata.NewRepository(db.Conn())
	require.NoError(t, cache.Store("yahoo", "stale", map[string]string{"k": "v"}, -time.Minute))

	job := &CacheCleanupJob{Cache: cache, Log: zerolog.Nop()}
	require.NoError(t, job.Run(context.Background()))

	var out map[string]string
	assert.ErrorIs(t, cache.GetFresh("yahoo", "stale", &out), clientdata.ErrNotFound)
}
