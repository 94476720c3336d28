package server

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/advisor/internal/events"
)

func TestEventsStreamDeliversEvents(t *testing.T) {
	bus := events.NewBus()
	handler := NewEventsStreamHandler(bus, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/events/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		handler.ServeHTTP(rec, req)
	}()

	// Wait for the subscription before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for bus.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	bus.Publish(events.TypeReportGenerated, map[string]interface{}{"id": 1})
	time.Sleep(50 * time.Millisecond)
	cancel()
	wg.Wait()

	body := rec.Body.String()
	assert.Contains(t, body, `"type":"connected"`)
	assert.Contains(t, body, `"type":"report_generated"`)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
}

func TestEventsStreamTypeFilter(t *testing.T) {
	bus := events.NewBus()
	handler := NewEventsStreamHandler(bus, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/events/stream?types=screener_run", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		handler.ServeHTTP(rec, req)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for bus.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	bus.Publish(events.TypeReportGenerated, nil)
	bus.Publish(events.TypeScreenerRun, nil)
	time.Sleep(50 * time.Millisecond)
	cancel()
	wg.Wait()

	body := rec.Body.String()
	assert.Contains(t, body, `"type":"screener_run"`)
	assert.NotContains(t, body, `"type":"report_generated"`)
}
