package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"assembleia/contexts/governance/assembly-voting/ports"
	contractsv1 "assembleia/contracts/events/v1"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBusDeliversToSubscribersOfTopic(t *testing.T) {
	bus := NewBus(4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		bus.Wait()
	}()

	received := make(chan ports.EventEnvelope, 1)
	if err := bus.Subscribe(ctx, contractsv1.EventSessionFinalized, "test-cg", func(_ context.Context, event ports.EventEnvelope) error {
		received <- event
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := bus.Publish(context.Background(), contractsv1.EventVoteRecorded, ports.EventEnvelope{EventID: "ignored"}); err != nil {
		t.Fatalf("publish other topic: %v", err)
	}
	if err := bus.Publish(context.Background(), contractsv1.EventSessionFinalized, ports.EventEnvelope{
		EventID:   "evt-1",
		EventType: contractsv1.EventSessionFinalized,
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case event := <-received:
		if event.EventID != "evt-1" {
			t.Fatalf("expected evt-1, got %s", event.EventID)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("event was not delivered")
	}
}

func TestBusSubscriberStopsOnCancel(t *testing.T) {
	bus := NewBus(1, nil)
	ctx, cancel := context.WithCancel(context.Background())

	if err := bus.Subscribe(ctx, "topic", "cg", func(context.Context, ports.EventEnvelope) error {
		return errors.New("handler failure is logged only")
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := bus.Publish(context.Background(), "topic", ports.EventEnvelope{EventID: "evt"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	cancel()
	bus.Wait()

	bus.mu.RLock()
	remaining := len(bus.subscribers["topic"])
	bus.mu.RUnlock()
	if remaining != 0 {
		t.Fatalf("expected subscriber removal, got %d", remaining)
	}
}

func TestBusPublishDropsForSlowSubscriber(t *testing.T) {
	bus := NewBus(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	block := make(chan struct{})
	defer func() {
		close(block)
		cancel()
		bus.Wait()
	}()

	if err := bus.Subscribe(ctx, "topic", "cg", func(context.Context, ports.EventEnvelope) error {
		<-block
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			_ = bus.Publish(context.Background(), "topic", ports.EventEnvelope{EventID: "evt"})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked on a slow subscriber")
	}
}
