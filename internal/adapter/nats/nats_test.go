package nats

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/brixworks/sitesync/internal/port/events"
)

var _ events.Publisher = (*Publisher)(nil)

// testConnect connects to NATS or skips the test if NATS_URL is not set.
func testConnect(t *testing.T) *Publisher {
	t.Helper()

	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}

	p, err := Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		if err := p.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return p
}

func TestPublishRunCompleted(t *testing.T) {
	p := testConnect(t)
	ctx := context.Background()

	// Raw JetStream consumer with DeliverNewPolicy so messages from prior
	// test runs on the shared stream are not observed.
	consumer, err := p.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		FilterSubject: subjectRunCompleted,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		t.Fatalf("create consumer: %v", err)
	}

	got := make(chan []byte, 1)
	sub, err := consumer.Consume(func(msg jetstream.Msg) {
		select {
		case got <- msg.Data():
		default:
		}
		_ = msg.Ack()
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	defer sub.Stop()

	want := events.RunCompleted{
		SyncID:     "sync-1",
		UserID:     "user-1",
		Status:     "partial",
		Created:    8,
		Updated:    0,
		ErrorCount: 2,
		FinishedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := p.PublishRunCompleted(ctx, want); err != nil {
		t.Fatalf("PublishRunCompleted: %v", err)
	}

	select {
	case data := <-got:
		var ev events.RunCompleted
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.SyncID != want.SyncID || ev.Status != want.Status || ev.ErrorCount != want.ErrorCount {
			t.Errorf("got %+v, want %+v", ev, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for run event")
	}
}
