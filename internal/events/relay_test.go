package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/ghostpad/internal/gamepad"
)

// startTestNATSServer starts an embedded NATS server for testing.
func startTestNATSServer(t *testing.T) *natsserver.Server {
	t.Helper()

	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1, // Random port
		NoLog:  true,
		NoSigs: true,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

func TestRelayRepublishesEvents(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	msgs := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe("ghostpad.events.action", msgs)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	bus := NewBus(nil)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		NewRelay(nc, nil).Run(ctx, bus)
	}()

	// Wait for the relay to subscribe; the bus drops events published
	// while it has no subscribers.
	require.Eventually(t, func() bool { return bus.Subscribers() == 1 },
		2*time.Second, 10*time.Millisecond)

	bus.Publish(Event{
		Type:        TypeAction,
		Mode:        "autoplaying",
		Fingerprint: 7,
		Input:       gamepad.ControllerInput{Button: gamepad.ButtonB},
	})

	select {
	case msg := <-msgs:
		var ev Event
		require.NoError(t, json.Unmarshal(msg.Data, &ev))
		assert.Equal(t, TypeAction, ev.Type)
		assert.Equal(t, uint64(7), ev.Fingerprint)
		assert.Equal(t, gamepad.ButtonB, ev.Input.Button)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for relayed event")
	}

	cancel()
	select {
	case <-relayDone:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop on context cancellation")
	}
}

func TestRelayRateCapDropsExcess(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	bus := NewBus(nil)
	defer bus.Close()

	// One event per minute with burst 1: the first publish passes, the
	// rest hit the cap.
	relay := NewRelay(nc, nil, WithPublishRate(rate.Every(time.Minute), 1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go relay.Run(ctx, bus)

	// Wait for the relay to subscribe; the bus drops events published
	// while it has no subscribers.
	require.Eventually(t, func() bool { return bus.Subscribers() == 1 },
		2*time.Second, 10*time.Millisecond)

	for i := 0; i < 5; i++ {
		bus.Publish(Event{Type: TypeSuggestion})
	}

	assert.Eventually(t, func() bool {
		return relay.Dropped() == 4
	}, 2*time.Second, 10*time.Millisecond, "excess events are dropped, not queued")
}

func TestRelayStopsWhenBusCloses(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	bus := NewBus(nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		NewRelay(nc, nil).Run(context.Background(), bus)
	}()

	bus.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop when the bus closed")
	}
}
