package events

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentBroker accepts TCP connections and never answers the AMQP handshake.
// Every accepted connection is reported on the returned channel.
func silentBroker(t *testing.T) (url string, accepted <-chan struct{}) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ch := make(chan struct{}, 16)
	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})

	return "amqp://guest:guest@" + ln.Addr().String() + "/", ch
}

func TestAMQPPublisher_SilentBrokerHonorsContext(t *testing.T) {
	url, _ := silentBroker(t)
	p, err := NewAMQPPublisher(url, "counter.incremented")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = p.PublishIncremented(ctx, IncrementedEvent{Count: 1})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "dial must stop at the context deadline")
}

func TestAMQPPublisher_DialTimeoutWithoutDeadline(t *testing.T) {
	url, _ := silentBroker(t)
	p, err := NewAMQPPublisher(url, "counter.incremented")
	require.NoError(t, err)
	p.dialTimeout = 200 * time.Millisecond
	t.Cleanup(func() { _ = p.Close() })

	start := time.Now()
	err = p.PublishIncremented(context.Background(), IncrementedEvent{Count: 1})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestAMQPPublisher_ConcurrentPublishDoesNotWaitForDial(t *testing.T) {
	url, accepted := silentBroker(t)
	p, err := NewAMQPPublisher(url, "counter.incremented")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.PublishIncremented(ctx, IncrementedEvent{Count: 1}) }()

	select {
	case <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("first publish never reached the broker")
	}

	start := time.Now()
	err = p.PublishIncremented(context.Background(), IncrementedEvent{Count: 2})
	assert.True(t, errors.Is(err, ErrReconnecting), "got %v", err)
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	assert.Error(t, <-done)
}

func TestAMQPPublisher_PublishAfterClose(t *testing.T) {
	p, err := NewAMQPPublisher("", "counter.incremented")
	require.NoError(t, err)
	require.NoError(t, p.Close())

	assert.Error(t, p.PublishIncremented(context.Background(), IncrementedEvent{Count: 1}))
}
