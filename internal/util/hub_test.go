package util_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/opsline/engine/internal/util"
)

func TestHubFanOut(t *testing.T) {
	hub := util.NewHub[int]()
	defer hub.Close()

	first := hub.NewConsumer()
	second := hub.NewConsumer()

	hub.Publish(42)

	assert.Equal(t, 42, <-first.Receive())
	assert.Equal(t, 42, <-second.Receive())
}

func TestHubConsumerClose(t *testing.T) {
	hub := util.NewHub[int]()
	defer hub.Close()

	c := hub.NewConsumer()
	c.Close()

	_, ok := <-c.Receive()
	assert.False(t, ok)

	// publishing after the consumer left must not panic
	hub.Publish(1)
}

func TestHubCloseClosesConsumers(t *testing.T) {
	hub := util.NewHub[string]()
	c := hub.NewConsumer()

	hub.Close()

	_, ok := <-c.Receive()
	assert.False(t, ok)

	late := hub.NewConsumer()
	_, ok = <-late.Receive()
	assert.False(t, ok)
}

func TestHubSlowConsumerDoesNotBlock(t *testing.T) {
	hub := util.NewHub[int]()
	defer hub.Close()

	_ = hub.NewConsumer()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			hub.Publish(i)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a slow consumer")
	}
}
