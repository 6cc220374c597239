package pubsub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub(zap.NewNop())

	ch, cancel := hub.Subscribe("proj-a")
	defer cancel()

	hub.Publish("proj-a", Event{Type: EventNewLog, ProjectID: "proj-a", Payload: "x"})

	select {
	case event := <-ch:
		assert.Equal(t, EventNewLog, event.Type)
		assert.Equal(t, "proj-a", event.ProjectID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestHubProjectIsolation(t *testing.T) {
	hub := NewHub(zap.NewNop())

	chA, cancelA := hub.Subscribe("proj-a")
	defer cancelA()
	chB, cancelB := hub.Subscribe("proj-b")
	defer cancelB()

	hub.Publish("proj-a", Event{Type: EventNewLog, ProjectID: "proj-a"})

	select {
	case <-chA:
	case <-time.After(time.Second):
		t.Fatal("subscriber of proj-a missed event")
	}

	select {
	case <-chB:
		t.Fatal("subscriber of proj-b received foreign event")
	default:
	}
}

func TestHubPublishNeverBlocks(t *testing.T) {
	hub := NewHub(zap.NewNop())

	// 订阅后不消费,填满缓冲
	_, cancel := hub.Subscribe("proj-a")
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*10; i++ {
			hub.Publish("proj-a", Event{Type: EventNewLog, ProjectID: "proj-a", Payload: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on slow subscriber")
	}
}

func TestHubCancel(t *testing.T) {
	hub := NewHub(zap.NewNop())

	ch, cancel := hub.Subscribe("proj-a")
	require.Equal(t, 1, hub.SubscriberCount("proj-a"))

	cancel()
	assert.Equal(t, 0, hub.SubscriberCount("proj-a"))

	// 取消后通道关闭
	_, ok := <-ch
	assert.False(t, ok)

	// 重复取消无副作用
	cancel()

	// 取消后发布不会panic
	hub.Publish("proj-a", Event{Type: EventNewLog, ProjectID: "proj-a"})
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	hub.Publish("no-such-project", Event{Type: EventSessionUpdated})
}
