package events

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame(t *testing.T) {
	t.Parallel()

	b, err := Frame(TypeCall, map[string]string{"callId": "c1"})
	require.NoError(t, err)
	assert.Equal(t, "event: call\ndata: {\"callId\":\"c1\"}\n\n", string(b))

	_, err = Frame(TypeCall, make(chan int))
	assert.Error(t, err)
}

func TestHub_PublishReachesEverySubscriber(t *testing.T) {
	t.Parallel()

	h := NewHub(4)
	_, a, cancelA := h.Subscribe()
	defer cancelA()
	_, b, cancelB := h.Subscribe()
	defer cancelB()
	assert.Equal(t, 2, h.Subscribers())

	require.NoError(t, h.Publish(context.Background(), TypeCall, map[string]int{"n": 1}))

	for _, ch := range []<-chan []byte{a, b} {
		select {
		case got := <-ch:
			assert.Contains(t, string(got), "event: call")
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	t.Parallel()

	h := NewHub(1)
	_, ch, cancel := h.Subscribe()
	defer cancel()

	ctx := context.Background()
	require.NoError(t, h.Publish(ctx, TypeCall, 1))
	require.NoError(t, h.Publish(ctx, TypeCall, 2))

	got := <-ch
	assert.Contains(t, string(got), "data: 1")
	select {
	case extra := <-ch:
		t.Fatalf("unexpected event %q", extra)
	default:
	}
}

func TestHub_CancelRemovesSubscriber(t *testing.T) {
	t.Parallel()

	h := NewHub(0)
	_, ch, cancel := h.Subscribe()
	cancel()
	cancel()

	assert.Zero(t, h.Subscribers())
	_, ok := <-ch
	assert.False(t, ok)
	assert.NoError(t, h.Publish(context.Background(), TypeCall, 1))
}

func TestHub_ServeHTTP(t *testing.T) {
	t.Parallel()

	h := NewHub(4)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	r := bufio.NewReader(resp.Body)

	readEvent := func() string {
		var sb strings.Builder
		for {
			line, err := r.ReadString('\n')
			require.NoError(t, err)
			if line == "\n" {
				return sb.String()
			}
			sb.WriteString(line)
		}
	}

	assert.Equal(t, "event: ping\ndata: {}\n", readEvent())

	require.NoError(t, h.Publish(context.Background(), TypeCall, map[string]string{"callId": "abc"}))
	assert.Equal(t, "event: call\ndata: {\"callId\":\"abc\"}\n", readEvent())

	cancel()
	require.Eventually(t, func() bool { return h.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}
