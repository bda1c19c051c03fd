package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/vaultwatch/internal/logging"
	"github.com/dmitrijs2005/vaultwatch/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	events  []Event
	fail    error
	started chan struct{}
	block   chan struct{}
	closed  atomic.Int32
}

func (r *recorder) Deliver(ev Event) error {
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Close() { r.closed.Add(1) }

func (r *recorder) received() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func alert(n int64) Event {
	return BreachAlert(models.BreachAlert{Label: "mail", AccountName: "bob", ExposureCount: n, RecordID: "s1"})
}

func TestNotifyReachesOnlyOwnerSessions(t *testing.T) {
	h := NewHub(logging.Discard())
	a1, a2, b := &recorder{}, &recorder{}, &recorder{}
	h.Register("alice", a1)
	h.Register("alice", a2)
	h.Register("bob", b)

	n := h.Notify(context.Background(), "alice", alert(42))

	assert.Equal(t, 2, n)
	require.Len(t, a1.received(), 1)
	assert.Equal(t, "breachAlert", a1.received()[0].Name)
	assert.Equal(t, int64(42), a1.received()[0].Payload.(models.BreachAlert).ExposureCount)
	assert.Len(t, a2.received(), 1)
	assert.Empty(t, b.received())
}

func TestNotifyDisconnectedOwnerIsDropped(t *testing.T) {
	h := NewHub(logging.Discard())
	assert.Equal(t, 0, h.Notify(context.Background(), "ghost", alert(1)))

	ch := &recorder{}
	h.Register("alice", ch)
	h.Unregister(ch)
	assert.Equal(t, 0, h.Notify(context.Background(), "alice", alert(1)))
	assert.Empty(t, ch.received())
	assert.Equal(t, 0, h.Owners())
}

func TestRegisterMovesChannelBetweenOwners(t *testing.T) {
	h := NewHub(logging.Discard())
	ch := &recorder{}

	h.Register("alice", ch)
	h.Register("alice", ch)
	assert.Equal(t, 1, h.Count("alice"))

	h.Register("bob", ch)
	assert.Equal(t, 0, h.Count("alice"))
	assert.Equal(t, 1, h.Count("bob"))

	assert.Equal(t, 0, h.Notify(context.Background(), "alice", alert(1)))
	assert.Equal(t, 1, h.Notify(context.Background(), "bob", alert(1)))
}

func TestUnregisterUnknownIsNoop(t *testing.T) {
	h := NewHub(logging.Discard())
	assert.NotPanics(t, func() { h.Unregister(&recorder{}) })
}

func TestFailingChannelIsRemovedAndClosed(t *testing.T) {
	h := NewHub(logging.Discard())
	good, bad := &recorder{}, &recorder{fail: errors.New("broken pipe")}
	h.Register("alice", good)
	h.Register("alice", bad)

	assert.Equal(t, 1, h.Notify(context.Background(), "alice", alert(3)))
	assert.Equal(t, int32(1), bad.closed.Load())
	assert.Equal(t, 1, h.Count("alice"))

	assert.Equal(t, 1, h.Notify(context.Background(), "alice", alert(4)))
	assert.Len(t, good.received(), 2)
}

func TestSlowDeliveryDoesNotBlockRegistration(t *testing.T) {
	h := NewHub(logging.Discard())
	slow := &recorder{started: make(chan struct{}, 1), block: make(chan struct{})}
	h.Register("alice", slow)

	done := make(chan int)
	go func() { done <- h.Notify(context.Background(), "alice", alert(1)) }()
	<-slow.started

	registered := make(chan struct{})
	go func() {
		h.Register("bob", &recorder{})
		h.Unregister(slow)
		close(registered)
	}()

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("registration blocked behind a slow delivery")
	}

	close(slow.block)
	assert.Equal(t, 1, <-done)
}

func TestConcurrentRegisterNotify(t *testing.T) {
	h := NewHub(logging.Discard())
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			owner := fmt.Sprintf("owner-%d", i%4)
			ch := &recorder{}
			for j := 0; j < 50; j++ {
				h.Register(owner, ch)
				h.Notify(context.Background(), owner, alert(int64(j)))
				h.Unregister(ch)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, h.Owners())
}

func TestCloseClosesEverySession(t *testing.T) {
	h := NewHub(logging.Discard())
	a, b := &recorder{}, &recorder{}
	h.Register("alice", a)
	h.Register("bob", b)

	h.Close()

	assert.Equal(t, int32(1), a.closed.Load())
	assert.Equal(t, int32(1), b.closed.Load())
	assert.Equal(t, 0, h.Owners())
	assert.Equal(t, 0, h.Notify(context.Background(), "alice", alert(1)))
}
