// Package notify delivers events to the live sessions of one owner.
package notify

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/vaultwatch/internal/common"
	"github.com/dmitrijs2005/vaultwatch/internal/logging"
	"github.com/dmitrijs2005/vaultwatch/internal/server/models"
)

// Event is one named message pushed to a session.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"data"`
}

// BreachAlert wraps an alert in its event envelope.
func BreachAlert(a models.BreachAlert) Event {
	return Event{Name: common.BreachAlertEvent, Payload: a}
}

// Channel is a live session able to receive events. Deliver must not block
// indefinitely; an error marks the session dead.
type Channel interface {
	Deliver(Event) error
	Close()
}

// Hub keeps the owner to session mapping. It is safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	byOwner map[string]map[Channel]struct{}
	owners  map[Channel]string
	logger  logging.Logger
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		byOwner: make(map[string]map[Channel]struct{}),
		owners:  make(map[Channel]string),
		logger:  logger.With("module", "notify"),
	}
}

// Register binds ch to owner. A channel already bound to another owner is moved.
func (h *Hub) Register(owner string, ch Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.owners[ch]; ok {
		if prev == owner {
			return
		}
		h.removeLocked(prev, ch)
	}

	set, ok := h.byOwner[owner]
	if !ok {
		set = make(map[Channel]struct{})
		h.byOwner[owner] = set
	}
	set[ch] = struct{}{}
	h.owners[ch] = owner
}

// Unregister drops ch. Unknown channels are ignored.
func (h *Hub) Unregister(ch Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if owner, ok := h.owners[ch]; ok {
		h.removeLocked(owner, ch)
	}
}

// Notify delivers ev to every session of owner and returns how many accepted
// it. An owner without sessions is not an error. Sessions failing delivery
// are unregistered and closed.
func (h *Hub) Notify(ctx context.Context, owner string, ev Event) int {
	h.mu.RLock()
	targets := make([]Channel, 0, len(h.byOwner[owner]))
	for ch := range h.byOwner[owner] {
		targets = append(targets, ch)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		h.logger.Debug(ctx, "no live session, event dropped", "owner", owner, "event", ev.Name)
		return 0
	}

	delivered := 0
	for _, ch := range targets {
		if err := ch.Deliver(ev); err != nil {
			h.logger.Warn(ctx, "session delivery failed, dropping session", "owner", owner, "error", err)
			h.Unregister(ch)
			ch.Close()
			continue
		}
		delivered++
	}
	return delivered
}

// Count returns the number of live sessions of owner.
func (h *Hub) Count(owner string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byOwner[owner])
}

// Owners returns the number of owners with at least one live session.
func (h *Hub) Owners() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byOwner)
}

// Close unregisters and closes every session.
func (h *Hub) Close() {
	h.mu.Lock()
	chans := make([]Channel, 0, len(h.owners))
	for ch := range h.owners {
		chans = append(chans, ch)
	}
	h.byOwner = make(map[string]map[Channel]struct{})
	h.owners = make(map[Channel]string)
	h.mu.Unlock()

	for _, ch := range chans {
		ch.Close()
	}
}

func (h *Hub) removeLocked(owner string, ch Channel) {
	delete(h.owners, ch)
	if set, ok := h.byOwner[owner]; ok {
		delete(set, ch)
		if len(set) == 0 {
			delete(h.byOwner, owner)
		}
	}
}
