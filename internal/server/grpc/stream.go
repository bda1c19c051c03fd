package grpc

import (
	"errors"
	"sync"

	pb "github.com/dmitrijs2005/vaultwatch/internal/proto"
	"github.com/dmitrijs2005/vaultwatch/internal/server/models"
	"github.com/dmitrijs2005/vaultwatch/internal/server/notify"
)

const alertBuffer = 16

var (
	errStreamClosed = errors.New("alert stream closed")
	errSlowConsumer = errors.New("alert stream buffer full")
)

// alertStream is a notify.Channel backed by one WatchAlerts call. Deliver
// only enqueues; the handler goroutine does the network write.
type alertStream struct {
	events chan notify.Event
	done   chan struct{}
	once   sync.Once
}

func newAlertStream() *alertStream {
	return &alertStream{
		events: make(chan notify.Event, alertBuffer),
		done:   make(chan struct{}),
	}
}

func (a *alertStream) Deliver(ev notify.Event) error {
	select {
	case <-a.done:
		return errStreamClosed
	default:
	}
	select {
	case a.events <- ev:
		return nil
	case <-a.done:
		return errStreamClosed
	default:
		return errSlowConsumer
	}
}

func (a *alertStream) Close() {
	a.once.Do(func() { close(a.done) })
}

// WatchAlerts streams the caller's breach alerts until the client goes away
// or the server shuts down.
func (s *GRPCServer) WatchAlerts(req *pb.WatchAlertsRequest, stream pb.VaultService_WatchAlertsServer) error {
	ctx := stream.Context()
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}

	ch := newAlertStream()
	s.sessions.Register(userID, ch)
	defer func() {
		s.sessions.Unregister(ch)
		ch.Close()
	}()
	s.logger.Info(ctx, "alert stream opened", "user_id", userID)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "alert stream closed by client", "user_id", userID)
			return nil
		case <-ch.done:
			return nil
		case ev := <-ch.events:
			if err := stream.Send(toWireEvent(ev)); err != nil {
				return err
			}
		}
	}
}

func toWireEvent(ev notify.Event) *pb.AlertEvent {
	out := &pb.AlertEvent{Event: ev.Name}
	if a, ok := ev.Payload.(models.BreachAlert); ok {
		out.Alert = &pb.BreachAlert{
			Label:         a.Label,
			AccountName:   a.AccountName,
			ExposureCount: a.ExposureCount,
			RecordID:      a.RecordID,
		}
	}
	return out
}
