package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/aakaru/securelance/internal/domain"
)

// GigEventChannel is the redis pubsub channel carrying gig lifecycle events.
const GigEventChannel = "securelance:gig-events"

// SignalService fans gig lifecycle events out over redis pubsub so every
// node can feed its websocket subscribers.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) PublishGigEvent(ctx context.Context, event domain.GigEvent) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, GigEventChannel, jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Subscribe delivers gig events until ctx is cancelled. Malformed payloads
// are logged and skipped.
func (s *SignalService) Subscribe(ctx context.Context) (<-chan domain.GigEvent, error) {
	pubsub := s.rdb.Subscribe(ctx, GigEventChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	out := make(chan domain.GigEvent)
	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event domain.GigEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					slog.ErrorContext(ctx, "failed to decode gig event", slog.String("error", err.Error()))
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
