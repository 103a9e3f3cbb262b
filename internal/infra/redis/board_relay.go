package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const boardChannel = "zoo:leaderboard"

// BoardRelay fans classroom score changes out to every instance over Redis pub/sub.
// The payload is the classroom id; each listener rebuilds the board from the store.
type BoardRelay struct {
	client *redis.Client
	log    *slog.Logger
}

func NewBoardRelay(client *redis.Client, log *slog.Logger) *BoardRelay {
	return &BoardRelay{client: client, log: log}
}

func (r *BoardRelay) Announce(ctx context.Context, classroomID string) error {
	if err := r.client.Publish(ctx, boardChannel, classroomID).Err(); err != nil {
		return fmt.Errorf("publish leaderboard change: %w", err)
	}
	return nil
}

// Listen calls onChange for every announced classroom until ctx is done.
// ready, when not nil, is closed once the subscription is active.
func (r *BoardRelay) Listen(ctx context.Context, ready chan<- struct{}, onChange func(ctx context.Context, classroomID string)) error {
	sub := r.client.Subscribe(ctx, boardChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe leaderboard changes: %w", err)
	}
	if ready != nil {
		close(ready)
	}

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			r.log.DebugContext(ctx, "leaderboard change received", "classroom", msg.Payload)
			onChange(ctx, msg.Payload)
		}
	}
}
