package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Channel carries low-stock notifications for interested UIs.
const Channel = "alerts.lowstock"

// DBRepository defines the required persistence behaviour for the service.
type DBRepository interface {
	LowStock(ctx context.Context) ([]Entry, error)
}

// Service computes the low-stock worklist. It holds no state of its own; the
// worklist is recomputed from the catalog and the projection on every call.
type Service struct {
	repo  DBRepository
	redis *redis.Client
}

// NewService constructs the alert service. The redis client is optional and
// only used for publishing scan results.
func NewService(repo DBRepository, redisClient *redis.Client) *Service {
	return &Service{repo: repo, redis: redisClient}
}

// LowStock returns the current low-stock worklist, most severe first.
func (s *Service) LowStock(ctx context.Context) ([]Entry, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("alerts service not initialised")
	}
	return s.repo.LowStock(ctx)
}

// Publish pushes the entries on the notification channel. Best-effort; a
// missing redis client is not an error.
func (s *Service) Publish(ctx context.Context, entries []Entry) error {
	if s == nil || s.redis == nil || len(entries) == 0 {
		return nil
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.redis.Publish(ctx, Channel, payload).Err()
}
