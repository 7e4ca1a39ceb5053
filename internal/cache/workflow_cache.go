package cache

import (
	"context"
	"fmt"
	"time"

	"prsentinel/internal/model"

	"github.com/redis/go-redis/v9"
)

// WorkflowCache mirrors the live status of in-flight workflows so status
// polls don't hit MongoDB. Entries are best-effort; MongoDB stays the
// source of truth.
type WorkflowCache interface {
	SetStatus(ctx context.Context, workflowID string, status model.WorkflowStatus) error
	GetStatus(ctx context.Context, workflowID string) (model.WorkflowStatus, error)
	Delete(ctx context.Context, workflowID string) error
}

type workflowCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewWorkflowCache(client *redis.Client) WorkflowCache {
	return &workflowCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *workflowCache) key(workflowID string) string {
	return fmt.Sprintf("workflow:%s:status", workflowID)
}

func (c *workflowCache) SetStatus(ctx context.Context, workflowID string, status model.WorkflowStatus) error {
	return c.client.Set(ctx, c.key(workflowID), string(status), c.ttl).Err()
}

func (c *workflowCache) GetStatus(ctx context.Context, workflowID string) (model.WorkflowStatus, error) {
	val, err := c.client.Get(ctx, c.key(workflowID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return model.WorkflowStatus(val), nil
}

func (c *workflowCache) Delete(ctx context.Context, workflowID string) error {
	return c.client.Del(ctx, c.key(workflowID)).Err()
}
