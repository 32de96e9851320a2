// Package usage routes best-effort usage records either through RabbitMQ
// (drained by cmd/worker) or straight into the database when no broker is
// configured. Either way the relay's response path never waits on it.
package usage

import (
	"context"

	"github.com/mindwellcare/chat-relay/internal/chat"
	"github.com/mindwellcare/chat-relay/internal/store/rabbitmq"
)

// DBRecorder inserts usage rows directly. Used when RABBIT_URL is unset.
type DBRecorder struct {
	repo *chat.Repo
}

func NewDBRecorder(repo *chat.Repo) *DBRecorder {
	return &DBRecorder{repo: repo}
}

func (r *DBRecorder) Record(ctx context.Context, rec chat.UsageRecord) error {
	return r.repo.InsertUsage(ctx, &rec)
}

// QueueRecorder publishes usage records to the usage queue.
type QueueRecorder struct {
	pub *rabbitmq.Publisher
}

func NewQueueRecorder(pub *rabbitmq.Publisher) *QueueRecorder {
	return &QueueRecorder{pub: pub}
}

func (r *QueueRecorder) Record(ctx context.Context, rec chat.UsageRecord) error {
	return r.pub.PublishUsage(ctx, rec)
}
