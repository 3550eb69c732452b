package bus

import (
	"context"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/realtime"
)

// Bus fans realtime messages out across API replicas.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}
