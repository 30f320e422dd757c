package report

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/signalsfoundry/rf-heatmap/internal/logging"
)

// DefaultChannel is the pub/sub channel report lines are published on.
const DefaultChannel = "rf-heatmap:report"

const publishTimeout = time.Second

// Publisher is the subset of *redis.Client the Redis reporter needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Redis publishes every report line on a pub/sub channel so remote
// consoles can follow passes.
type Redis struct {
	pub     Publisher
	channel string
	log     logging.Logger
}

// NewRedisClient dials addr lazily; the first publish opens the connection.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// NewRedis builds a reporter on pub. An empty channel means DefaultChannel.
func NewRedis(pub Publisher, channel string, log logging.Logger) *Redis {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Redis{pub: pub, channel: channel, log: log}
}

// Log publishes line. Publish failures are logged and otherwise ignored;
// a missing broker never fails a pass.
func (r *Redis) Log(line string) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.pub.Publish(ctx, r.channel, line).Err(); err != nil {
		r.log.Warn(ctx, "publish report line failed",
			logging.String("channel", r.channel),
			logging.Err(err),
		)
	}
}
