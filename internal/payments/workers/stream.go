package workers

import (
	"context"
	"errors"
	"fmt"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/metricz"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"log/slog"
	"paysim/internal/payments"
	"strings"
	"time"
)

const (
	MessagesProcessedTotal = metricz.Key("messages.processed.total")
	MessagesSucceededTotal = metricz.Key("messages.succeeded.total")
	MessagesRejectedTotal  = metricz.Key("messages.rejected.total")
	MessagesFailedTotal    = metricz.Key("messages.failed.total")
	BatchDurationMs        = metricz.Key("batch.duration.ms")
)

const (
	errorBackoff = 500 * time.Millisecond
	idlePoll     = 5 * time.Millisecond
)

var ErrMalformedMessage = errors.New("malformed payment message")

type StreamConfig struct {
	Stream        string
	Group         string
	Consumer      string
	ResultsStream string
	BatchSize     int64
	// Block is the XREADGROUP wait. Negative reads without blocking.
	Block time.Duration
}

// StreamWorker reads payment messages from a Redis stream consumer group,
// processes each read as one bulk batch and publishes a result per message.
// Delivery is at least once: a batch whose publish or ack failed is
// processed again, so the results stream may repeat a correlation id.
// A StreamWorker is driven by a single goroutine.
type StreamWorker struct {
	redisClient *redis.Client
	processor   *payments.Processor
	cfg         StreamConfig
	clock       clockz.Clock
	metrics     *metricz.Registry
	logger      *slog.Logger

	// set while this consumer may own unacked entries
	draining bool
}

func NewStreamWorker(redisClient *redis.Client, processor *payments.Processor, cfg StreamConfig, logger *slog.Logger) *StreamWorker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	// BLOCK 0 would wait forever
	if cfg.Block == 0 {
		cfg.Block = -1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	metrics := metricz.New()
	metrics.Counter(MessagesProcessedTotal)
	metrics.Counter(MessagesSucceededTotal)
	metrics.Counter(MessagesRejectedTotal)
	metrics.Counter(MessagesFailedTotal)
	metrics.Gauge(BatchDurationMs)

	return &StreamWorker{
		redisClient: redisClient,
		processor:   processor,
		cfg:         cfg,
		clock:       clockz.RealClock,
		metrics:     metrics,
		logger:      logger,
		draining:    true,
	}
}

func (w *StreamWorker) WithClock(clock clockz.Clock) *StreamWorker {
	w.clock = clock
	return w
}

func (w *StreamWorker) Metrics() *metricz.Registry {
	return w.metrics
}

// EnsureGroup creates the consumer group, and the stream with it, reading
// from the start of the stream. An existing group is left as is.
func (w *StreamWorker) EnsureGroup(ctx context.Context) error {
	err := w.redisClient.XGroupCreateMkStream(ctx, w.cfg.Stream, w.cfg.Group, "0").Err()
	if err != nil && !isGroupExistsErr(err) {
		return fmt.Errorf("failed to create group %s: %w", w.cfg.Group, err)
	}
	return nil
}

func isGroupExistsErr(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

// Run consumes until ctx is cancelled. Read and publish errors are logged
// and the failed batch is redelivered after a short pause.
func (w *StreamWorker) Run(ctx context.Context) error {
	if err := w.EnsureGroup(ctx); err != nil {
		return err
	}

	w.logger.Info("stream worker started", "stream", w.cfg.Stream, "group", w.cfg.Group, "consumer", w.cfg.Consumer)

	for {
		if ctx.Err() != nil {
			w.logger.Info("stream worker stopped", "consumer", w.cfg.Consumer)
			return nil
		}

		n, err := w.ConsumeOnce(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			w.logger.Error("failed to consume batch", "consumer", w.cfg.Consumer, "error", err)
			w.wait(ctx, errorBackoff)
		case n == 0 && w.cfg.Block < 0:
			w.wait(ctx, idlePoll)
		}
	}
}

func (w *StreamWorker) wait(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-w.clock.After(d):
	}
}

// ConsumeOnce reads at most one batch and returns how many messages it
// handled. An empty read is not an error. Entries already delivered to this
// consumer but never acked are handled before any new message.
func (w *StreamWorker) ConsumeOnce(ctx context.Context) (int, error) {
	if w.draining {
		n, err := w.consume(ctx, "0", -1)
		if err != nil || n > 0 {
			return n, err
		}
		w.draining = false
	}

	return w.consume(ctx, ">", w.cfg.Block)
}

func (w *StreamWorker) consume(ctx context.Context, id string, block time.Duration) (int, error) {
	streams, err := w.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    w.cfg.Group,
		Consumer: w.cfg.Consumer,
		Streams:  []string{w.cfg.Stream, id},
		Count:    w.cfg.BatchSize,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read from stream %s: %w", w.cfg.Stream, err)
	}

	total := 0
	for _, stream := range streams {
		if len(stream.Messages) == 0 {
			continue
		}
		if err := w.processBatch(ctx, stream.Messages); err != nil {
			w.draining = true
			return total, err
		}
		total += len(stream.Messages)
	}

	return total, nil
}

var tracer = otel.Tracer("stream-worker")

func (w *StreamWorker) processBatch(ctx context.Context, msgs []redis.XMessage) error {
	ctx, span := tracer.Start(ctx, "stream_worker.batch", trace.WithAttributes(
		attribute.Int("batch.size", len(msgs)),
	))
	defer span.End()

	start := w.clock.Now()

	results := make([]payments.ResultMessage, len(msgs))
	reqs := make([]payments.PaymentRequest, 0, len(msgs))
	positions := make([]int, 0, len(msgs))
	ids := make([]string, len(msgs))

	for i, msg := range msgs {
		ids[i] = msg.ID

		payload, err := decodeMessage(msg)
		if err != nil {
			w.logger.Warn("rejecting undecodable message", "id", msg.ID, "error", err)
			results[i] = payments.ResultMessage{
				CorrelationId: msg.ID,
				Status:        payments.StatusRejected,
				Message:       ErrMalformedMessage.Error(),
			}
			continue
		}

		results[i].CorrelationId = payload.CorrelationId
		if results[i].CorrelationId == "" {
			results[i].CorrelationId = msg.ID
		}
		reqs = append(reqs, payload.PaymentRequest)
		positions = append(positions, i)
	}

	for j, result := range w.processor.BulkProcess(ctx, reqs) {
		results[positions[j]].Status = result.Status
		results[positions[j]].Message = result.Message
	}

	processedAt := w.clock.Now().UTC()
	for i := range results {
		results[i].ProcessedAt = processedAt
	}

	if err := w.publish(ctx, results); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := w.redisClient.XAck(ctx, w.cfg.Stream, w.cfg.Group, ids...).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to ack %d messages: %w", len(ids), err)
	}

	w.record(results)
	elapsed := w.clock.Since(start)
	w.metrics.Gauge(BatchDurationMs).Set(float64(elapsed.Milliseconds()))

	w.logger.Debug("batch processed", "consumer", w.cfg.Consumer, "batchSize", len(msgs), "elapsed", elapsed)
	span.SetStatus(codes.Ok, "")
	return nil
}

func decodeMessage(msg redis.XMessage) (payments.PaymentMessage, error) {
	var payload payments.PaymentMessage

	raw, ok := msg.Values["data"].(string)
	if !ok {
		return payload, fmt.Errorf("%w: missing data field", ErrMalformedMessage)
	}
	if err := sonic.ConfigFastest.UnmarshalFromString(raw, &payload); err != nil {
		return payload, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return payload, nil
}

func (w *StreamWorker) publish(ctx context.Context, results []payments.ResultMessage) error {
	pipe := w.redisClient.Pipeline()
	for _, result := range results {
		data, err := sonic.ConfigFastest.MarshalToString(result)
		if err != nil {
			return fmt.Errorf("failed to encode result %s: %w", result.CorrelationId, err)
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: w.cfg.ResultsStream,
			Values: map[string]interface{}{
				"data": data,
			},
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish %d results: %w", len(results), err)
	}
	return nil
}

func (w *StreamWorker) record(results []payments.ResultMessage) {
	for _, result := range results {
		w.metrics.Counter(MessagesProcessedTotal).Inc()
		switch result.Status {
		case payments.StatusSuccess:
			w.metrics.Counter(MessagesSucceededTotal).Inc()
		case payments.StatusRejected:
			w.metrics.Counter(MessagesRejectedTotal).Inc()
		case payments.StatusFailed:
			w.metrics.Counter(MessagesFailedTotal).Inc()
		}
	}
}
