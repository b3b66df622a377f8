package workers

import (
	"context"
	"fmt"
	"github.com/alicebob/miniredis/v2"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
	"paysim/internal/payments"
	"testing"
	"time"
)

const visaCard = "4242424242424242"

func newTestWorker(t *testing.T) (*StreamWorker, *redis.Client, *clockz.FakeClock) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	clock := clockz.NewFakeClock()
	processor, err := payments.NewProcessor(payments.DefaultRules(), clock, nil)
	require.NoError(t, err)

	w := NewStreamWorker(rdb, processor, StreamConfig{
		Stream:        "payments",
		Group:         "payments-group",
		Consumer:      "worker-test",
		ResultsStream: "payment-results",
		BatchSize:     10,
		Block:         -1,
	}, nil).WithClock(clock)

	return w, rdb, clock
}

func enqueue(t *testing.T, rdb *redis.Client, data string) string {
	t.Helper()
	id, err := rdb.XAdd(context.Background(), &redis.XAddArgs{
		Stream: "payments",
		Values: map[string]interface{}{"data": data},
	}).Result()
	require.NoError(t, err)
	return id
}

func enqueuePayment(t *testing.T, rdb *redis.Client, clock *clockz.FakeClock, correlationID string, amount int64, card string) string {
	t.Helper()
	data, err := sonic.MarshalString(payments.PaymentMessage{
		PaymentRequest: payments.PaymentRequest{
			Amount:      amount,
			CardNumber:  card,
			ExpiryMonth: 12,
			ExpiryYear:  clock.Now().Year() + 1,
			Currency:    "USD",
			CustomerID:  "C1",
		},
		CorrelationId: correlationID,
		RequestedAt:   clock.Now(),
	})
	require.NoError(t, err)
	return enqueue(t, rdb, data)
}

func readResults(t *testing.T, rdb *redis.Client) []payments.ResultMessage {
	t.Helper()
	entries, err := rdb.XRange(context.Background(), "payment-results", "-", "+").Result()
	require.NoError(t, err)

	results := make([]payments.ResultMessage, len(entries))
	for i, entry := range entries {
		require.NoError(t, sonic.UnmarshalString(entry.Values["data"].(string), &results[i]))
	}
	return results
}

func TestEnsureGroup_Idempotent(t *testing.T) {
	w, rdb, _ := newTestWorker(t)
	ctx := context.Background()

	require.NoError(t, w.EnsureGroup(ctx))
	require.NoError(t, w.EnsureGroup(ctx))

	err := rdb.XGroupCreate(ctx, "payments", "payments-group", "0").Err()
	assert.True(t, isGroupExistsErr(err), "group should already exist, got %v", err)
}

func TestConsumeOnce_Empty(t *testing.T) {
	w, _, _ := newTestWorker(t)
	ctx := context.Background()
	require.NoError(t, w.EnsureGroup(ctx))

	n, err := w.ConsumeOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConsumeOnce_PublishesResultPerMessage(t *testing.T) {
	w, rdb, clock := newTestWorker(t)
	ctx := context.Background()
	require.NoError(t, w.EnsureGroup(ctx))

	enqueuePayment(t, rdb, clock, "ok", 100, visaCard)
	enqueuePayment(t, rdb, clock, "fraud", 100, "1111123412341234")
	badID := enqueue(t, rdb, `{"amount":`)
	enqueuePayment(t, rdb, clock, "timeout", 34, visaCard)
	enqueuePayment(t, rdb, clock, "invalid", -1, visaCard)

	n, err := w.ConsumeOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	results := readResults(t, rdb)
	require.Len(t, results, 5)

	want := []struct {
		correlationID string
		status        payments.Status
		message       string
	}{
		{"ok", payments.StatusSuccess, payments.MessageCompleted},
		{"fraud", payments.StatusRejected, payments.MessageSuspectedFraud},
		{badID, payments.StatusRejected, ErrMalformedMessage.Error()},
		{"timeout", payments.StatusFailed, payments.MessageGatewayTimeout},
		{"invalid", payments.StatusRejected, payments.ErrInvalidAmount.Error()},
	}
	for i, tt := range want {
		assert.Equal(t, tt.correlationID, results[i].CorrelationId, "result %d", i)
		assert.Equal(t, tt.status, results[i].Status, "result %d", i)
		assert.Equal(t, tt.message, results[i].Message, "result %d", i)
		assert.True(t, results[i].ProcessedAt.Equal(clock.Now()), "result %d", i)
	}

	pending, err := rdb.XPending(ctx, "payments", "payments-group").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)

	metrics := w.Metrics()
	assert.Equal(t, float64(5), metrics.Counter(MessagesProcessedTotal).Value())
	assert.Equal(t, float64(1), metrics.Counter(MessagesSucceededTotal).Value())
	assert.Equal(t, float64(3), metrics.Counter(MessagesRejectedTotal).Value())
	assert.Equal(t, float64(1), metrics.Counter(MessagesFailedTotal).Value())
}

func TestConsumeOnce_MissingDataField(t *testing.T) {
	w, rdb, _ := newTestWorker(t)
	ctx := context.Background()
	require.NoError(t, w.EnsureGroup(ctx))

	id, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: "payments",
		Values: map[string]interface{}{"payload": "x"},
	}).Result()
	require.NoError(t, err)

	n, err := w.ConsumeOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results := readResults(t, rdb)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].CorrelationId)
	assert.Equal(t, payments.StatusRejected, results[0].Status)
}

func TestConsumeOnce_RespectsBatchSize(t *testing.T) {
	w, rdb, clock := newTestWorker(t)
	ctx := context.Background()
	require.NoError(t, w.EnsureGroup(ctx))

	for i := 0; i < 25; i++ {
		enqueuePayment(t, rdb, clock, fmt.Sprintf("p-%d", i), 100, visaCard)
	}

	var counts []int
	for {
		n, err := w.ConsumeOnce(ctx)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		counts = append(counts, n)
	}

	assert.Equal(t, []int{10, 10, 5}, counts)

	results := readResults(t, rdb)
	require.Len(t, results, 25)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("p-%d", i), r.CorrelationId)
	}
}

func TestConsumeOnce_PicksUpMessagesQueuedBeforeGroup(t *testing.T) {
	w, rdb, clock := newTestWorker(t)
	ctx := context.Background()

	enqueuePayment(t, rdb, clock, "early", 100, visaCard)
	require.NoError(t, w.EnsureGroup(ctx))

	n, err := w.ConsumeOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRun_StopsOnCancel(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	processor, err := payments.NewProcessor(payments.DefaultRules(), nil, nil)
	require.NoError(t, err)

	w := NewStreamWorker(rdb, processor, StreamConfig{
		Stream:        "payments",
		Group:         "payments-group",
		Consumer:      "worker-run",
		ResultsStream: "payment-results",
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	now := time.Now()
	enqueuePaymentAt(t, rdb, now, "run-1")
	enqueuePaymentAt(t, rdb, now, "run-2")

	require.Eventually(t, func() bool {
		n, err := rdb.XLen(context.Background(), "payment-results").Result()
		return err == nil && n == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func enqueuePaymentAt(t *testing.T, rdb *redis.Client, now time.Time, correlationID string) {
	t.Helper()
	data, err := sonic.MarshalString(payments.PaymentMessage{
		PaymentRequest: payments.PaymentRequest{
			Amount:      100,
			CardNumber:  visaCard,
			ExpiryMonth: 12,
			ExpiryYear:  now.Year() + 1,
			Currency:    "USD",
			CustomerID:  "C1",
		},
		CorrelationId: correlationID,
		RequestedAt:   now,
	})
	require.NoError(t, err)
	enqueue(t, rdb, data)
}

func TestConsumeOnce_RedeliversBatchAfterPublishFailure(t *testing.T) {
	w, rdb, clock := newTestWorker(t)
	ctx := context.Background()
	require.NoError(t, w.EnsureGroup(ctx))

	// a string key makes every XADD to the results stream fail
	require.NoError(t, rdb.Set(ctx, "payment-results", "blocked", 0).Err())
	enqueuePayment(t, rdb, clock, "p1", 100, visaCard)

	n, err := w.ConsumeOnce(ctx)
	require.Error(t, err)
	assert.Zero(t, n)

	pending, err := rdb.XPending(ctx, "payments", "payments-group").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)

	require.NoError(t, rdb.Del(ctx, "payment-results").Err())
	enqueuePayment(t, rdb, clock, "p2", 100, visaCard)

	n, err = w.ConsumeOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results := readResults(t, rdb)
	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].CorrelationId)
	assert.Equal(t, payments.StatusSuccess, results[0].Status)

	n, err = w.ConsumeOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results = readResults(t, rdb)
	require.Len(t, results, 2)
	assert.Equal(t, "p2", results[1].CorrelationId)

	pending, err = rdb.XPending(ctx, "payments", "payments-group").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestConsumeOnce_DrainsPendingLeftByEarlierRun(t *testing.T) {
	w, rdb, clock := newTestWorker(t)
	ctx := context.Background()
	require.NoError(t, w.EnsureGroup(ctx))

	enqueuePayment(t, rdb, clock, "orphan", 100, visaCard)

	// delivered to this consumer by a previous process that never acked
	_, err := rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    "payments-group",
		Consumer: "worker-test",
		Streams:  []string{"payments", ">"},
		Count:    10,
		Block:    -1,
	}).Result()
	require.NoError(t, err)

	n, err := w.ConsumeOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results := readResults(t, rdb)
	require.Len(t, results, 1)
	assert.Equal(t, "orphan", results[0].CorrelationId)
}
