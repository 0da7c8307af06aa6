// Package redpanda provides Redpanda/Kafka queue integration for scoring
// jobs: a transactional producer on the API side and a consumer-group worker
// pool on the worker side, with exactly-once delivery semantics.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/fairyhunter13/cv-match-scorer/internal/domain"
	"github.com/fairyhunter13/cv-match-scorer/internal/observability"
)

// TopicScore is the Kafka topic carrying scoring jobs.
const TopicScore = "score-jobs"

// Producer implements domain.Queue over a transactional Kafka client.
// Transactions are serialized through a channel so concurrent HTTP requests
// share one producer safely.
type Producer struct {
	client  *kgo.Client
	txnLock chan struct{}
}

// NewProducer constructs a Producer with exactly-once semantics.
func NewProducer(brokers []string) (*Producer, error) {
	return NewProducerWithTransactionalID(brokers, "cv-match-scorer-producer")
}

// NewProducerWithTransactionalID constructs a Producer with a custom
// transactional ID, letting tests run several producers side by side.
func NewProducerWithTransactionalID(brokers []string, transactionalID string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	slog.Info("creating queue producer", slog.Any("brokers", brokers), slog.String("transactional_id", transactionalID))

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.TransactionalID(transactionalID),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1_000_000),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	if err := createTopicIfNotExists(context.Background(), client, TopicScore, 1, 1); err != nil {
		slog.Warn("topic create failed, it may already exist", slog.String("topic", TopicScore), slog.Any("error", err))
	}

	return &Producer{
		client:  client,
		txnLock: make(chan struct{}, 1),
	}, nil
}

// EnqueueScore publishes a scoring task inside a Kafka transaction and
// returns the job id as the task id.
func (p *Producer) EnqueueScore(ctx domain.Context, payload domain.ScoreTaskPayload) (string, error) {
	return p.EnqueueScoreToTopic(ctx, payload, TopicScore)
}

// EnqueueScoreToTopic publishes to a specific topic so tests can isolate
// themselves with unique topics.
func (p *Producer) EnqueueScoreToTopic(ctx domain.Context, payload domain.ScoreTaskPayload, topic string) (string, error) {
	select {
	case p.txnLock <- struct{}{}:
		defer func() { <-p.txnLock }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if err := p.client.BeginTransaction(); err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}

	b, err := json.Marshal(payload)
	if err != nil {
		p.abort(ctx)
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	record := &kgo.Record{
		Topic: topic,
		// Job id keying keeps per-job ordering
		Key:   []byte(payload.JobID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "job_id", Value: []byte(payload.JobID)},
			{Key: "cv_id", Value: []byte(payload.CVID)},
			{Key: "jd_id", Value: []byte(payload.JDID)},
		},
	}

	e := kgo.AbortingFirstErrPromise(p.client)
	p.client.Produce(ctx, record, e.Promise())
	if err := e.Err(); err != nil {
		p.abort(ctx)
		return "", fmt.Errorf("produce: %w", err)
	}

	if err := p.client.EndTransaction(ctx, kgo.TryCommit); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}

	observability.EnqueueJob("score")
	slog.Info("score task enqueued", slog.String("topic", topic), slog.String("job_id", payload.JobID))
	return payload.JobID, nil
}

func (p *Producer) abort(ctx context.Context) {
	if err := p.client.EndTransaction(ctx, kgo.TryAbort); err != nil {
		slog.Error("abort transaction", slog.Any("error", err))
	}
}

// Ping checks broker connectivity for readiness probes.
func (p *Producer) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx); err != nil {
		return fmt.Errorf("kafka ping: %w", err)
	}
	return nil
}

// Close closes the underlying Kafka client.
func (p *Producer) Close() error {
	if p.client != nil {
		p.client.Close()
	}
	return nil
}
