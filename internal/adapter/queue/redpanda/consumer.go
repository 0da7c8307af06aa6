package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/cv-match-scorer/internal/domain"
	"github.com/fairyhunter13/cv-match-scorer/internal/observability"
	"github.com/fairyhunter13/cv-match-scorer/internal/scoring"
)

// Consumer pulls scoring tasks from Kafka with read-committed isolation and
// fans them out to a bounded worker pool.
type Consumer struct {
	session *kgo.GroupTransactSession
	jobs    domain.JobRepository
	uploads domain.UploadRepository
	results domain.ResultRepository
	cache   domain.ScoreCache
	engine  *scoring.Engine
	policy  RetryPolicy

	groupID string
	topic   string

	minWorkers    int
	maxWorkers    int
	activeWorkers int
	workerMu      sync.RWMutex
	jobQueue      chan *kgo.Record
	shutdown      chan struct{}
	closeOnce     sync.Once
}

// ConsumerOptions configures NewConsumer beyond its required dependencies.
type ConsumerOptions struct {
	TransactionalID string
	Topic           string
	MinWorkers      int
	MaxWorkers      int
	RetryPolicy     RetryPolicy
}

func (o *ConsumerOptions) fillDefaults() {
	if o.TransactionalID == "" {
		o.TransactionalID = "cv-match-scorer-consumer"
	}
	if o.Topic == "" {
		o.Topic = TopicScore
	}
	if o.MinWorkers <= 0 {
		o.MinWorkers = 2
	}
	if o.MaxWorkers < o.MinWorkers {
		o.MaxWorkers = o.MinWorkers
	}
	if o.RetryPolicy == (RetryPolicy{}) {
		o.RetryPolicy = DefaultRetryPolicy()
	}
}

// NewConsumer constructs a Consumer joined to the given consumer group.
func NewConsumer(brokers []string, groupID string, jobs domain.JobRepository, uploads domain.UploadRepository, results domain.ResultRepository, cache domain.ScoreCache, eng *scoring.Engine, opts ConsumerOptions) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	if groupID == "" {
		return nil, fmt.Errorf("missing required group ID")
	}
	opts.fillDefaults()

	slog.Info("creating queue consumer",
		slog.Any("brokers", brokers),
		slog.String("group_id", groupID),
		slog.String("topic", opts.Topic))

	// Ensure the topic exists before joining the group.
	tempClient, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("temp client: %w", err)
	}
	defer tempClient.Close()
	if err := createTopicIfNotExists(context.Background(), tempClient, opts.Topic, 8, 1); err != nil {
		slog.Warn("topic create failed, it may already exist", slog.String("topic", opts.Topic), slog.Any("error", err))
	}

	kotelService := kotel.NewKotel(kotel.WithTracer(kotel.NewTracer(
		kotel.TracerProvider(otel.GetTracerProvider()),
	)))

	session, err := kgo.NewGroupTransactSession(
		kgo.SeedBrokers(brokers...),
		kgo.TransactionalID(opts.TransactionalID),
		kgo.FetchIsolationLevel(kgo.ReadCommitted()),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(opts.Topic),
		kgo.RequireStableFetchOffsets(),
		kgo.WithHooks(kotelService.Hooks()...),
		kgo.DialTimeout(10*time.Second),
		kgo.SessionTimeout(30*time.Second),
		kgo.HeartbeatInterval(3*time.Second),
		kgo.RebalanceTimeout(10*time.Second),
		kgo.FetchMaxWait(5*time.Second),
		kgo.AutoCommitMarks(),
		kgo.AutoCommitInterval(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka transact session: %w", err)
	}

	return &Consumer{
		session:       session,
		jobs:          jobs,
		uploads:       uploads,
		results:       results,
		cache:         cache,
		engine:        eng,
		policy:        opts.RetryPolicy,
		groupID:       groupID,
		topic:         opts.Topic,
		minWorkers:    opts.MinWorkers,
		maxWorkers:    opts.MaxWorkers,
		activeWorkers: opts.MinWorkers,
		jobQueue:      make(chan *kgo.Record, opts.MaxWorkers*2),
		shutdown:      make(chan struct{}),
	}, nil
}

// Start runs the fetch loop and worker pool until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("starting queue consumer",
		slog.String("group_id", c.groupID),
		slog.String("topic", c.topic),
		slog.Int("min_workers", c.minWorkers),
		slog.Int("max_workers", c.maxWorkers))

	for i := 0; i < c.minWorkers; i++ {
		go c.worker(ctx, i)
	}
	go c.fetchLoop(ctx)
	go c.scaleLoop(ctx)

	<-ctx.Done()
	c.closeOnce.Do(func() { close(c.shutdown) })
	return ctx.Err()
}

func (c *Consumer) fetchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.shutdown:
			return
		default:
		}

		fetches := c.session.PollFetches(ctx)
		if errs := fetches.Errors(); len(errs) > 0 {
			for _, fe := range errs {
				slog.Error("fetch error",
					slog.String("topic", fe.Topic),
					slog.Int("partition", int(fe.Partition)),
					slog.Any("error", fe.Err))
			}
			time.Sleep(2 * time.Second)
			continue
		}
		fetches.EachRecord(func(record *kgo.Record) {
			select {
			case c.jobQueue <- record:
			default:
				// Queue full: process inline rather than dropping.
				go func(rec *kgo.Record) { _ = c.processRecord(ctx, rec) }(record)
			}
		})
	}
}

// scaleLoop grows the pool toward maxWorkers when the queue backs up and
// lets excess workers retire when it drains.
func (c *Consumer) scaleLoop(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.shutdown:
			return
		case <-ticker.C:
			queueLen := len(c.jobQueue)
			active := c.getActiveWorkers()
			if queueLen > 0 && active < c.maxWorkers {
				toAdd := min(queueLen, c.maxWorkers-active)
				for i := 0; i < toAdd; i++ {
					c.incrementActiveWorkers()
					go c.worker(ctx, c.getActiveWorkers())
				}
				slog.Info("scaled up workers", slog.Int("added", toAdd), slog.Int("queue_length", queueLen))
			}
		}
	}
}

func (c *Consumer) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.shutdown:
			return
		case record := <-c.jobQueue:
			if record == nil {
				return
			}
			if err := c.processRecord(ctx, record); err != nil {
				slog.Error("process record",
					slog.Int("worker_id", id),
					slog.Int64("offset", record.Offset),
					slog.Any("error", err))
			}
			// Retire when the pool exceeds demand.
			if c.getActiveWorkers() > c.minWorkers && len(c.jobQueue) == 0 {
				c.decrementActiveWorkers()
				return
			}
		}
	}
}

func (c *Consumer) processRecord(ctx context.Context, record *kgo.Record) error {
	tracer := otel.Tracer("queue.consumer")
	ctx, span := tracer.Start(ctx, "ProcessScoreJob")
	defer span.End()

	var payload domain.ScoreTaskPayload
	if err := json.Unmarshal(record.Value, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	lg := observability.LoggerFromContext(ctx).With(
		slog.String("job_id", payload.JobID),
		slog.String("cv_id", payload.CVID),
		slog.String("jd_id", payload.JDID),
	)
	ctx = observability.ContextWithLogger(ctx, lg)
	lg.Info("processing score task", slog.Int64("offset", record.Offset), slog.Int("partition", int(record.Partition)))

	return HandleScore(ctx, c.jobs, c.uploads, c.results, c.cache, c.engine, c.policy, payload)
}

func (c *Consumer) getActiveWorkers() int {
	c.workerMu.RLock()
	defer c.workerMu.RUnlock()
	return c.activeWorkers
}

func (c *Consumer) incrementActiveWorkers() {
	c.workerMu.Lock()
	defer c.workerMu.Unlock()
	c.activeWorkers++
}

func (c *Consumer) decrementActiveWorkers() {
	c.workerMu.Lock()
	defer c.workerMu.Unlock()
	if c.activeWorkers > 0 {
		c.activeWorkers--
	}
}

// Close tears down the Kafka session.
func (c *Consumer) Close() error {
	if c.session != nil {
		c.session.Close()
	}
	c.closeOnce.Do(func() { close(c.shutdown) })
	return nil
}
