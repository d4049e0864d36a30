package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"stockmood/pkg/logger"
)

const defaultKeyPrefix = "stockmood:queue"

// RedisQueue is a redis-list backed job queue. PublishMessage LPUSHes,
// a fixed pool of workers BRPOPs. A failed message is parked in a retry
// zset scored by its next attempt time; once the retry limit is spent it
// moves to a dead-letter list for manual inspection.
type RedisQueue struct {
	log      *logger.Logger
	cfg      QueueConfig
	rdb      *redis.Client
	prefix   string
	handlers map[string]Job

	mu      sync.RWMutex
	run     context.Context
	halt    context.CancelFunc
	workers sync.WaitGroup
}

func NewRedisQueue(log *logger.Logger, cfg QueueConfig, rdb *redis.Client) *RedisQueue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 10 * time.Second
	}
	return &RedisQueue{
		log:      log,
		cfg:      cfg,
		rdb:      rdb,
		prefix:   defaultKeyPrefix,
		handlers: make(map[string]Job),
	}
}

// RegisterJob adds a handler for one message type. Registration happens
// before Start; later registrations of the same type are ignored.
func (q *RedisQueue) RegisterJob(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, dup := q.handlers[job.Type()]; dup {
		q.log.Warn("duplicate job registration ignored", logger.String("job", job.Name()))
		return
	}
	q.handlers[job.Type()] = job
	q.log.Info("queue job registered",
		logger.String("job", job.Name()), logger.String("type", job.Type()))
}

// Start verifies the redis connection and launches the worker pool plus
// the retry scheduler.
func (q *RedisQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.run != nil {
		return fmt.Errorf("queue already running")
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	q.run, q.halt = context.WithCancel(context.Background())
	for i := 0; i < q.cfg.Workers; i++ {
		q.workers.Add(1)
		go q.consume()
	}
	q.workers.Add(1)
	go q.scheduleRetries()

	q.log.Info("job queue started", logger.Int("workers", q.cfg.Workers))
	return nil
}

// Stop cancels the workers and waits for them, at most until ctx
// expires.
func (q *RedisQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.run == nil {
		q.mu.Unlock()
		return nil
	}
	q.halt()
	q.run = nil
	q.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		q.workers.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		q.log.Info("job queue stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue stop: %w", ctx.Err())
	}
}

// PublishMessage implements QueueService.
func (q *RedisQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	q.mu.RLock()
	_, known := q.handlers[msgType]
	running := q.run != nil
	q.mu.RUnlock()
	if !running {
		return fmt.Errorf("queue not running")
	}
	if !known {
		return fmt.Errorf("no job registered for type: %s", msgType)
	}

	data, err := json.Marshal(Message{
		ID:        strconv.FormatInt(time.Now().UnixNano(), 10),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key("messages"), data).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}
	return nil
}

func (q *RedisQueue) consume() {
	defer q.workers.Done()
	run := q.runCtx()

	for run.Err() == nil {
		popped, err := q.rdb.BRPop(run, time.Second, q.key("messages")).Result()
		switch {
		case err == nil && len(popped) == 2:
			q.dispatch(run, []byte(popped[1]))
		case errors.Is(err, redis.Nil), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// idle or shutting down
		case err != nil:
			q.log.Error("queue pop failed", logger.Error(err))
			time.Sleep(time.Second)
		}
	}
}

func (q *RedisQueue) dispatch(ctx context.Context, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		q.log.Error("undecodable queue message dropped", logger.Error(err))
		return
	}

	q.mu.RLock()
	job := q.handlers[msg.Type]
	q.mu.RUnlock()
	if job == nil {
		q.log.Error("queue message without handler dropped",
			logger.String("type", msg.Type), logger.String("id", msg.ID))
		return
	}

	// payload was decoded from JSON; repack so ParsePayload sees raw JSON
	if decoded, ok := msg.Payload.(map[string]interface{}); ok {
		if data, err := json.Marshal(decoded); err == nil {
			msg.Payload = json.RawMessage(data)
		}
	}

	err := job.Handle(ctx, msg.Payload)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	q.log.Error("job failed",
		logger.String("id", msg.ID),
		logger.String("job", job.Name()),
		logger.Int("attempt", msg.Attempts+1),
		logger.Error(err))

	if msg.Attempts >= q.cfg.RetryLimit {
		q.bury(msg, job)
		return
	}
	msg.Attempts++
	q.park(msg)
}

// park schedules one more attempt after the configured delay.
func (q *RedisQueue) park(msg Message) {
	due := time.Now().Add(q.cfg.RetryDelay)
	data, err := json.Marshal(msg)
	if err != nil {
		q.log.Error("marshal retry message", logger.Error(err))
		return
	}
	entry := redis.Z{Score: float64(due.Unix()), Member: data}
	if err := q.rdb.ZAdd(context.Background(), q.key("retry"), entry).Err(); err != nil {
		q.log.Error("schedule retry", logger.Error(err))
		return
	}
	q.log.Info("retry scheduled",
		logger.String("id", msg.ID),
		logger.Int("attempt", msg.Attempts),
		logger.String("due", due.Format(time.RFC3339)))
}

func (q *RedisQueue) bury(msg Message, job Job) {
	q.log.Error("retries exhausted, moving message to dead letter",
		logger.String("id", msg.ID), logger.String("job", job.Name()))
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := q.rdb.LPush(context.Background(), q.key("dlq"), data).Err(); err != nil {
		q.log.Error("dead letter push", logger.Error(err))
	}
}

// scheduleRetries periodically moves due retry entries back onto the
// main list.
func (q *RedisQueue) scheduleRetries() {
	defer q.workers.Done()
	run := q.runCtx()

	tick := time.NewTicker(5 * time.Second)
	defer tick.Stop()
	for {
		select {
		case <-run.Done():
			return
		case <-tick.C:
			q.requeueDue(run)
		}
	}
}

func (q *RedisQueue) requeueDue(ctx context.Context) {
	deadline := strconv.FormatInt(time.Now().Unix(), 10)
	due, err := q.rdb.ZRangeByScore(ctx, q.key("retry"), &redis.ZRangeBy{Min: "0", Max: deadline}).Result()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			q.log.Error("scan retry set", logger.Error(err))
		}
		return
	}

	for _, member := range due {
		pipe := q.rdb.TxPipeline()
		pipe.ZRem(ctx, q.key("retry"), member)
		pipe.LPush(ctx, q.key("messages"), member)
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, context.Canceled) {
			q.log.Error("requeue retry message", logger.Error(err))
		}
	}
}

func (q *RedisQueue) runCtx() context.Context {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.run
}

func (q *RedisQueue) key(suffix string) string {
	return q.prefix + ":" + suffix
}
