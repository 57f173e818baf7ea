// Package queue defines the asynq tasks of the service and the client
// used to enqueue them.
package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"
)

const (
	TaskAutoBidRun = "autobid:run"

	DefaultQueue = "auctions"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

type AutoBidPayload struct {
	AuctionID string `json:"auction_id"`
}

func NewAutoBidTask(auctionID string) (*asynq.Task, error) {
	payload, err := json.Marshal(AutoBidPayload{AuctionID: auctionID})
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	return asynq.NewTask(TaskAutoBidRun, payload), nil
}

type Enqueuer struct {
	client *asynq.Client
	queue  string
}

func NewEnqueuer(redisConnection asynq.RedisClientOpt, queue string) *Enqueuer {
	if queue == "" {
		queue = DefaultQueue
	}

	return &Enqueuer{
		client: asynq.NewClient(redisConnection),
		queue:  queue,
	}
}

// EnqueueAutoBid schedules an auto-bid run for the auction and returns
// the task id.
func (e *Enqueuer) EnqueueAutoBid(ctx context.Context, auctionID string) (string, error) {
	task, err := NewAutoBidTask(auctionID)
	if err != nil {
		return "", err
	}

	info, err := e.client.EnqueueContext(ctx, task, asynq.Queue(e.queue))
	if err != nil {
		return "", fmt.Errorf("asynq.Enqueue: %w", err)
	}

	return info.ID, nil
}

func (e *Enqueuer) Close() error {
	if err := e.client.Close(); err != nil {
		return fmt.Errorf("asynq.Close: %w", err)
	}

	return nil
}
