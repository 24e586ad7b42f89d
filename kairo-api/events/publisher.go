// Package events announces account changes to other services through an
// Azure storage queue.
package events

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"

	"kairo/kairo-api/domain"
)

// Publisher delivers user events.
type Publisher interface {
	Publish(ctx context.Context, ev domain.UserEvent) error
}

// Discard drops every event. It is used when no queue is configured.
type Discard struct{}

func (Discard) Publish(context.Context, domain.UserEvent) error { return nil }

type queueClient interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// Queue publishes JSON-encoded events to a storage queue.
type Queue struct {
	client queueClient
	now    func() time.Time
}

// NewQueue connects to the named queue.
func NewQueue(connStr, name string) (*Queue, error) {
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: time.Minute,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	qc, err := azqueue.NewQueueClientFromConnectionString(connStr, name, &opts)
	if err != nil {
		return nil, err
	}
	return newQueue(qc), nil
}

func newQueue(c queueClient) *Queue { return &Queue{client: c, now: time.Now} }

// Publish stamps ev when it has no timestamp and enqueues it.
func (q *Queue) Publish(ctx context.Context, ev domain.UserEvent) error {
	if ev.Timestamp == 0 {
		ev.Timestamp = q.now().UnixNano()
	}
	data, err := sonic.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = q.client.EnqueueMessage(ctx, string(data), nil)
	return err
}
