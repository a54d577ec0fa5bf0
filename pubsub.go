package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/pubsub/v2"
)

// Event names carried in PubSubMessage.Event.
const (
	EventAnalysis      = "analysis"
	EventAnalysisError = "analysis_error"
	EventCancel        = "cancel"
)

// PubSubMessage represents the message structure
type PubSubMessage struct {
	TaskID  string `json:"task_id"`
	Event   string `json:"event,omitempty"`
	Message any    `json:"message,omitempty"`
}

// EventBus publishes analysis events and delivers task cancellations.
type EventBus interface {
	Publish(ctx context.Context, data PubSubMessage) error
	Subscribe(taskID string, callback func(data PubSubMessage)) (func(), error)
}

// noopBus is used when Pub/Sub is not configured.
type noopBus struct{}

func (noopBus) Publish(context.Context, PubSubMessage) error { return nil }

func (noopBus) Subscribe(string, func(PubSubMessage)) (func(), error) {
	return func() {}, nil
}

// Client wraps the Google Cloud PubSub client
type Client struct {
	client       *pubsub.Client
	publisher    *pubsub.Publisher
	subscription string
	ctx          context.Context
}

// NewPubSubClient creates a client publishing to topic and, when subscription is set,
// receiving control events from it.
func NewPubSubClient(ctx context.Context, projectID, topic, subscription string) (*Client, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	publisher := client.Publisher(fmt.Sprintf("projects/%s/topics/%s", projectID, topic))

	var subName string
	if subscription != "" {
		subName = fmt.Sprintf("projects/%s/subscriptions/%s", projectID, subscription)
	}

	return &Client{
		client:       client,
		publisher:    publisher,
		subscription: subName,
		ctx:          ctx,
	}, nil
}

// Close closes the PubSub client
func (c *Client) Close() error {
	c.publisher.Stop()
	return c.client.Close()
}

// Publish publishes a message and blocks until the server acknowledges it.
func (c *Client) Publish(ctx context.Context, data PubSubMessage) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	result := c.publisher.Publish(ctx, &pubsub.Message{Data: jsonData})

	if _, err = result.Get(ctx); err != nil {
		log.Printf("[pubsub] failed to publish message: %v", err)
		return err
	}
	return nil
}

// Subscribe subscribes to messages for a specific task_id
// The callback function is called for each matching message
// Returns a cancel function to stop the subscription
func (c *Client) Subscribe(taskID string, callback func(data PubSubMessage)) (func(), error) {
	if c.subscription == "" {
		return func() {}, nil
	}

	messageStart := time.Now().Add(-1 * time.Hour)
	subscriber := c.client.Subscriber(c.subscription)

	ctx, cancel := context.WithCancel(c.ctx)

	go func() {
		err := subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
			// Skip messages published before the start time
			if msg.PublishTime.Before(messageStart) {
				msg.Ack()
				return
			}

			var data PubSubMessage
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				log.Printf("[pubsub] failed to unmarshal message: %v", err)
				msg.Nack()
				return
			}

			// Only process messages for the specified task_id
			if data.TaskID == taskID {
				callback(data)
				msg.Ack()
				return
			}
			msg.Nack()
		})

		if err != nil && ctx.Err() == nil {
			log.Printf("[pubsub] subscription error: %v", err)
		}
	}()

	return cancel, nil
}
