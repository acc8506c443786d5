package messaging

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const EventTypeAttribute = "type"

type Publisher interface {
	Publish(ctx context.Context, message Message) error
}

type Client struct {
	googlePubSubClient *pubsub.Client
	topic              *pubsub.Topic
	subscription       *pubsub.Subscription
	topicName          string
	subscriptionName   string
}

type ClientOptions struct {
	ProjectID      string
	Topic          string
	Subscription   string
	CredentialPath string
}

type SubscribeCallbackFunc func(ctx context.Context, msg Message)

func New(ctx context.Context, config ClientOptions) (*Client, error) {
	var opts []option.ClientOption
	if config.CredentialPath != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialPath))
	}

	googleClient, err := pubsub.NewClient(ctx, config.ProjectID, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create pubsub client")
	}

	client := &Client{
		googlePubSubClient: googleClient,
		topicName:          config.Topic,
		subscriptionName:   config.Subscription,
	}
	if config.Topic != "" {
		client.topic = googleClient.Topic(config.Topic)
	}
	if config.Subscription != "" {
		client.subscription = googleClient.Subscription(config.Subscription)
	}
	return client, nil
}

// EnsureTopicAndSubscription creates the configured topic and subscription when they are missing.
func (s *Client) EnsureTopicAndSubscription(ctx context.Context, ackDeadline time.Duration) error {
	if s.topic == nil {
		return errors.New("no topic configured")
	}
	exists, err := s.topic.Exists(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to check topic %s", s.topicName)
	}
	if !exists {
		if s.topic, err = s.googlePubSubClient.CreateTopic(ctx, s.topicName); err != nil {
			return errors.Wrapf(err, "failed to create topic %s", s.topicName)
		}
	}

	if s.subscription == nil {
		return nil
	}
	it := s.topic.Subscriptions(ctx)
	for {
		subscription, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errors.Wrap(err, "failed to list subscriptions")
		}
		if subscription.ID() == s.subscriptionName {
			return nil
		}
	}
	s.subscription, err = s.googlePubSubClient.CreateSubscription(ctx, s.subscriptionName, pubsub.SubscriptionConfig{
		Topic:               s.topic,
		RetainAckedMessages: false,
		AckDeadline:         ackDeadline,
	})
	return errors.Wrapf(err, "failed to create subscription %s", s.subscriptionName)
}

func (s *Client) Subscribe(ctx context.Context, callback SubscribeCallbackFunc) error {
	if s.subscription == nil {
		return errors.New("no subscription configured")
	}
	err := s.subscription.Receive(ctx, func(ctx context.Context, pubSubMsg *pubsub.Message) {
		callback(ctx, newMessageFromPubSubMessage(pubSubMsg))
	})
	if err != nil {
		return errors.Wrapf(err, "failed to pull messages from subscription %s", s.subscriptionName)
	}
	return nil
}

// Publish blocks until the broker acknowledged the message.
func (s *Client) Publish(ctx context.Context, message Message) error {
	if s.topic == nil {
		return errors.New("no topic configured")
	}
	msg := &pubsub.Message{
		Data:       message.Data,
		Attributes: message.Attributes,
	}
	if _, err := s.topic.Publish(ctx, msg).Get(ctx); err != nil {
		return errors.Wrapf(err, "failed to publish in topic %s", s.topicName)
	}
	return nil
}

func (s *Client) Close() error {
	if s.topic != nil {
		s.topic.Stop()
	}
	return s.googlePubSubClient.Close()
}

func newMessageFromPubSubMessage(pubSubMsg *pubsub.Message) Message {
	msg := Message{
		ID:          pubSubMsg.ID,
		Data:        pubSubMsg.Data,
		Attributes:  pubSubMsg.Attributes,
		PublishTime: pubSubMsg.PublishTime,
	}
	msg.RegisterAck(func() error {
		pubSubMsg.Ack()
		return nil
	})
	msg.RegisterNack(func() error {
		pubSubMsg.Nack()
		return nil
	})
	if msg.Attributes == nil {
		msg.Attributes = make(map[string]string)
	}
	return msg
}

// NewEvent builds a message carrying payload as json, tagged with its event type.
func NewEvent(eventType string, payload interface{}) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, errors.Wrap(err, "failed to encode event")
	}
	return Message{
		Data:       data,
		Attributes: map[string]string{EventTypeAttribute: eventType},
	}, nil
}
