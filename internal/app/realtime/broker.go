package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"

	"github.com/R3E-Network/jobhunter/pkg/logger"
)

// Channel is the Redis pub/sub channel shared by every instance.
const Channel = "jobhunter:notifications"

// Broker routes a payload to the sessions of a user wherever they are
// connected.
type Broker interface {
	Publish(ctx context.Context, userID int64, payload []byte) error
}

// Deliverer is the local end of a broker.
type Deliverer interface {
	Deliver(userID int64, payload []byte) int
}

// LocalBroker delivers straight to the hub of this process.
type LocalBroker struct {
	hub Deliverer
}

func NewLocalBroker(hub Deliverer) *LocalBroker {
	return &LocalBroker{hub: hub}
}

func (b *LocalBroker) Publish(_ context.Context, userID int64, payload []byte) error {
	b.hub.Deliver(userID, payload)
	return nil
}

type envelope struct {
	UserID  int64           `json:"userId"`
	Payload json.RawMessage `json:"payload"`
}

// RedisBroker fans notifications out through Redis so that a user connected
// to another instance still receives them.
type RedisBroker struct {
	client *redis.Client
	hub    Deliverer
	log    *logger.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

func NewRedisBroker(client *redis.Client, hub Deliverer, log *logger.Logger) *RedisBroker {
	if log == nil {
		log = logger.NewDefault("realtime-broker")
	}
	return &RedisBroker{client: client, hub: hub, log: log}
}

// Publish sends the payload to every instance, this one included.
func (b *RedisBroker) Publish(ctx context.Context, userID int64, payload []byte) error {
	msg, err := json.Marshal(envelope{UserID: userID, Payload: payload})
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, Channel, msg).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (b *RedisBroker) Name() string { return "realtime-broker" }

// Start subscribes to Channel and delivers every message to the local hub
// until Stop is called.
func (b *RedisBroker) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pubsub != nil {
		return nil
	}
	ps := b.client.Subscribe(context.Background(), Channel)
	// Wait for the subscription confirmation so early publishes are not lost.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}
	b.pubsub = ps
	b.done = make(chan struct{})
	go b.loop(ps.Channel(), b.done)
	b.log.WithField("channel", Channel).Info("notification broker subscribed")
	return nil
}

func (b *RedisBroker) loop(ch <-chan *redis.Message, done chan struct{}) {
	defer close(done)
	for msg := range ch {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			b.log.WithError(err).Warn("dropping malformed notification")
			continue
		}
		b.hub.Deliver(env.UserID, env.Payload)
	}
}

func (b *RedisBroker) Stop(context.Context) error {
	b.mu.Lock()
	ps, done := b.pubsub, b.done
	b.pubsub = nil
	b.mu.Unlock()
	if ps == nil {
		return nil
	}
	err := ps.Close()
	<-done
	return err
}
