package mocks

import (
	"context"
	"sync"

	"github.com/absmach/shapley/pkg/mqtt"
)

var _ mqtt.PubSub = (*PubSub)(nil)

// Message is a payload captured by PubSub.Publish.
type Message struct {
	Topic   string
	Payload any
}

// PubSub is an in-process mqtt.PubSub that records publications and lets
// tests deliver messages to subscribed handlers.
type PubSub struct {
	mu        sync.Mutex
	handlers  map[string]mqtt.Handler
	published []Message
	PubErr    error
}

func NewPubSub() *PubSub {
	return &PubSub{handlers: make(map[string]mqtt.Handler)}
}

func (ps *PubSub) Publish(_ context.Context, topic string, msg any) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.PubErr != nil {
		return ps.PubErr
	}
	ps.published = append(ps.published, Message{Topic: topic, Payload: msg})

	return nil
}

func (ps *PubSub) Subscribe(_ context.Context, topic string, handler mqtt.Handler) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.handlers[topic] = handler

	return nil
}

func (ps *PubSub) Unsubscribe(_ context.Context, topic string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.handlers, topic)

	return nil
}

func (ps *PubSub) Disconnect(context.Context) error {
	return nil
}

// Deliver hands payload to the handler subscribed to topic.
func (ps *PubSub) Deliver(topic string, payload []byte) error {
	ps.mu.Lock()
	h, ok := ps.handlers[topic]
	ps.mu.Unlock()
	if !ok {
		return nil
	}

	return h(topic, payload)
}

func (ps *PubSub) Published() []Message {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	return append([]Message(nil), ps.published...)
}
