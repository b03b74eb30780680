package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
)

// ConfigEventType identifies a configuration lifecycle event.
type ConfigEventType string

const (
	CollectionRegister  ConfigEventType = "collection:register"
	GlobalRegister      ConfigEventType = "global:register"
	ConfigReady         ConfigEventType = "config:ready"
	SchemaDeriveStart   ConfigEventType = "schema:derive:start"
	SchemaDeriveSuccess ConfigEventType = "schema:derive:success"
	SchemaDeriveFailed  ConfigEventType = "schema:derive:failed"
)

// ConfigEvent is emitted on the registry's event bus during configuration
// lifecycle transitions.
type ConfigEvent struct {
	Type      ConfigEventType `json:"type"`
	Timestamp int64           `json:"timestamp"` // Unix milliseconds
	Slug      string          `json:"slug,omitempty"`
	Error     *string         `json:"error,omitempty"`
}

// EventCallbackFunction handles one configuration event.
type EventCallbackFunction func(ctx context.Context, event ConfigEvent) error

// RegisterSubscriptionOptions configures one event subscription.
type RegisterSubscriptionOptions struct {
	Event       ConfigEventType `json:"event"`
	Label       *string         `json:"label,omitempty"`
	Description *string         `json:"description,omitempty"`
	Callback    EventCallbackFunction
}

// SubscriptionInfo describes a registered subscription.
type SubscriptionInfo struct {
	Id          *string         `json:"id,omitempty"`
	Event       ConfigEventType `json:"event"`
	Label       *string         `json:"label,omitempty"`
	Description *string         `json:"description,omitempty"`
	Unsubscribe func()
}

// eventHub owns the typed bus and the subscription table.
type eventHub struct {
	bus *events.TypedEventBus[ConfigEvent]

	mu            sync.Mutex
	subscriptions map[string]SubscriptionInfo
}

func newEventHub() (*eventHub, error) {
	bus, err := events.NewTypedEventBus[ConfigEvent](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}
	return &eventHub{
		bus:           bus,
		subscriptions: make(map[string]SubscriptionInfo),
	}, nil
}

func (h *eventHub) emit(eventType ConfigEventType, slug string, cause error) {
	event := ConfigEvent{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Slug:      slug,
	}
	if cause != nil {
		msg := cause.Error()
		event.Error = &msg
	}
	h.bus.Emit(string(eventType), event)
}

// RegisterSubscription registers a callback for a configuration event and
// returns a unique ID for later unregistration.
func (r *Registry) RegisterSubscription(options RegisterSubscriptionOptions) string {
	h := r.events
	h.mu.Lock()
	defer h.mu.Unlock()

	unsubscribe := h.bus.Subscribe(string(options.Event), options.Callback)
	id := uuid.New().String()

	h.subscriptions[id] = SubscriptionInfo{
		Id:          &id,
		Event:       options.Event,
		Label:       options.Label,
		Description: options.Description,
		Unsubscribe: unsubscribe,
	}
	return id
}

// UnregisterSubscription removes a subscription by ID. Unknown IDs are a
// no-op.
func (r *Registry) UnregisterSubscription(id string) {
	h := r.events
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.subscriptions[id]; ok {
		if sub.Unsubscribe != nil {
			sub.Unsubscribe()
		}
		delete(h.subscriptions, id)
	}
}

// Subscriptions lists the currently registered subscriptions.
func (r *Registry) Subscriptions() []SubscriptionInfo {
	h := r.events
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]SubscriptionInfo, 0, len(h.subscriptions))
	for _, sub := range h.subscriptions {
		out = append(out, sub)
	}
	return out
}
