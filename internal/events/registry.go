// Package events provides the in-process channel registry the wizard and
// reconciliation engine use to notify decoupled readers. Delivery is
// synchronous and in registration order; channel names are a closed set
// of typed constants so publisher and subscriber cannot drift apart on a
// free-text string.
package events

import (
	"sync"

	"go.uber.org/zap"
)

// Channel names one pub/sub channel. Consumers declare their channels as
// typed constants; the name is the channel's identity, so two notifiers
// built for the same name share subscribers.
type Channel string

// Subscription identifies one registration on a channel. It is the
// handle Unregister removes by; a subscription can be unregistered at
// most once, further calls are no-ops.
type Subscription struct {
	channel Channel
	id      uint64
	owner   string
}

type subscriber struct {
	id    uint64
	owner string
	fn    func(any)
}

// Registry maps channels to ordered subscriber lists. The zero value is
// not usable; construct with NewRegistry. Registries are injectable so
// tests can build isolated instances instead of sharing process state.
type Registry struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[Channel][]subscriber
	debug  bool
	logger *zap.Logger
}

// NewRegistry creates an empty registry. With debug set, registering a
// second live subscription for the same (channel, owner) pair logs an
// assertion failure; a leaked subscription shows up as duplicate
// delivery on the next mount, and this is the only point where that
// misuse is detectable.
func NewRegistry(logger *zap.Logger, debug bool) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		subs:   map[Channel][]subscriber{},
		debug:  debug,
		logger: logger,
	}
}

// Register appends fn to the channel's subscriber list and returns the
// handle to unregister it with. Registering the same function twice is
// allowed and delivers twice.
func (r *Registry) Register(ch Channel, fn func(any)) *Subscription {
	return r.register(ch, "", fn)
}

// RegisterOwned is Register with an owner key naming the logical screen
// instance holding the subscription. In debug mode a duplicate live
// owner on the same channel is reported.
func (r *Registry) RegisterOwned(ch Channel, owner string, fn func(any)) *Subscription {
	return r.register(ch, owner, fn)
}

func (r *Registry) register(ch Channel, owner string, fn func(any)) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.debug && owner != "" {
		for _, s := range r.subs[ch] {
			if s.owner == owner {
				r.logger.Error("duplicate live subscription for owner",
					zap.String("channel", string(ch)),
					zap.String("owner", owner),
				)
			}
		}
	}

	r.nextID++
	r.subs[ch] = append(r.subs[ch], subscriber{id: r.nextID, owner: owner, fn: fn})
	return &Subscription{channel: ch, id: r.nextID, owner: owner}
}

// Unregister removes the subscription from its channel. Unknown or
// already-removed subscriptions are a no-op; other subscribers on the
// channel are untouched.
func (r *Registry) Unregister(sub *Subscription) {
	if sub == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.subs[sub.channel]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].id == sub.id {
			r.subs[sub.channel] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// UnregisterAll clears every subscriber on one channel. Other channels
// are unaffected. Used for fast teardown in tests.
func (r *Registry) UnregisterAll(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, ch)
}

// Publish synchronously invokes every current subscriber in registration
// order and reports whether anyone was subscribed. Subscribers are
// iterated over a snapshot, so a callback may register, unregister or
// publish again without corrupting the list being delivered.
func (r *Registry) Publish(ch Channel, payload any) bool {
	r.mu.Lock()
	snapshot := append([]subscriber(nil), r.subs[ch]...)
	r.mu.Unlock()

	if len(snapshot) == 0 {
		return false
	}
	for _, s := range snapshot {
		s.fn(payload)
	}
	return true
}
