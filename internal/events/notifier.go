package events

// Notifier binds one channel name to one payload type. Call sites in
// different packages may build a notifier for the same channel and reach
// the same subscribers; the registry keys by name only, the notifier
// adds the typing on top.
type Notifier[T any] struct {
	registry *Registry
	channel  Channel
}

// NewNotifier creates a typed notifier for ch on the given registry.
func NewNotifier[T any](r *Registry, ch Channel) *Notifier[T] {
	return &Notifier[T]{registry: r, channel: ch}
}

// Channel returns the channel this notifier publishes on.
func (n *Notifier[T]) Channel() Channel {
	return n.channel
}

// Notify publishes payload to all current subscribers and reports
// whether any were registered.
func (n *Notifier[T]) Notify(payload T) bool {
	return n.registry.Publish(n.channel, payload)
}

// Subscribe registers fn and returns its subscription handle. The caller
// owns the handle and must Unregister it when its scope ends; a leaked
// handle means duplicate delivery the next time the same scope
// subscribes. Payloads of the wrong type are dropped rather than
// delivered; with the closed channel set that only happens when an
// untyped Registry.Publish call bypasses the notifier.
func (n *Notifier[T]) Subscribe(fn func(T)) *Subscription {
	return n.registry.Register(n.channel, func(payload any) {
		if v, ok := payload.(T); ok {
			fn(v)
		}
	})
}

// SubscribeOwned is Subscribe with an owner key for the registry's
// debug-mode duplicate-subscription assertion.
func (n *Notifier[T]) SubscribeOwned(owner string, fn func(T)) *Subscription {
	return n.registry.RegisterOwned(n.channel, owner, func(payload any) {
		if v, ok := payload.(T); ok {
			fn(v)
		}
	})
}

// Unregister releases a subscription obtained from Subscribe.
func (n *Notifier[T]) Unregister(sub *Subscription) {
	n.registry.Unregister(sub)
}
