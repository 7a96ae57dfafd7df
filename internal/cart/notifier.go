package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/rocketcart/pkg/logger"
)

// Subscriber receives the committed cart after every successful mutation.
type Subscriber func(Cart)

type subscription struct {
	id int
	fn Subscriber
}

// Notifier fans committed carts out to subscribers synchronously, in registration order.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   []subscription
	logg   *logger.Logger
}

func NewNotifier(logg *logger.Logger) *Notifier {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Notifier{logg: logg}
}

// Subscribe registers fn and returns a function that removes it. The returned function is idempotent.
func (n *Notifier) Subscribe(fn Subscriber) func() {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscription{id: id, fn: fn})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, sub := range n.subs {
				if sub.id == id {
					n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Publish calls each subscriber with its own copy of c. A panicking subscriber is logged and skipped.
func (n *Notifier) Publish(ctx context.Context, c Cart) {
	n.mu.Lock()
	subs := make([]subscription, len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()

	for _, sub := range subs {
		n.deliver(ctx, sub, c.Clone())
	}
}

func (n *Notifier) deliver(ctx context.Context, sub subscription, c Cart) {
	defer func() {
		if rec := recover(); rec != nil {
			n.logg.Error(n.logg.WithField(ctx, "subscriber_id", sub.id), "cart.subscriber_panic", fmt.Errorf("panic: %v", rec))
		}
	}()
	sub.fn(c)
}
