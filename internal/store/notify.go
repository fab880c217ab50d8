package store

import "sync"

type subscriber struct {
	segs     []string
	onChange func(value any)
	onError  func(err error)
}

// notifier tracks live subscriptions and matches them against changed paths.
// A change at P affects every subscription whose path is an ancestor of P,
// equal to P, or a descendant of P.
type notifier struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[*subscriber]struct{})}
}

func (n *notifier) add(sub *subscriber) func() {
	n.mu.Lock()
	n.subs[sub] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, sub)
			n.mu.Unlock()
		})
	}
}

func (n *notifier) affected(changed []string) []*subscriber {
	n.mu.RLock()
	defer n.mu.RUnlock()

	matches := make([]*subscriber, 0, len(n.subs))
	for sub := range n.subs {
		if pathsOverlap(sub.segs, changed) {
			matches = append(matches, sub)
		}
	}
	return matches
}

func pathsOverlap(a, b []string) bool {
	limit := len(a)
	if len(b) < limit {
		limit = len(b)
	}
	for i := 0; i < limit; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
