package store

import (
	"context"
	"sync"
)

// MemStore is an in-process Store. It backs local development when no
// DATABASE_URL is configured, and the test suite.
type MemStore struct {
	mu       sync.Mutex
	root     map[string]any
	notifier *notifier
}

func NewMemStore() *MemStore {
	return &MemStore{
		root:     make(map[string]any),
		notifier: newNotifier(),
	}
}

func (m *MemStore) Subscribe(path string, onChange func(value any), onError func(err error)) func() {
	segs, err := splitPath(path)
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return func() {}
	}

	sub := &subscriber{segs: segs, onChange: onChange, onError: onError}
	unsubscribe := m.notifier.add(sub)

	m.mu.Lock()
	value, ok := valueAt(m.root, segs)
	if ok {
		value = deepCopy(value)
	} else {
		value = nil
	}
	m.mu.Unlock()

	onChange(value)
	return unsubscribe
}

func (m *MemStore) WriteMerge(_ context.Context, path string, fields map[string]any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.root = mergeAt(m.root, segs, deepCopy(fields).(map[string]any))
	m.mu.Unlock()

	m.dispatch(segs)
	return nil
}

func (m *MemStore) WriteReplace(_ context.Context, path string, value any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.root = setAt(m.root, segs, deepCopy(value))
	m.mu.Unlock()

	m.dispatch(segs)
	return nil
}

func (m *MemStore) Remove(_ context.Context, path string) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	removeAt(m.root, segs)
	m.mu.Unlock()

	m.dispatch(segs)
	return nil
}

func (m *MemStore) ReadOnce(_ context.Context, path string) (any, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := valueAt(m.root, segs)
	if !ok {
		return nil, nil
	}
	return deepCopy(value), nil
}

func (m *MemStore) GenerateID(string) string {
	return NewID(20)
}

// dispatch re-reads each affected subscriber's path and delivers the snapshot.
// Callbacks run outside the tree lock so they may issue further store calls.
func (m *MemStore) dispatch(changed []string) {
	for _, sub := range m.notifier.affected(changed) {
		m.mu.Lock()
		value, ok := valueAt(m.root, sub.segs)
		if ok {
			value = deepCopy(value)
		} else {
			value = nil
		}
		m.mu.Unlock()

		sub.onChange(value)
	}
}
