package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	groupsCollection = "groups"
	notifyChannel    = "groupbuy_doc_updates"
)

// PGStore keeps one jsonb document per group and addresses paths inside it.
// Change fanout is in-process for local subscribers plus pg_notify so that
// every instance sharing the database observes every write.
type PGStore struct {
	pool     *pgxpool.Pool
	logger   *zap.Logger
	notifier *notifier

	// origin tags outgoing notifications so the listener loop can skip
	// changes this instance already dispatched locally.
	origin string

	cancelListen context.CancelFunc
}

func NewPGStore(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) (*PGStore, error) {
	s := &PGStore{
		pool:     pool,
		logger:   logger,
		notifier: newNotifier(),
		origin:   NewID(8),
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	s.cancelListen = cancel
	go s.listenLoop(listenCtx)

	return s, nil
}

func (s *PGStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		create table if not exists group_documents (
			id         text primary key,
			doc        jsonb not null,
			updated_at timestamptz not null default now()
		)
	`)
	return err
}

func (s *PGStore) Close() {
	if s.cancelListen != nil {
		s.cancelListen()
	}
}

func (s *PGStore) Subscribe(path string, onChange func(value any), onError func(err error)) func() {
	segs, err := s.parsePath(path)
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return func() {}
	}

	sub := &subscriber{segs: segs, onChange: onChange, onError: onError}
	unsubscribe := s.notifier.add(sub)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	value, err := s.readSegs(ctx, segs)
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return unsubscribe
	}
	onChange(value)
	return unsubscribe
}

func (s *PGStore) WriteMerge(ctx context.Context, path string, fields map[string]any) error {
	segs, err := s.parsePath(path)
	if err != nil {
		return err
	}
	err = s.mutateDoc(ctx, segs, func(doc map[string]any) map[string]any {
		return mergeAt(doc, segs[2:], fields)
	})
	if err != nil {
		return err
	}
	s.notifyChange(segs)
	return nil
}

func (s *PGStore) WriteReplace(ctx context.Context, path string, value any) error {
	segs, err := s.parsePath(path)
	if err != nil {
		return err
	}
	if len(segs) < 2 {
		return fmt.Errorf("store: cannot replace collection root %q", path)
	}

	if len(segs) == 2 {
		doc, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("store: document root at %q must be an object", path)
		}
		if err := s.saveDoc(ctx, segs[1], doc); err != nil {
			return err
		}
		s.notifyChange(segs)
		return nil
	}

	err = s.mutateDoc(ctx, segs, func(doc map[string]any) map[string]any {
		return setAt(doc, segs[2:], value)
	})
	if err != nil {
		return err
	}
	s.notifyChange(segs)
	return nil
}

func (s *PGStore) Remove(ctx context.Context, path string) error {
	segs, err := s.parsePath(path)
	if err != nil {
		return err
	}
	if len(segs) < 2 {
		return fmt.Errorf("store: cannot remove collection root %q", path)
	}

	if len(segs) == 2 {
		if _, err := s.pool.Exec(ctx, `delete from group_documents where id = $1`, segs[1]); err != nil {
			return err
		}
		s.notifyChange(segs)
		return nil
	}

	err = s.mutateDoc(ctx, segs, func(doc map[string]any) map[string]any {
		removeAt(doc, segs[2:])
		return doc
	})
	if err != nil {
		return err
	}
	s.notifyChange(segs)
	return nil
}

func (s *PGStore) ReadOnce(ctx context.Context, path string) (any, error) {
	segs, err := s.parsePath(path)
	if err != nil {
		return nil, err
	}
	return s.readSegs(ctx, segs)
}

func (s *PGStore) GenerateID(string) string {
	return NewID(20)
}

func (s *PGStore) parsePath(path string) ([]string, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	if segs[0] != groupsCollection {
		return nil, fmt.Errorf("store: unknown collection in path %q", path)
	}
	return segs, nil
}

func (s *PGStore) readSegs(ctx context.Context, segs []string) (any, error) {
	if len(segs) == 1 {
		rows, err := s.pool.Query(ctx, `select id, doc from group_documents`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		all := make(map[string]any)
		for rows.Next() {
			var id string
			var raw []byte
			if err := rows.Scan(&id, &raw); err != nil {
				return nil, err
			}
			doc := make(map[string]any)
			if err := json.Unmarshal(raw, &doc); err != nil {
				return nil, err
			}
			all[id] = doc
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		if len(all) == 0 {
			return nil, nil
		}
		return all, nil
	}

	var raw []byte
	err := s.pool.QueryRow(ctx, `select doc from group_documents where id = $1`, segs[1]).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	doc := make(map[string]any)
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	value, ok := valueAt(doc, segs[2:])
	if !ok {
		return nil, nil
	}
	return value, nil
}

// mutateDoc runs a read-modify-write cycle on one group document under a row
// lock. Documents are small (one group), so rewriting the whole jsonb value is
// cheaper than chasing jsonb_set path arithmetic.
func (s *PGStore) mutateDoc(ctx context.Context, segs []string, mutate func(doc map[string]any) map[string]any) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var raw []byte
	doc := make(map[string]any)
	err = tx.QueryRow(ctx, `select doc from group_documents where id = $1 for update`, segs[1]).Scan(&raw)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if raw != nil {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
	}

	doc = mutate(doc)
	encoded, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		insert into group_documents (id, doc, updated_at) values ($1, $2, now())
		on conflict (id) do update set doc = excluded.doc, updated_at = now()
	`, segs[1], encoded)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PGStore) saveDoc(ctx context.Context, id string, doc map[string]any) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		insert into group_documents (id, doc, updated_at) values ($1, $2, now())
		on conflict (id) do update set doc = excluded.doc, updated_at = now()
	`, id, encoded)
	return err
}

func (s *PGStore) notifyChange(segs []string) {
	s.dispatch(segs)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	payload := s.origin + "|" + strings.Join(segs, "/")
	if _, err := s.pool.Exec(ctx, `select pg_notify($1, $2)`, notifyChannel, payload); err != nil && s.logger != nil {
		s.logger.Warn("pg_notify failed", zap.Error(err))
	}
}

func (s *PGStore) dispatch(changed []string) {
	for _, sub := range s.notifier.affected(changed) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		value, err := s.readSegs(ctx, sub.segs)
		cancel()
		if err != nil {
			if sub.onError != nil {
				sub.onError(err)
			}
			continue
		}
		sub.onChange(value)
	}
}

// listenLoop delivers writes made by other instances sharing the database.
func (s *PGStore) listenLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.listenOnce(ctx); err != nil && ctx.Err() == nil {
			if s.logger != nil {
				s.logger.Warn("store listener disconnected; retrying", zap.Error(err))
			}
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *PGStore) listenOnce(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `listen `+notifyChannel); err != nil {
		return err
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		origin, path, found := strings.Cut(notification.Payload, "|")
		if !found || origin == s.origin {
			continue
		}
		segs, err := splitPath(path)
		if err != nil {
			continue
		}
		s.dispatch(segs)
	}
}
