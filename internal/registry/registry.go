// Package registry keeps the document backend's working set in memory.
//
// The registry is rebuilt from the document store at startup. Reads run under a
// shared lock; every update runs on a private copy that replaces the live state
// only after the touched documents were committed.
package registry

import (
	"context"
	"fmt"
	"sync"

	"socialnest/internal/docstore"
	"socialnest/internal/models"
	"socialnest/internal/observability"
)

// Registry guards the live State.
type Registry struct {
	mu    sync.RWMutex
	state *State
	store *docstore.Store
}

// Load reads every collection from store and builds the registry. Records
// repaired by the backfill are written back before Load returns.
func Load(ctx context.Context, store *docstore.Store) (*Registry, error) {
	docs := make(map[docstore.Collection][]byte, len(docstore.Collections))
	for _, c := range docstore.Collections {
		data, err := store.Load(c)
		if err != nil {
			return nil, err
		}
		docs[c] = data
	}

	state, err := decodeState(ctx, docs)
	if err != nil {
		return nil, err
	}

	r := &Registry{state: state, store: store}
	if len(state.dirty) > 0 {
		if err := r.flush(ctx, state); err != nil {
			return nil, fmt.Errorf("write backfilled documents: %w", err)
		}
	}
	return r, nil
}

// View runs fn against the live state under the read lock. fn must not
// retain or modify anything it reads.
func (r *Registry) View(fn func(*State) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn(r.state)
}

// Update runs fn on a copy of the state and, when fn succeeds, commits the
// touched documents and publishes the copy. On any error the live state is
// left exactly as it was.
func (r *Registry) Update(ctx context.Context, fn func(*State) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.state.clone()
	if err := fn(next); err != nil {
		observability.RegistryUpdates.WithLabelValues("rejected").Inc()
		return err
	}
	if len(next.dirty) == 0 {
		observability.RegistryUpdates.WithLabelValues("noop").Inc()
		return nil
	}
	if err := r.flush(ctx, next); err != nil {
		observability.RegistryUpdates.WithLabelValues("failed").Inc()
		return err
	}
	r.state = next
	observability.RegistryUpdates.WithLabelValues("committed").Inc()
	return nil
}

func (r *Registry) flush(ctx context.Context, s *State) error {
	docs, err := s.encodeDirty()
	if err != nil {
		return err
	}
	if err := r.store.Commit(ctx, docs); err != nil {
		return fmt.Errorf("commit documents: %w", err)
	}
	if _, ok := docs[docstore.Sequences]; ok {
		s.saved = s.marks()
	}
	s.dirty = make(map[docstore.Collection]bool)
	return nil
}

// Dataset is a full copy of the registry's entities with ids preserved.
type Dataset struct {
	Users         []models.User
	Posts         []models.Post
	Follows       []models.Follow
	Messages      []models.Message
	Notifications []models.Notification
}

// Export returns every entity, in creation order per collection.
func (r *Registry) Export() Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.state

	var d Dataset
	for _, u := range s.Users() {
		d.Users = append(d.Users, *u)
	}
	for _, p := range s.Posts() {
		d.Posts = append(d.Posts, *clonePost(p))
	}
	for _, k := range s.followOrder {
		d.Follows = append(d.Follows, *s.follows[k])
	}
	for _, m := range s.messages {
		d.Messages = append(d.Messages, *m)
	}
	for _, uid := range s.recipientOrder {
		for _, n := range s.notifications[uid] {
			d.Notifications = append(d.Notifications, *cloneNotification(n))
		}
	}
	return d
}
