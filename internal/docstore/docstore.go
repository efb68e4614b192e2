// Package docstore persists whole-collection JSON documents on an afero filesystem.
//
// Every document is replaced atomically (temp file, fsync, rename). A commit that
// touches several documents first writes a journal holding all of them, so a crash
// between two renames is repaired by replaying the journal on the next Open.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"socialnest/internal/middleware"
	"socialnest/internal/observability"

	"github.com/spf13/afero"
)

// Collection names one persisted document.
type Collection string

const (
	Users         Collection = "users"
	Posts         Collection = "posts"
	Followers     Collection = "followers"
	Messages      Collection = "messages"
	Notifications Collection = "notifications"
	// Sequences holds the id high-water marks of the other collections.
	Sequences Collection = "sequences"
)

// Collections lists every document in load order.
var Collections = []Collection{Users, Posts, Followers, Messages, Notifications, Sequences}

// File returns the document's file name.
func (c Collection) File() string {
	return string(c) + ".json"
}

const (
	journalFile = "commit.journal"
	tmpSuffix   = ".tmp"
)

type journal struct {
	Documents map[Collection]json.RawMessage `json:"documents"`
}

// Store reads and writes documents under one directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// Open prepares dir on fsys and replays a pending journal, if any.
func Open(fsys afero.Fs, dir string) (*Store, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	s := &Store{fs: fsys, dir: dir}
	if err := s.recover(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the directory holding the documents.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) string {
	return path.Join(s.dir, name)
}

// Load returns the raw document for c. An absent or blank file yields nil,
// which callers treat as the empty default.
func (s *Store) Load(c Collection) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.path(c.File()))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", c.File(), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return data, nil
}

// Commit durably replaces every document in docs as one unit.
func (s *Store) Commit(ctx context.Context, docs map[Collection][]byte) error {
	if len(docs) == 0 {
		return nil
	}

	names := make([]string, 0, len(docs))
	for c := range docs {
		names = append(names, string(c))
	}
	sort.Strings(names)

	ctx, span := observability.StartDocumentCommit(ctx, names)
	defer span.End()

	if len(docs) > 1 {
		j := journal{Documents: make(map[Collection]json.RawMessage, len(docs))}
		for c, data := range docs {
			j.Documents[c] = json.RawMessage(data)
		}
		raw, err := json.Marshal(j)
		if err != nil {
			observability.Fail(span, err)
			return fmt.Errorf("encode journal: %w", err)
		}
		if err := s.writeAtomic(journalFile, raw); err != nil {
			observability.Fail(span, err)
			return fmt.Errorf("write journal: %w", err)
		}
	}

	if err := s.apply(docs); err != nil {
		observability.Fail(span, err)
		return err
	}

	if len(docs) > 1 {
		if err := s.fs.Remove(s.path(journalFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			middleware.Logger.WarnContext(ctx, "failed to remove commit journal", slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *Store) apply(docs map[Collection][]byte) error {
	for _, c := range Collections {
		data, ok := docs[c]
		if !ok {
			continue
		}
		done := observability.TrackFlush(string(c))
		err := s.writeAtomic(c.File(), data)
		done()
		if err != nil {
			return fmt.Errorf("write %s: %w", c.File(), err)
		}
	}
	return nil
}

func (s *Store) writeAtomic(name string, data []byte) error {
	target := s.path(name)
	tmp := target + tmpSuffix

	f, err := s.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	return s.fs.Rename(tmp, target)
}

// recover removes stray temp files and reapplies a journal left by an interrupted commit.
func (s *Store) recover() error {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return fmt.Errorf("list document dir: %w", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), tmpSuffix) {
			_ = s.fs.Remove(s.path(e.Name()))
		}
	}

	raw, err := afero.ReadFile(s.fs, s.path(journalFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read journal: %w", err)
	}

	var j journal
	if err := json.Unmarshal(raw, &j); err != nil {
		return fmt.Errorf("decode journal: %w", err)
	}
	docs := make(map[Collection][]byte, len(j.Documents))
	for c, data := range j.Documents {
		docs[c] = data
	}
	if err := s.apply(docs); err != nil {
		return fmt.Errorf("replay journal: %w", err)
	}
	observability.JournalReplays.Inc()
	middleware.Logger.Warn("replayed interrupted document commit", slog.Int("documents", len(docs)))

	return s.fs.Remove(s.path(journalFile))
}
