package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingFs refuses to rename onto one target, simulating a crash mid-commit.
type failingFs struct {
	afero.Fs
	failOn string
}

func (f *failingFs) Rename(oldname, newname string) error {
	if strings.HasSuffix(newname, f.failOn) {
		return errors.New("disk unplugged")
	}
	return f.Fs.Rename(oldname, newname)
}

func TestLoad_EmptyDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := Open(fs, "data")
	require.NoError(t, err)

	data, err := s.Load(Users)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, afero.WriteFile(fs, "data/posts.json", []byte("  \n"), 0o644))
	data, err = s.Load(Posts)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestCommit_SingleDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := Open(fs, "data")
	require.NoError(t, err)

	require.NoError(t, s.Commit(context.Background(), map[Collection][]byte{
		Posts: []byte(`[{"id":1}]`),
	}))

	data, err := s.Load(Posts)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(data))

	exists, _ := afero.Exists(fs, "data/posts.json.tmp")
	assert.False(t, exists)
	exists, _ = afero.Exists(fs, "data/"+journalFile)
	assert.False(t, exists)
}

func TestCommit_MultiDocumentRemovesJournal(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := Open(fs, "data")
	require.NoError(t, err)

	require.NoError(t, s.Commit(context.Background(), map[Collection][]byte{
		Posts:         []byte(`[{"id":1,"likes":["bob"]}]`),
		Notifications: []byte(`{"alice":[{"id":1,"type":"like"}]}`),
	}))

	exists, _ := afero.Exists(fs, "data/"+journalFile)
	assert.False(t, exists)

	data, err := s.Load(Notifications)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"like"`)
}

func TestOpen_ReplaysInterruptedCommit(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "data/posts.json", []byte(`[]`), 0o644))
	require.NoError(t, afero.WriteFile(mem, "data/notifications.json", []byte(`{}`), 0o644))

	broken := &failingFs{Fs: mem, failOn: Notifications.File()}
	s, err := Open(broken, "data")
	require.NoError(t, err)

	err = s.Commit(context.Background(), map[Collection][]byte{
		Posts:         []byte(`[{"id":1,"likes":["bob"]}]`),
		Notifications: []byte(`{"alice":[{"id":1,"type":"like"}]}`),
	})
	require.Error(t, err)

	// posts.json was replaced but notifications.json was not.
	posts, _ := afero.ReadFile(mem, "data/posts.json")
	notes, _ := afero.ReadFile(mem, "data/notifications.json")
	assert.Contains(t, string(posts), "bob")
	assert.Equal(t, `{}`, string(notes))

	reopened, err := Open(mem, "data")
	require.NoError(t, err)

	notesAfter, err := reopened.Load(Notifications)
	require.NoError(t, err)
	assert.JSONEq(t, `{"alice":[{"id":1,"type":"like"}]}`, string(notesAfter))

	exists, _ := afero.Exists(mem, "data/"+journalFile)
	assert.False(t, exists)
	exists, _ = afero.Exists(mem, "data/notifications.json.tmp")
	assert.False(t, exists)
}

func TestOpen_CorruptJournal(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "data/"+journalFile, []byte(`{"documents":`), 0o644))

	_, err := Open(mem, "data")
	assert.Error(t, err)
}

func TestDecodeKeyed_PreservesOrder(t *testing.T) {
	entries, err := DecodeKeyed([]byte(`{"zed":{"id":3},"alice":{"id":1},"Bob":{}}`))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "zed", entries[0].Key)
	assert.Equal(t, "alice", entries[1].Key)
	assert.Equal(t, "Bob", entries[2].Key)
	assert.JSONEq(t, `{"id":1}`, string(entries[1].Value))

	out, err := EncodeKeyed(entries)
	require.NoError(t, err)
	assert.True(t, json.Valid(out))
	assert.Less(t, strings.Index(string(out), "zed"), strings.Index(string(out), "alice"))
}

func TestDecodeKeyed_Errors(t *testing.T) {
	entries, err := DecodeKeyed(nil)
	assert.NoError(t, err)
	assert.Empty(t, entries)

	_, err = DecodeKeyed([]byte(`[1,2]`))
	assert.Error(t, err)

	_, err = DecodeKeyed([]byte(`{"a":`))
	assert.Error(t, err)
}
