package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.json")

	type doc struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	require.NoError(t, WriteJSON(path, doc{Name: "aria", Count: 3}))

	var got doc
	require.NoError(t, ReadJSON(path, &got))
	assert.Equal(t, doc{Name: "aria", Count: 3}, got)
}

func TestReadJSONErrors(t *testing.T) {
	dir := t.TempDir()

	var out map[string]any
	err := ReadJSON(filepath.Join(dir, "missing.json"), &out)
	assert.ErrorIs(t, err, ErrNotFound)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	err = ReadJSON(bad, &out)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "records"))
	require.NoError(t, err)

	_, err = store.Get("abc")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put("abc", json.RawMessage(`{"v":1}`)))
	require.NoError(t, store.Put("def", json.RawMessage(`{"v":2}`)))

	doc, err := store.Get("abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(doc))

	ids, err := store.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"abc", "def"}, ids)

	require.NoError(t, store.Delete("abc"))
	assert.ErrorIs(t, store.Delete("abc"), ErrNotFound)
}

func TestFileStoreListsCorruptEntries(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "records")
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{{{"), 0o644))
	ids, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"broken"}, ids, "listing reports ids regardless of content")
}

func TestDocumentStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	store := NewDocumentStore(path, "characters", map[string]json.RawMessage{
		"version": json.RawMessage(`"2.0.0"`),
	})

	_, err := store.Get("abc")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put("abc", json.RawMessage(`{"name":"Aria"}`)))
	require.NoError(t, store.Put("def", json.RawMessage(`{"name":"Zephyr"}`)))

	doc, err := store.Get("abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Aria"}`, string(doc))

	ids, err := store.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"abc", "def"}, ids)

	header, records, err := store.Snapshot()
	require.NoError(t, err)
	assert.Contains(t, header, "version")
	assert.NotContains(t, header, "characters")
	assert.Len(t, records, 2)

	require.NoError(t, store.Delete("abc"))
	assert.ErrorIs(t, store.Delete("abc"), ErrNotFound)

	// The header written at creation survives mutations.
	var onDisk map[string]json.RawMessage
	require.NoError(t, ReadJSON(path, &onDisk))
	assert.Contains(t, onDisk, "version")
}

func TestDocumentStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	store := NewDocumentStore(path, "characters", nil)
	_, err := store.Get("abc")
	assert.ErrorIs(t, err, ErrInvalid)

	assert.ErrorIs(t, store.Put("abc", json.RawMessage(`{}`)), ErrInvalid)
}
