package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RecordStore abstracts a keyed collection of raw JSON documents. The vault
// generations differ only in layout (one file per record vs. one file
// holding a map of records); behind this interface the migration engine and
// any future schema depend on neither layout.
type RecordStore interface {
	// Get returns the raw document for id, ErrNotFound when absent.
	Get(id string) (json.RawMessage, error)
	// Put writes the raw document for id, creating or replacing it.
	Put(id string, doc json.RawMessage) error
	// List returns every stored id. Corrupt entries are included: the ids
	// exist even when their documents do not parse.
	List() ([]string, error)
	// Delete removes the document for id, ErrNotFound when absent.
	Delete(id string) error
}

// FileStore is the one-file-per-record backend: each id maps to <id>.json
// inside a directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir, creating it if missing.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) Get(id string) (json.RawMessage, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("storage: read %s: %w", s.path(id), err)
	}
	return data, nil
}

func (s *FileStore) Put(id string, doc json.RawMessage) error {
	if err := os.WriteFile(s.path(id), doc, 0o644); err != nil {
		return fmt.Errorf("storage: write %s: %w", s.path(id), err)
	}
	return nil
}

func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: readdir %s: %w", s.dir, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	return ids, nil
}

func (s *FileStore) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("storage: remove %s: %w", s.path(id), err)
	}
	return nil
}

// DocumentStore is the single-file backend: one JSON document holding a map
// of records under a key. Every mutation is read-whole-document, mutate,
// write-whole-document.
type DocumentStore struct {
	path       string
	recordsKey string
	header     map[string]json.RawMessage
}

// NewDocumentStore returns a DocumentStore over the file at path whose
// records live in the object under recordsKey. header supplies the fields
// written alongside the records when the file is first created.
func NewDocumentStore(path, recordsKey string, header map[string]json.RawMessage) *DocumentStore {
	return &DocumentStore{path: path, recordsKey: recordsKey, header: header}
}

func (s *DocumentStore) load() (map[string]json.RawMessage, map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			doc := make(map[string]json.RawMessage, len(s.header))
			for k, v := range s.header {
				doc[k] = v
			}
			return doc, map[string]json.RawMessage{}, nil
		}
		return nil, nil, fmt.Errorf("storage: read %s: %w", s.path, err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: parse %s: %v", ErrInvalid, s.path, err)
	}
	records := map[string]json.RawMessage{}
	if raw, ok := doc[s.recordsKey]; ok {
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, nil, fmt.Errorf("%w: parse %s %s: %v", ErrInvalid, s.path, s.recordsKey, err)
		}
	}
	return doc, records, nil
}

func (s *DocumentStore) save(doc map[string]json.RawMessage, records map[string]json.RawMessage) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", s.recordsKey, err)
	}
	doc[s.recordsKey] = raw
	return WriteJSON(s.path, doc)
}

func (s *DocumentStore) Get(id string) (json.RawMessage, error) {
	_, records, err := s.load()
	if err != nil {
		return nil, err
	}
	doc, ok := records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc, nil
}

func (s *DocumentStore) Put(id string, doc json.RawMessage) error {
	full, records, err := s.load()
	if err != nil {
		return err
	}
	records[id] = doc
	return s.save(full, records)
}

func (s *DocumentStore) List() ([]string, error) {
	_, records, err := s.load()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	return ids, nil
}

// Snapshot returns the document's header fields (everything outside the
// records key) and all records in one read.
func (s *DocumentStore) Snapshot() (map[string]json.RawMessage, map[string]json.RawMessage, error) {
	doc, records, err := s.load()
	if err != nil {
		return nil, nil, err
	}
	delete(doc, s.recordsKey)
	return doc, records, nil
}

func (s *DocumentStore) Delete(id string) error {
	full, records, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := records[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(records, id)
	return s.save(full, records)
}
