package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go-env-manager/internal/model"
)

type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string]Document{}}
}

func (s *MemoryStore) Get(_ context.Context, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return Document{}, fmt.Errorf("get %q: %w", id, model.ErrDocumentNotFound)
	}
	return copyDocument(doc), nil
}

func (s *MemoryStore) Put(_ context.Context, id string, data []byte, expectedRevision string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.docs[id]
	if err := checkRevision(id, exists, current.Revision, expectedRevision); err != nil {
		return "", err
	}

	next := NextRevision(current.Revision)
	s.docs[id] = copyDocument(Document{ID: id, Data: data, Revision: next})
	return next, nil
}

func (s *MemoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("remove %q: %w", id, model.ErrDocumentNotFound)
	}
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) ScanPrefix(_ context.Context, prefix string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]Document, 0)
	for id, doc := range s.docs {
		if strings.HasPrefix(id, prefix) {
			docs = append(docs, copyDocument(doc))
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func copyDocument(doc Document) Document {
	data := make([]byte, len(doc.Data))
	copy(data, doc.Data)
	doc.Data = data
	return doc
}

func checkRevision(id string, exists bool, current string, expected string) error {
	switch {
	case expected == "" && exists:
		return fmt.Errorf("create %q: already exists: %w", id, model.ErrConflict)
	case expected != "" && !exists:
		return fmt.Errorf("update %q: document is gone: %w", id, model.ErrConflict)
	case expected != "" && current != expected:
		return fmt.Errorf("update %q: revision %s is stale: %w", id, expected, model.ErrConflict)
	}
	return nil
}
