package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Document is one stored entry. Data is an opaque JSON payload.
type Document struct {
	ID       string
	Data     []byte
	Revision string
}

// Store is a revision-checked key-value document store.
//
// Put with an empty expectedRevision creates the document and fails with
// model.ErrConflict when it already exists. A non-empty expectedRevision
// must match the stored revision. Get and Remove return
// model.ErrDocumentNotFound for missing ids. ScanPrefix returns documents
// sorted by id.
type Store interface {
	Get(ctx context.Context, id string) (Document, error)
	Put(ctx context.Context, id string, data []byte, expectedRevision string) (string, error)
	Remove(ctx context.Context, id string) error
	ScanPrefix(ctx context.Context, prefix string) ([]Document, error)
	Close() error
}

// NextRevision derives the revision that follows current, formatted as
// <counter>-<random>.
func NextRevision(current string) string {
	counter := 0
	if head, _, ok := strings.Cut(current, "-"); ok {
		if n, err := strconv.Atoi(head); err == nil {
			counter = n
		}
	}
	return fmt.Sprintf("%d-%s", counter+1, strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("document id is empty")
	}
	return nil
}
