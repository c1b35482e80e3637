package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"go-env-manager/internal/model"
)

type BadgerConfig struct {
	// Path is ignored when InMemory is true.
	Path       string
	InMemory   bool
	SyncWrites bool
	// Logger receives badger's internal logs. Nil disables them.
	Logger *slog.Logger
	// GCInterval of 0 disables value log GC.
	GCInterval     time.Duration
	GCDiscardRatio float64
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// badgerEntry is the value stored under each key.
type badgerEntry struct {
	Revision string          `json:"rev"`
	Data     json.RawMessage `json:"data"`
}

type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
	stopGC chan struct{}
	doneGC chan struct{}
}

func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &BadgerStore{db: db, logger: logger}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		ratio := cfg.GCDiscardRatio
		if ratio <= 0 || ratio >= 1 {
			ratio = 0.5
		}
		s.stopGC = make(chan struct{})
		s.doneGC = make(chan struct{})
		go s.runGC(cfg.GCInterval, ratio)
	}

	return s, nil
}

func (s *BadgerStore) runGC(interval time.Duration, ratio float64) {
	defer close(s.doneGC)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			if err := s.db.RunValueLogGC(ratio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				s.logger.Warn("badger value log gc failed", "error", err)
			}
		}
	}
}

func (s *BadgerStore) Get(_ context.Context, id string) (Document, error) {
	var doc Document
	err := s.db.View(func(txn *badger.Txn) error {
		entry, err := readEntry(txn, id)
		if err != nil {
			return err
		}
		doc = Document{ID: id, Data: []byte(entry.Data), Revision: entry.Revision}
		return nil
	})
	if err != nil {
		return Document{}, mapBadgerError("get", id, err)
	}
	return doc, nil
}

func (s *BadgerStore) Put(_ context.Context, id string, data []byte, expectedRevision string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	if !json.Valid(data) {
		return "", fmt.Errorf("%w: document %q is not valid JSON", model.ErrInvalidInput, id)
	}

	var next string
	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := readEntry(txn, id)
		exists := err == nil
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := checkRevision(id, exists, current.Revision, expectedRevision); err != nil {
			return err
		}

		next = NextRevision(current.Revision)
		raw, err := json.Marshal(badgerEntry{Revision: next, Data: data})
		if err != nil {
			return err
		}
		return txn.Set([]byte(id), raw)
	})
	if err != nil {
		return "", mapBadgerError("put", id, err)
	}
	return next, nil
}

func (s *BadgerStore) Remove(_ context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(id)); err != nil {
			return err
		}
		return txn.Delete([]byte(id))
	})
	if err != nil {
		return mapBadgerError("remove", id, err)
	}
	return nil
}

func (s *BadgerStore) ScanPrefix(_ context.Context, prefix string) ([]Document, error) {
	docs := make([]Document, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			id := string(item.KeyCopy(nil))
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var entry badgerEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				return fmt.Errorf("decode %q: %w", id, err)
			}
			docs = append(docs, Document{ID: id, Data: []byte(entry.Data), Revision: entry.Revision})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan prefix %q: %w", prefix, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *BadgerStore) Close() error {
	if s.stopGC != nil {
		close(s.stopGC)
		<-s.doneGC
		s.stopGC = nil
	}
	return s.db.Close()
}

func readEntry(txn *badger.Txn, id string) (badgerEntry, error) {
	item, err := txn.Get([]byte(id))
	if err != nil {
		return badgerEntry{}, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return badgerEntry{}, err
	}
	var entry badgerEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return badgerEntry{}, fmt.Errorf("decode %q: %w", id, err)
	}
	return entry, nil
}

func mapBadgerError(op string, id string, err error) error {
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return fmt.Errorf("%s %q: %w", op, id, model.ErrDocumentNotFound)
	case errors.Is(err, badger.ErrConflict):
		return fmt.Errorf("%s %q: concurrent transaction: %w", op, id, model.ErrConflict)
	case errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrInvalidInput):
		return err
	default:
		return fmt.Errorf("%s %q: %w", op, id, err)
	}
}
