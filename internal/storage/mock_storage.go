package storage

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, id string) (Document, error) {
	args := m.Called(ctx, id)
	doc, _ := args.Get(0).(Document)
	return doc, args.Error(1)
}

func (m *MockStore) Put(ctx context.Context, id string, data []byte, expectedRevision string) (string, error) {
	args := m.Called(ctx, id, data, expectedRevision)
	return args.String(0), args.Error(1)
}

func (m *MockStore) Remove(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) ScanPrefix(ctx context.Context, prefix string) ([]Document, error) {
	args := m.Called(ctx, prefix)
	docs, _ := args.Get(0).([]Document)
	return docs, args.Error(1)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
