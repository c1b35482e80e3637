package envbackend

import (
	"context"

	"github.com/stretchr/testify/mock"

	"go-env-manager/internal/model"
)

// MockBackend is a testify mock of Backend for call-order assertions.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) ReadAll(ctx context.Context, scope model.Scope) ([]model.EnvVar, error) {
	args := m.Called(ctx, scope)
	vars, _ := args.Get(0).([]model.EnvVar)
	return vars, args.Error(1)
}

func (m *MockBackend) ReadOne(ctx context.Context, name string) (string, bool, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockBackend) Write(ctx context.Context, name string, value string, scope model.Scope) error {
	args := m.Called(ctx, name, value, scope)
	return args.Error(0)
}

func (m *MockBackend) Remove(ctx context.Context, name string, scope model.Scope) error {
	args := m.Called(ctx, name, scope)
	return args.Error(0)
}

func (m *MockBackend) NotifyChanged(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
