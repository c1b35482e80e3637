package envbackend

import (
	"context"
	"fmt"
	"sync"

	"go-env-manager/internal/model"
)

// MemoryBackend is an in-memory environment with injectable failures.
type MemoryBackend struct {
	mu          sync.Mutex
	vars        map[model.Scope]map[string]string
	writeErrors map[string]error
	removeErrs  map[string]error
	readErr     error
	notifyErr   error
	notifyCount int
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		vars: map[model.Scope]map[string]string{
			model.ScopeUser:   {},
			model.ScopeSystem: {},
		},
		writeErrors: map[string]error{},
		removeErrs:  map[string]error{},
	}
}

// Set seeds a variable without counting as a mutation.
func (b *MemoryBackend) Set(scope model.Scope, name string, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vars[scope][name] = value
}

// Value returns the current value of name in scope.
func (b *MemoryBackend) Value(scope model.Scope, name string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	value, ok := b.vars[scope][name]
	return value, ok
}

// FailWrite makes every Write of name return err. A nil err clears it.
func (b *MemoryBackend) FailWrite(name string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.writeErrors, name)
		return
	}
	b.writeErrors[name] = err
}

// FailRemove makes every Remove of name return err. A nil err clears it.
func (b *MemoryBackend) FailRemove(name string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.removeErrs, name)
		return
	}
	b.removeErrs[name] = err
}

func (b *MemoryBackend) FailReads(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readErr = err
}

func (b *MemoryBackend) FailNotify(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifyErr = err
}

// NotifyCount reports how many times NotifyChanged has been called.
func (b *MemoryBackend) NotifyCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notifyCount
}

func (b *MemoryBackend) ReadAll(_ context.Context, scope model.Scope) ([]model.EnvVar, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.readErr != nil {
		return nil, b.readErr
	}
	bucket, ok := b.vars[scope]
	if !ok {
		return nil, fmt.Errorf("%w: unknown scope %q", model.ErrInvalidInput, scope)
	}

	vars := make([]model.EnvVar, 0, len(bucket))
	for name, value := range bucket {
		vars = append(vars, model.EnvVar{Name: name, Value: value})
	}
	sortVars(vars)
	return vars, nil
}

func (b *MemoryBackend) ReadOne(_ context.Context, name string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.readErr != nil {
		return "", false, b.readErr
	}
	for _, scope := range []model.Scope{model.ScopeUser, model.ScopeSystem} {
		if value, ok := b.vars[scope][name]; ok {
			return value, true, nil
		}
	}
	return "", false, nil
}

func (b *MemoryBackend) Write(_ context.Context, name string, value string, scope model.Scope) error {
	if err := validateName(name); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.writeErrors[name]; err != nil {
		return fmt.Errorf("write %q: %w", name, err)
	}
	bucket, ok := b.vars[scope]
	if !ok {
		return fmt.Errorf("%w: unknown scope %q", model.ErrInvalidInput, scope)
	}
	bucket[name] = value
	return nil
}

func (b *MemoryBackend) Remove(_ context.Context, name string, scope model.Scope) error {
	if err := validateName(name); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.removeErrs[name]; err != nil {
		return fmt.Errorf("remove %q: %w", name, err)
	}
	bucket, ok := b.vars[scope]
	if !ok {
		return fmt.Errorf("%w: unknown scope %q", model.ErrInvalidInput, scope)
	}
	delete(bucket, name)
	return nil
}

func (b *MemoryBackend) NotifyChanged(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifyCount++
	return b.notifyErr
}
