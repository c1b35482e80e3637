package envbackend

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"go-env-manager/internal/model"
)

// Backend reads and mutates host environment variables.
type Backend interface {
	ReadAll(ctx context.Context, scope model.Scope) ([]model.EnvVar, error)
	// ReadOne looks the name up in user scope first, then system scope.
	ReadOne(ctx context.Context, name string) (string, bool, error)
	Write(ctx context.Context, name string, value string, scope model.Scope) error
	// Remove succeeds when the variable is already absent.
	Remove(ctx context.Context, name string, scope model.Scope) error
	NotifyChanged(ctx context.Context) error
}

const (
	KindAuto     = "auto"
	KindRegistry = "registry"
	KindProcess  = "process"
	KindMemory   = "memory"
	KindNone     = "none"
)

// New builds the backend selected by kind. KindNone yields a nil Backend,
// which callers treat as store-only degraded mode. Reserved names are
// hidden by the process backend, whose user scope is the server's own
// environment.
func New(kind string, systemEnvFile string, reserved ...string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindAuto:
		if runtime.GOOS == "windows" {
			return newRegistryBackend()
		}
		return NewProcessBackend(systemEnvFile, reserved...), nil
	case KindRegistry:
		return newRegistryBackend()
	case KindProcess:
		return NewProcessBackend(systemEnvFile, reserved...), nil
	case KindMemory:
		return NewMemoryBackend(), nil
	case KindNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown environment backend %q", kind)
	}
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: variable name is empty", model.ErrInvalidInput)
	}
	if strings.ContainsAny(trimmed, "=\x00") {
		return fmt.Errorf("%w: variable name %q contains '=' or NUL", model.ErrInvalidInput, name)
	}
	return nil
}
