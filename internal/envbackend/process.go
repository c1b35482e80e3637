package envbackend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"go-env-manager/internal/model"
)

// ProcessBackend maps user scope onto the current process environment and
// reads system scope from a KEY=VALUE file such as /etc/environment.
// Reserved names are never read, written or removed.
type ProcessBackend struct {
	systemEnvFile string
	reserved      map[string]struct{}
}

func NewProcessBackend(systemEnvFile string, reserved ...string) *ProcessBackend {
	b := &ProcessBackend{
		systemEnvFile: strings.TrimSpace(systemEnvFile),
		reserved:      make(map[string]struct{}, len(reserved)),
	}
	for _, name := range reserved {
		if name = strings.TrimSpace(name); name != "" {
			b.reserved[name] = struct{}{}
		}
	}
	return b
}

func (b *ProcessBackend) isReserved(name string) bool {
	_, ok := b.reserved[strings.TrimSpace(name)]
	return ok
}

func (b *ProcessBackend) ReadAll(_ context.Context, scope model.Scope) ([]model.EnvVar, error) {
	switch scope {
	case model.ScopeUser:
		vars := make([]model.EnvVar, 0)
		for _, entry := range os.Environ() {
			name, value, ok := strings.Cut(entry, "=")
			if !ok || name == "" || b.isReserved(name) {
				continue
			}
			vars = append(vars, model.EnvVar{Name: name, Value: value})
		}
		sortVars(vars)
		return vars, nil
	case model.ScopeSystem:
		return b.readSystemFile()
	default:
		return nil, fmt.Errorf("%w: unknown scope %q", model.ErrInvalidInput, scope)
	}
}

func (b *ProcessBackend) ReadOne(ctx context.Context, name string) (string, bool, error) {
	if b.isReserved(name) {
		return "", false, nil
	}
	if value, ok := os.LookupEnv(name); ok {
		return value, true, nil
	}

	system, err := b.readSystemFile()
	if err != nil {
		return "", false, err
	}
	for _, v := range system {
		if v.Name == name {
			return v.Value, true, nil
		}
	}

	return "", false, nil
}

func (b *ProcessBackend) Write(_ context.Context, name string, value string, scope model.Scope) error {
	if err := validateName(name); err != nil {
		return err
	}
	if scope == model.ScopeSystem {
		return fmt.Errorf("write system variable %q: %w", name, model.ErrPermissionDenied)
	}
	if b.isReserved(name) {
		return fmt.Errorf("write server setting %q: %w", name, model.ErrPermissionDenied)
	}
	if err := os.Setenv(name, value); err != nil {
		return fmt.Errorf("set %q: %w", name, err)
	}
	return nil
}

func (b *ProcessBackend) Remove(_ context.Context, name string, scope model.Scope) error {
	if err := validateName(name); err != nil {
		return err
	}
	if scope == model.ScopeSystem {
		return fmt.Errorf("remove system variable %q: %w", name, model.ErrPermissionDenied)
	}
	if b.isReserved(name) {
		return fmt.Errorf("remove server setting %q: %w", name, model.ErrPermissionDenied)
	}
	if err := os.Unsetenv(name); err != nil {
		return fmt.Errorf("unset %q: %w", name, err)
	}
	return nil
}

// NotifyChanged is a no-op: process environment changes are visible immediately.
func (b *ProcessBackend) NotifyChanged(context.Context) error {
	return nil
}

func (b *ProcessBackend) readSystemFile() ([]model.EnvVar, error) {
	if b.systemEnvFile == "" {
		return []model.EnvVar{}, nil
	}

	values, err := godotenv.Read(b.systemEnvFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.EnvVar{}, nil
		}
		return nil, fmt.Errorf("read system environment file: %w", err)
	}

	vars := make([]model.EnvVar, 0, len(values))
	for name, value := range values {
		if b.isReserved(name) {
			continue
		}
		vars = append(vars, model.EnvVar{Name: name, Value: value})
	}
	sortVars(vars)
	return vars, nil
}

func sortVars(vars []model.EnvVar) {
	sort.Slice(vars, func(i, j int) bool {
		return strings.ToLower(vars[i].Name) < strings.ToLower(vars[j].Name)
	})
}
