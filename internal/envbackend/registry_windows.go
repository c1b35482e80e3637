//go:build windows

package envbackend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"go-env-manager/internal/model"
)

const (
	userEnvironmentKey   = `Environment`
	systemEnvironmentKey = `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`

	hwndBroadcast    = 0xffff
	wmSettingChange  = 0x001A
	smtoAbortIfHung  = 0x0002
	broadcastTimeout = 5000
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSendMessageTimeoutW = user32.NewProc("SendMessageTimeoutW")
)

// RegistryBackend stores variables in the per-user and machine-wide
// Environment keys.
type RegistryBackend struct{}

func newRegistryBackend() (Backend, error) {
	if err := procSendMessageTimeoutW.Find(); err != nil {
		return nil, fmt.Errorf("load SendMessageTimeoutW: %w", err)
	}
	return &RegistryBackend{}, nil
}

func openEnvironmentKey(scope model.Scope, access uint32) (registry.Key, error) {
	var (
		root registry.Key
		path string
	)
	switch scope {
	case model.ScopeUser:
		root, path = registry.CURRENT_USER, userEnvironmentKey
	case model.ScopeSystem:
		root, path = registry.LOCAL_MACHINE, systemEnvironmentKey
	default:
		return 0, fmt.Errorf("%w: unknown scope %q", model.ErrInvalidInput, scope)
	}

	k, err := registry.OpenKey(root, path, access)
	if err != nil {
		return 0, mapRegistryError(fmt.Sprintf("open %s environment key", scope), err)
	}
	return k, nil
}

func (b *RegistryBackend) ReadAll(_ context.Context, scope model.Scope) ([]model.EnvVar, error) {
	k, err := openEnvironmentKey(scope, registry.QUERY_VALUE|registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, err
	}
	defer k.Close()

	names, err := k.ReadValueNames(-1)
	if err != nil {
		return nil, mapRegistryError("enumerate environment values", err)
	}

	vars := make([]model.EnvVar, 0, len(names))
	for _, name := range names {
		value, _, err := k.GetStringValue(name)
		if err != nil {
			// Non-string values are not environment variables.
			if errors.Is(err, registry.ErrUnexpectedType) {
				continue
			}
			return nil, mapRegistryError(fmt.Sprintf("read %q", name), err)
		}
		vars = append(vars, model.EnvVar{Name: name, Value: value})
	}
	sortVars(vars)
	return vars, nil
}

func (b *RegistryBackend) ReadOne(_ context.Context, name string) (string, bool, error) {
	for _, scope := range []model.Scope{model.ScopeUser, model.ScopeSystem} {
		value, ok, err := readValue(scope, name)
		if err != nil {
			return "", false, err
		}
		if ok {
			return value, true, nil
		}
	}
	return "", false, nil
}

func readValue(scope model.Scope, name string) (string, bool, error) {
	k, err := openEnvironmentKey(scope, registry.QUERY_VALUE)
	if err != nil {
		return "", false, err
	}
	defer k.Close()

	value, _, err := k.GetStringValue(name)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", false, nil
		}
		return "", false, mapRegistryError(fmt.Sprintf("read %q", name), err)
	}
	return value, true, nil
}

func (b *RegistryBackend) Write(_ context.Context, name string, value string, scope model.Scope) error {
	if err := validateName(name); err != nil {
		return err
	}

	k, err := openEnvironmentKey(scope, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()

	// Keep REG_EXPAND_SZ for values that reference other variables.
	_, valueType, typeErr := k.GetStringValue(name)
	expand := strings.Contains(value, "%") || (typeErr == nil && valueType == registry.EXPAND_SZ)
	if expand {
		err = k.SetExpandStringValue(name, value)
	} else {
		err = k.SetStringValue(name, value)
	}
	if err != nil {
		return mapRegistryError(fmt.Sprintf("write %q", name), err)
	}
	return nil
}

func (b *RegistryBackend) Remove(_ context.Context, name string, scope model.Scope) error {
	if err := validateName(name); err != nil {
		return err
	}

	k, err := openEnvironmentKey(scope, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()

	if err := k.DeleteValue(name); err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil
		}
		return mapRegistryError(fmt.Sprintf("delete %q", name), err)
	}
	return nil
}

// NotifyChanged broadcasts WM_SETTINGCHANGE so new processes pick up the
// updated environment.
func (b *RegistryBackend) NotifyChanged(context.Context) error {
	param, err := windows.UTF16PtrFromString("Environment")
	if err != nil {
		return err
	}

	var result uintptr
	ret, _, callErr := procSendMessageTimeoutW.Call(
		hwndBroadcast,
		wmSettingChange,
		0,
		uintptr(unsafe.Pointer(param)),
		smtoAbortIfHung,
		broadcastTimeout,
		uintptr(unsafe.Pointer(&result)),
	)
	if ret == 0 {
		return fmt.Errorf("broadcast environment change: %w", callErr)
	}
	return nil
}

func mapRegistryError(op string, err error) error {
	if errors.Is(err, windows.ERROR_ACCESS_DENIED) {
		return fmt.Errorf("%s: %w", op, model.ErrPermissionDenied)
	}
	return fmt.Errorf("%s: %w", op, err)
}
