//go:build !windows

package envbackend

import "errors"

func newRegistryBackend() (Backend, error) {
	return nil, errors.New("registry environment backend is only available on windows")
}
