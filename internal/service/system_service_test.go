package service

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-env-manager/internal/model"
	"go-env-manager/internal/storage"
)

func TestSystemService_ListSystem(t *testing.T) {
	f := newFixture(t)
	f.env.Set(model.ScopeSystem, "windir", `C:\Windows`)
	f.env.Set(model.ScopeSystem, "Path", "/sbin"+string(os.PathListSeparator)+"/usr/sbin")
	f.env.Set(model.ScopeUser, "TEMP", `C:\Temp`)

	vars, err := f.system.ListSystem(context.Background())
	require.NoError(t, err)
	require.Len(t, vars, 2)
	assert.Equal(t, "Path", vars[0].Name)
	assert.Equal(t, []string{"/sbin", "/usr/sbin"}, vars[0].PathSegments)
	assert.Equal(t, "windir", vars[1].Name)
	assert.Nil(t, vars[1].PathSegments)
}

func TestSystemService_ViewGroupsUserWins(t *testing.T) {
	f := newFixture(t)
	f.env.Set(model.ScopeSystem, "TEMP", `C:\Windows\Temp`)
	f.env.Set(model.ScopeSystem, "OS", "Windows_NT")
	f.env.Set(model.ScopeUser, "TEMP", `C:\Users\me\Temp`)

	groups, err := f.system.ViewGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "system-sys-os", groups[0].ID)
	assert.True(t, groups[0].IsSystemLevel)

	temp := groups[1]
	assert.Equal(t, "system-user-temp", temp.ID)
	assert.Equal(t, `C:\Users\me\Temp`, temp.Variables[0].Value)
	assert.True(t, temp.IsSystemVariable)
	assert.True(t, temp.IsActive)
	assert.False(t, temp.IsSystemLevel)
}

func TestSystemService_DegradedMode(t *testing.T) {
	f := newFixtureWith(t, storage.NewMemoryStore(), nil)

	_, err := f.system.ListSystem(context.Background())
	require.ErrorIs(t, err, model.ErrBackendUnavailable)
	_, err = f.system.ViewGroups(context.Background())
	require.ErrorIs(t, err, model.ErrBackendUnavailable)
}
