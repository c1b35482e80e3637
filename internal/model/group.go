package model

import "time"

// Scope selects which level of the host environment a variable lives in.
type Scope string

const (
	ScopeUser   Scope = "user"
	ScopeSystem Scope = "system"
)

func (s Scope) Valid() bool {
	return s == ScopeUser || s == ScopeSystem
}

type EnvVar struct {
	Name  string `json:"name" yaml:"name" validate:"max=32767"`
	Value string `json:"value" yaml:"value"`
}

// VariableGroup is a named bundle of variables activated as a unit.
// IsActive is a cache of live OS state and is recomputed on every load.
type VariableGroup struct {
	ID               string    `json:"id" yaml:"id"`
	Name             string    `json:"name" yaml:"name"`
	Description      string    `json:"description,omitempty" yaml:"description,omitempty"`
	Variables        []EnvVar  `json:"variables" yaml:"variables"`
	IsActive         bool      `json:"is_active" yaml:"is_active"`
	IsSystemVariable bool      `json:"is_system_variable" yaml:"is_system_variable"`
	IsSystemLevel    bool      `json:"is_system_level,omitempty" yaml:"is_system_level,omitempty"`
	PathSegments     []string  `json:"path_segments,omitempty" yaml:"path_segments,omitempty"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" yaml:"updated_at"`
	Revision         string    `json:"revision,omitempty" yaml:"revision,omitempty"`
}

// Clone returns a copy that shares no slices with g.
func (g VariableGroup) Clone() VariableGroup {
	out := g
	if g.Variables != nil {
		out.Variables = make([]EnvVar, len(g.Variables))
		copy(out.Variables, g.Variables)
	}
	if g.PathSegments != nil {
		out.PathSegments = make([]string, len(g.PathSegments))
		copy(out.PathSegments, g.PathSegments)
	}
	return out
}

type GroupSaveMode string

const (
	SaveModeCreate GroupSaveMode = "create"
	SaveModeEdit   GroupSaveMode = "edit"
)

// GroupInput is the caller-supplied shape for creating or editing a group.
type GroupInput struct {
	ID          string
	Name        string
	Description string
	Variables   []EnvVar
	Revision    string
}
