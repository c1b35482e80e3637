package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go-env-manager/internal/envbackend"
	"go-env-manager/internal/model"
)

// SystemService exposes read-only views of the host environment.
type SystemService struct {
	backend envbackend.Backend
}

func NewSystemService(backend envbackend.Backend) *SystemService {
	return &SystemService{backend: backend}
}

// ListSystem returns system-scope variables sorted by name.
func (s *SystemService) ListSystem(ctx context.Context) ([]model.SystemVariable, error) {
	if s.backend == nil {
		return nil, fmt.Errorf("list system variables: %w", model.ErrBackendUnavailable)
	}

	vars, err := s.backend.ReadAll(ctx, model.ScopeSystem)
	if err != nil {
		return nil, fmt.Errorf("read system variables: %w", err)
	}

	out := make([]model.SystemVariable, 0, len(vars))
	for _, v := range vars {
		entry := model.SystemVariable{Name: v.Name, Value: v.Value}
		if IsListVariable(v.Name) {
			entry.PathSegments = SplitPathList(v.Value)
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// ViewGroups merges system and user scope into one synthetic group per
// variable. The user value wins when a name exists in both scopes.
func (s *SystemService) ViewGroups(ctx context.Context) ([]model.VariableGroup, error) {
	if s.backend == nil {
		return nil, fmt.Errorf("list system view groups: %w", model.ErrBackendUnavailable)
	}

	system, err := s.backend.ReadAll(ctx, model.ScopeSystem)
	if err != nil {
		return nil, fmt.Errorf("read system variables: %w", err)
	}
	user, err := s.backend.ReadAll(ctx, model.ScopeUser)
	if err != nil {
		return nil, fmt.Errorf("read user variables: %w", err)
	}

	merged := make(map[string]model.VariableGroup, len(system)+len(user))
	add := func(v model.EnvVar, systemLevel bool) {
		key := strings.ToLower(v.Name)
		tag := "user"
		if systemLevel {
			tag = "sys"
		}
		group := model.VariableGroup{
			ID:               fmt.Sprintf("%s%s-%s", systemViewPrefix, tag, key),
			Name:             v.Name,
			Variables:        []model.EnvVar{{Name: v.Name, Value: v.Value}},
			IsActive:         true,
			IsSystemVariable: true,
			IsSystemLevel:    systemLevel,
		}
		if IsListVariable(v.Name) {
			group.PathSegments = SplitPathList(v.Value)
		}
		merged[key] = group
	}
	for _, v := range system {
		add(v, true)
	}
	for _, v := range user {
		add(v, false)
	}

	groups := make([]model.VariableGroup, 0, len(merged))
	for _, g := range merged {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return strings.ToLower(groups[i].Name) < strings.ToLower(groups[j].Name)
	})
	return groups, nil
}
