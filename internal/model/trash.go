package model

import (
	"fmt"
	"strings"
	"time"
)

// TabType is the collection a trash record belongs to.
type TabType string

const (
	TabGroups   TabType = "groups"
	TabUserVars TabType = "user-vars"
)

func ParseTabType(raw string) (TabType, error) {
	switch tab := TabType(strings.ToLower(strings.TrimSpace(raw))); tab {
	case TabGroups, TabUserVars:
		return tab, nil
	default:
		return "", fmt.Errorf("%w: unknown trash tab %q (allowed: groups|user-vars)", ErrInvalidInput, raw)
	}
}

type TrashAction string

const (
	TrashActionDelete TrashAction = "delete"
	TrashActionEdit   TrashAction = "edit"
)

type ItemType string

const (
	ItemTypeGroup    ItemType = "group"
	ItemTypeVariable ItemType = "variable"
)

// TrashSnapshot holds exactly one of Group or Variable, selected by the
// record's ItemType.
type TrashSnapshot struct {
	Group    *VariableGroup `json:"group,omitempty" yaml:"group,omitempty"`
	Variable *EnvVar        `json:"variable,omitempty" yaml:"variable,omitempty"`
}

func GroupSnapshot(g VariableGroup) TrashSnapshot {
	clone := g.Clone()
	clone.Revision = ""
	return TrashSnapshot{Group: &clone}
}

func VariableSnapshot(name string, value string) TrashSnapshot {
	return TrashSnapshot{Variable: &EnvVar{Name: name, Value: value}}
}

// TrashRecord is one undoable mutation. Once stored it is only ever deleted.
type TrashRecord struct {
	ID           string         `json:"id" yaml:"id"`
	TabType      TabType        `json:"tab_type" yaml:"tab_type"`
	Action       TrashAction    `json:"action" yaml:"action"`
	ItemType     ItemType       `json:"item_type" yaml:"item_type"`
	Name         string         `json:"name" yaml:"name"`
	Data         TrashSnapshot  `json:"data" yaml:"data"`
	OriginalData *TrashSnapshot `json:"original_data,omitempty" yaml:"original_data,omitempty"`
	Timestamp    time.Time      `json:"timestamp" yaml:"timestamp"`
}

// Validate checks that the snapshot shape matches the declared item type.
func (r TrashRecord) Validate() error {
	switch r.Action {
	case TrashActionDelete, TrashActionEdit:
	default:
		return fmt.Errorf("%w: unknown trash action %q", ErrInvalidInput, r.Action)
	}

	switch r.ItemType {
	case ItemTypeGroup:
		if r.Data.Group == nil {
			return fmt.Errorf("%w: group record without group snapshot", ErrInvalidInput)
		}
		if r.Action == TrashActionEdit && (r.OriginalData == nil || r.OriginalData.Group == nil) {
			return fmt.Errorf("%w: group edit record without original snapshot", ErrInvalidInput)
		}
	case ItemTypeVariable:
		if r.Data.Variable == nil {
			return fmt.Errorf("%w: variable record without variable snapshot", ErrInvalidInput)
		}
		if r.Action == TrashActionEdit && (r.OriginalData == nil || r.OriginalData.Variable == nil) {
			return fmt.Errorf("%w: variable edit record without original snapshot", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown item type %q", ErrInvalidInput, r.ItemType)
	}

	if r.Action == TrashActionDelete && r.OriginalData != nil {
		return fmt.Errorf("%w: delete record must not carry original data", ErrInvalidInput)
	}

	return nil
}

type TrashSettings struct {
	AutoCleanupDays int `json:"auto_cleanup_days" yaml:"auto_cleanup_days"`
}

type TrashSettingsPatch struct {
	AutoCleanupDays *int `json:"auto_cleanup_days,omitempty" validate:"omitempty,min=1,max=3650"`
}

// RestoreResult pairs a consumed trash record with the item it restored.
type RestoreResult struct {
	Record TrashRecord `json:"record" yaml:"record"`
	Item   any         `json:"item" yaml:"item"`
}
