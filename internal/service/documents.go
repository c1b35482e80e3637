package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go-env-manager/internal/model"
	"go-env-manager/internal/storage"
)

// Store id namespaces.
const (
	groupPrefix         = "user-group-"
	variablePrefix      = "system-user-var-"
	trashHistoryPrefix  = "trash-history-"
	trashSettingsPrefix = "trash-settings-"

	// systemViewPrefix marks synthetic view groups. They are never stored.
	systemViewPrefix = "system-"
)

func groupDocID(id string) string {
	return groupPrefix + id
}

func variableDocID(name string) string {
	return variablePrefix + name
}

func trashDocPrefix(tab model.TabType) string {
	return trashHistoryPrefix + string(tab) + "-"
}

func trashDocID(tab model.TabType, id string) string {
	return trashDocPrefix(tab) + id
}

func trashSettingsDocID(tab model.TabType) string {
	return trashSettingsPrefix + string(tab)
}

func putJSON(ctx context.Context, store storage.Store, id string, value any, revision string) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode %q: %w", id, err)
	}
	return store.Put(ctx, id, data, revision)
}

func decodeGroup(doc storage.Document) (model.VariableGroup, error) {
	var group model.VariableGroup
	if err := json.Unmarshal(doc.Data, &group); err != nil {
		return model.VariableGroup{}, fmt.Errorf("decode group %q: %w", doc.ID, err)
	}
	if group.ID == "" {
		group.ID = strings.TrimPrefix(doc.ID, groupPrefix)
	}
	group.Revision = doc.Revision
	return group, nil
}

func decodeVariable(doc storage.Document) (model.IndividualVariable, error) {
	var variable model.IndividualVariable
	if err := json.Unmarshal(doc.Data, &variable); err != nil {
		return model.IndividualVariable{}, fmt.Errorf("decode variable %q: %w", doc.ID, err)
	}
	if variable.Name == "" {
		variable.Name = strings.TrimPrefix(doc.ID, variablePrefix)
	}
	variable.Revision = doc.Revision
	return variable, nil
}

// storedGroup strips fields that are not part of the persisted payload.
func storedGroup(g model.VariableGroup) model.VariableGroup {
	out := g.Clone()
	out.Revision = ""
	out.IsSystemVariable = false
	out.PathSegments = nil
	return out
}

func storedVariable(v model.IndividualVariable) model.IndividualVariable {
	v.Revision = ""
	v.IsPathList = false
	return v
}

func notFoundAs(err error, target error) error {
	if errors.Is(err, model.ErrDocumentNotFound) {
		return fmt.Errorf("%w: %v", target, err)
	}
	return err
}

func isSystemViewID(id string) bool {
	return strings.HasPrefix(id, systemViewPrefix)
}

func containsFold(haystack string, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
