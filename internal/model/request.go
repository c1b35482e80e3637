package model

type SaveGroupRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Variables   []EnvVar `json:"variables" validate:"required,min=1,dive"`
	Revision    string   `json:"revision"`
}

type BatchDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

type SaveVariableRequest struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value" validate:"required"`
}

type UpdateVariableRequest struct {
	Value string `json:"value" validate:"required"`
}

type PathSegmentsRequest struct {
	Segments []string `json:"segments" validate:"required,min=1"`
}

// VariableFailure reports one variable an OS operation could not apply.
type VariableFailure struct {
	Group  string `json:"group,omitempty"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Code   string `json:"code"`
}

type ToggleResult struct {
	Group    VariableGroup     `json:"group"`
	Applied  []string          `json:"applied"`
	Failed   []VariableFailure `json:"failed"`
	Degraded bool              `json:"degraded,omitempty"`
}

type DeleteGroupResult struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Removed  []string          `json:"removed"`
	Failed   []VariableFailure `json:"failed"`
	Degraded bool              `json:"degraded,omitempty"`
}

type BatchDeleteFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type BatchDeleteResult struct {
	Deleted          []string             `json:"deleted"`
	Failed           []BatchDeleteFailure `json:"failed"`
	VariableFailures []VariableFailure    `json:"variable_failures"`
	Degraded         bool                 `json:"degraded,omitempty"`
}
