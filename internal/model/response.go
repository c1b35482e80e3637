package model

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

// APIError is the error half of the envelope. Permission failures put the
// elevation hint in Details.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Meta carries list totals. Total counts the returned groups, variables or
// trash records; Cleaned counts the trash records past the tab's retention
// window that were pruned before a trash list was read.
type Meta struct {
	Total   int `json:"total"`
	Cleaned int `json:"cleaned,omitempty"`
}
