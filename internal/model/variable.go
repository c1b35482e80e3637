package model

import "time"

// IndividualVariable is a user-scope OS variable tracked by the catalog.
type IndividualVariable struct {
	Name             string    `json:"name" yaml:"name"`
	Value            string    `json:"value" yaml:"value"`
	IsSystemOriginal bool      `json:"is_system_original" yaml:"is_system_original"`
	IsPathList       bool      `json:"is_path_list,omitempty" yaml:"is_path_list,omitempty"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" yaml:"updated_at"`
	Revision         string    `json:"revision,omitempty" yaml:"revision,omitempty"`
}

// SystemVariable is a read-only entry from the system scope.
type SystemVariable struct {
	Name         string   `json:"name" yaml:"name"`
	Value        string   `json:"value" yaml:"value"`
	PathSegments []string `json:"path_segments,omitempty" yaml:"path_segments,omitempty"`
}
