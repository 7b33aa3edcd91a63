package domain

import (
	"errors"
	"fmt"
)

// Registry errors
var (
	ErrEmptyName      = errors.New("name is required")
	ErrEmptyPath      = errors.New("path is required")
	ErrInvalidVersion = errors.New("version must be greater than zero")
	ErrModelActive    = errors.New("model version is active")
)

// ModelNotFoundError is returned when no model matches a name (and version).
// Version 0 means the lookup was by name only.
type ModelNotFoundError struct {
	Name    string
	Version int
}

func (e *ModelNotFoundError) Error() string {
	if e.Version > 0 {
		return fmt.Sprintf("model %q version %d not found", e.Name, e.Version)
	}
	return fmt.Sprintf("model %q not found", e.Name)
}

// NoActiveModelError is returned when a model name has no active version.
type NoActiveModelError struct {
	Name string
}

func (e *NoActiveModelError) Error() string {
	return fmt.Sprintf("model %q has no active version", e.Name)
}

// PipelineNotFoundError is returned when no pipeline has the given name.
type PipelineNotFoundError struct {
	Name string
}

func (e *PipelineNotFoundError) Error() string {
	return fmt.Sprintf("pipeline %q not found", e.Name)
}

// ResourceNotFoundError is returned when no resource has the given name.
type ResourceNotFoundError struct {
	Name string
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("resource %q not found", e.Name)
}

// IsNotFound reports whether err is any of the registry's not-found errors.
func IsNotFound(err error) bool {
	var (
		model    *ModelNotFoundError
		active   *NoActiveModelError
		pipeline *PipelineNotFoundError
		resource *ResourceNotFoundError
	)
	return errors.As(err, &model) || errors.As(err, &active) ||
		errors.As(err, &pipeline) || errors.As(err, &resource)
}
