// Copyright 2025 Modsort Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package sorting

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by sorting operations.
var (
	// ErrUndefinedGroup is returned when metadata references a group
	// that does not exist.
	ErrUndefinedGroup = errors.New("undefined group")

	// ErrCyclicInteraction is returned when the metadata constraints
	// form a cycle.
	ErrCyclicInteraction = errors.New("cyclic interaction")
)

// UndefinedGroupError wraps ErrUndefinedGroup with the group name.
type UndefinedGroupError struct {
	Group string
}

// Error implements the error interface.
func (e *UndefinedGroupError) Error() string {
	return fmt.Sprintf("the group %q does not exist", e.Group)
}

// Unwrap returns the underlying error.
func (e *UndefinedGroupError) Unwrap() error {
	return ErrUndefinedGroup
}

// Is checks if the error matches ErrUndefinedGroup.
func (e *UndefinedGroupError) Is(target error) bool {
	return target == ErrUndefinedGroup
}

// CyclicInteractionError wraps ErrCyclicInteraction with the offending
// cycle. Each vertex carries the kind of the edge to its successor; the
// last vertex's edge closes the cycle back to the first.
type CyclicInteractionError struct {
	Cycle []Vertex
}

// Error implements the error interface.
func (e *CyclicInteractionError) Error() string {
	return fmt.Sprintf("cyclic interaction detected: %s", DescribeCycle(e.Cycle))
}

// Unwrap returns the underlying error.
func (e *CyclicInteractionError) Unwrap() error {
	return ErrCyclicInteraction
}

// Is checks if the error matches ErrCyclicInteraction.
func (e *CyclicInteractionError) Is(target error) bool {
	return target == ErrCyclicInteraction
}

// NewUndefinedGroupError creates an UndefinedGroupError.
func NewUndefinedGroupError(group string) error {
	return &UndefinedGroupError{Group: group}
}

// NewCyclicInteractionError creates a CyclicInteractionError.
func NewCyclicInteractionError(cycle []Vertex) error {
	return &CyclicInteractionError{Cycle: cycle}
}

// DescribeCycle renders a cycle as
// "A --[Master]-> B --[User Load After]-> A".
func DescribeCycle(cycle []Vertex) string {
	if len(cycle) == 0 {
		return ""
	}

	var b strings.Builder
	for _, v := range cycle {
		b.WriteString(v.Name)
		b.WriteString(" --[")
		b.WriteString(v.EdgeType.String())
		b.WriteString("]-> ")
	}
	b.WriteString(cycle[0].Name)
	return b.String()
}
