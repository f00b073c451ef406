package graph

import (
	"fmt"
	"strings"
)

// MissingDependencyError reports a dependency identity absent from the catalog.
type MissingDependencyError struct {
	Script     string
	Dependency string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("script %s depends on %s, which was not found", e.Script, e.Dependency)
}

// CycleError reports a script that sits on a dependency cycle.
type CycleError struct {
	Script string
	Path   []string // a -> b -> a
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("script %s is part of a dependency cycle: %s", e.Script, strings.Join(e.Path, " -> "))
}

// UpstreamExcludedError reports a script whose dependency was itself excluded,
// either because it is missing something or because it is (or reaches) a cycle.
type UpstreamExcludedError struct {
	Script     string
	Dependency string
	Cause      error
}

func (e *UpstreamExcludedError) Error() string {
	return fmt.Sprintf("script %s depends on excluded script %s: %v", e.Script, e.Dependency, e.Cause)
}

func (e *UpstreamExcludedError) Unwrap() error { return e.Cause }
