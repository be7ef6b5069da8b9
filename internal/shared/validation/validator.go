package validation

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

type ConfigError interface {
	error
	PrependPath(path string) ConfigError
}

// ValidationError collects per-field problems found in caller input.
// Nothing is written when one is returned.
type ValidationError struct {
	Path     string
	Problems map[string]string
}

func NewValidationError(problems map[string]string, path ...string) *ValidationError {
	return &ValidationError{strings.Join(path, "."), problems}
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Problems))
	for field := range e.Problems {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var b strings.Builder
	fmt.Fprintf(&b, "validation errors found in '%s':", e.Path)
	for _, field := range fields {
		fmt.Fprintf(&b, " %s: %s;", field, e.Problems[field])
	}
	return strings.TrimSuffix(b.String(), ";")
}

func (e *ValidationError) Is(other error) bool {
	_, ok := other.(*ValidationError)
	return ok
}

func (e *ValidationError) PrependPath(path string) ConfigError {
	if e.Path == "" {
		e.Path = path
		return e
	}
	e.Path = fmt.Sprint(path, ".", e.Path)
	return e
}

func (e *ValidationError) AppendPath(path string) ConfigError {
	if e.Path == "" {
		e.Path = path
		return e
	}
	e.Path = fmt.Sprint(e.Path, ".", path)
	return e
}

type Validator interface {
	// Returns a map of field and human readable explanation of what's wrong
	Valid(ctx context.Context) (problems map[string]string)
}

type DuplicateFoundError struct {
	Path string
}

func NewDuplicateFoundError(path ...string) *DuplicateFoundError {
	return &DuplicateFoundError{strings.Join(path, ".")}
}

func (e *DuplicateFoundError) Error() string {
	return fmt.Sprintf("duplicate entry in '%s'", e.Path)
}

func (e *DuplicateFoundError) PrependPath(path string) ConfigError {
	e.Path = fmt.Sprint(path, ".", e.Path)
	return e
}

type NoNameError struct {
	Path  string
	Index int
}

func NewNoNameError(path ...string) *NoNameError {
	return &NoNameError{strings.Join(path, "."), -1}
}

func (e *NoNameError) Error() string {
	var path string
	if e.Index >= 0 {
		path = fmt.Sprintf("%s[%d]", e.Path, e.Index)
	} else {
		path = e.Path
	}

	return fmt.Sprintf("entry in '%s' has no name", path)
}

func (e *NoNameError) SetIndex(i int) {
	e.Index = i
}

func (e *NoNameError) PrependPath(path string) ConfigError {
	e.Path = fmt.Sprint(path, ".", e.Path)
	return e
}
