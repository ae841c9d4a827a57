// Package errors provides the error types returned by the host driver,
// the CLI and job manifests. All error types support unwrapping via
// errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrorDetail is the structured form of an error, as written to job
// summaries.
type ErrorDetail struct {
	Message string `json:"message" yaml:"message"`
	Type    string `json:"type" yaml:"type"`
	Code    string `json:"code,omitempty" yaml:"code,omitempty"`
}

func (e *ErrorDetail) Error() string {
	return e.Message
}

// DetailedError is implemented by error types that can describe
// themselves as an ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *ErrorDetail
}

// ToErrorDetail converts err into an ErrorDetail. Unknown errors are
// categorized as internal.
func ToErrorDetail(err error) *ErrorDetail {
	if err == nil {
		return nil
	}

	var e *ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// BridgeError is a failed call across the host/guest boundary.
type BridgeError struct {
	Err error
	Op  string
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("bridge %s failed: %v", e.Op, e.Err)
}

func (e *BridgeError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *BridgeError) ToErrorDetail() *ErrorDetail {
	return &ErrorDetail{Message: e.Error(), Type: "bridge", Code: e.Op}
}

// FormatError is an output format name or code that does not exist.
// Value holds the rejected input as given.
type FormatError struct {
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unknown output format %q", e.Value)
}

// ToErrorDetail implements DetailedError.
func (e *FormatError) ToErrorDetail() *ErrorDetail {
	return &ErrorDetail{Message: e.Error(), Type: "validation", Code: "format"}
}

// AssemblyError carries the rendered diagnostic report of a failed
// assembly.
type AssemblyError struct {
	Report string
}

func (e *AssemblyError) Error() string {
	if e.Report == "" {
		return "assembly failed"
	}
	return "assembly failed:\n" + e.Report
}

// ToErrorDetail implements DetailedError.
func (e *AssemblyError) ToErrorDetail() *ErrorDetail {
	return &ErrorDetail{Message: e.Report, Type: "assembly"}
}

// ConfigError is an invalid field in a job manifest or option.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid configuration field %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *ErrorDetail {
	return &ErrorDetail{Message: e.Error(), Type: "config", Code: e.Field}
}

// MemoryError is a request larger than the configured limit.
type MemoryError struct {
	Requested int
	Limit     int
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("request of %d bytes exceeds limit of %d bytes", e.Requested, e.Limit)
}

// ToErrorDetail implements DetailedError.
func (e *MemoryError) ToErrorDetail() *ErrorDetail {
	return &ErrorDetail{Message: e.Error(), Type: "internal", Code: "memory_limit"}
}
