// Package errors provides the typed errors shared by the harvesting pipeline.
// Each type supports errors.Is against one of the sentinels below so callers
// can classify failures without type switches.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is, As and Join mirror the standard library so callers need one import.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Sentinel errors.
var (
	// ErrNotFound indicates that a lookup returned no match
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that a payload failed schema validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransport indicates that a remote call failed
	ErrTransport = errors.New("transport failure")

	// ErrRateLimited indicates that the remote API rejected the call with 429
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable indicates a 5xx response from the remote API
	ErrUnavailable = errors.New("service unavailable")

	// ErrStorage indicates that a local file operation failed
	ErrStorage = errors.New("storage failure")

	// ErrConfig indicates missing or invalid configuration
	ErrConfig = errors.New("invalid configuration")

	// ErrAPIKeyRequired indicates that an API key is required but not provided
	ErrAPIKeyRequired = errors.New("API key required")
)

// TransportError is returned when a remote endpoint cannot be reached or
// answers with a non-2xx status.
type TransportError struct {
	Service    string
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %s", e.Service, e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Service, e.Endpoint, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return true
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrUnavailable:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// NewTransportError creates a new TransportError
func NewTransportError(service, endpoint string, statusCode int, message string) *TransportError {
	return &TransportError{
		Service:    service,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
	}
}

// FieldError is one failing path inside a validated payload.
type FieldError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// String renders the field error as path: reason.
func (f FieldError) String() string {
	if f.Path == "" {
		return f.Reason
	}
	return f.Path + ": " + f.Reason
}

// SchemaError reports every field of a payload that did not match its
// declared schema.
type SchemaError struct {
	Schema string
	Fields []FieldError
	Err    error
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	if len(parts) == 0 && e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return fmt.Sprintf("%s failed validation: %s", e.Schema, strings.Join(parts, "; "))
}

// Unwrap implements errors.Unwrap
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Paths returns the failing field paths in report order.
func (e *SchemaError) Paths() []string {
	paths := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		paths = append(paths, f.Path)
	}
	return paths
}

// NewSchemaError creates a SchemaError with a single failing field.
func NewSchemaError(schema, path, reason string) *SchemaError {
	return &SchemaError{
		Schema: schema,
		Fields: []FieldError{{Path: path, Reason: reason}},
	}
}

// StorageError represents a failed read or write under the output root.
type StorageError struct {
	Operation string // "read", "write", "create", "list"
	Path      string
	Err       error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("storage %s %s", e.Operation, e.Path)
}

// Unwrap implements errors.Unwrap
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// LookupMiss is returned when a cross-reference or geocoding query
// succeeds but yields no match.
type LookupMiss struct {
	Resource string // "provider", "geocode"
	Key      string
}

// Error implements the error interface
func (e *LookupMiss) Error() string {
	return fmt.Sprintf("no %s match for %s", e.Resource, e.Key)
}

// Is implements errors.Is support
func (e *LookupMiss) Is(target error) bool {
	return target == ErrNotFound
}

// NewLookupMiss creates a new LookupMiss
func NewLookupMiss(resource, key string) *LookupMiss {
	return &LookupMiss{Resource: resource, Key: key}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// PartitionError marks a failure that aborted one (branch, service, year)
// partition.
type PartitionError struct {
	Partition string
	Stage     string
	Err       error
}

// Error implements the error interface
func (e *PartitionError) Error() string {
	return fmt.Sprintf("partition %s aborted during %s: %v", e.Partition, e.Stage, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *PartitionError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsNotFound checks if an error is a lookup miss
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a schema error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsTransport checks if an error came from a remote call
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsStorage checks if an error came from the document store
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// Helper wrapping functions for common patterns

// WrapStorage wraps an error as a StorageError
func WrapStorage(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Operation: operation, Path: path, Err: err}
}

// WrapTransport wraps a connection-level failure as a TransportError
func WrapTransport(service, endpoint string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{
		Service:  service,
		Endpoint: endpoint,
		Message:  err.Error(),
		Err:      err,
	}
}

// WrapSchema wraps a decode failure as a SchemaError without field detail
func WrapSchema(schema string, err error) error {
	if err == nil {
		return nil
	}
	return &SchemaError{Schema: schema, Err: err}
}
