// Package util provides logging, error types and small helpers shared by netkit packages.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Typed errors below unwrap to one of these so callers can
// classify with errors.Is.
var (
	ErrInventoryLoad      = errors.New("inventory load failed")
	ErrMissingField       = errors.New("required field missing")
	ErrInvalidField       = errors.New("invalid field value")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrUnsupported        = errors.New("operation not supported")
	ErrConnection         = errors.New("connection failed")
	ErrCommand            = errors.New("command failed")
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrPreconditionFailed = errors.New("precondition not met")
	ErrValidationFailed   = errors.New("validation failed")
)

// InventoryLoadError is fatal to a run: the inventory file could not be read or parsed.
type InventoryLoadError struct {
	Path string
	Err  error
}

func (e *InventoryLoadError) Error() string {
	return fmt.Sprintf("loading inventory %s: %v", e.Path, e.Err)
}

func (e *InventoryLoadError) Unwrap() []error {
	return []error{ErrInventoryLoad, e.Err}
}

// NewInventoryLoadError creates an inventory load error
func NewInventoryLoadError(path string, err error) *InventoryLoadError {
	return &InventoryLoadError{Path: path, Err: err}
}

// MissingFieldError reports a required field absent from one host after layering.
type MissingFieldError struct {
	Host  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("host %s: missing required field %q", e.Host, e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// NewMissingFieldError creates a missing field error
func NewMissingFieldError(host, field string) *MissingFieldError {
	return &MissingFieldError{Host: host, Field: field}
}

// InvalidFieldError reports a field whose value cannot be used, e.g. a non-numeric port.
type InvalidFieldError struct {
	Host  string
	Field string
	Value interface{}
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("host %s: invalid %s value %v", e.Host, e.Field, e.Value)
}

func (e *InvalidFieldError) Unwrap() error {
	return ErrInvalidField
}

// NewInvalidFieldError creates an invalid field error
func NewInvalidFieldError(host, field string, value interface{}) *InvalidFieldError {
	return &InvalidFieldError{Host: host, Field: field, Value: value}
}

// MissingCredentialsError means no inventory value or environment variable supplied a login.
type MissingCredentialsError struct {
	Host    string
	Missing []string
}

func (e *MissingCredentialsError) Error() string {
	msg := "missing credentials for " + e.Host
	if len(e.Missing) > 0 {
		msg += " (" + strings.Join(e.Missing, ", ") + ")"
	}
	return msg
}

func (e *MissingCredentialsError) Unwrap() error {
	return ErrMissingCredentials
}

// NewMissingCredentialsError creates a missing credentials error
func NewMissingCredentialsError(host string, missing ...string) *MissingCredentialsError {
	return &MissingCredentialsError{Host: host, Missing: missing}
}

// UnsupportedOperationError is reported as a skip, never as a failure.
type UnsupportedOperationError struct {
	Operation string
	Platform  string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s is not supported on %s", e.Operation, e.Platform)
}

func (e *UnsupportedOperationError) Unwrap() error {
	return ErrUnsupported
}

// NewUnsupportedOperationError creates an unsupported operation error
func NewUnsupportedOperationError(operation, platform string) *UnsupportedOperationError {
	return &UnsupportedOperationError{Operation: operation, Platform: platform}
}

// ConnectionError wraps a dial, authentication or session setup failure.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to %s: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() []error {
	return []error{ErrConnection, e.Err}
}

// NewConnectionError creates a connection error
func NewConnectionError(address string, err error) *ConnectionError {
	return &ConnectionError{Address: address, Err: err}
}

// CommandError is a device-side command failure (error reply or timeout).
type CommandError struct {
	Command string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("command %q: %v", e.Command, e.Err)
	case e.Output != "":
		return fmt.Sprintf("command %q rejected: %s", e.Command, e.Output)
	default:
		return fmt.Sprintf("command %q failed", e.Command)
	}
}

func (e *CommandError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCommand}
	}
	return []error{ErrCommand, e.Err}
}

// NewCommandError creates a command error
func NewCommandError(command, output string, err error) *CommandError {
	return &CommandError{Command: command, Output: output, Err: err}
}

// PreconditionError is an operation input that fails a check before any
// host is contacted.
type PreconditionError struct {
	Operation    string
	Resource     string
	Precondition string
	Details      string
}

func (e *PreconditionError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Operation, e.Resource, e.Precondition)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

func (e *PreconditionError) Unwrap() error {
	return ErrPreconditionFailed
}

// NewPreconditionError creates a new precondition error
func NewPreconditionError(operation, resource, precondition, details string) *PreconditionError {
	return &PreconditionError{
		Operation:    operation,
		Resource:     resource,
		Precondition: precondition,
		Details:      details,
	}
}

// ValidationError represents one or more validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a validation error from messages
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// ValidationBuilder helps accumulate validation errors
type ValidationBuilder struct {
	errors []string
}

// Add adds an error message if condition is false
func (v *ValidationBuilder) Add(condition bool, message string) *ValidationBuilder {
	if !condition {
		v.errors = append(v.errors, message)
	}
	return v
}

// AddErrorf adds a formatted error message
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

// HasErrors returns true if there are validation errors
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

// Build returns the validation error or nil if no errors
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}
