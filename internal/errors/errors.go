// Package errors provides standardized error handling for epubtokens.
// It defines the run-level and per-file error types, their reasons, and
// helper functions for consistent error creation, wrapping, and inspection.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors package errors that we re-export for convenience
var (
	// Unwrap unwraps an error to access the underlying error
	Unwrap = errors.Unwrap
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	InvalidConfig
	ExtractionFailed
	TokenizationFailed
	MoveFailed
	ReportWriteFailed
)

// String returns the taxonomy name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case InvalidConfig:
		return "ConfigurationError"
	case ExtractionFailed:
		return "ExtractionError"
	case TokenizationFailed:
		return "TokenizationError"
	case MoveFailed:
		return "MoveError"
	case ReportWriteFailed:
		return "ReportWriteError"
	default:
		return "Error"
	}
}

// Reason narrows down why an operation failed.
type Reason string

const (
	// Extraction reasons
	Malformed  Reason = "malformed"
	Unreadable Reason = "unreadable"
	Empty      Reason = "empty"

	// Tokenization reasons
	TokenizerFailure Reason = "tokenizerFailure"

	// Move reasons
	SourceMissing         Reason = "sourceMissing"
	DestinationUnwritable Reason = "destinationUnwritable"
	IOError               Reason = "ioError"

	// Report reasons
	Unwritable Reason = "unwritable"

	// Configuration reasons
	SourceInvalid      Reason = "sourceInvalid"
	DestinationInvalid Reason = "destinationInvalid"
	ThresholdInvalid   Reason = "thresholdInvalid"
	SettingInvalid     Reason = "settingInvalid"
)

// Common error constants for frequently occurring errors
var (
	ErrInvalidConfig = NewConfigError("invalid configuration", "", SettingInvalid, nil)
)

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// FileError is the shared shape of every error tied to a file path and a reason.
type FileError struct {
	ApplicationError
	path   string
	reason Reason
}

func newFileError(kind ErrorKind, msg, path string, reason Reason, err error) FileError {
	return FileError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path:   path,
		reason: reason,
	}
}

// Error returns the file error message
func (e *FileError) Error() string {
	if e.path != "" {
		if e.err != nil {
			return fmt.Sprintf("%s (%s): %s: %v", e.msg, e.reason, e.path, e.err)
		}
		return fmt.Sprintf("%s (%s): %s", e.msg, e.reason, e.path)
	}
	if e.err != nil {
		return fmt.Sprintf("%s (%s): %v", e.msg, e.reason, e.err)
	}
	return fmt.Sprintf("%s (%s)", e.msg, e.reason)
}

// Path returns the file path associated with the error
func (e *FileError) Path() string {
	return e.path
}

// Reason returns why the operation failed
func (e *FileError) Reason() Reason {
	return e.reason
}

// ExtractionError reports that an EPUB container could not yield text.
type ExtractionError struct {
	FileError
}

// NewExtractionError creates a new extraction error
func NewExtractionError(path string, reason Reason, err error) *ExtractionError {
	return &ExtractionError{newFileError(ExtractionFailed, "extraction failed", path, reason, err)}
}

// TokenizationError reports that the tokenizer failed on the extracted text.
type TokenizationError struct {
	FileError
}

// NewTokenizationError creates a new tokenization error
func NewTokenizationError(path string, err error) *TokenizationError {
	return &TokenizationError{newFileError(TokenizationFailed, "tokenization failed", path, TokenizerFailure, err)}
}

// MoveError reports that a file could not be relocated.
type MoveError struct {
	FileError
}

// NewMoveError creates a new move error
func NewMoveError(path string, reason Reason, err error) *MoveError {
	return &MoveError{newFileError(MoveFailed, "move failed", path, reason, err)}
}

// ReportWriteError reports that the run report could not be written.
type ReportWriteError struct {
	FileError
}

// NewReportWriteError creates a new report write error
func NewReportWriteError(path string, reason Reason, err error) *ReportWriteError {
	return &ReportWriteError{newFileError(ReportWriteFailed, "report write failed", path, reason, err)}
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param  string
	reason Reason
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, reason Reason, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: InvalidConfig,
		},
		param:  param,
		reason: reason,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// Reason returns why the configuration was rejected
func (e *ConfigError) Reason() Reason {
	return e.reason
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

// IsConfiguration checks if the error is a configuration error
func IsConfiguration(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsExtraction checks if the error is an extraction error
func IsExtraction(err error) bool {
	var extractErr *ExtractionError
	return errors.As(err, &extractErr)
}

// IsTokenization checks if the error is a tokenization error
func IsTokenization(err error) bool {
	var tokErr *TokenizationError
	return errors.As(err, &tokErr)
}

// IsMove checks if the error is a move error
func IsMove(err error) bool {
	var moveErr *MoveError
	return errors.As(err, &moveErr)
}

// IsReportWrite checks if the error is a report write error
func IsReportWrite(err error) bool {
	var reportErr *ReportWriteError
	return errors.As(err, &reportErr)
}

// ReasonOf returns the reason carried by the first typed error in err's
// chain, or "" if there is none.
func ReasonOf(err error) Reason {
	var (
		extractErr *ExtractionError
		tokErr     *TokenizationError
		moveErr    *MoveError
		reportErr  *ReportWriteError
		configErr  *ConfigError
	)
	switch {
	case errors.As(err, &extractErr):
		return extractErr.Reason()
	case errors.As(err, &tokErr):
		return tokErr.Reason()
	case errors.As(err, &moveErr):
		return moveErr.Reason()
	case errors.As(err, &reportErr):
		return reportErr.Reason()
	case errors.As(err, &configErr):
		return configErr.Reason()
	}
	return ""
}

// KindOf returns the kind of the first application error in err's chain.
func KindOf(err error) ErrorKind {
	var (
		fileErr   interface{ Kind() ErrorKind }
		configErr *ConfigError
	)
	if errors.As(err, &configErr) {
		return InvalidConfig
	}
	if errors.As(err, &fileErr) {
		return fileErr.Kind()
	}
	return Unknown
}
