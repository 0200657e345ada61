// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shared

import (
	"errors"
	"fmt"
	"io"
	"os"

	callouterrors "github.com/tombee/callout/pkg/errors"
)

// Exit codes for callout commands
const (
	ExitSuccess        = 0
	ExitDispatchFailed = 1
	ExitInvalidInput   = 2
	ExitConfigError    = 3
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewDispatchFailedError reports a dispatch whose outcome was a failure.
func NewDispatchFailedError(msg string) *ExitError {
	return &ExitError{
		Code:    ExitDispatchFailed,
		Message: msg,
	}
}

// NewInvalidInputError creates an error for bad flags or step files
func NewInvalidInputError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitInvalidInput,
		Message: msg,
		Cause:   cause,
	}
}

// NewConfigError creates an error for configuration problems
func NewConfigError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitConfigError,
		Message: msg,
		Cause:   cause,
	}
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var cfgErr *callouterrors.ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}
	var valErr *callouterrors.ValidationError
	if errors.As(err, &valErr) {
		return ExitInvalidInput
	}
	return ExitDispatchFailed
}

// PrintError writes err and any user-facing suggestion to w.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintln(w, "Error:", msg)
	}
	if uv, ok := callouterrors.AsUserVisible(err); ok {
		if suggestion := uv.Suggestion(); suggestion != "" {
			fmt.Fprintf(w, "\nSuggestion: %s\n", suggestion)
		}
	}
}

// HandleExitError prints err to stderr and exits with its exit code.
func HandleExitError(err error) {
	if err == nil {
		return
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Message != "" {
		PrintError(os.Stderr, err)
	}
	os.Exit(ExitCode(err))
}
