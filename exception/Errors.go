// Copyright 2024-2025 NetCracker Technology Corporation
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

package exception

import (
	"fmt"
	"strings"
)

// CustomError
// an error with HTTP status and error code, rendered by controllers
type CustomError struct {
	Status  int                    `json:"status"`
	Code    string                 `json:"code,omitempty"`
	Message string                 `json:"message"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Debug   string                 `json:"debug,omitempty"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("code=%s, message=%s, debug=%s", e.Code, e.Message, e.Debug)
}

// SpawnError
// the dataplane binary is missing or not executable, fatal for class setup
type SpawnError struct {
	Binary string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("unable to spawn dataplane binary '%s': %v", e.Binary, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ProcessDiedError
// the supervised process exited while the harness expected it alive.
// Raised at most once per death, carries the exit code and a recent output tail.
type ProcessDiedError struct {
	ExitCode   int
	OutputTail []string
}

func (e *ProcessDiedError) Error() string {
	if len(e.OutputTail) == 0 {
		return fmt.Sprintf("dataplane process died, exit code %d", e.ExitCode)
	}
	return fmt.Sprintf("dataplane process died, exit code %d, recent output:\n%s",
		e.ExitCode, strings.Join(e.OutputTail, ""))
}

// MalformedDescriptorError
// a captured payload did not decode into a packet descriptor.
// A test failure, not a harness failure.
type MalformedDescriptorError struct {
	Payload string
	Reason  string
}

func (e *MalformedDescriptorError) Error() string {
	return fmt.Sprintf("malformed packet descriptor payload %q: %s", e.Payload, e.Reason)
}

// ControlChannelError
// connect or request failure on the dataplane control channel
type ControlChannelError struct {
	Op  string
	Err error
}

func (e *ControlChannelError) Error() string {
	return fmt.Sprintf("control channel %s failed: %v", e.Op, e.Err)
}

func (e *ControlChannelError) Unwrap() error {
	return e.Err
}
