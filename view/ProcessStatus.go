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

package view

type RequestStatus string
type ProcessState int

// Supervised process state storage type constants
const (
	ProcStateNone ProcessState = iota
	ProcStateStarting
	ProcStateRunning
	ProcStateDead
	ProcStateStopped
	ProcStateStartupFailed
)

// Status constant values
const (
	RequestStatusNone          RequestStatus = "NONE"
	RequestStatusStarting      RequestStatus = "STARTING"
	RequestStatusRunning       RequestStatus = "RUNNING"
	RequestStatusDead          RequestStatus = "DEAD"
	RequestStatusStopped       RequestStatus = "STOPPED"
	RequestStatusStartupFailed RequestStatus = "STARTUP_FAILED"
)

// HarnessStatus a process status report for the HTTP surface
type HarnessStatus struct {
	Status   RequestStatus `json:"status,omitempty"`
	Pid      int           `json:"pid,omitempty"`
	WorkDir  string        `json:"work_dir,omitempty"`
	ExitCode *int          `json:"exit_code,omitempty"`
}

// ProcStateToReqStatus
// converts int status to text
func ProcStateToReqStatus(state ProcessState) RequestStatus {
	switch state {
	case ProcStateStarting:
		return RequestStatusStarting
	case ProcStateRunning:
		return RequestStatusRunning
	case ProcStateDead:
		return RequestStatusDead
	case ProcStateStopped:
		return RequestStatusStopped
	case ProcStateStartupFailed:
		return RequestStatusStartupFailed
	default:
		break
	}
	return RequestStatusNone
}
