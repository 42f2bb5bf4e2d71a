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

// Package liveness detects supervised process death around every control
// channel request.
package liveness

import (
	"bufio"
	"io"
	"os"

	"github.com/Netcracker/qubership-dataplane-test-harness/exception"
	"github.com/Netcracker/qubership-dataplane-test-harness/view"
	log "github.com/sirupsen/logrus"
)

// ProcessProber
// the non-blocking view of the supervised process the hooks poll.
// MarkDead flips the dead flag and reports whether this call was the first,
// so a death is surfaced exactly once.
type ProcessProber interface {
	ExitStatus() (int, bool)
	MarkDead() bool
	Dead() bool
	OutputTail(n int) []string
}

// Hook
// one operation: report ok or raise ProcessDiedError
type Hook interface {
	Check() error
}

// PollHook
// non-interactive death check, invoked automatically around dataplane
// mutating operations
type PollHook struct {
	proc ProcessProber
}

func NewPollHook(proc ProcessProber) *PollHook {
	return &PollHook{proc: proc}
}

// Check
// polls the process exit status. Raises ProcessDiedError for a fresh death;
// an already-registered death short-circuits without raising again.
func (h *PollHook) Check() error {
	if h.proc.Dead() {
		return nil
	}
	if code, exited := h.proc.ExitStatus(); exited {
		if h.proc.MarkDead() {
			return &exception.ProcessDiedError{
				ExitCode:   code,
				OutputTail: h.proc.OutputTail(view.OutputTailLines),
			}
		}
	}
	return nil
}

// StepHook
// interactive variant: same death check, but waits for operator
// confirmation before proceeding. Never used in automated runs.
type StepHook struct {
	poll   *PollHook
	input  *bufio.Reader
	output io.Writer
}

// NewStepHook
// in defaults to stdin when nil
func NewStepHook(proc ProcessProber, in io.Reader) *StepHook {
	if in == nil {
		in = os.Stdin
	}
	return &StepHook{
		poll:   NewPollHook(proc),
		input:  bufio.NewReader(in),
		output: os.Stdout,
	}
}

// Check
// pauses for operator input, then performs the poll check
func (h *StepHook) Check() error {
	_, _ = io.WriteString(h.output, "Press ENTER to continue running the testcase...\n")
	if _, err := h.input.ReadString('\n'); err != nil {
		log.Debugf("step hook input finished: %v", err)
	}
	return h.poll.Check()
}
