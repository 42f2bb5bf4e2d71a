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

package liveness

import (
	"strings"
	"testing"

	"github.com/Netcracker/qubership-dataplane-test-harness/exception"
	"github.com/stretchr/testify/assert"
)

type fakeProber struct {
	exitCode int
	exited   bool
	dead     bool
	tail     []string
}

func (p *fakeProber) ExitStatus() (int, bool) {
	return p.exitCode, p.exited
}

func (p *fakeProber) MarkDead() bool {
	if p.dead {
		return false
	}
	p.dead = true
	return true
}

func (p *fakeProber) Dead() bool {
	return p.dead
}

func (p *fakeProber) OutputTail(n int) []string {
	if n > len(p.tail) {
		n = len(p.tail)
	}
	return p.tail[len(p.tail)-n:]
}

func TestPollHookAliveProcess(t *testing.T) {
	hook := NewPollHook(&fakeProber{})
	assert.NoError(t, hook.Check())
	assert.NoError(t, hook.Check())
}

func TestPollHookRaisesDeathOnce(t *testing.T) {
	proc := &fakeProber{exitCode: 134, exited: true, tail: []string{"assertion failed\n"}}
	hook := NewPollHook(proc)

	err := hook.Check()
	assert.Error(t, err)
	var died *exception.ProcessDiedError
	assert.ErrorAs(t, err, &died)
	assert.Equal(t, 134, died.ExitCode)
	assert.Equal(t, []string{"assertion failed\n"}, died.OutputTail)

	// a registered death short-circuits, no second report
	assert.NoError(t, hook.Check())
	assert.True(t, proc.Dead())
}

func TestStepHookWaitsThenPolls(t *testing.T) {
	proc := &fakeProber{exitCode: 1, exited: true}
	hook := NewStepHook(proc, strings.NewReader("\n\n"))

	err := hook.Check()
	assert.Error(t, err)
	var died *exception.ProcessDiedError
	assert.ErrorAs(t, err, &died)
	assert.Equal(t, 1, died.ExitCode)
	assert.NoError(t, hook.Check())
}

func TestStepHookDefaultsInput(t *testing.T) {
	proc := &fakeProber{}
	hook := NewStepHook(proc, strings.NewReader("\n"))
	assert.NoError(t, hook.Check())
}
