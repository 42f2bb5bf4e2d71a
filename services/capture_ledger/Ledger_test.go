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

package capture_ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingExecutor struct {
	commands []string
	failOn   string
}

func (e *recordingExecutor) ExecuteCli(command string) (string, error) {
	e.commands = append(e.commands, command)
	if e.failOn != "" && command == e.failOn {
		return "", fmt.Errorf("simulated failure for '%s'", command)
	}
	return "", nil
}

// testClock a manual clock whose sleep advances time instead of waiting
type testClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *testClock) clock() time.Time {
	return c.now
}

func (c *testClock) sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func newTestLedger(cli *recordingExecutor, ttl time.Duration) (*Ledger, *testClock) {
	tc := &testClock{now: time.Unix(1000, 0)}
	l := NewLedger(cli, ttl)
	l.clock = tc.clock
	l.sleep = tc.sleep
	return l, tc
}

func TestLedgerFirstRoundHasNoZombies(t *testing.T) {
	cli := &recordingExecutor{}
	l, tc := newTestLedger(cli, 100*time.Millisecond)

	l.Register("pcap1")
	l.Register("pcap2")
	assert.Equal(t, []string{"pcap1", "pcap2"}, l.ActiveNames())
	assert.Empty(t, l.ZombieNames())

	assert.NoError(t, l.RetireAndStart())
	// no deletes in the first round, only arm and start
	assert.Equal(t, []string{"trace add pg-input 50", "packet-generator enable"}, cli.commands)
	assert.Empty(t, tc.sleeps)
	assert.Empty(t, l.ActiveNames())
	assert.Equal(t, []string{"pcap1", "pcap2"}, l.ZombieNames())
}

func TestLedgerDeleteNeverBeforeTTL(t *testing.T) {
	cli := &recordingExecutor{}
	ttl := 100 * time.Millisecond
	l, tc := newTestLedger(cli, ttl)

	l.Register("pcap1")
	created := tc.now
	assert.NoError(t, l.RetireAndStart())
	cli.commands = nil

	// second round arrives 50ms later, the zombie is only half-aged
	tc.now = created.Add(50 * time.Millisecond)
	l.Register("pcap1")
	assert.Empty(t, l.ZombieNames()) // re-registration reclaims the zombie

	l.Register("pcap2")
	assert.NoError(t, l.RetireAndStart())
	cli.commands = nil

	tc.now = tc.now.Add(30 * time.Millisecond)
	assert.NoError(t, l.RetireAndStart())
	// both deletes happened, each no earlier than CreatedAt+ttl
	assert.Contains(t, cli.commands, "packet-generator delete pcap1")
	assert.Contains(t, cli.commands, "packet-generator delete pcap2")
	assert.NotEmpty(t, tc.sleeps)
	for _, d := range tc.sleeps {
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, ttl)
	}
}

func TestLedgerNoSleepForAgedZombies(t *testing.T) {
	cli := &recordingExecutor{}
	l, tc := newTestLedger(cli, 100*time.Millisecond)

	l.Register("pcap1")
	assert.NoError(t, l.RetireAndStart())
	cli.commands = nil

	// far past the TTL, deletion proceeds without sleeping
	tc.now = tc.now.Add(time.Second)
	assert.NoError(t, l.RetireAndStart())
	assert.Equal(t, []string{
		"packet-generator delete pcap1",
		"trace add pg-input 50",
		"packet-generator enable",
	}, cli.commands)
	assert.Empty(t, tc.sleeps)
}

func TestLedgerPropagatesCliFailure(t *testing.T) {
	cli := &recordingExecutor{failOn: "packet-generator delete pcap1"}
	l, tc := newTestLedger(cli, 0)

	l.Register("pcap1")
	assert.NoError(t, l.RetireAndStart())
	tc.now = tc.now.Add(time.Second)
	assert.Error(t, l.RetireAndStart())
}

type flakyExecutor struct {
	commands []string
	failures map[string]int
}

func (e *flakyExecutor) ExecuteCli(command string) (string, error) {
	e.commands = append(e.commands, command)
	if e.failures[command] > 0 {
		e.failures[command]--
		return "", fmt.Errorf("simulated failure for '%s'", command)
	}
	return "", nil
}

func countOf(commands []string, wanted string) int {
	count := 0
	for _, c := range commands {
		if c == wanted {
			count++
		}
	}
	return count
}

func TestLedgerFailedDeleteKeepsOnlyUndeletedZombies(t *testing.T) {
	cli := &flakyExecutor{failures: map[string]int{"packet-generator delete pcap2": 1}}
	tc := &testClock{now: time.Unix(1000, 0)}
	l := NewLedger(cli, 0)
	l.clock = tc.clock
	l.sleep = tc.sleep

	l.Register("pcap1")
	l.Register("pcap2")
	assert.NoError(t, l.RetireAndStart())

	tc.now = tc.now.Add(time.Second)
	assert.Error(t, l.RetireAndStart())
	// pcap1 was deleted and must not be re-issued on retry
	assert.Equal(t, []string{"pcap2"}, l.ZombieNames())

	assert.NoError(t, l.RetireAndStart())
	assert.Equal(t, 1, countOf(cli.commands, "packet-generator delete pcap1"))
	assert.Equal(t, 2, countOf(cli.commands, "packet-generator delete pcap2"))
	assert.Empty(t, l.ZombieNames())
}

func TestLedgerDefaultTTL(t *testing.T) {
	l := NewLedger(&recordingExecutor{}, -1)
	assert.Equal(t, 100*time.Millisecond, l.ttl)
}
