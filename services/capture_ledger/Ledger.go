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

// Package capture_ledger tracks named packet-generator captures and delays
// their deletion: removing a capture before it has aged past the TTL
// destabilizes the dataplane generator, so latency is traded for safety.
package capture_ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/Netcracker/qubership-dataplane-test-harness/entities"
	"github.com/Netcracker/qubership-dataplane-test-harness/services/control"
	"github.com/Netcracker/qubership-dataplane-test-harness/view"
	log "github.com/sirupsen/logrus"
)

// Ledger
// active set holds captures of the current round, zombie set the previous
// round's captures awaiting TTL expiry
type Ledger struct {
	lock    sync.Mutex
	cli     control.CliExecutor
	ttl     time.Duration
	active  []entities.Capture
	zombies []entities.Capture
	clock   func() time.Time
	sleep   func(d time.Duration)
}

// NewLedger
// ttl values below zero fall back to the default
func NewLedger(cli control.CliExecutor, ttl time.Duration) *Ledger {
	if ttl < 0 {
		ttl = view.DefaultCaptureTTL
	}
	return &Ledger{
		cli:   cli,
		ttl:   ttl,
		clock: time.Now,
		sleep: time.Sleep,
	}
}

// Register
// records a capture in the active set; a re-registered name leaves the
// zombie set early, its TTL no longer applies
func (l *Ledger) Register(name string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.active = append(l.active, entities.Capture{Name: name, CreatedAt: l.clock()})
	remaining := l.zombies[:0]
	for _, z := range l.zombies {
		if z.Name != name {
			remaining = append(remaining, z)
		}
	}
	l.zombies = remaining
}

// RetireAndStart
// deletes every zombie capture no earlier than CreatedAt+TTL (sleeping out
// the remainder), arms packet tracing, enables the generator, and rotates
// the active set into the zombie set
func (l *Ledger) RetireAndStart() error {
	l.lock.Lock()
	defer l.lock.Unlock()
	now := l.clock()
	for len(l.zombies) > 0 {
		z := l.zombies[0]
		wait := z.CreatedAt.Add(l.ttl).Sub(now)
		if wait > 0 {
			log.Debugf("sleeping %s before deleting capture %s", wait, z.Name)
			l.sleep(wait)
			now = l.clock()
		}
		log.Debugf("removing zombie capture %s", z.Name)
		if _, err := l.cli.ExecuteCli("packet-generator delete " + z.Name); err != nil {
			// only the undeleted zombies stay for the next round
			return err
		}
		l.zombies = l.zombies[1:]
	}
	if _, err := l.cli.ExecuteCli(fmt.Sprintf("trace add pg-input %d", view.TraceDepth)); err != nil {
		return err
	}
	if _, err := l.cli.ExecuteCli("packet-generator enable"); err != nil {
		return err
	}
	l.zombies = l.active
	l.active = nil
	return nil
}

// ActiveNames
// names in the current round, oldest first
func (l *Ledger) ActiveNames() []string {
	l.lock.Lock()
	defer l.lock.Unlock()
	names := make([]string, 0, len(l.active))
	for _, c := range l.active {
		names = append(names, c.Name)
	}
	return names
}

// ZombieNames
// names awaiting retirement
func (l *Ledger) ZombieNames() []string {
	l.lock.Lock()
	defer l.lock.Unlock()
	names := make([]string, 0, len(l.zombies))
	for _, c := range l.zombies {
		names = append(names, c.Name)
	}
	return names
}
