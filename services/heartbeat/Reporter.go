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

// Package heartbeat reports test liveness to a parent coordinator so it can
// tell a slow test from a stuck one.
package heartbeat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Netcracker/qubership-dataplane-test-harness/entities"
	"github.com/Netcracker/qubership-dataplane-test-harness/view"
	log "github.com/sirupsen/logrus"
	"gopkg.in/resty.v1"
)

// Sink
// outbound transport for heartbeat tuples
type Sink interface {
	Send(hb entities.Heartbeat) error
}

// Reporter
// one instance per harness process. The sink is fixed at construction;
// a nil sink makes every Report a no-op (not running under a coordinator).
type Reporter struct {
	sink Sink
}

func NewReporter(sink Sink) *Reporter {
	return &Reporter{sink: sink}
}

// Report
// sends one heartbeat; called at class setup start and at the start of
// every individual test. Send failures are logged, never fatal.
func (r *Reporter) Report(description, binaryPath, workDir string, pid int) {
	if r.sink == nil {
		return
	}
	hb := entities.Heartbeat{
		Description: description,
		BinaryPath:  binaryPath,
		WorkDir:     workDir,
		Pid:         pid,
	}
	if err := r.sink.Send(hb); err != nil {
		log.Warnf("unable to send heartbeat for '%s': %v", description, err)
	}
}

// ChannelSink
// in-process coordinator attached over a channel
type ChannelSink struct {
	ch      chan<- entities.Heartbeat
	timeOut time.Duration
}

func NewChannelSink(ch chan<- entities.Heartbeat) *ChannelSink {
	return &ChannelSink{ch: ch, timeOut: time.Second * 5}
}

// Send
// "lock-free" channel messaging, gives up after the timeout
func (s *ChannelSink) Send(hb entities.Heartbeat) error {
	select {
	case s.ch <- hb:
		return nil
	case <-time.After(s.timeOut):
		return fmt.Errorf("timeout to report heartbeat for '%s'", hb.Description)
	}
}

// HttpSink
// coordinator attached over HTTP
type HttpSink struct {
	url    string
	apiKey string
}

func NewHttpSink(url, apiKey string) *HttpSink {
	return &HttpSink{url: url, apiKey: apiKey}
}

// Send
// posts the heartbeat tuple to the coordinator endpoint
func (s *HttpSink) Send(hb entities.Heartbeat) error {
	cl := http.Client{Timeout: time.Second * 10}
	req := resty.NewWithClient(&cl).R()
	if s.apiKey != view.EmptyString {
		req.SetHeader(view.ApiKeyHeader, s.apiKey)
	}
	body, err := json.Marshal(hb)
	if err != nil {
		return err
	}
	req.SetHeader("Content-Type", "application/json")
	req.SetBody(body)
	resp, err := req.Post(s.url)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		return fmt.Errorf("improper status '%d' from coordinator at '%s'", resp.StatusCode(), s.url)
	}
	return nil
}
