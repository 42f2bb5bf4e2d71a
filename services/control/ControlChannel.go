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

// Package control is the client side of the dataplane control channel. The
// channel syntax belongs to the dataplane; the harness only issues opaque
// CLI strings through it.
package control

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Netcracker/qubership-dataplane-test-harness/exception"
	"github.com/Netcracker/qubership-dataplane-test-harness/view"
	log "github.com/sirupsen/logrus"
	"gopkg.in/resty.v1"
)

// CliExecutor
// the minimal control surface the capture ledger needs
type CliExecutor interface {
	ExecuteCli(command string) (string, error)
}

// ControlChannel
// single-owner, single-connection client to the dataplane control endpoint
type ControlChannel interface {
	CliExecutor
	Connect() error
	Disconnect() error
	Connected() bool
}

// cliRequest a CLI command envelope
type cliRequest struct {
	Command string `json:"command"`
}

// cliReply a CLI command result envelope
type cliReply struct {
	Reply string `json:"reply"`
}

type restyChannel struct {
	baseUrl   string
	apiKey    string
	connected bool
}

// NewControlChannel
// creates a client for the dataplane CLI endpoint at baseUrl
func NewControlChannel(baseUrl, apiKey string) ControlChannel {
	return &restyChannel{baseUrl: baseUrl, apiKey: apiKey}
}

// makeRequest
// builds a request the way the agent builds its node requests
func (c *restyChannel) makeRequest() *resty.Request {
	cl := http.Client{Timeout: time.Second * 60}
	req := resty.NewWithClient(&cl).R()
	if c.apiKey != view.EmptyString {
		req.SetHeader(view.ApiKeyHeader, c.apiKey)
	}
	return req
}

// Connect
// verifies the dataplane control endpoint responds
func (c *restyChannel) Connect() error {
	resp, err := c.makeRequest().Get(c.baseUrl + "/live")
	if err != nil {
		return &exception.ControlChannelError{Op: "connect", Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return &exception.ControlChannelError{
			Op:  "connect",
			Err: fmt.Errorf("improper status '%d' from '%s'", resp.StatusCode(), c.baseUrl),
		}
	}
	c.connected = true
	log.Debugf("control channel connected to %s", c.baseUrl)
	return nil
}

// Disconnect
// drops the logical connection; safe to call when not connected
func (c *restyChannel) Disconnect() error {
	if !c.connected {
		return nil
	}
	c.connected = false
	log.Debugf("control channel disconnected from %s", c.baseUrl)
	return nil
}

func (c *restyChannel) Connected() bool {
	return c.connected
}

// ExecuteCli
// sends one opaque CLI string and returns the dataplane's reply
func (c *restyChannel) ExecuteCli(command string) (string, error) {
	if !c.connected {
		return view.EmptyString, &exception.ControlChannelError{
			Op:  "cli",
			Err: fmt.Errorf("not connected"),
		}
	}
	body, err := json.Marshal(cliRequest{Command: command})
	if err != nil {
		return view.EmptyString, &exception.ControlChannelError{Op: "cli", Err: err}
	}
	req := c.makeRequest()
	req.SetHeader("Content-Type", "application/json")
	req.SetBody(body)
	resp, err := req.Post(c.baseUrl + "/cli")
	if err != nil {
		return view.EmptyString, &exception.ControlChannelError{Op: "cli", Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return view.EmptyString, &exception.ControlChannelError{
			Op:  "cli",
			Err: fmt.Errorf("improper status '%d' for command '%s'", resp.StatusCode(), command),
		}
	}
	var reply cliReply
	if err := json.Unmarshal(resp.Body(), &reply); err != nil {
		// some dataplane builds answer with plain text
		return string(resp.Body()), nil
	}
	return reply.Reply, nil
}
