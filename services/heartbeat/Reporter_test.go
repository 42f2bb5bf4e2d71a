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

package heartbeat

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Netcracker/qubership-dataplane-test-harness/entities"
	"github.com/Netcracker/qubership-dataplane-test-harness/view"
	"github.com/stretchr/testify/assert"
)

func TestReporterNilSink(t *testing.T) {
	r := NewReporter(nil)
	// not running under a coordinator, reporting is a no-op
	r.Report("test one", "/usr/bin/dataplane", "/tmp/work", 1234)
}

func TestReporterChannelSink(t *testing.T) {
	ch := make(chan entities.Heartbeat, 1)
	r := NewReporter(NewChannelSink(ch))
	r.Report("test two", "/usr/bin/dataplane", "/tmp/work", 4321)
	select {
	case hb := <-ch:
		assert.Equal(t, "test two", hb.Description)
		assert.Equal(t, "/usr/bin/dataplane", hb.BinaryPath)
		assert.Equal(t, "/tmp/work", hb.WorkDir)
		assert.Equal(t, 4321, hb.Pid)
	case <-time.After(time.Second):
		assert.Fail(t, "heartbeat never arrived")
	}
}

func TestChannelSinkTimeout(t *testing.T) {
	ch := make(chan entities.Heartbeat) // nobody reads
	sink := NewChannelSink(ch)
	sink.timeOut = 50 * time.Millisecond
	err := sink.Send(entities.Heartbeat{Description: "stuck"})
	assert.Error(t, err)
}

func TestHttpSink(t *testing.T) {
	var received entities.Heartbeat
	var gotApiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotApiKey = r.Header.Get(view.ApiKeyHeader)
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sink := NewHttpSink(srv.URL, "secret")
	err := sink.Send(entities.Heartbeat{
		Description: "test three",
		BinaryPath:  "/usr/bin/dataplane",
		WorkDir:     "/tmp/work",
		Pid:         7,
	})
	assert.NoError(t, err)
	assert.Equal(t, "secret", gotApiKey)
	assert.Equal(t, "test three", received.Description)
	assert.Equal(t, 7, received.Pid)
}

func TestHttpSinkBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewHttpSink(srv.URL, "")
	err := sink.Send(entities.Heartbeat{Description: "rejected"})
	assert.Error(t, err)
}
