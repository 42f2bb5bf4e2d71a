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

import "time"

const (
	EmptyString  = ""
	GzipSuffix   = ".gz"
	ApiKeyHeader = "api-key"
	// PumpChunkSize a single read size for the output pump
	PumpChunkSize = 100 * 1024
	// DefaultCaptureTTL minimum capture age before a generator capture may be deleted.
	// Deleting earlier corrupts the dataplane generator state.
	DefaultCaptureTTL = 100 * time.Millisecond
	// DefaultReapTimeout an upper bound for the final process reap on teardown
	DefaultReapTimeout = 10 * time.Second
	// DefaultStartupGrace a pause between spawn and the initial liveness poll
	DefaultStartupGrace = 100 * time.Millisecond
	// StdoutFileName flushed stdout buffer artifact inside the work directory
	StdoutFileName = "dataplane_stdout.txt"
	// StderrFileName flushed stderr buffer artifact inside the work directory
	StderrFileName = "dataplane_stderr.txt"
	// TraceDepth packet trace depth armed before the generator starts (dataplane maximum)
	TraceDepth = 50
	// OutputTailLines how many recent output lines travel with a death report
	OutputTailLines = 10
	// ArrayJoinSeparator a separator to use with strings.Join
	ArrayJoinSeparator = ","
)
