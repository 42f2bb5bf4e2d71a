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

package entities

import (
	"encoding/json"
	"time"
)

// Capture
// a named packet-generator capture and its registration time
type Capture struct {
	Name      string
	CreatedAt time.Time
}

// RunRecord
// persisted description of one capture's artifacts within a harness run
type RunRecord struct {
	CaptureName string    `json:"capture_name"`
	InstanceId  string    `json:"instance_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Files       []string  `json:"files,omitempty"`
	Packets     int       `json:"packets,omitempty"`
}

// UnmarshallRunRecord
// converts bytes into RunRecord value
func UnmarshallRunRecord(record *RunRecord, bytes []byte) error {
	return json.Unmarshal(bytes, record)
}
