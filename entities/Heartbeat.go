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

// Heartbeat
// liveness report a harness sends to its parent coordinator.
// A test that stops reporting is presumed stuck.
type Heartbeat struct {
	Description string `json:"description"`
	BinaryPath  string `json:"binary_path"`
	WorkDir     string `json:"work_dir"`
	Pid         int    `json:"pid"`
}
