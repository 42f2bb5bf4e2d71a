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

package exception

const EmptyParameter = "8"
const EmptyParameterMsg = "Parameter $param should not be empty"

const BadRequestBody = "10"
const BadRequestBodyMsg = "Failed to decode body"

const ApiKeyNotFound = "83"
const ApiKeyNotFoundMsg = "Api key for user $user and integration $integration not found"

// UnableToSpawnProcess supervision codes and messages
const UnableToSpawnProcess = "30000"
const UnableToSpawnProcessMsg = "unable to spawn dataplane process"
const ProcessNotRunning = "30001"
const ProcessNotRunningMsg = "dataplane process is not running"
const UnableToReadOutput = "30002"
const UnableToReadOutputMsg = "unable to read dataplane output"
const UnableToExecuteCli = "30003"
const UnableToExecuteCliMsg = "unable to execute dataplane CLI command"
