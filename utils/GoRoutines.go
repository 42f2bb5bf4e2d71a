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

package utils

import (
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// noPanicFunc
// turns panic into an error
type noPanicFunc func()

// run
// runs and recovers function
func (f noPanicFunc) run(name string) {
	defer internalRecover(name)
	f()
}

// SafeAsync
// suppress panics within goroutine
func SafeAsync(function noPanicFunc) {
	go function.run(EmptyTaskName)
}

// SafeAsyncNamed
// suppress panics within goroutine, report the task name on recovery
func SafeAsyncNamed(name string, function noPanicFunc) {
	go function.run(name)
}

// SafeRun
// suppress panics
func SafeRun(function noPanicFunc) {
	function.run(EmptyTaskName)
}

const EmptyTaskName = ""

// internalRecover
// panic recovery
func internalRecover(name string) {
	if err := recover(); err != nil {
		if name == EmptyTaskName {
			log.Errorf("background task failed with panic: %v", err)
		} else {
			log.Errorf("background task '%s' failed with panic: %v", name, err)
		}
		log.Tracef("Stacktrace: %v", string(debug.Stack()))
		debug.PrintStack()
		return
	}
}
