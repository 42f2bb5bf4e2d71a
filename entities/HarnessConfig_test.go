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
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDebugMode(t *testing.T) {
	mode, err := parseDebugMode("")
	assert.NoError(t, err)
	assert.Equal(t, DebugNone, mode)
	mode, err = parseDebugMode("core")
	assert.NoError(t, err)
	assert.Equal(t, DebugCore, mode)
	mode, err = parseDebugMode("GDB")
	assert.NoError(t, err)
	assert.Equal(t, DebugGdb, mode)
	mode, err = parseDebugMode("gdbserver")
	assert.NoError(t, err)
	assert.Equal(t, DebugGdbserver, mode)
	_, err = parseDebugMode("attach")
	assert.Error(t, err)
}

func TestBuildCommandLine(t *testing.T) {
	cfg := &HarnessConfig{
		DataplaneBin: "/usr/bin/dataplane",
		ShmPrefix:    "harness1",
		MainCore:     2,
	}
	cmdline := cfg.BuildCommandLine()
	assert.Equal(t, "/usr/bin/dataplane", cmdline[0])
	joined := strings.Join(cmdline, " ")
	assert.Contains(t, joined, "unix { nodaemon full-coredump coredump-size unlimited }")
	assert.Contains(t, joined, "api-trace { on }")
	assert.Contains(t, joined, "api-segment { prefix harness1 }")
	assert.Contains(t, joined, "cpu { main-core 2 }")
	assert.Contains(t, joined, "plugin dpdk_plugin.so { disable }")
	assert.Contains(t, joined, "plugin unittest_plugin.so { enable }")
	assert.NotContains(t, joined, "cli-listen")
	assert.NotContains(t, joined, "plugin_path")
}

func TestBuildCommandLineStepArmsDebugCli(t *testing.T) {
	cfg := &HarnessConfig{DataplaneBin: "dp", Step: true}
	joined := strings.Join(cfg.BuildCommandLine(), " ")
	assert.Contains(t, joined, DebugCliListen)
}

func TestBuildCommandLineCoredumpSize(t *testing.T) {
	cfg := &HarnessConfig{DataplaneBin: "dp", CoredumpSize: "128M"}
	joined := strings.Join(cfg.BuildCommandLine(), " ")
	assert.Contains(t, joined, "coredump-size 128M")
	assert.NotContains(t, joined, "coredump-size unlimited")
}

func TestBuildCommandLinePluginPath(t *testing.T) {
	cfg := &HarnessConfig{
		DataplaneBin:     "dp",
		PluginPath:       "/usr/lib/dataplane_plugins",
		ExternPluginPath: "/opt/extra_plugins",
	}
	joined := strings.Join(cfg.BuildCommandLine(), " ")
	assert.Contains(t, joined, "plugin_path /usr/lib/dataplane_plugins:/opt/extra_plugins")

	cfg.ExternPluginPath = ""
	joined = strings.Join(cfg.BuildCommandLine(), " ")
	assert.Contains(t, joined, "plugin_path /usr/lib/dataplane_plugins")
}

func TestBuildCommandLineGdbserver(t *testing.T) {
	cfg := &HarnessConfig{DataplaneBin: "dp", Debug: DebugGdbserver}
	cmdline := cfg.BuildCommandLine()
	assert.Equal(t, GdbServerBin, cmdline[0])
	assert.Equal(t, GdbServerAddr, cmdline[1])
	assert.Equal(t, "dp", cmdline[2])
	assert.Contains(t, strings.Join(cmdline, " "), DebugCliListen)
}

func TestNewHarnessConfigFromEnv(t *testing.T) {
	workDir := t.TempDir()
	t.Setenv(EnvDataplaneBin, "/opt/dataplane/bin/dataplane")
	t.Setenv(EnvWorkDir, workDir)
	t.Setenv(EnvStep, "y")
	t.Setenv(EnvCacheOutput, "0")
	t.Setenv(EnvDebug, "gdb")
	t.Setenv(EnvMainCore, "3")
	t.Setenv(EnvCaptureTTL, "250ms")

	cfg, err := NewHarnessConfigFromEnv("instance1")
	assert.NoError(t, err)
	assert.Equal(t, "/opt/dataplane/bin/dataplane", cfg.DataplaneBin)
	assert.Equal(t, workDir, cfg.WorkDir)
	assert.Equal(t, filepath.Base(workDir), cfg.ShmPrefix)
	assert.True(t, cfg.Step)
	assert.False(t, cfg.CacheOutput)
	assert.Equal(t, DebugGdb, cfg.Debug)
	assert.Equal(t, 3, cfg.MainCore)
	assert.Equal(t, 250*time.Millisecond, cfg.CaptureTTL)
	assert.Equal(t, "instance1", cfg.InstanceId)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddress)
}

func TestNewHarnessConfigFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv(EnvWorkDir, t.TempDir())
	t.Setenv(EnvDebug, "whatever")
	_, err := NewHarnessConfigFromEnv("x")
	assert.Error(t, err)

	t.Setenv(EnvDebug, "")
	t.Setenv(EnvCaptureTTL, "fast")
	_, err = NewHarnessConfigFromEnv("x")
	assert.Error(t, err)

	t.Setenv(EnvCaptureTTL, "")
	t.Setenv(EnvMainCore, "two")
	_, err = NewHarnessConfigFromEnv("x")
	assert.Error(t, err)
}
