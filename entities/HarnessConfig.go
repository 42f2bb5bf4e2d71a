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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Netcracker/qubership-dataplane-test-harness/view"
)

// DebugMode how the operator wants to attach to the dataplane
type DebugMode int

const (
	DebugNone DebugMode = iota
	DebugCore
	DebugGdb
	DebugGdbserver
)

// environment variable names understood by the harness
const (
	EnvDataplaneBin   = "DATAPLANE_BIN"
	EnvPluginPath     = "DATAPLANE_PLUGIN_PATH"
	EnvExternPlugins  = "EXTERN_PLUGINS"
	EnvStep           = "STEP"
	EnvDebug          = "DEBUG"
	EnvCacheOutput    = "CACHE_OUTPUT"
	EnvCoredumpSize   = "COREDUMP_SIZE"
	EnvMainCore       = "MAIN_CORE"
	EnvCaptureTTL     = "CAPTURE_TTL"
	EnvWorkDir        = "WORK_DIR"
	EnvCoordinatorURL = "COORDINATOR_URL"
	EnvControlURL     = "CONTROL_URL"
	EnvListenAddress  = "LISTEN_ADDRESS"
	EnvApiKey         = "API_KEY"
)

// GdbServerBin the gdbserver binary used for DEBUG=gdbserver
const GdbServerBin = "/usr/bin/gdbserver"
const GdbServerAddr = "localhost:7777"
const DebugCliListen = "cli-listen localhost:5002"

// MinioStorageCreds
// S3/minio artifact storage access
type MinioStorageCreds struct {
	IsActive        bool
	Endpoint        string
	AccessKeyId     string
	SecretAccessKey string
	BucketName      string
}

// HarnessConfig
// static harness configuration assembled from environment variables
type HarnessConfig struct {
	DataplaneBin     string        // dataplane binary to supervise
	PluginPath       string        // dataplane plugin directory
	ExternPluginPath string        // extra plugin directory
	WorkDir          string        // per-class working directory, holds flushed artifacts
	ShmPrefix        string        // api-segment prefix, derived from WorkDir
	Step             bool          // interactive single-step mode
	CacheOutput      bool          // buffer output instead of echoing each line
	Debug            DebugMode     // operator attach mode
	CoredumpSize     string        // coredump-size token value
	MainCore         int           // CPU core the dataplane main thread is pinned to
	CaptureTTL       time.Duration // minimum capture age before deletion
	CoordinatorURL   string        // parent coordinator heartbeat endpoint, optional
	ControlURL       string        // dataplane control channel endpoint
	ListenAddress    string        // harness HTTP surface listen address
	ApiKey           string        // harness HTTP surface api key, optional
	InstanceId       string        // unique id of this harness run
	Minio            MinioStorageCreds
}

// boolFromEnv
// accepts y/yes/1 the way the harness operators expect
func boolFromEnv(name string, defVal bool) bool {
	v := strings.ToLower(os.Getenv(name))
	if v == view.EmptyString {
		return defVal
	}
	switch v {
	case "y", "yes", "1", "true":
		return true
	default:
		return false
	}
}

// parseDebugMode
// converts the DEBUG variable into a mode
func parseDebugMode(v string) (DebugMode, error) {
	switch strings.ToLower(v) {
	case view.EmptyString:
		return DebugNone, nil
	case "core":
		return DebugCore, nil
	case "gdb":
		return DebugGdb, nil
	case "gdbserver":
		return DebugGdbserver, nil
	default:
		return DebugNone, fmt.Errorf("unrecognized DEBUG option: '%s'", v)
	}
}

// NewHarnessConfigFromEnv
// reads the harness configuration the same way operators set it for the
// original test runs: plain environment variables, no config files
func NewHarnessConfigFromEnv(instanceId string) (*HarnessConfig, error) {
	cfg := &HarnessConfig{
		DataplaneBin:     os.Getenv(EnvDataplaneBin),
		PluginPath:       os.Getenv(EnvPluginPath),
		ExternPluginPath: os.Getenv(EnvExternPlugins),
		WorkDir:          os.Getenv(EnvWorkDir),
		Step:             boolFromEnv(EnvStep, false),
		CacheOutput:      boolFromEnv(EnvCacheOutput, true),
		CoredumpSize:     os.Getenv(EnvCoredumpSize),
		CaptureTTL:       view.DefaultCaptureTTL,
		CoordinatorURL:   os.Getenv(EnvCoordinatorURL),
		ControlURL:       os.Getenv(EnvControlURL),
		ListenAddress:    os.Getenv(EnvListenAddress),
		ApiKey:           os.Getenv(EnvApiKey),
		InstanceId:       instanceId,
	}
	if cfg.DataplaneBin == view.EmptyString {
		cfg.DataplaneBin = "dataplane"
	}
	if cfg.ListenAddress == view.EmptyString {
		cfg.ListenAddress = "127.0.0.1:8080"
	}
	mode, err := parseDebugMode(os.Getenv(EnvDebug))
	if err != nil {
		return nil, err
	}
	cfg.Debug = mode
	if v := os.Getenv(EnvCaptureTTL); v != view.EmptyString {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value '%s': %v", EnvCaptureTTL, v, err)
		}
		cfg.CaptureTTL = ttl
	}
	if v := os.Getenv(EnvMainCore); v != view.EmptyString {
		core, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value '%s': %v", EnvMainCore, v, err)
		}
		cfg.MainCore = core
	}
	if cfg.WorkDir == view.EmptyString {
		dir, err := os.MkdirTemp(view.EmptyString, "dataplane-harness-")
		if err != nil {
			return nil, err
		}
		cfg.WorkDir = dir
	}
	cfg.ShmPrefix = filepath.Base(cfg.WorkDir)
	cfg.Minio = MinioStorageCreds{
		IsActive:        boolFromEnv("MINIO_ACTIVE", false),
		Endpoint:        os.Getenv("MINIO_ENDPOINT"),
		AccessKeyId:     os.Getenv("MINIO_ACCESS_KEY"),
		SecretAccessKey: os.Getenv("MINIO_SECRET_KEY"),
		BucketName:      os.Getenv("MINIO_BUCKET"),
	}
	return cfg, nil
}

// combinedPluginPath
// joins the built-in and external plugin directories
func (cfg *HarnessConfig) combinedPluginPath() string {
	if cfg.PluginPath != view.EmptyString {
		if cfg.ExternPluginPath != view.EmptyString {
			return cfg.PluginPath + ":" + cfg.ExternPluginPath
		}
		return cfg.PluginPath
	}
	return cfg.ExternPluginPath
}

// BuildCommandLine
// assembles the dataplane argument vector: unix block, api segment prefix,
// CPU pinning, plugin toggles. Debug and step modes arm the debug CLI.
func (cfg *HarnessConfig) BuildCommandLine() []string {
	coredump := "coredump-size unlimited"
	if cfg.CoredumpSize != view.EmptyString {
		coredump = "coredump-size " + cfg.CoredumpSize
	}
	unixBlock := []string{"unix", "{", "nodaemon"}
	if cfg.Step || cfg.Debug == DebugGdb || cfg.Debug == DebugGdbserver {
		unixBlock = append(unixBlock, DebugCliListen)
	}
	unixBlock = append(unixBlock, "full-coredump", coredump, "}")

	cmdline := []string{cfg.DataplaneBin}
	cmdline = append(cmdline, unixBlock...)
	cmdline = append(cmdline,
		"api-trace", "{", "on", "}",
		"api-segment", "{", "prefix", cfg.ShmPrefix, "}",
		"cpu", "{", "main-core", strconv.Itoa(cfg.MainCore), "}",
		"plugins", "{",
		"plugin", "dpdk_plugin.so", "{", "disable", "}",
		"plugin", "unittest_plugin.so", "{", "enable", "}",
		"}")
	if pluginPath := cfg.combinedPluginPath(); pluginPath != view.EmptyString {
		cmdline = append(cmdline, "plugin_path", pluginPath)
	}
	if cfg.Debug == DebugGdbserver {
		cmdline = append([]string{GdbServerBin, GdbServerAddr}, cmdline...)
	}
	return cmdline
}
