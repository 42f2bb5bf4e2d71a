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

package main

import (
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/Netcracker/qubership-dataplane-test-harness/controllers"
	"github.com/Netcracker/qubership-dataplane-test-harness/entities"
	"github.com/Netcracker/qubership-dataplane-test-harness/services/artifact_storage"
	"github.com/Netcracker/qubership-dataplane-test-harness/services/capture_ledger"
	"github.com/Netcracker/qubership-dataplane-test-harness/services/control"
	"github.com/Netcracker/qubership-dataplane-test-harness/services/heartbeat"
	"github.com/Netcracker/qubership-dataplane-test-harness/services/run_index"
	"github.com/Netcracker/qubership-dataplane-test-harness/services/supervisor"
	"github.com/Netcracker/qubership-dataplane-test-harness/utils"
	"github.com/Netcracker/qubership-dataplane-test-harness/view"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"
)

const runIndexName = "harness_run_index"

func makeServer(listenAddr string, r *mux.Router) *http.Server {
	log.Infof("Listen addr = %s", listenAddr)

	var corsOptions []handlers.CORSOption
	corsOptions = append(corsOptions,
		handlers.AllowedHeaders([]string{
			"Connection",
			"Accept-Encoding",
			"Content-Encoding",
			"X-Requested-With",
			controllers.HttpContentType,
			view.ApiKeyHeader,
			"Authorization"}))
	corsOptions = append(corsOptions, handlers.AllowedMethods([]string{http.MethodPost, http.MethodGet}))

	return &http.Server{
		Handler:      handlers.CompressHandler(handlers.CORS(corsOptions...)(r)),
		Addr:         listenAddr,
		WriteTimeout: 300 * time.Second,
		ReadTimeout:  30 * time.Second,
	}
}

// init
// initialises logging
func init() {
	basePath := os.Getenv("BASE_PATH")
	if basePath == "" {
		basePath = "."
	}
	mw := io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename: path.Join(basePath, "logs", "dataplane_test_harness.log"),
		MaxSize:  10, // megabytes
	})
	log.SetFormatter(&prefixed.TextFormatter{
		DisableColors:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	})
	logLevel, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = log.InfoLevel
	}
	log.SetLevel(logLevel)
	log.SetOutput(mw)
}

func main() {
	workDir := view.EmptyString
	description := "dataplane test harness"
	flag.StringVar(&workDir, "work-dir", os.Getenv(entities.EnvWorkDir), "working directory")
	flag.StringVar(&description, "description", description, "test run description for heartbeats")
	flag.Parse()
	if workDir != view.EmptyString {
		if err := os.Setenv(entities.EnvWorkDir, workDir); err != nil {
			log.Fatalf("unable to apply work-dir option: %v", err)
		}
	}

	cfg, err := entities.NewHarnessConfigFromEnv(utils.MakeUniqueId())
	if err != nil {
		log.Fatalf("unable to prepare harness configuration: %v", err)
	}
	log.Infof("harness instance %s, work directory %s", cfg.InstanceId, cfg.WorkDir)

	index, err := run_index.NewRunIndex(runIndexName, cfg.WorkDir)
	if err != nil {
		log.Fatalf("unable to create run index: %v", err)
	} else {
		log.Printf("run index \"%s\" created", runIndexName)
	}

	storage := artifact_storage.NewArtifactStorage(cfg.Minio)
	defer storage.StoreFile(artifact_storage.BreakTheLoop) // finish at the end

	var channel control.ControlChannel
	if cfg.ControlURL != view.EmptyString {
		channel = control.NewControlChannel(cfg.ControlURL, cfg.ApiKey)
	} else {
		log.Warnf("no %s set, control channel disabled", entities.EnvControlURL)
	}

	var sink heartbeat.Sink
	if cfg.CoordinatorURL != view.EmptyString {
		sink = heartbeat.NewHttpSink(cfg.CoordinatorURL, cfg.ApiKey)
		log.Println("heartbeat reporting activated")
	}
	reporter := heartbeat.NewReporter(sink)

	sup := supervisor.NewSupervisor(cfg, channel)
	if err := sup.Start(); err != nil {
		_ = sup.Shutdown()
		log.Fatalf("unable to start dataplane: %v", err)
	}
	reporter.Report(description, cfg.DataplaneBin, cfg.WorkDir, sup.Pid())
	if channel != nil {
		if err := sup.ConnectControl(); err != nil {
			_ = sup.Shutdown()
			log.Fatalf("unable to connect dataplane control channel: %v", err)
		}
	}
	ledger := capture_ledger.NewLedger(sup, cfg.CaptureTTL)

	ws := controllers.NewWebService(sup, index, ledger, reporter, cfg)
	r := mux.NewRouter()
	r.SkipClean(true)
	r.UseEncodedPath()
	r.HandleFunc("/api/v1/status", ws.OnStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/cli", ws.OnCli).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/output/stdout", ws.OnStdout).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/output/stderr", ws.OnStderr).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/artifacts", ws.OnArtifacts).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/captures", ws.OnCaptureRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/captures/start", ws.OnCaptureStart).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/tests", ws.OnTestStart).Methods(http.MethodPost)
	// set TTL reactions
	r.HandleFunc("/live", ws.OnLive).Methods(http.MethodGet)
	r.HandleFunc("/ready", ws.OnLive).Methods(http.MethodGet)
	r.HandleFunc("/startup", ws.OnLive).Methods(http.MethodGet)

	srv := makeServer(cfg.ListenAddress, r)
	utils.SafeAsyncNamed("http-surface", func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Service fatal error:%v", err)
		}
	})

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stopSignal
	log.Infof("received %v, tearing down", sig)

	sup.RemoveConfiguredObjects()
	if err := sup.Shutdown(); err != nil {
		log.Errorf("dataplane teardown finished with error: %v", err)
	}
	for _, fileName := range sup.ArtifactFiles() {
		storage.StoreFile(fileName)
		if err := index.AppendFile(cfg.InstanceId, fileName); err != nil {
			log.Warnf("unable to index artifact '%s': %v", fileName, err)
		}
	}
	if records, err := index.Records(); err == nil {
		log.Infof("run finished with %d indexed record(s)", len(records))
	}
	if err := index.Close(); err != nil {
		log.Warnf("unable to close run index: %v", err)
	}
	_ = srv.Close()
}
