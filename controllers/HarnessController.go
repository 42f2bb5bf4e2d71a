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

package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Netcracker/qubership-dataplane-test-harness/entities"
	"github.com/Netcracker/qubership-dataplane-test-harness/exception"
	"github.com/Netcracker/qubership-dataplane-test-harness/services/capture_ledger"
	"github.com/Netcracker/qubership-dataplane-test-harness/services/heartbeat"
	"github.com/Netcracker/qubership-dataplane-test-harness/services/run_index"
	"github.com/Netcracker/qubership-dataplane-test-harness/services/supervisor"
	"github.com/Netcracker/qubership-dataplane-test-harness/view"
	log "github.com/sirupsen/logrus"
)

// Service
// an interface to controller
type Service interface {
	OnStatus(w http.ResponseWriter, r *http.Request)
	OnCli(w http.ResponseWriter, r *http.Request)
	OnStdout(w http.ResponseWriter, r *http.Request)
	OnStderr(w http.ResponseWriter, r *http.Request)
	OnArtifacts(w http.ResponseWriter, r *http.Request)
	OnCaptureRegister(w http.ResponseWriter, r *http.Request)
	OnCaptureStart(w http.ResponseWriter, r *http.Request)
	OnTestStart(w http.ResponseWriter, r *http.Request)
	OnLive(w http.ResponseWriter, r *http.Request)
}

type webService struct {
	apiKey   string
	sup      *supervisor.Supervisor
	index    run_index.RunIndex
	ledger   *capture_ledger.Ledger
	reporter *heartbeat.Reporter
	cfg      *entities.HarnessConfig
}

// constants
const (
	requestBodyDeferError = "unable to defer request body. error: %v"
	HttpContentType       = "Content-Type"
	invalidApiKey         = "API key not match"
	tailQueryParam        = "lines"
)

// NewWebService
// creates a new web interface instance over the supervisor; the run index
// may be nil when artifact indexing is off
func NewWebService(sup *supervisor.Supervisor, index run_index.RunIndex, ledger *capture_ledger.Ledger, reporter *heartbeat.Reporter, cfg *entities.HarnessConfig) Service {
	return &webService{
		apiKey:   cfg.ApiKey,
		sup:      sup,
		index:    index,
		ledger:   ledger,
		reporter: reporter,
		cfg:      cfg,
	}
}

func RespondWithJson(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set(HttpContentType, "application/json")
	w.WriteHeader(code)
	write, err := w.Write(response)
	if err != nil {
		log.Debugf("%d response bytes written with error: %v", write, err)
	}
}

func RespondWithCustomError(w http.ResponseWriter, err *exception.CustomError) {
	log.Debugf("Request failed. Code = %d. Message = %s. Params: %v. Debug: %s", err.Status, err.Message, err.Params, err.Debug)
	RespondWithJson(w, err.Status, err)
}

// cliCommand a CLI request body
type cliCommand struct {
	Command string `json:"command"`
}

// cliResult a CLI reply body
type cliResult struct {
	Reply string `json:"reply"`
}

// OnStatus
// reports the supervised process status
func (ws *webService) OnStatus(w http.ResponseWriter, r *http.Request) {
	_, err := ws.checkAndGetBody(w, r)
	if err != nil {
		return
	}
	RespondWithJson(w, http.StatusOK, ws.sup.Status())
}

// OnCli
// runs one dataplane CLI command through the checked wrapper
func (ws *webService) OnCli(w http.ResponseWriter, r *http.Request) {
	body, err := ws.checkAndGetBody(w, r)
	if err != nil {
		return
	}
	var rb cliCommand
	err = json.Unmarshal(body, &rb)
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return
	}
	if rb.Command == view.EmptyString {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.EmptyParameter,
			Message: exception.EmptyParameterMsg,
			Params:  map[string]interface{}{"param": "command"},
		})
		return
	}
	if ws.sup.Dead() {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusServiceUnavailable,
			Code:    exception.ProcessNotRunning,
			Message: exception.ProcessNotRunningMsg,
		})
		return
	}
	reply, err := ws.sup.Cli(rb.Command)
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusServiceUnavailable,
			Code:    exception.UnableToExecuteCli,
			Message: exception.UnableToExecuteCliMsg,
			Debug:   err.Error(),
		})
		return
	}
	RespondWithJson(w, http.StatusOK, cliResult{Reply: reply})
}

// OnStdout
// returns buffered stdout lines, optionally only the tail
func (ws *webService) OnStdout(w http.ResponseWriter, r *http.Request) {
	ws.respondWithBufferedLines(w, r, ws.sup.StdoutBuffer())
}

// OnStderr
// returns buffered stderr lines, optionally only the tail
func (ws *webService) OnStderr(w http.ResponseWriter, r *http.Request) {
	ws.respondWithBufferedLines(w, r, ws.sup.StderrBuffer())
}

type lineSource interface {
	Lines() []string
	Tail(n int) []string
}

func (ws *webService) respondWithBufferedLines(w http.ResponseWriter, r *http.Request, buf lineSource) {
	_, err := ws.checkAndGetBody(w, r)
	if err != nil {
		return
	}
	tailStr := r.URL.Query().Get(tailQueryParam)
	if tailStr == view.EmptyString {
		RespondWithJson(w, http.StatusOK, buf.Lines())
		return
	}
	n, err := strconv.Atoi(tailStr)
	if err != nil || n < 0 {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.UnableToReadOutput,
			Message: exception.UnableToReadOutputMsg,
			Debug:   fmt.Sprintf("improper %s value '%s'", tailQueryParam, tailStr),
		})
		return
	}
	RespondWithJson(w, http.StatusOK, buf.Tail(n))
}

// OnArtifacts
// lists the run records collected so far
func (ws *webService) OnArtifacts(w http.ResponseWriter, r *http.Request) {
	_, err := ws.checkAndGetBody(w, r)
	if err != nil {
		return
	}
	if ws.index == nil {
		RespondWithJson(w, http.StatusOK, []interface{}{})
		return
	}
	records, err := ws.index.Records()
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusInternalServerError,
			Code:    exception.UnableToReadOutput,
			Message: exception.UnableToReadOutputMsg,
			Debug:   err.Error(),
		})
		return
	}
	RespondWithJson(w, http.StatusOK, records)
}

// captureRequest a capture registration body
type captureRequest struct {
	Name string `json:"name"`
}

// captureState the ledger snapshot returned to capture calls
type captureState struct {
	Active  []string `json:"active"`
	Zombies []string `json:"zombies"`
}

// OnCaptureRegister
// records one named generator capture in the current round
func (ws *webService) OnCaptureRegister(w http.ResponseWriter, r *http.Request) {
	body, err := ws.checkAndGetBody(w, r)
	if err != nil {
		return
	}
	var rb captureRequest
	err = json.Unmarshal(body, &rb)
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return
	}
	if rb.Name == view.EmptyString {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.EmptyParameter,
			Message: exception.EmptyParameterMsg,
			Params:  map[string]interface{}{"param": "name"},
		})
		return
	}
	ws.ledger.Register(rb.Name)
	if ws.index != nil {
		record := entities.RunRecord{CaptureName: rb.Name, CreatedAt: time.Now()}
		if err := ws.index.PutRecord(rb.Name, record); err != nil {
			log.Warnf("unable to index capture '%s': %v", rb.Name, err)
		}
	}
	RespondWithJson(w, http.StatusAccepted, captureState{
		Active:  ws.ledger.ActiveNames(),
		Zombies: ws.ledger.ZombieNames(),
	})
}

// OnCaptureStart
// retires the previous round's captures and enables the generator
func (ws *webService) OnCaptureStart(w http.ResponseWriter, r *http.Request) {
	_, err := ws.checkAndGetBody(w, r)
	if err != nil {
		return
	}
	if ws.sup.Dead() {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusServiceUnavailable,
			Code:    exception.ProcessNotRunning,
			Message: exception.ProcessNotRunningMsg,
		})
		return
	}
	if err := ws.ledger.RetireAndStart(); err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusServiceUnavailable,
			Code:    exception.UnableToExecuteCli,
			Message: exception.UnableToExecuteCliMsg,
			Debug:   err.Error(),
		})
		return
	}
	RespondWithJson(w, http.StatusOK, captureState{
		Active:  ws.ledger.ActiveNames(),
		Zombies: ws.ledger.ZombieNames(),
	})
}

// testStartRequest a test boundary announcement from the test driver
type testStartRequest struct {
	Description string `json:"description"`
}

// OnTestStart
// called at the start of every individual test: drops the boundary marker
// into both output buffers and reports the heartbeat
func (ws *webService) OnTestStart(w http.ResponseWriter, r *http.Request) {
	body, err := ws.checkAndGetBody(w, r)
	if err != nil {
		return
	}
	var rb testStartRequest
	err = json.Unmarshal(body, &rb)
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return
	}
	if rb.Description == view.EmptyString {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.EmptyParameter,
			Message: exception.EmptyParameterMsg,
			Params:  map[string]interface{}{"param": "description"},
		})
		return
	}
	ws.sup.MarkTestBoundary(rb.Description)
	if ws.reporter != nil {
		ws.reporter.Report(rb.Description, ws.cfg.DataplaneBin, ws.cfg.WorkDir, ws.sup.Pid())
	}
	RespondWithJson(w, http.StatusAccepted, ws.sup.Status())
}

// OnLive
// reports status on TTL requests
func (ws *webService) OnLive(w http.ResponseWriter, _ *http.Request) {
	RespondWithJson(w, http.StatusOK, "") // always respond OK to calm the watchdogs
}

// checkAndGetBody
// checks API key and reads body contents
func (ws *webService) checkAndGetBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if ws.apiKey != view.EmptyString {
		apiKeyHeader := r.Header.Get(view.ApiKeyHeader)
		if apiKeyHeader != ws.apiKey {
			RespondWithCustomError(w, &exception.CustomError{
				Status:  http.StatusUnauthorized,
				Code:    exception.ApiKeyNotFound,
				Message: exception.ApiKeyNotFoundMsg,
				Debug:   invalidApiKey,
			})
			return nil, fmt.Errorf(invalidApiKey)
		}
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			log.Debugf(requestBodyDeferError, err)
		}
	}(r.Body)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return nil, err
	}
	return body, nil
}
