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

// Package supervisor owns the dataplane process lifecycle: spawn, output
// pumping, liveness polling, checked control calls and the ordered
// teardown sequence.
package supervisor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Netcracker/qubership-dataplane-test-harness/entities"
	"github.com/Netcracker/qubership-dataplane-test-harness/exception"
	"github.com/Netcracker/qubership-dataplane-test-harness/services/control"
	"github.com/Netcracker/qubership-dataplane-test-harness/services/liveness"
	"github.com/Netcracker/qubership-dataplane-test-harness/services/pump"
	"github.com/Netcracker/qubership-dataplane-test-harness/utils"
	"github.com/Netcracker/qubership-dataplane-test-harness/view"
	log "github.com/sirupsen/logrus"
)

// ConfiguredObject
// a dataplane-side configuration object a test installed; removed on test
// teardown while the process is alive, dropped locally once it is dead
type ConfiguredObject interface {
	ObjectName() string
	RemoveCommand() string
}

// Supervisor
// one instance per supervised dataplane process
type Supervisor struct {
	cfg      *entities.HarnessConfig
	channel  control.ControlChannel
	hook     liveness.Hook
	pumpTask *pump.OutputPump

	cmd      *exec.Cmd
	procDone chan struct{}

	lock          sync.Mutex
	state         view.ProcessState
	exitCode      int
	exited        bool
	startupFailed bool
	objects       []ConfiguredObject
	artifacts     []string

	dead      atomic.Bool
	attachIn  io.Reader
	reapLimit time.Duration
	shutOnce  sync.Once
	shutErr   error
}

// NewSupervisor
// builds a supervisor; the control channel may be nil until ConnectControl
func NewSupervisor(cfg *entities.HarnessConfig, channel control.ControlChannel) *Supervisor {
	return &Supervisor{
		cfg:       cfg,
		channel:   channel,
		procDone:  make(chan struct{}),
		state:     view.ProcStateNone,
		attachIn:  os.Stdin,
		reapLimit: view.DefaultReapTimeout,
	}
}

// validateExecutable
// a binary the OS cannot execute must fail before spawn, not inside it
func validateExecutable(binary string) error {
	info, err := os.Stat(binary)
	if err != nil {
		return err
	}
	if info.IsDir() || info.Mode()&0111 == 0 {
		return fmt.Errorf("'%s' is not executable", binary)
	}
	return nil
}

// Start
// spawns the dataplane, wires the output pump and the liveness hook,
// performs the initial poll before trusting the process
func (s *Supervisor) Start() error {
	cmdline := s.cfg.BuildCommandLine()
	if s.cfg.Debug == entities.DebugGdbserver {
		if err := validateExecutable(entities.GdbServerBin); err != nil {
			return &exception.SpawnError{Binary: entities.GdbServerBin, Err: err}
		}
	}
	if err := validateExecutable(s.cfg.DataplaneBin); err != nil {
		return &exception.SpawnError{Binary: s.cfg.DataplaneBin, Err: err}
	}
	log.Infof("dataplane cmdline: %v", cmdline)

	s.cmd = exec.Command(cmdline[0], cmdline[1:]...)
	s.cmd.Dir = s.cfg.WorkDir
	s.cmd.Env = os.Environ()
	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return &exception.SpawnError{Binary: s.cfg.DataplaneBin, Err: err}
	}
	stderr, err := s.cmd.StderrPipe()
	if err != nil {
		return &exception.SpawnError{Binary: s.cfg.DataplaneBin, Err: err}
	}
	if err := s.cmd.Start(); err != nil {
		return &exception.SpawnError{Binary: s.cfg.DataplaneBin, Err: err}
	}
	s.setState(view.ProcStateStarting)

	// reaper: the only place that waits on the process
	utils.SafeAsyncNamed("dataplane-reaper", func() {
		waitErr := s.cmd.Wait()
		code := 0
		if waitErr != nil {
			var exitErr *exec.ExitError
			if errors.As(waitErr, &exitErr) {
				code = exitErr.ExitCode()
			} else {
				log.Debugf("dataplane wait finished: %v", waitErr)
				code = -1
			}
		}
		s.lock.Lock()
		s.exitCode = code
		s.exited = true
		s.lock.Unlock()
		close(s.procDone)
	})

	s.pumpTask = pump.NewOutputPump(stdout, stderr, !s.cfg.CacheOutput)
	s.pumpTask.Start()

	if s.cfg.Step {
		s.hook = liveness.NewStepHook(s, s.attachIn)
	} else {
		s.hook = liveness.NewPollHook(s)
	}

	s.waitForAttach()

	time.Sleep(view.DefaultStartupGrace)
	if err := s.hook.Check(); err != nil {
		s.lock.Lock()
		s.startupFailed = true
		s.lock.Unlock()
		s.setState(view.ProcStateStartupFailed)
		log.Errorf("dataplane died shortly after startup, check the stderr output for a possible cause")
		return err
	}
	s.setState(view.ProcStateRunning)
	return nil
}

// waitForAttach
// debug modes suspend startup until the operator attached a debugger.
// An intentional synchronous pause, not a timeout.
func (s *Supervisor) waitForAttach() {
	switch s.cfg.Debug {
	case entities.DebugGdbserver:
		fmt.Printf("Spawned GDB server with PID: %d\n", s.Pid())
		fmt.Printf("gdb %s -ex 'target remote %s'\n", s.cfg.DataplaneBin, entities.GdbServerAddr)
		fmt.Println("Attach, set breakpoints, 'continue' the dataplane, then press ENTER...")
	case entities.DebugGdb:
		fmt.Printf("Spawned dataplane with PID: %d\n", s.Pid())
		fmt.Printf("gdb %s -ex 'attach %d'\n", s.cfg.DataplaneBin, s.Pid())
		fmt.Println("Attach, set breakpoints, then press ENTER...")
	default:
		log.Debugf("spawned dataplane with PID: %d", s.Pid())
		return
	}
	waitForEnter(s.attachIn)
}

func waitForEnter(in io.Reader) {
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if err != nil || (n == 1 && buf[0] == '\n') {
			return
		}
	}
}

// ConnectControl
// connects the control channel once the process passed the initial poll.
// A connect failure triggers a best-effort disconnect before reporting.
func (s *Supervisor) ConnectControl() error {
	if s.channel == nil {
		return nil
	}
	if err := s.channel.Connect(); err != nil {
		if dErr := s.channel.Disconnect(); dErr != nil {
			log.Debugf("disconnect after failed connect: %v", dErr)
		}
		return err
	}
	return nil
}

// Cli
// the checked control call: liveness before, the request, liveness after.
// Once the process is dead, live queries are skipped instead of attempted.
func (s *Supervisor) Cli(command string) (string, error) {
	if s.Dead() {
		return view.EmptyString, &exception.ControlChannelError{
			Op:  "cli",
			Err: fmt.Errorf("process is dead, command '%s' skipped", command),
		}
	}
	if s.hook == nil || s.channel == nil {
		return view.EmptyString, &exception.ControlChannelError{
			Op:  "cli",
			Err: fmt.Errorf("process is not started, command '%s' skipped", command),
		}
	}
	if err := s.hook.Check(); err != nil {
		return view.EmptyString, err
	}
	reply, err := s.channel.ExecuteCli(command)
	if err != nil {
		return view.EmptyString, err
	}
	if err := s.hook.Check(); err != nil {
		return reply, err
	}
	return reply, nil
}

// ExecuteCli
// satisfies control.CliExecutor so the capture ledger issues its deletes
// through the checked wrapper
func (s *Supervisor) ExecuteCli(command string) (string, error) {
	return s.Cli(command)
}

// RegisterObject
// remembers a dataplane-side configuration object for teardown
func (s *Supervisor) RegisterObject(obj ConfiguredObject) {
	s.lock.Lock()
	s.objects = append(s.objects, obj)
	s.lock.Unlock()
}

// RemoveConfiguredObjects
// removes registered objects over the control channel; a dead process only
// gets the local bookkeeping dropped
func (s *Supervisor) RemoveConfiguredObjects() {
	s.lock.Lock()
	objects := s.objects
	s.objects = nil
	s.lock.Unlock()
	for _, obj := range objects {
		if s.Dead() {
			log.Debugf("unregistered '%s' locally, process is dead", obj.ObjectName())
			continue
		}
		if _, err := s.Cli(obj.RemoveCommand()); err != nil {
			log.Warnf("unable to remove '%s': %v", obj.ObjectName(), err)
		}
	}
}

// liveness.ProcessProber implementation

// ExitStatus
// non-blocking exit poll fed by the reaper goroutine
func (s *Supervisor) ExitStatus() (int, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.exitCode, s.exited
}

// MarkDead
// flips the dead flag; reports true only for the caller that flipped it
func (s *Supervisor) MarkDead() bool {
	first := s.dead.CompareAndSwap(false, true)
	if first {
		s.setState(view.ProcStateDead)
		log.Errorf("dataplane process death registered")
	}
	return first
}

func (s *Supervisor) Dead() bool {
	return s.dead.Load()
}

// OutputTail
// recent output for death diagnostics, stderr first
func (s *Supervisor) OutputTail(n int) []string {
	if s.pumpTask == nil {
		return nil
	}
	tail := s.pumpTask.Stderr().Tail(n)
	if len(tail) == 0 {
		tail = s.pumpTask.Stdout().Tail(n)
	}
	return tail
}

// accessors

func (s *Supervisor) Pid() int {
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

func (s *Supervisor) Hook() liveness.Hook {
	return s.hook
}

func (s *Supervisor) StdoutBuffer() *pump.LineBuffer {
	if s.pumpTask == nil {
		return pump.NewLineBuffer()
	}
	return s.pumpTask.Stdout()
}

func (s *Supervisor) StderrBuffer() *pump.LineBuffer {
	if s.pumpTask == nil {
		return pump.NewLineBuffer()
	}
	return s.pumpTask.Stderr()
}

// ArtifactFiles
// files flushed by the last Shutdown
func (s *Supervisor) ArtifactFiles() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([]string, len(s.artifacts))
	copy(out, s.artifacts)
	return out
}

func (s *Supervisor) setState(state view.ProcessState) {
	s.lock.Lock()
	s.state = state
	s.lock.Unlock()
}

// Status
// snapshot for the HTTP surface
func (s *Supervisor) Status() view.HarnessStatus {
	s.lock.Lock()
	defer s.lock.Unlock()
	status := view.HarnessStatus{
		Status:  view.ProcStateToReqStatus(s.state),
		Pid:     0,
		WorkDir: s.cfg.WorkDir,
	}
	if s.cmd != nil && s.cmd.Process != nil {
		status.Pid = s.cmd.Process.Pid
	}
	if s.exited {
		code := s.exitCode
		status.ExitCode = &code
	}
	return status
}

// MarkTestBoundary
// drops a marker into both output buffers so flushed logs show where each
// test started
func (s *Supervisor) MarkTestBoundary(description string) {
	marker := fmt.Sprintf("--- test setUp() for %s starts here ---\n", description)
	s.StdoutBuffer().Append(marker)
	s.StderrBuffer().Append(marker)
}

// Shutdown
// ordered, idempotent teardown: stop and join the pump, disconnect the
// control channel, reap the process, and always flush the buffers
func (s *Supervisor) Shutdown() error {
	s.shutOnce.Do(func() {
		s.shutErr = s.shutdown()
	})
	return s.shutErr
}

func (s *Supervisor) shutdown() error {
	// buffers are flushed no matter which earlier step failed
	defer s.flushBuffers()

	if s.cfg.Debug == entities.DebugGdb || s.cfg.Debug == entities.DebugGdbserver {
		if _, exited := s.ExitStatus(); !exited && s.cmd != nil {
			fmt.Println("Dataplane or GDB server is still running")
			fmt.Println("When done debugging, press ENTER to kill the process and finish the testcase...")
			waitForEnter(s.attachIn)
		}
	}

	if s.pumpTask != nil {
		// stop flag first, then the wakeup so a blocked wait returns
		s.pumpTask.Stop()
		log.Debugf("waiting for output pump to stop")
		s.pumpTask.Join()
	}

	if s.channel != nil {
		if err := s.channel.Disconnect(); err != nil {
			log.Warnf("control channel disconnect failed: %v", err)
		}
	}

	if s.cmd == nil {
		return nil
	}
	if _, exited := s.ExitStatus(); !exited {
		log.Debugf("sending TERM to dataplane")
		if err := s.cmd.Process.Signal(syscall.SIGTERM); err != nil {
			log.Warnf("unable to signal dataplane: %v", err)
		}
		log.Debugf("waiting for dataplane to die")
		select {
		case <-s.procDone:
		case <-time.After(s.reapLimit):
			log.Errorf("dataplane ignored TERM for %s, killing it", s.reapLimit)
			_ = s.cmd.Process.Kill()
			<-s.procDone
		}
	}
	if !s.Dead() {
		s.setState(view.ProcStateStopped)
	}
	return nil
}

// flushBuffers
// persists both output buffers verbatim inside the work directory.
// Startup failures push the stderr flush to error level.
func (s *Supervisor) flushBuffers() {
	s.lock.Lock()
	startupFailed := s.startupFailed
	s.lock.Unlock()

	stderrLog := log.Infof
	if startupFailed {
		stderrLog = log.Errorf
	}
	stdoutFile := filepath.Join(s.cfg.WorkDir, view.StdoutFileName)
	if err := s.StdoutBuffer().FlushToFile(stdoutFile); err != nil {
		log.Errorf("unable to flush stdout buffer to '%s': %v", stdoutFile, err)
	} else {
		log.Infof("dataplane stdout (%d lines) flushed to %s", s.StdoutBuffer().Len(), stdoutFile)
		s.recordArtifact(stdoutFile)
	}
	stderrFile := filepath.Join(s.cfg.WorkDir, view.StderrFileName)
	if err := s.StderrBuffer().FlushToFile(stderrFile); err != nil {
		log.Errorf("unable to flush stderr buffer to '%s': %v", stderrFile, err)
	} else {
		stderrLog("dataplane stderr (%d lines) flushed to %s", s.StderrBuffer().Len(), stderrFile)
		s.recordArtifact(stderrFile)
	}
}

func (s *Supervisor) recordArtifact(fileName string) {
	s.lock.Lock()
	s.artifacts = append(s.artifacts, fileName)
	s.lock.Unlock()
}
