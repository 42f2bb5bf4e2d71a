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

// Package pump drains the supervised process stdout/stderr into line
// buffers on a dedicated goroutine so test code is never blocked on
// dataplane output volume.
package pump

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Netcracker/qubership-dataplane-test-harness/utils"
	"github.com/Netcracker/qubership-dataplane-test-harness/view"
	log "github.com/sirupsen/logrus"
)

// LineBuffer
// append-only buffer of newline-terminated chunks. Single writer (the pump),
// drained read-only from the test goroutine.
type LineBuffer struct {
	lock  sync.Mutex
	lines []string
}

func NewLineBuffer() *LineBuffer {
	return &LineBuffer{}
}

// Append
// adds one line; test boundary markers use this too
func (b *LineBuffer) Append(line string) {
	b.lock.Lock()
	b.lines = append(b.lines, line)
	b.lock.Unlock()
}

// Lines
// returns a copy of all buffered lines
func (b *LineBuffer) Lines() []string {
	b.lock.Lock()
	defer b.lock.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Tail
// returns up to n most recent lines
func (b *LineBuffer) Tail(n int) []string {
	b.lock.Lock()
	defer b.lock.Unlock()
	if n > len(b.lines) {
		n = len(b.lines)
	}
	out := make([]string, n)
	copy(out, b.lines[len(b.lines)-n:])
	return out
}

func (b *LineBuffer) Len() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.lines)
}

// FlushToFile
// writes the buffer contents verbatim into fileName
func (b *LineBuffer) FlushToFile(fileName string) error {
	return os.WriteFile(fileName, []byte(strings.Join(b.Lines(), view.EmptyString)), 0644)
}

// OutputPump
// moves bytes from the two process streams into the two line buffers.
// Stop closes the stop channel - the channel-select replacement for the
// wakeup pipe - so a blocked wait returns promptly.
type OutputPump struct {
	stdout    io.Reader
	stderr    io.Reader
	stdoutBuf *LineBuffer
	stderrBuf *LineBuffer
	echo      bool
	stop      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	startOnce sync.Once
}

// NewOutputPump
// creates a pump over the two raw process streams; echo enables live line
// logging in addition to buffering
func NewOutputPump(stdout, stderr io.Reader, echo bool) *OutputPump {
	return &OutputPump{
		stdout:    stdout,
		stderr:    stderr,
		stdoutBuf: NewLineBuffer(),
		stderrBuf: NewLineBuffer(),
		echo:      echo,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (p *OutputPump) Stdout() *LineBuffer {
	return p.stdoutBuf
}

func (p *OutputPump) Stderr() *LineBuffer {
	return p.stderrBuf
}

// Start
// launches the stream readers and the pump loop
func (p *OutputPump) Start() {
	p.startOnce.Do(func() {
		utils.SafeAsyncNamed("output-pump", func() {
			p.run()
		})
	})
}

// Stop
// signals the pump loop to finish; idempotent, prompt
func (p *OutputPump) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
}

// Join
// blocks until the pump loop has exited
func (p *OutputPump) Join() {
	<-p.done
}

// readStream
// reads chunks of up to PumpChunkSize from r until EOF or error and feeds
// them to the pump loop; the channel close marks the stream end
func readStream(name string, r io.Reader, stop chan struct{}) chan []byte {
	chunks := make(chan []byte, 1)
	utils.SafeAsyncNamed("output-pump-"+name, func() {
		defer close(chunks)
		buf := make([]byte, view.PumpChunkSize)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				if !sendChunk(chunks, stop, chunk) {
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					log.Debugf("dataplane %s reader finished: %v", name, err)
				}
				return
			}
		}
	})
	return chunks
}

// sendChunk
// hands one chunk to the pump loop. The fast path keeps a chunk read before
// the stop signal deliverable; the stop case only unblocks a reader whose
// pump already exited.
func sendChunk(chunks chan []byte, stop chan struct{}, chunk []byte) bool {
	select {
	case chunks <- chunk:
		return true
	default:
		select {
		case chunks <- chunk:
			return true
		case <-stop:
			return false
		}
	}
}

// drainIdleLimit how long the stop drain waits for an in-flight reader send
const drainIdleLimit = 5 * time.Millisecond

// drainPending
// collects the chunks the readers had already taken off the process streams
// when the stop signal arrived. Lines read before the stop are never lost.
func (p *OutputPump) drainPending(chunks chan []byte, name string, fragment string, buf *LineBuffer) string {
	if chunks == nil {
		return fragment
	}
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return fragment
			}
			fragment = p.consume(name, chunk, fragment, buf)
		case <-time.After(drainIdleLimit):
			return fragment
		}
	}
}

// run
// the pump loop: multiplex over both streams and the stop channel
func (p *OutputPump) run() {
	defer close(p.done)
	stdoutChunks := readStream("stdout", p.stdout, p.stop)
	stderrChunks := readStream("stderr", p.stderr, p.stop)
	stdoutFragment := view.EmptyString
	stderrFragment := view.EmptyString
	for {
		select {
		case chunk, ok := <-stdoutChunks:
			if !ok {
				stdoutChunks = nil
				stdoutFragment = p.finishStream("stdout", stdoutFragment, p.stdoutBuf)
				break
			}
			stdoutFragment = p.consume("stdout", chunk, stdoutFragment, p.stdoutBuf)
		case chunk, ok := <-stderrChunks:
			if !ok {
				stderrChunks = nil
				stderrFragment = p.finishStream("stderr", stderrFragment, p.stderrBuf)
				break
			}
			stderrFragment = p.consume("stderr", chunk, stderrFragment, p.stderrBuf)
		case <-p.stop:
			// deliver what was read from the streams before the signal
			stdoutFragment = p.drainPending(stdoutChunks, "stdout", stdoutFragment, p.stdoutBuf)
			stderrFragment = p.drainPending(stderrChunks, "stderr", stderrFragment, p.stderrBuf)
			p.finishStream("stdout", stdoutFragment, p.stdoutBuf)
			p.finishStream("stderr", stderrFragment, p.stderrBuf)
			return
		}
		if stdoutChunks == nil && stderrChunks == nil {
			// both streams closed, hold on for the stop signal
			<-p.stop
			return
		}
	}
}

// consume
// splits a chunk on newlines keeping terminators, prepends the carried-over
// fragment and holds back an unterminated trailer for the next read
func (p *OutputPump) consume(name string, chunk []byte, fragment string, buf *LineBuffer) string {
	split := strings.SplitAfter(string(chunk), "\n")
	if split[len(split)-1] == view.EmptyString {
		split = split[:len(split)-1]
	}
	if len(split) == 0 {
		return fragment
	}
	split[0] = fragment + split[0]
	newFragment := view.EmptyString
	last := split[len(split)-1]
	if !strings.HasSuffix(last, "\n") {
		newFragment = last
		split = split[:len(split)-1]
	}
	for _, line := range split {
		buf.Append(line)
		if p.echo {
			log.Debugf("DATAPLANE %s: %s", strings.ToUpper(name), strings.TrimRight(line, "\n"))
		}
	}
	return newFragment
}

// finishStream
// a closed stream cannot complete its fragment anymore - keep it
func (p *OutputPump) finishStream(name string, fragment string, buf *LineBuffer) string {
	if fragment != view.EmptyString {
		buf.Append(fragment)
		if p.echo {
			log.Debugf("DATAPLANE %s: %s", strings.ToUpper(name), fragment)
		}
	}
	return view.EmptyString
}
