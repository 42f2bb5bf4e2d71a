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

// Package packet_info keeps the per-packet descriptors a test seeds before
// injection and walks again when verifying captures.
package packet_info

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/Netcracker/qubership-dataplane-test-harness/entities"
	"github.com/Netcracker/qubership-dataplane-test-harness/exception"
)

// payloadFieldCount index, src, dst, ip, proto
const payloadFieldCount = 5

// Registry
// arena of descriptors in creation order plus running per-destination-group
// packet counts. Suite-scoped: shared across the tests of one test case,
// Reset between test cases.
type Registry struct {
	lock      sync.Mutex
	infos     []*entities.PacketInfo
	dstCounts map[uint32]uint64
}

func NewRegistry() *Registry {
	return &Registry{
		dstCounts: make(map[uint32]uint64),
	}
}

// Create
// appends a descriptor with the next dense index and counts it against the
// destination's capture group (a sub-interface counts for its parent)
func (r *Registry) Create(src, dst entities.ForwardingEndpoint) *entities.PacketInfo {
	r.lock.Lock()
	defer r.lock.Unlock()
	info := entities.NewPacketInfo()
	info.Index = uint64(len(r.infos))
	info.Src = src.IfIndex()
	info.Dst = dst.IfIndex()
	r.infos = append(r.infos, info)
	r.dstCounts[dst.GroupIfIndex()]++
	return info
}

// Reset
// drops all descriptors and counts; called at suite start and end
func (r *Registry) Reset() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.infos = nil
	r.dstCounts = make(map[uint32]uint64)
}

// Len
// number of descriptors created so far
func (r *Registry) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.infos)
}

// CountForDestination
// packets expected at the given capture group
func (r *Registry) CountForDestination(groupIfIndex uint32) uint64 {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.dstCounts[groupIfIndex]
}

// EncodePayload
// serializes a descriptor into the injected packet payload:
// fixed order "index src dst ip proto", decimal, single spaces
func EncodePayload(info *entities.PacketInfo) []byte {
	return []byte(fmt.Sprintf("%d %d %d %d %d",
		info.Index, info.Src, info.Dst, info.Ip, info.Proto))
}

// DecodePayload
// the inverse of EncodePayload. Extra trailing tokens (packet padding) are
// ignored; fewer than five tokens or a non-integer one is a malformed
// descriptor, reported as a test failure by the caller.
func DecodePayload(payload []byte) (*entities.PacketInfo, error) {
	text := string(payload)
	numbers := strings.Fields(text)
	if len(numbers) < payloadFieldCount {
		return nil, &exception.MalformedDescriptorError{
			Payload: text,
			Reason:  fmt.Sprintf("expected %d fields, got %d", payloadFieldCount, len(numbers)),
		}
	}
	fields := make([]int64, payloadFieldCount)
	for i := 0; i < payloadFieldCount; i++ {
		v, err := strconv.ParseInt(numbers[i], 10, 64)
		if err != nil {
			return nil, &exception.MalformedDescriptorError{
				Payload: text,
				Reason:  fmt.Sprintf("field %d is not an integer: %q", i, numbers[i]),
			}
		}
		fields[i] = v
	}
	info := entities.NewPacketInfo()
	info.Index = uint64(fields[0])
	info.Src = uint32(fields[1])
	info.Dst = uint32(fields[2])
	info.Ip = int32(fields[3])
	info.Proto = int32(fields[4])
	return info, nil
}

// Next
// returns the descriptor following after in creation order; nil after
// starts at index 0, nil result means the traversal is finished
func (r *Registry) Next(after *entities.PacketInfo) *entities.PacketInfo {
	r.lock.Lock()
	defer r.lock.Unlock()
	next := uint64(0)
	if after != nil {
		next = after.Index + 1
	}
	if next >= uint64(len(r.infos)) {
		return nil
	}
	return r.infos[next]
}

// NextForSource
// Next restricted to descriptors injected at the given source interface
func (r *Registry) NextForSource(srcIfIndex uint32, after *entities.PacketInfo) *entities.PacketInfo {
	for {
		after = r.Next(after)
		if after == nil {
			return nil
		}
		if after.Src == srcIfIndex {
			return after
		}
	}
}

// NextForSourceAndDest
// Next restricted to the given source and destination interfaces; used to
// verify that exactly the expected subsequence arrived, in order
func (r *Registry) NextForSourceAndDest(srcIfIndex, dstIfIndex uint32, after *entities.PacketInfo) *entities.PacketInfo {
	for {
		after = r.NextForSource(srcIfIndex, after)
		if after == nil {
			return nil
		}
		if after.Dst == dstIfIndex {
			return after
		}
	}
}
