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

import "bytes"

// FieldUnset marks the ip/proto fields of a descriptor as not filled in yet
const FieldUnset = int32(-1)

// PacketInfo
// per-packet provenance record. Created before injection, serialized into
// the packet payload, decoded back from the captured payload to verify
// multi-interface forwarding.
type PacketInfo struct {
	// Index dense 0-based position in creation order
	Index uint64
	// Src source packet-generator interface index
	Src uint32
	// Dst destination packet-generator interface index
	Dst uint32
	// Ip expected ip version, FieldUnset when not relevant
	Ip int32
	// Proto expected upper protocol, FieldUnset when not relevant
	Proto int32
	// Data snapshot of the injected packet
	Data []byte
}

// NewPacketInfo
// returns a descriptor with ip/proto unset
func NewPacketInfo() *PacketInfo {
	return &PacketInfo{Ip: FieldUnset, Proto: FieldUnset}
}

// Equal
// compares index, interfaces and payload snapshot.
// Ip and Proto stay out of the comparison: verification re-decodes payloads
// whose ip/proto may legitimately differ from the seeded expectation.
func (info *PacketInfo) Equal(other *PacketInfo) bool {
	if other == nil {
		return false
	}
	return info.Index == other.Index &&
		info.Src == other.Src &&
		info.Dst == other.Dst &&
		bytes.Equal(info.Data, other.Data)
}
