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

import "fmt"

// ForwardingEndpoint
// an attachment point packets are injected into or expected at.
// GroupIfIndex resolves to the interface whose capture collects the
// packets: a sub-interface reports its parent.
type ForwardingEndpoint interface {
	IfIndex() uint32
	GroupIfIndex() uint32
	Name() string
}

// GeneratorInterface
// a packet-generator interface on the dataplane side
type GeneratorInterface struct {
	SwIfIndex uint32
	IfName    string
}

func (i *GeneratorInterface) IfIndex() uint32 {
	return i.SwIfIndex
}

func (i *GeneratorInterface) GroupIfIndex() uint32 {
	return i.SwIfIndex
}

func (i *GeneratorInterface) Name() string {
	return i.IfName
}

// CaptureName
// the generator capture registered for this interface
func (i *GeneratorInterface) CaptureName() string {
	return fmt.Sprintf("pcap%d", i.SwIfIndex)
}

// SubInterface
// a vlan sub-interface; its packets arrive at the parent's capture
type SubInterface struct {
	SwIfIndex uint32
	VlanId    uint32
	Parent    *GeneratorInterface
}

func (i *SubInterface) IfIndex() uint32 {
	return i.SwIfIndex
}

func (i *SubInterface) GroupIfIndex() uint32 {
	return i.Parent.SwIfIndex
}

func (i *SubInterface) Name() string {
	return fmt.Sprintf("%s.%d", i.Parent.IfName, i.VlanId)
}
