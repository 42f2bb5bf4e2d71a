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

// Package capture_reader reads back the dataplane's generator capture files
// and matches the packets against the seeded descriptors.
package capture_reader

import (
	"fmt"
	"io"
	"os"

	"github.com/Netcracker/qubership-dataplane-test-harness/entities"
	"github.com/Netcracker/qubership-dataplane-test-harness/services/packet_info"
	log "github.com/sirupsen/logrus"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// ReadCaptureFile
// loads all packets from a pcap capture file
func ReadCaptureFile(fileName string) ([]gopacket.Packet, error) {
	fh, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer func(fh *os.File) {
		if err := fh.Close(); err != nil {
			log.Debugf("unable to close capture file '%s': %v", fileName, err)
		}
	}(fh)
	reader, err := pcapgo.NewReader(fh)
	if err != nil {
		return nil, fmt.Errorf("unable to open capture file '%s': %v", fileName, err)
	}
	var packets []gopacket.Packet
	for {
		data, ci, err := reader.ReadPacketData()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read packet %d from '%s': %v", len(packets), fileName, err)
		}
		pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)
		pkt.Metadata().CaptureInfo = ci
		packets = append(packets, pkt)
	}
	log.Debugf("read %d packet(s) from capture '%s'", len(packets), fileName)
	return packets, nil
}

// PacketPayload
// extracts the application-layer payload carrying the descriptor
func PacketPayload(pkt gopacket.Packet) ([]byte, error) {
	app := pkt.ApplicationLayer()
	if app == nil {
		return nil, fmt.Errorf("packet has no application payload: %s", pkt.Dump())
	}
	return app.Payload(), nil
}

// DescriptorFromPacket
// decodes the provenance descriptor out of a captured packet
func DescriptorFromPacket(pkt gopacket.Packet) (*entities.PacketInfo, error) {
	payload, err := PacketPayload(pkt)
	if err != nil {
		return nil, err
	}
	return packet_info.DecodePayload(payload)
}

// VerifyCapture
// checks that the packets captured at dstIfIndex are exactly the
// descriptors seeded for (srcIfIndex, dstIfIndex), in creation order, with
// no gaps and no duplicates. Interleaved delivery from other pairs is
// invisible here because the traversal filters by both endpoints.
func VerifyCapture(registry *packet_info.Registry, srcIfIndex, dstIfIndex uint32, packets []gopacket.Packet) error {
	var last *entities.PacketInfo
	for i, pkt := range packets {
		payload, err := PacketPayload(pkt)
		if err != nil {
			return fmt.Errorf("capture packet %d: %v", i, err)
		}
		got, err := packet_info.DecodePayload(payload)
		if err != nil {
			return fmt.Errorf("capture packet %d: %v", i, err)
		}
		expected := registry.NextForSourceAndDest(srcIfIndex, dstIfIndex, last)
		if expected == nil {
			return fmt.Errorf("capture packet %d is unexpected: descriptor index %d (src %d dst %d), raw payload %q",
				i, got.Index, got.Src, got.Dst, payload)
		}
		if got.Index != expected.Index || got.Src != expected.Src || got.Dst != expected.Dst {
			return fmt.Errorf("capture packet %d mismatch: expected descriptor index %d (src %d dst %d), got index %d (src %d dst %d), raw payload %q",
				i, expected.Index, expected.Src, expected.Dst, got.Index, got.Src, got.Dst, payload)
		}
		last = expected
	}
	if missing := registry.NextForSourceAndDest(srcIfIndex, dstIfIndex, last); missing != nil {
		return fmt.Errorf("capture ended before descriptor index %d (src %d dst %d) arrived",
			missing.Index, missing.Src, missing.Dst)
	}
	return nil
}
