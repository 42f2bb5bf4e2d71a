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

package capture_reader

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Netcracker/qubership-dataplane-test-harness/entities"
	"github.com/Netcracker/qubership-dataplane-test-harness/services/packet_info"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
)

// buildPacket
// serializes an Ethernet/IPv4/UDP packet carrying the descriptor payload
func buildPacket(t *testing.T, payload []byte) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
		DstMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IP{10, 0, 0, 1},
		DstIP:    net.IP{10, 0, 0, 2},
	}
	udp := &layers.UDP{SrcPort: 1234, DstPort: 4321}
	assert.NoError(t, udp.SetNetworkLayerForChecksum(ip))
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload))
	assert.NoError(t, err)
	return buf.Bytes()
}

// writeCaptureFile
// produces a pcap file the way the dataplane generator writes its captures
func writeCaptureFile(t *testing.T, payloads [][]byte) string {
	t.Helper()
	fileName := filepath.Join(t.TempDir(), "capture_test.pcap")
	fh, err := os.Create(fileName)
	assert.NoError(t, err)
	defer func() {
		assert.NoError(t, fh.Close())
	}()
	w := pcapgo.NewWriter(fh)
	assert.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	for _, payload := range payloads {
		data := buildPacket(t, payload)
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Now(),
			CaptureLength: len(data),
			Length:        len(data),
		}
		assert.NoError(t, w.WritePacket(ci, data))
	}
	return fileName
}

func seedRegistry(pairs [][2]uint32) *packet_info.Registry {
	r := packet_info.NewRegistry()
	for _, pair := range pairs {
		src := &entities.GeneratorInterface{SwIfIndex: pair[0], IfName: "pg"}
		dst := &entities.GeneratorInterface{SwIfIndex: pair[1], IfName: "pg"}
		r.Create(src, dst)
	}
	return r
}

func TestReadCaptureFile(t *testing.T) {
	r := seedRegistry([][2]uint32{{1, 2}})
	info := r.Next(nil)
	fileName := writeCaptureFile(t, [][]byte{packet_info.EncodePayload(info)})

	packets, err := ReadCaptureFile(fileName)
	assert.NoError(t, err)
	assert.Len(t, packets, 1)

	decoded, err := DescriptorFromPacket(packets[0])
	assert.NoError(t, err)
	assert.Equal(t, info.Index, decoded.Index)
	assert.Equal(t, info.Src, decoded.Src)
	assert.Equal(t, info.Dst, decoded.Dst)
}

func TestReadCaptureFileMissing(t *testing.T) {
	_, err := ReadCaptureFile(filepath.Join(t.TempDir(), "no_such.pcap"))
	assert.Error(t, err)
}

func TestVerifyCaptureExactSubsequence(t *testing.T) {
	// packets to dst 3 interleave with the 1->2 flow and must not disturb it
	r := seedRegistry([][2]uint32{{1, 2}, {1, 3}, {1, 2}})
	first := r.NextForSourceAndDest(1, 2, nil)
	second := r.NextForSourceAndDest(1, 2, first)
	assert.NotNil(t, second)

	fileName := writeCaptureFile(t, [][]byte{
		packet_info.EncodePayload(first),
		packet_info.EncodePayload(second),
	})
	packets, err := ReadCaptureFile(fileName)
	assert.NoError(t, err)
	assert.NoError(t, VerifyCapture(r, 1, 2, packets))

	other := r.NextForSourceAndDest(1, 3, nil)
	otherFile := writeCaptureFile(t, [][]byte{packet_info.EncodePayload(other)})
	otherPackets, err := ReadCaptureFile(otherFile)
	assert.NoError(t, err)
	assert.NoError(t, VerifyCapture(r, 1, 3, otherPackets))
}

func TestVerifyCaptureOutOfOrder(t *testing.T) {
	r := seedRegistry([][2]uint32{{1, 2}, {1, 2}})
	first := r.Next(nil)
	second := r.Next(first)

	fileName := writeCaptureFile(t, [][]byte{
		packet_info.EncodePayload(second),
		packet_info.EncodePayload(first),
	})
	packets, err := ReadCaptureFile(fileName)
	assert.NoError(t, err)
	err = VerifyCapture(r, 1, 2, packets)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}

func TestVerifyCaptureMissingPacket(t *testing.T) {
	r := seedRegistry([][2]uint32{{1, 2}, {1, 2}})
	first := r.Next(nil)

	fileName := writeCaptureFile(t, [][]byte{packet_info.EncodePayload(first)})
	packets, err := ReadCaptureFile(fileName)
	assert.NoError(t, err)
	err = VerifyCapture(r, 1, 2, packets)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "capture ended")
}

func TestVerifyCaptureUnexpectedPacket(t *testing.T) {
	r := seedRegistry([][2]uint32{{1, 2}})
	stray := packet_info.NewRegistry()
	strayInfo := stray.Create(
		&entities.GeneratorInterface{SwIfIndex: 1, IfName: "pg"},
		&entities.GeneratorInterface{SwIfIndex: 2, IfName: "pg"})
	strayInfo.Index = 40 // beyond anything the registry seeded

	expected := r.Next(nil)
	fileName := writeCaptureFile(t, [][]byte{
		packet_info.EncodePayload(expected),
		packet_info.EncodePayload(strayInfo),
	})
	packets, err := ReadCaptureFile(fileName)
	assert.NoError(t, err)
	assert.Error(t, VerifyCapture(r, 1, 2, packets))
}
