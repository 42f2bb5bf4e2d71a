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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPacketInfoEqual(t *testing.T) {
	a := NewPacketInfo()
	a.Index = 5
	a.Src = 1
	a.Dst = 2
	a.Data = []byte{0xde, 0xad}

	b := NewPacketInfo()
	b.Index = 5
	b.Src = 1
	b.Dst = 2
	b.Data = []byte{0xde, 0xad}
	assert.True(t, a.Equal(b))

	// ip and proto differences are not a mismatch
	b.Ip = 4
	b.Proto = 17
	assert.True(t, a.Equal(b))

	b.Index = 6
	assert.False(t, a.Equal(b))
	b.Index = 5
	b.Data = []byte{0xde, 0xae}
	assert.False(t, a.Equal(b))

	assert.False(t, a.Equal(nil))
}

func TestNewPacketInfoDefaults(t *testing.T) {
	info := NewPacketInfo()
	assert.Equal(t, FieldUnset, info.Ip)
	assert.Equal(t, FieldUnset, info.Proto)
	assert.Equal(t, uint64(0), info.Index)
	assert.Nil(t, info.Data)
}
