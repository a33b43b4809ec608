// Copyright 2025 EURECOM
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
//
// Contributors:
//   Giulio CAROTA
//   Thomas DU
//   Adlen KSENTINI

package ie

import "encoding/binary"

// TLV-E elements that may follow the mandatory part of an ESM message.
const (
	EsmMessageContainerIei                  = 0x78
	ExtendedProtocolConfigurationOptionsIei = 0x7b
	ProtocolConfigurationOptionsIei         = 0x27
)

// SkipOptional returns the length of the optional element at the start of buf
// without interpreting it. Type 1 elements (IEI >= 0x80) span one octet,
// TLV-E elements carry a two octet length, all others are TLV.
func SkipOptional(buf []byte) (int, error) {
	if err := checkLength(buf, 1, "optional ie"); err != nil {
		return 0, err
	}
	if buf[0]&0x80 != 0 {
		return 1, nil
	}

	var n int
	switch buf[0] {
	case EsmMessageContainerIei, ExtendedProtocolConfigurationOptionsIei:
		if err := checkLength(buf, 3, "optional ie"); err != nil {
			return 0, err
		}
		n = 3 + int(binary.BigEndian.Uint16(buf[1:3]))
	default:
		if err := checkLength(buf, 2, "optional ie"); err != nil {
			return 0, err
		}
		n = 2 + int(buf[1])
	}
	if err := checkLength(buf, n, "optional ie"); err != nil {
		return 0, err
	}
	return n, nil
}
