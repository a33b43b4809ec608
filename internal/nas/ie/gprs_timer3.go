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

import (
	"time"

	"github.com/go-faster/errors"
)

// GPRS timer 3 unit field, bits 8 to 6 (TS 24.008 10.5.7.4a).
const (
	GprsTimer3Unit10Minutes  uint8 = 0
	GprsTimer3Unit1Hour      uint8 = 1
	GprsTimer3Unit10Hours    uint8 = 2
	GprsTimer3Unit2Seconds   uint8 = 3
	GprsTimer3Unit30Seconds  uint8 = 4
	GprsTimer3Unit1Minute    uint8 = 5
	GprsTimer3Unit320Hours   uint8 = 6
	GprsTimer3UnitDeactivate uint8 = 7
)

const (
	// IEI used by ESM reject messages for the T3396 back-off value.
	T3396ValueIei = 0x37

	gprsTimer3Length = 3 // IEI, length, value
)

// GprsTimer3 is a TLV timer value.
type GprsTimer3 struct {
	Unit  uint8
	Value uint8
}

var gprsTimer3Units = [...]time.Duration{
	10 * time.Minute,
	time.Hour,
	10 * time.Hour,
	2 * time.Second,
	30 * time.Second,
	time.Minute,
	320 * time.Hour,
}

// Duration returns the timer value, or false when the timer is deactivated.
func (t GprsTimer3) Duration() (time.Duration, bool) {
	if int(t.Unit) >= len(gprsTimer3Units) {
		return 0, false
	}
	return time.Duration(t.Value) * gprsTimer3Units[t.Unit], true
}

func (t *GprsTimer3) Decode(buf []byte, iei uint8) (int, error) {
	if err := checkLength(buf, gprsTimer3Length, "gprs timer 3"); err != nil {
		return 0, err
	}
	if buf[0] != iei {
		return 0, errors.Wrapf(ErrUnexpectedIei, "gprs timer 3: got 0x%02x, want 0x%02x", buf[0], iei)
	}
	if buf[1] != 1 {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "gprs timer 3 length %d", buf[1])
	}
	t.Unit = buf[2] >> 5
	t.Value = buf[2] & 0x1f
	return gprsTimer3Length, nil
}

func (t GprsTimer3) Encode(buf []byte, iei uint8) (int, error) {
	if err := checkLength(buf, gprsTimer3Length, "gprs timer 3"); err != nil {
		return 0, err
	}
	if t.Unit > 0x07 || t.Value > 0x1f {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "gprs timer 3 unit %d value %d", t.Unit, t.Value)
	}
	buf[0] = iei
	buf[1] = 1
	buf[2] = t.Unit<<5 | t.Value
	return gprsTimer3Length, nil
}
