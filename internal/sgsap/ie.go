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

package sgsap

import (
	"github.com/go-faster/errors"
)

const (
	ImsiDigitsMin = 6
	ImsiDigitsMax = 15

	imsiLengthMin    = 4
	imsiLengthMax    = 8
	imsiTypeOfId     = 0x01
	imsiOddIndicator = 0x08
)

// Imsi is the IMSI information element (TS 29.118 9.4.6), held as a digit string.
type Imsi string

// Decode reads a TLV IMSI coded as a TS 24.008 mobile identity.
func (i *Imsi) Decode(buf []byte) (int, error) {
	if err := checkLength(buf, 2+imsiLengthMin, "imsi"); err != nil {
		return 0, err
	}
	if buf[0] != ImsiIei {
		return 0, errors.Wrapf(ErrUnexpectedIei, "imsi: got 0x%02x", buf[0])
	}
	length := int(buf[1])
	if length < imsiLengthMin || length > imsiLengthMax {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "imsi length %d", length)
	}
	if err := checkLength(buf, 2+length, "imsi"); err != nil {
		return 0, err
	}
	value := buf[2 : 2+length]
	if value[0]&0x07 != imsiTypeOfId {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "imsi type of identity %d", value[0]&0x07)
	}

	digits := make([]byte, 0, ImsiDigitsMax)
	digits = append(digits, value[0]>>4)
	for _, b := range value[1:] {
		digits = append(digits, b&0x0f, b>>4)
	}
	if value[0]&imsiOddIndicator == 0 {
		if digits[len(digits)-1] != 0x0f {
			return 0, errors.Wrap(ErrInvalidFieldValue, "imsi filler")
		}
		digits = digits[:len(digits)-1]
	}
	if len(digits) < ImsiDigitsMin || len(digits) > ImsiDigitsMax {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "imsi with %d digits", len(digits))
	}
	for k, d := range digits {
		if d > 9 {
			return 0, errors.Wrapf(ErrInvalidFieldValue, "imsi digit 0x%x", d)
		}
		digits[k] = '0' + d
	}

	*i = Imsi(digits)
	return 2 + length, nil
}

func (i Imsi) Encode(buf []byte) (int, error) {
	n := len(i)
	if n < ImsiDigitsMin || n > ImsiDigitsMax {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "imsi with %d digits", n)
	}
	for k := 0; k < n; k++ {
		if i[k] < '0' || i[k] > '9' {
			return 0, errors.Wrapf(ErrInvalidFieldValue, "imsi digit %q", i[k])
		}
	}
	length := n/2 + 1
	if err := checkLength(buf, 2+length, "imsi"); err != nil {
		return 0, err
	}

	buf[0] = ImsiIei
	buf[1] = uint8(length)
	buf[2] = (i[0]-'0')<<4 | imsiTypeOfId
	if n%2 == 1 {
		buf[2] |= imsiOddIndicator
	}
	for k := 1; k < n; k += 2 {
		lo := i[k] - '0'
		hi := uint8(0x0f)
		if k+1 < n {
			hi = i[k+1] - '0'
		}
		buf[2+(k+1)/2] = hi<<4 | lo
	}
	return 2 + length, nil
}

// Cause is the SGs cause value (TS 29.118 9.4.18).
type Cause uint8

const (
	CauseImsiDetachedForEpsServices              Cause = 0x01
	CauseImsiDetachedForEpsAndNonEpsServices     Cause = 0x02
	CauseImsiUnknown                             Cause = 0x03
	CauseImsiDetachedForNonEpsServices           Cause = 0x04
	CauseImsiImplicitlyDetachedForNonEpsServices Cause = 0x05
	CauseUeUnreachable                           Cause = 0x06
	CauseMessageNotCompatibleWithProtocolState   Cause = 0x07
	CauseMissingMandatoryIe                      Cause = 0x08
	CauseInvalidMandatoryInformation             Cause = 0x09
	CauseConditionalIeError                      Cause = 0x0a
	CauseSemanticallyIncorrectMessage            Cause = 0x0b
	CauseMessageUnknown                          Cause = 0x0c
	CauseMobileTerminatingCsFallbackCallRejected Cause = 0x0d
	CauseUeTemporarilyUnreachable                Cause = 0x0e
)

const causeLength = 3

func (c Cause) Valid() bool {
	return c >= CauseImsiDetachedForEpsServices && c <= CauseUeTemporarilyUnreachable
}

func (c *Cause) Decode(buf []byte) (int, error) {
	if err := checkLength(buf, causeLength, "sgs cause"); err != nil {
		return 0, err
	}
	if buf[0] != SgsCauseIei {
		return 0, errors.Wrapf(ErrUnexpectedIei, "sgs cause: got 0x%02x", buf[0])
	}
	if buf[1] != 1 {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "sgs cause length %d", buf[1])
	}
	v := Cause(buf[2])
	if !v.Valid() {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "sgs cause 0x%02x", buf[2])
	}
	*c = v
	return causeLength, nil
}

func (c Cause) Encode(buf []byte) (int, error) {
	if err := checkLength(buf, causeLength, "sgs cause"); err != nil {
		return 0, err
	}
	if !c.Valid() {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "sgs cause 0x%02x", uint8(c))
	}
	buf[0] = SgsCauseIei
	buf[1] = 1
	buf[2] = uint8(c)
	return causeLength, nil
}
