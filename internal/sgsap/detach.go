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
	"bytes"
	"strings"

	"github.com/go-faster/errors"
)

const (
	MmeNameIei                      = 0x09
	ImsiDetachFromEpsServiceTypeIei = 0x10
)

// IMSI detach from EPS service type values (TS 29.118 9.4.10).
const (
	NetworkInitiatedImsiDetachFromEps uint8 = 0x01
	UeInitiatedImsiDetachFromEps      uint8 = 0x02
	EpsServicesNotAllowed             uint8 = 0x03
)

const (
	mmeNameLengthMin = 2
	mmeNameLabelMax  = 63
	detachTypeLength = 3

	EpsDetachIndicationMinimumLength = 1 + 2 + imsiLengthMin + 2 + mmeNameLengthMin + detachTypeLength
	EpsDetachAckMinimumLength        = 1 + 2 + imsiLengthMin
)

// MmeName is an FQDN carried as DNS labels (TS 29.118 9.4.13).
type MmeName string

func (n *MmeName) Decode(buf []byte) (int, error) {
	if err := checkLength(buf, 2+mmeNameLengthMin, "mme name"); err != nil {
		return 0, err
	}
	if buf[0] != MmeNameIei {
		return 0, errors.Wrapf(ErrUnexpectedIei, "mme name: got 0x%02x", buf[0])
	}
	length := int(buf[1])
	if length < mmeNameLengthMin {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "mme name length %d", length)
	}
	if err := checkLength(buf, 2+length, "mme name"); err != nil {
		return 0, err
	}

	value := buf[2 : 2+length]
	labels := make([]string, 0, 8)
	for i := 0; i < len(value); {
		l := int(value[i])
		if l == 0 || l > mmeNameLabelMax || i+1+l > len(value) {
			return 0, errors.Wrapf(ErrInvalidFieldValue, "mme name label length %d at %d", l, i)
		}
		label := value[i+1 : i+1+l]
		if bytes.IndexByte(label, '.') >= 0 {
			return 0, errors.Wrapf(ErrInvalidFieldValue, "mme name label %q", label)
		}
		labels = append(labels, string(label))
		i += 1 + l
	}
	*n = MmeName(strings.Join(labels, "."))
	return 2 + length, nil
}

func (n MmeName) Encode(buf []byte) (int, error) {
	labels := strings.Split(string(n), ".")
	length := 0
	for _, l := range labels {
		if len(l) == 0 || len(l) > mmeNameLabelMax {
			return 0, errors.Wrapf(ErrInvalidFieldValue, "mme name label %q", l)
		}
		length += 1 + len(l)
	}
	if length > 0xff {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "mme name length %d", length)
	}
	if err := checkLength(buf, 2+length, "mme name"); err != nil {
		return 0, err
	}

	buf[0] = MmeNameIei
	buf[1] = uint8(length)
	i := 2
	for _, l := range labels {
		buf[i] = uint8(len(l))
		i += 1 + copy(buf[i+1:], l)
	}
	return 2 + length, nil
}

func validDetachType(v uint8) bool {
	return v >= NetworkInitiatedImsiDetachFromEps && v <= EpsServicesNotAllowed
}

// EpsDetachIndication tells the VLR that the UE is no longer attached for EPS services.
type EpsDetachIndication struct {
	Imsi       Imsi
	MmeName    MmeName
	DetachType uint8
}

func (m *EpsDetachIndication) MessageType() MessageType { return EpsDetachIndicationType }

func (m *EpsDetachIndication) Decode(buf []byte) (int, error) {
	if err := checkMessage(buf, EpsDetachIndicationType, EpsDetachIndicationMinimumLength); err != nil {
		return 0, err
	}
	decoded := 1
	var imsi Imsi
	n, err := imsi.Decode(buf[decoded:])
	if err != nil {
		return 0, err
	}
	decoded += n

	var name MmeName
	n, err = name.Decode(buf[decoded:])
	if err != nil {
		return 0, err
	}
	decoded += n

	if err := checkLength(buf[decoded:], detachTypeLength, "detach type"); err != nil {
		return 0, err
	}
	if buf[decoded] != ImsiDetachFromEpsServiceTypeIei {
		return 0, errors.Wrapf(ErrUnexpectedIei, "detach type: got 0x%02x", buf[decoded])
	}
	if buf[decoded+1] != 1 {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "detach type length %d", buf[decoded+1])
	}
	detachType := buf[decoded+2]
	if !validDetachType(detachType) {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "detach type %d", detachType)
	}
	decoded += detachTypeLength

	m.Imsi = imsi
	m.MmeName = name
	m.DetachType = detachType
	return decoded, nil
}

func (m *EpsDetachIndication) Encode(buf []byte) (int, error) {
	if !validDetachType(m.DetachType) {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "detach type %d", m.DetachType)
	}
	if len(buf) < EpsDetachIndicationMinimumLength {
		return 0, errors.Wrapf(ErrMessageTooShort, "%s: need %d bytes, have %d", EpsDetachIndicationType, EpsDetachIndicationMinimumLength, len(buf))
	}
	buf[0] = uint8(EpsDetachIndicationType)
	encoded := 1
	n, err := m.Imsi.Encode(buf[encoded:])
	if err != nil {
		return 0, err
	}
	encoded += n

	n, err = m.MmeName.Encode(buf[encoded:])
	if err != nil {
		return 0, err
	}
	encoded += n

	if err := checkLength(buf[encoded:], detachTypeLength, "detach type"); err != nil {
		return 0, err
	}
	buf[encoded] = ImsiDetachFromEpsServiceTypeIei
	buf[encoded+1] = 1
	buf[encoded+2] = m.DetachType
	return encoded + detachTypeLength, nil
}

type EpsDetachAck struct {
	Imsi Imsi
}

func (m *EpsDetachAck) MessageType() MessageType { return EpsDetachAckType }

func (m *EpsDetachAck) Decode(buf []byte) (int, error) {
	return decodeImsiOnly(buf, EpsDetachAckType, EpsDetachAckMinimumLength, &m.Imsi)
}

func (m *EpsDetachAck) Encode(buf []byte) (int, error) {
	return encodeImsiOnly(buf, EpsDetachAckType, EpsDetachAckMinimumLength, m.Imsi)
}
