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

// Minimum wire lengths, message type octet included.
const (
	AlertRequestMinimumLength = 1 + 2 + imsiLengthMin
	AlertAckMinimumLength     = 1 + 2 + imsiLengthMin
	AlertRejectMinimumLength  = 1 + 2 + imsiLengthMin + causeLength
)

// Message is a whole SGsAP PDU. Encode writes the message type octet.
type Message interface {
	MessageType() MessageType
	Decode(buf []byte) (int, error)
	Encode(buf []byte) (int, error)
}

// AlertRequest is sent by the VLR to request an indication when the UE
// becomes reachable for non-EPS services.
type AlertRequest struct {
	Imsi Imsi
}

func (m *AlertRequest) MessageType() MessageType { return AlertRequestType }

func (m *AlertRequest) Decode(buf []byte) (int, error) {
	return decodeImsiOnly(buf, AlertRequestType, AlertRequestMinimumLength, &m.Imsi)
}

func (m *AlertRequest) Encode(buf []byte) (int, error) {
	return encodeImsiOnly(buf, AlertRequestType, AlertRequestMinimumLength, m.Imsi)
}

type AlertAck struct {
	Imsi Imsi
}

func (m *AlertAck) MessageType() MessageType { return AlertAckType }

func (m *AlertAck) Decode(buf []byte) (int, error) {
	return decodeImsiOnly(buf, AlertAckType, AlertAckMinimumLength, &m.Imsi)
}

func (m *AlertAck) Encode(buf []byte) (int, error) {
	return encodeImsiOnly(buf, AlertAckType, AlertAckMinimumLength, m.Imsi)
}

type AlertReject struct {
	Imsi  Imsi
	Cause Cause
}

func (m *AlertReject) MessageType() MessageType { return AlertRejectType }

func (m *AlertReject) Decode(buf []byte) (int, error) {
	if err := checkMessage(buf, AlertRejectType, AlertRejectMinimumLength); err != nil {
		return 0, err
	}
	decoded := 1
	var imsi Imsi
	n, err := imsi.Decode(buf[decoded:])
	if err != nil {
		return 0, err
	}
	decoded += n

	var cause Cause
	n, err = cause.Decode(buf[decoded:])
	if err != nil {
		return 0, err
	}
	decoded += n

	m.Imsi = imsi
	m.Cause = cause
	return decoded, nil
}

func (m *AlertReject) Encode(buf []byte) (int, error) {
	if len(buf) < AlertRejectMinimumLength {
		return 0, errors.Wrapf(ErrMessageTooShort, "%s: need %d bytes, have %d", AlertRejectType, AlertRejectMinimumLength, len(buf))
	}
	buf[0] = uint8(AlertRejectType)
	encoded := 1
	n, err := m.Imsi.Encode(buf[encoded:])
	if err != nil {
		return 0, err
	}
	encoded += n

	n, err = m.Cause.Encode(buf[encoded:])
	if err != nil {
		return 0, err
	}
	return encoded + n, nil
}

var constructors = map[MessageType]func() Message{
	AlertRequestType: func() Message { return new(AlertRequest) },
	AlertAckType:     func() Message { return new(AlertAck) },
	AlertRejectType:  func() Message { return new(AlertReject) },

	EpsDetachIndicationType: func() Message { return new(EpsDetachIndication) },
	EpsDetachAckType:        func() Message { return new(EpsDetachAck) },
}

// Decode decodes the SGsAP PDU in buf. Bytes following the last mandatory
// element are not consumed.
func Decode(buf []byte) (Message, int, error) {
	if len(buf) == 0 {
		return nil, 0, errors.Wrap(ErrMessageTooShort, "empty pdu")
	}
	t := MessageType(buf[0])
	newMessage, ok := constructors[t]
	if !ok {
		return nil, 0, errors.Wrapf(ErrUnknownMessageType, "0x%02x (%s)", buf[0], t)
	}
	msg := newMessage()
	n, err := msg.Decode(buf)
	if err != nil {
		return nil, 0, err
	}
	return msg, n, nil
}

func Encode(msg Message, buf []byte) (int, error) {
	if _, ok := constructors[msg.MessageType()]; !ok {
		return 0, errors.Wrapf(ErrUnknownMessageType, "0x%02x", uint8(msg.MessageType()))
	}
	return msg.Encode(buf)
}

func checkMessage(buf []byte, t MessageType, min int) error {
	if len(buf) < min {
		return errors.Wrapf(ErrMessageTooShort, "%s: need %d bytes, have %d", t, min, len(buf))
	}
	if MessageType(buf[0]) != t {
		return errors.Wrapf(ErrUnknownMessageType, "got %s, want %s", MessageType(buf[0]), t)
	}
	return nil
}

func decodeImsiOnly(buf []byte, t MessageType, min int, imsi *Imsi) (int, error) {
	if err := checkMessage(buf, t, min); err != nil {
		return 0, err
	}
	var v Imsi
	n, err := v.Decode(buf[1:])
	if err != nil {
		return 0, err
	}
	*imsi = v
	return 1 + n, nil
}

func encodeImsiOnly(buf []byte, t MessageType, min int, imsi Imsi) (int, error) {
	if len(buf) < min {
		return 0, errors.Wrapf(ErrMessageTooShort, "%s: need %d bytes, have %d", t, min, len(buf))
	}
	buf[0] = uint8(t)
	n, err := imsi.Encode(buf[1:])
	if err != nil {
		return 0, err
	}
	return 1 + n, nil
}
