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

package esm

import (
	"github.com/go-faster/errors"
)

var (
	ErrMessageTooShort    = errors.New("esm: message too short")
	ErrUnknownMessageType = errors.New("esm: unknown message type")
)

// Message is one ESM message body. Decode and Encode check the minimum
// length of the message type before touching any field, and Decode leaves
// the receiver untouched on failure.
type Message interface {
	MessageType() MessageType
	Decode(buf []byte) (int, error)
	Encode(buf []byte) (int, error)
}

var constructors = map[MessageType]func() Message{
	EsmStatusType:                         func() Message { return new(EsmStatus) },
	PdnConnectivityRejectType:             func() Message { return new(PdnConnectivityReject) },
	PdnDisconnectRejectType:               func() Message { return new(PdnDisconnectReject) },
	BearerResourceAllocationRejectType:    func() Message { return new(BearerResourceAllocationReject) },
	BearerResourceModificationRejectType:  func() Message { return new(BearerResourceModificationReject) },
	DeactivateEpsBearerContextRequestType: func() Message { return new(DeactivateEpsBearerContextRequest) },
	DeactivateEpsBearerContextAcceptType:  func() Message { return new(DeactivateEpsBearerContextAccept) },
	EsmInformationRequestType:             func() Message { return new(EsmInformationRequest) },
}

var minimumLengths = map[MessageType]int{
	EsmStatusType:                         EsmStatusMinimumLength,
	PdnConnectivityRejectType:             PdnConnectivityRejectMinimumLength,
	PdnDisconnectRejectType:               PdnDisconnectRejectMinimumLength,
	BearerResourceAllocationRejectType:    BearerResourceAllocationRejectMinimumLength,
	BearerResourceModificationRejectType:  BearerResourceModificationRejectMinimumLength,
	DeactivateEpsBearerContextRequestType: DeactivateEpsBearerContextRequestMinimumLength,
	DeactivateEpsBearerContextAcceptType:  DeactivateEpsBearerContextAcceptMinimumLength,
	EsmInformationRequestType:             EsmInformationRequestMinimumLength,
}

// MinimumLength returns the declared minimum body length of t.
func MinimumLength(t MessageType) (int, bool) {
	min, ok := minimumLengths[t]
	return min, ok
}

// Supported reports whether the codec knows message type t.
func Supported(t MessageType) bool {
	_, ok := constructors[t]
	return ok
}

// DecodeMessage decodes a message body of type t. A buffer shorter than the
// type minimum fails with ErrMessageTooShort before any field decoder runs.
func DecodeMessage(t MessageType, buf []byte) (Message, int, error) {
	newMessage, ok := constructors[t]
	if !ok {
		return nil, 0, errors.Wrapf(ErrUnknownMessageType, "0x%02x", uint8(t))
	}
	if err := checkMinimumLength(buf, minimumLengths[t], t); err != nil {
		return nil, 0, err
	}
	msg := newMessage()
	n, err := msg.Decode(buf)
	if err != nil {
		return nil, 0, err
	}
	return msg, n, nil
}

// EncodeMessage encodes the body of msg into buf.
func EncodeMessage(msg Message, buf []byte) (int, error) {
	t := msg.MessageType()
	min, ok := minimumLengths[t]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownMessageType, "0x%02x", uint8(t))
	}
	if err := checkMinimumLength(buf, min, t); err != nil {
		return 0, err
	}
	return msg.Encode(buf)
}

// DecodePdu decodes a plain ESM message: header followed by the body.
func DecodePdu(buf []byte) (Header, Message, int, error) {
	var h Header
	n, err := h.Decode(buf)
	if err != nil {
		return Header{}, nil, 0, err
	}
	msg, m, err := DecodeMessage(h.MessageType, buf[n:])
	if err != nil {
		return h, nil, 0, err
	}
	return h, msg, n + m, nil
}

// EncodePdu encodes h and msg into buf. The header message type is taken from msg.
func EncodePdu(h Header, msg Message, buf []byte) (int, error) {
	h.MessageType = msg.MessageType()
	n, err := h.Encode(buf)
	if err != nil {
		return 0, err
	}
	m, err := EncodeMessage(msg, buf[n:])
	if err != nil {
		return 0, err
	}
	return n + m, nil
}

func checkMinimumLength(buf []byte, min int, t MessageType) error {
	if len(buf) < min {
		return errors.Wrapf(ErrMessageTooShort, "type 0x%02x: need %d bytes, have %d", uint8(t), min, len(buf))
	}
	return nil
}
