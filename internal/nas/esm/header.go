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

	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/nas/ie"
)

// MessageType is the ESM message type octet (TS 24.301 9.8).
type MessageType uint8

const (
	ActivateDefaultEpsBearerContextRequest   MessageType = 0xc1
	ActivateDefaultEpsBearerContextAccept    MessageType = 0xc2
	ActivateDefaultEpsBearerContextReject    MessageType = 0xc3
	ActivateDedicatedEpsBearerContextRequest MessageType = 0xc5
	ActivateDedicatedEpsBearerContextAccept  MessageType = 0xc6
	ActivateDedicatedEpsBearerContextReject  MessageType = 0xc7
	ModifyEpsBearerContextRequest            MessageType = 0xc9
	ModifyEpsBearerContextAccept             MessageType = 0xca
	ModifyEpsBearerContextReject             MessageType = 0xcb
	DeactivateEpsBearerContextRequestType    MessageType = 0xcd
	DeactivateEpsBearerContextAcceptType     MessageType = 0xce
	PdnConnectivityRequest                   MessageType = 0xd0
	PdnConnectivityRejectType                MessageType = 0xd1
	PdnDisconnectRequest                     MessageType = 0xd2
	PdnDisconnectRejectType                  MessageType = 0xd3
	BearerResourceAllocationRequest          MessageType = 0xd4
	BearerResourceAllocationRejectType       MessageType = 0xd5
	BearerResourceModificationRequest        MessageType = 0xd6
	BearerResourceModificationRejectType     MessageType = 0xd7
	EsmInformationRequestType                MessageType = 0xd9
	EsmInformationResponse                   MessageType = 0xda
	Notification                             MessageType = 0xdb
	EsmDummyMessage                          MessageType = 0xdc
	EsmStatusType                            MessageType = 0xe8
)

const (
	ProtocolDiscriminator = 0x2
	HeaderLength          = 3
)

var ErrProtocolDiscriminator = errors.New("esm: not an esm message")

// Header is the plain ESM message header.
type Header struct {
	EpsBearerIdentity            uint8
	ProcedureTransactionIdentity uint8
	MessageType                  MessageType
}

func (h *Header) Decode(buf []byte) (int, error) {
	if len(buf) < HeaderLength {
		return 0, errors.Wrapf(ie.ErrBufferTooShort, "esm header: have %d bytes", len(buf))
	}
	if buf[0]&0x0f != ProtocolDiscriminator {
		return 0, errors.Wrapf(ErrProtocolDiscriminator, "protocol discriminator 0x%x", buf[0]&0x0f)
	}
	h.EpsBearerIdentity = buf[0] >> 4
	h.ProcedureTransactionIdentity = buf[1]
	h.MessageType = MessageType(buf[2])
	return HeaderLength, nil
}

func (h Header) Encode(buf []byte) (int, error) {
	if len(buf) < HeaderLength {
		return 0, errors.Wrapf(ie.ErrBufferTooShort, "esm header: have %d bytes", len(buf))
	}
	if h.EpsBearerIdentity > 0x0f {
		return 0, errors.Wrapf(ie.ErrInvalidFieldValue, "eps bearer identity %d", h.EpsBearerIdentity)
	}
	buf[0] = h.EpsBearerIdentity<<4 | ProtocolDiscriminator
	buf[1] = h.ProcedureTransactionIdentity
	buf[2] = uint8(h.MessageType)
	return HeaderLength, nil
}
