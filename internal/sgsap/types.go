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

// MessageType is the first octet of every SGsAP message (TS 29.118 9.2).
type MessageType uint8

const (
	PagingRequestType            MessageType = 0x01
	PagingRejectType             MessageType = 0x02
	ServiceRequestType           MessageType = 0x06
	DownlinkUnitdataType         MessageType = 0x07
	UplinkUnitdataType           MessageType = 0x08
	LocationUpdateRequestType    MessageType = 0x09
	LocationUpdateAcceptType     MessageType = 0x0a
	LocationUpdateRejectType     MessageType = 0x0b
	TmsiReallocationCompleteType MessageType = 0x0c
	AlertRequestType             MessageType = 0x0d
	AlertAckType                 MessageType = 0x0e
	AlertRejectType              MessageType = 0x0f
	UeActivityIndicationType     MessageType = 0x10
	EpsDetachIndicationType      MessageType = 0x11
	EpsDetachAckType             MessageType = 0x12
	ImsiDetachIndicationType     MessageType = 0x13
	ImsiDetachAckType            MessageType = 0x14
	ResetIndicationType          MessageType = 0x15
	ResetAckType                 MessageType = 0x16
	ServiceAbortRequestType      MessageType = 0x17
	MoCsfbIndicationType         MessageType = 0x18
	MmInformationRequestType     MessageType = 0x1a
	ReleaseRequestType           MessageType = 0x1b
	StatusType                   MessageType = 0x1d
	UeUnreachableType            MessageType = 0x1f
)

var messageTypeNames = map[MessageType]string{
	PagingRequestType:            "SGsAP-PAGING-REQUEST",
	PagingRejectType:             "SGsAP-PAGING-REJECT",
	ServiceRequestType:           "SGsAP-SERVICE-REQUEST",
	DownlinkUnitdataType:         "SGsAP-DOWNLINK-UNITDATA",
	UplinkUnitdataType:           "SGsAP-UPLINK-UNITDATA",
	LocationUpdateRequestType:    "SGsAP-LOCATION-UPDATE-REQUEST",
	LocationUpdateAcceptType:     "SGsAP-LOCATION-UPDATE-ACCEPT",
	LocationUpdateRejectType:     "SGsAP-LOCATION-UPDATE-REJECT",
	TmsiReallocationCompleteType: "SGsAP-TMSI-REALLOCATION-COMPLETE",
	AlertRequestType:             "SGsAP-ALERT-REQUEST",
	AlertAckType:                 "SGsAP-ALERT-ACK",
	AlertRejectType:              "SGsAP-ALERT-REJECT",
	UeActivityIndicationType:     "SGsAP-UE-ACTIVITY-INDICATION",
	EpsDetachIndicationType:      "SGsAP-EPS-DETACH-INDICATION",
	EpsDetachAckType:             "SGsAP-EPS-DETACH-ACK",
	ImsiDetachIndicationType:     "SGsAP-IMSI-DETACH-INDICATION",
	ImsiDetachAckType:            "SGsAP-IMSI-DETACH-ACK",
	ResetIndicationType:          "SGsAP-RESET-INDICATION",
	ResetAckType:                 "SGsAP-RESET-ACK",
	ServiceAbortRequestType:      "SGsAP-SERVICE-ABORT-REQUEST",
	MoCsfbIndicationType:         "SGsAP-MO-CSFB-INDICATION",
	MmInformationRequestType:     "SGsAP-MM-INFORMATION-REQUEST",
	ReleaseRequestType:           "SGsAP-RELEASE-REQUEST",
	StatusType:                   "SGsAP-STATUS",
	UeUnreachableType:            "SGsAP-UE-UNREACHABLE",
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "SGsAP-UNKNOWN"
}

// Information element identifiers (TS 29.118 9.3).
const (
	ImsiIei     = 0x01
	SgsCauseIei = 0x08
)

var (
	ErrBufferTooShort     = errors.New("sgsap: buffer too short")
	ErrInvalidFieldValue  = errors.New("sgsap: invalid field value")
	ErrUnexpectedIei      = errors.New("sgsap: unexpected information element")
	ErrMessageTooShort    = errors.New("sgsap: message too short")
	ErrUnknownMessageType = errors.New("sgsap: unknown message type")
)

func checkLength(buf []byte, min int, field string) error {
	if len(buf) < min {
		return errors.Wrapf(ErrBufferTooShort, "%s: need %d bytes, have %d", field, min, len(buf))
	}
	return nil
}
