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

package models

import (
	"time"

	"github.com/giuliocarot0/gitc"
	"github.com/google/uuid"

	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/sgsap"
)

const (
	SgsapAlertRequestType gitc.MessageType = iota
	SgsapAlertAckType
	SgsapAlertRejectType
	SgsapEpsDetachIndicationType
	SgsapEpsDetachAckType
	SgsapInboundPduType
	NasUplinkEsmType
	NasDownlinkEsmType
	TimerExpiryType
)

const ImsiDigitsMax = sgsap.ImsiDigitsMax

// SgsapAlertRequest is posted by SGS to MME_APP once an ALERT-REQUEST has
// been decoded. Imsi holds ImsiLength ASCII digits.
type SgsapAlertRequest struct {
	Imsi       [ImsiDigitsMax]byte
	ImsiLength uint8
}

type SgsapAlertAck struct {
	Imsi       [ImsiDigitsMax]byte
	ImsiLength uint8
}

type SgsapAlertReject struct {
	Imsi       [ImsiDigitsMax]byte
	ImsiLength uint8
	Cause      sgsap.Cause
}

// SgsapEpsDetachIndication asks SGS to tell the VLR that the UE left EPS services.
type SgsapEpsDetachIndication struct {
	Imsi       [ImsiDigitsMax]byte
	ImsiLength uint8
	DetachType uint8
}

type SgsapEpsDetachAck struct {
	Imsi       [ImsiDigitsMax]byte
	ImsiLength uint8
}

// SgsapInboundPdu carries raw SGsAP bytes received from the VLR association.
type SgsapInboundPdu struct {
	Pdu        []byte
	ReceivedAt time.Time
}

type NasUplinkEsm struct {
	Imsi64 uint64
	Pdu    []byte
}

type NasDownlinkEsm struct {
	Imsi64 uint64
	Pdu    []byte
}

// TimerExpiry is delivered to the task that armed the timer.
type TimerExpiry struct {
	Id     uuid.UUID
	Imsi64 uint64
	Timer  SgsTimer
}

// NewSgsapAlertRequest copies digits into a request payload. Digits beyond
// ImsiDigitsMax are dropped.
func NewSgsapAlertRequest(digits string) *SgsapAlertRequest {
	req := &SgsapAlertRequest{}
	req.ImsiLength = uint8(copy(req.Imsi[:], digits))
	return req
}

func (r *SgsapAlertRequest) ImsiDigits() string {
	return string(r.Imsi[:r.ImsiLength])
}

func (r *SgsapAlertAck) ImsiDigits() string {
	return string(r.Imsi[:r.ImsiLength])
}

func (r *SgsapAlertReject) ImsiDigits() string {
	return string(r.Imsi[:r.ImsiLength])
}

func (r *SgsapEpsDetachIndication) ImsiDigits() string {
	return string(r.Imsi[:r.ImsiLength])
}

func (r *SgsapEpsDetachAck) ImsiDigits() string {
	return string(r.Imsi[:r.ImsiLength])
}
