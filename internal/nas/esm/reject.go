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
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/nas/ie"
)

const (
	PdnConnectivityRejectMinimumLength             = ie.EsmCauseMinimumLength
	PdnDisconnectRejectMinimumLength               = ie.EsmCauseMinimumLength
	BearerResourceAllocationRejectMinimumLength    = ie.EsmCauseMinimumLength
	BearerResourceModificationRejectMinimumLength  = ie.EsmCauseMinimumLength
	DeactivateEpsBearerContextRequestMinimumLength = ie.EsmCauseMinimumLength
	DeactivateEpsBearerContextAcceptMinimumLength  = 0
)

// PdnConnectivityReject answers a PDN CONNECTIVITY REQUEST (TS 24.301 8.3.19).
type PdnConnectivityReject struct {
	Cause ie.EsmCause
	T3396 *ie.GprsTimer3
}

func (m *PdnConnectivityReject) MessageType() MessageType { return PdnConnectivityRejectType }

func (m *PdnConnectivityReject) Decode(buf []byte) (int, error) {
	return decodeCauseBackoff(buf, PdnConnectivityRejectType, &m.Cause, &m.T3396)
}

func (m *PdnConnectivityReject) Encode(buf []byte) (int, error) {
	return encodeCauseBackoff(buf, PdnConnectivityRejectType, m.Cause, m.T3396)
}

// PdnDisconnectReject answers a PDN DISCONNECT REQUEST (TS 24.301 8.3.21).
type PdnDisconnectReject struct {
	Cause ie.EsmCause
}

func (m *PdnDisconnectReject) MessageType() MessageType { return PdnDisconnectRejectType }

func (m *PdnDisconnectReject) Decode(buf []byte) (int, error) {
	var none *ie.GprsTimer3
	return decodeCauseBackoff(buf, PdnDisconnectRejectType, &m.Cause, &none)
}

func (m *PdnDisconnectReject) Encode(buf []byte) (int, error) {
	return encodeCauseBackoff(buf, PdnDisconnectRejectType, m.Cause, nil)
}

type BearerResourceAllocationReject struct {
	Cause ie.EsmCause
	T3396 *ie.GprsTimer3
}

func (m *BearerResourceAllocationReject) MessageType() MessageType {
	return BearerResourceAllocationRejectType
}

func (m *BearerResourceAllocationReject) Decode(buf []byte) (int, error) {
	return decodeCauseBackoff(buf, BearerResourceAllocationRejectType, &m.Cause, &m.T3396)
}

func (m *BearerResourceAllocationReject) Encode(buf []byte) (int, error) {
	return encodeCauseBackoff(buf, BearerResourceAllocationRejectType, m.Cause, m.T3396)
}

type BearerResourceModificationReject struct {
	Cause ie.EsmCause
	T3396 *ie.GprsTimer3
}

func (m *BearerResourceModificationReject) MessageType() MessageType {
	return BearerResourceModificationRejectType
}

func (m *BearerResourceModificationReject) Decode(buf []byte) (int, error) {
	return decodeCauseBackoff(buf, BearerResourceModificationRejectType, &m.Cause, &m.T3396)
}

func (m *BearerResourceModificationReject) Encode(buf []byte) (int, error) {
	return encodeCauseBackoff(buf, BearerResourceModificationRejectType, m.Cause, m.T3396)
}

// DeactivateEpsBearerContextRequest is sent by the network to release a
// bearer (TS 24.301 8.3.12).
type DeactivateEpsBearerContextRequest struct {
	Cause ie.EsmCause
	T3396 *ie.GprsTimer3
}

func (m *DeactivateEpsBearerContextRequest) MessageType() MessageType {
	return DeactivateEpsBearerContextRequestType
}

func (m *DeactivateEpsBearerContextRequest) Decode(buf []byte) (int, error) {
	return decodeCauseBackoff(buf, DeactivateEpsBearerContextRequestType, &m.Cause, &m.T3396)
}

func (m *DeactivateEpsBearerContextRequest) Encode(buf []byte) (int, error) {
	return encodeCauseBackoff(buf, DeactivateEpsBearerContextRequestType, m.Cause, m.T3396)
}

// DeactivateEpsBearerContextAccept has only optional elements, which are
// consumed and discarded.
type DeactivateEpsBearerContextAccept struct{}

func (m *DeactivateEpsBearerContextAccept) MessageType() MessageType {
	return DeactivateEpsBearerContextAcceptType
}

func (m *DeactivateEpsBearerContextAccept) Decode(buf []byte) (int, error) {
	return skipOptionals(buf)
}

func (m *DeactivateEpsBearerContextAccept) Encode(buf []byte) (int, error) { return 0, nil }

// decodeCauseBackoff reads a mandatory ESM cause followed by optional
// elements. A T3396 value is kept, anything else is skipped. Fields are
// written only once the whole body decoded.
func decodeCauseBackoff(buf []byte, t MessageType, cause *ie.EsmCause, backoff **ie.GprsTimer3) (int, error) {
	if err := checkMinimumLength(buf, ie.EsmCauseMinimumLength, t); err != nil {
		return 0, err
	}
	var c ie.EsmCause
	decoded, err := c.Decode(buf, 0)
	if err != nil {
		return 0, err
	}

	var timer *ie.GprsTimer3
	for decoded < len(buf) {
		if buf[decoded] == ie.T3396ValueIei {
			timer = new(ie.GprsTimer3)
			n, err := timer.Decode(buf[decoded:], ie.T3396ValueIei)
			if err != nil {
				return 0, err
			}
			decoded += n
			continue
		}
		n, err := ie.SkipOptional(buf[decoded:])
		if err != nil {
			return 0, err
		}
		decoded += n
	}

	*cause = c
	*backoff = timer
	return decoded, nil
}

func encodeCauseBackoff(buf []byte, t MessageType, cause ie.EsmCause, backoff *ie.GprsTimer3) (int, error) {
	if err := checkMinimumLength(buf, ie.EsmCauseMinimumLength, t); err != nil {
		return 0, err
	}
	encoded, err := cause.Encode(buf, 0)
	if err != nil {
		return 0, err
	}
	if backoff != nil {
		n, err := backoff.Encode(buf[encoded:], ie.T3396ValueIei)
		if err != nil {
			return 0, err
		}
		encoded += n
	}
	return encoded, nil
}

func skipOptionals(buf []byte) (int, error) {
	decoded := 0
	for decoded < len(buf) {
		n, err := ie.SkipOptional(buf[decoded:])
		if err != nil {
			return 0, err
		}
		decoded += n
	}
	return decoded, nil
}
