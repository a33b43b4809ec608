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

const EsmStatusMinimumLength = ie.EsmCauseMinimumLength

// EsmStatus reports an ESM protocol error to the peer (TS 24.301 8.3.15).
type EsmStatus struct {
	Cause ie.EsmCause
}

func (m *EsmStatus) MessageType() MessageType { return EsmStatusType }

func (m *EsmStatus) Decode(buf []byte) (int, error) {
	if err := checkMinimumLength(buf, EsmStatusMinimumLength, EsmStatusType); err != nil {
		return 0, err
	}
	var cause ie.EsmCause
	decoded, err := cause.Decode(buf, 0)
	if err != nil {
		return 0, err
	}
	m.Cause = cause
	return decoded, nil
}

func (m *EsmStatus) Encode(buf []byte) (int, error) {
	if err := checkMinimumLength(buf, EsmStatusMinimumLength, EsmStatusType); err != nil {
		return 0, err
	}
	return m.Cause.Encode(buf, 0)
}

const EsmInformationRequestMinimumLength = 0

// EsmInformationRequest carries no information elements.
type EsmInformationRequest struct{}

func (m *EsmInformationRequest) MessageType() MessageType { return EsmInformationRequestType }

func (m *EsmInformationRequest) Decode(buf []byte) (int, error) { return 0, nil }

func (m *EsmInformationRequest) Encode(buf []byte) (int, error) { return 0, nil }
