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
	"fmt"

	"github.com/go-faster/errors"
)

// EsmCause is the ESM cause information element (TS 24.301 9.9.4.4).
// It is a single octet, carried as V in mandatory position or TV when an IEI is given.
type EsmCause uint8

const (
	EsmCauseOperatorDeterminedBarring            EsmCause = 8
	EsmCauseInsufficientResources                EsmCause = 26
	EsmCauseUnknownApn                           EsmCause = 27
	EsmCauseUnknownPdnType                       EsmCause = 28
	EsmCauseUserAuthenticationFailed             EsmCause = 29
	EsmCauseRequestRejectedByGw                  EsmCause = 30
	EsmCauseRequestRejectedUnspecified           EsmCause = 31
	EsmCauseServiceOptionNotSupported            EsmCause = 32
	EsmCauseServiceOptionNotSubscribed           EsmCause = 33
	EsmCauseServiceOptionOutOfOrder              EsmCause = 34
	EsmCausePtiAlreadyInUse                      EsmCause = 35
	EsmCauseRegularDeactivation                  EsmCause = 36
	EsmCauseEpsQosNotAccepted                    EsmCause = 37
	EsmCauseNetworkFailure                       EsmCause = 38
	EsmCauseReactivationRequested                EsmCause = 39
	EsmCauseSemanticErrorInTft                   EsmCause = 41
	EsmCauseSyntacticalErrorInTft                EsmCause = 42
	EsmCauseInvalidEpsBearerIdentity             EsmCause = 43
	EsmCauseSemanticErrorsInPacketFilters        EsmCause = 44
	EsmCauseSyntacticalErrorsInPacketFilters     EsmCause = 45
	EsmCauseUnused                               EsmCause = 46
	EsmCausePtiMismatch                          EsmCause = 47
	EsmCauseLastPdnDisconnectionNotAllowed       EsmCause = 49
	EsmCausePdnTypeIpv4OnlyAllowed               EsmCause = 50
	EsmCausePdnTypeIpv6OnlyAllowed               EsmCause = 51
	EsmCauseSingleAddressBearersOnlyAllowed      EsmCause = 52
	EsmCauseEsmInformationNotReceived            EsmCause = 53
	EsmCausePdnConnectionDoesNotExist            EsmCause = 54
	EsmCauseMultiplePdnConnectionsNotAllowed     EsmCause = 55
	EsmCauseCollisionWithNetworkInitiatedRequest EsmCause = 56
	EsmCausePdnTypeIpv4v6OnlyAllowed             EsmCause = 57
	EsmCausePdnTypeNonIpOnlyAllowed              EsmCause = 58
	EsmCauseUnsupportedQciValue                  EsmCause = 59
	EsmCauseBearerHandlingNotSupported           EsmCause = 60
	EsmCausePdnTypeEthernetOnlyAllowed           EsmCause = 61
	EsmCauseMaximumNumberOfEpsBearersReached     EsmCause = 65
	EsmCauseApnNotSupportedInRatAndPlmn          EsmCause = 66
	EsmCauseInvalidPtiValue                      EsmCause = 81
	EsmCauseSemanticallyIncorrectMessage         EsmCause = 95
	EsmCauseInvalidMandatoryInformation          EsmCause = 96
	EsmCauseMessageTypeNonExistent               EsmCause = 97
	EsmCauseMessageTypeNotCompatible             EsmCause = 98
	EsmCauseIeNonExistent                        EsmCause = 99
	EsmCauseConditionalIeError                   EsmCause = 100
	EsmCauseMessageNotCompatible                 EsmCause = 101
	EsmCauseProtocolErrorUnspecified             EsmCause = 111
	EsmCauseApnRestrictionIncompatible           EsmCause = 112
	EsmCauseMultipleAccessesNotAllowed           EsmCause = 113
)

const EsmCauseMinimumLength = 1

// Valid reports whether c is one of the cause values defined for ESM.
func (c EsmCause) Valid() bool {
	switch {
	case c == EsmCauseOperatorDeterminedBarring:
		return true
	case c >= EsmCauseInsufficientResources && c <= EsmCauseReactivationRequested:
		return true
	case c >= EsmCauseSemanticErrorInTft && c <= EsmCausePtiMismatch:
		return true
	case c >= EsmCauseLastPdnDisconnectionNotAllowed && c <= EsmCausePdnTypeEthernetOnlyAllowed:
		return true
	case c == EsmCauseMaximumNumberOfEpsBearersReached, c == EsmCauseApnNotSupportedInRatAndPlmn:
		return true
	case c == EsmCauseInvalidPtiValue:
		return true
	case c >= EsmCauseSemanticallyIncorrectMessage && c <= EsmCauseMessageNotCompatible:
		return true
	case c >= EsmCauseProtocolErrorUnspecified && c <= EsmCauseMultipleAccessesNotAllowed:
		return true
	}
	return false
}

func (c EsmCause) String() string {
	return fmt.Sprintf("#%d", uint8(c))
}

// Decode reads the cause from buf. With iei != 0 the element is expected in TV
// format and the leading identifier is checked. c is only written on success.
func (c *EsmCause) Decode(buf []byte, iei uint8) (int, error) {
	decoded := 0
	min := EsmCauseMinimumLength
	if iei > 0 {
		min++
	}
	if err := checkLength(buf, min, "esm cause"); err != nil {
		return 0, err
	}
	if iei > 0 {
		if buf[0] != iei {
			return 0, errors.Wrapf(ErrUnexpectedIei, "esm cause: got 0x%02x, want 0x%02x", buf[0], iei)
		}
		decoded++
	}
	v := EsmCause(buf[decoded])
	if !v.Valid() {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "esm cause %d", uint8(v))
	}
	decoded++
	*c = v
	return decoded, nil
}

// Encode writes the cause into buf, prefixed with iei when non zero.
func (c EsmCause) Encode(buf []byte, iei uint8) (int, error) {
	encoded := 0
	min := EsmCauseMinimumLength
	if iei > 0 {
		min++
	}
	if err := checkLength(buf, min, "esm cause"); err != nil {
		return 0, err
	}
	if !c.Valid() {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "esm cause %d", uint8(c))
	}
	if iei > 0 {
		buf[encoded] = iei
		encoded++
	}
	buf[encoded] = uint8(c)
	encoded++
	return encoded, nil
}
