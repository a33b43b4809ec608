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

type MmState int

const (
	UeUnregistered MmState = iota
	UeRegistered
)

func (s MmState) String() string {
	switch s {
	case UeUnregistered:
		return "UNREGISTERED"
	case UeRegistered:
		return "REGISTERED"
	}
	return "UNKNOWN"
}

// SgsState is the SGs association state of a UE (TS 29.118 4.2.2).
type SgsState int

const (
	SgsNull SgsState = iota
	SgsLaUpdateRequested
	SgsAssociated
)

func (s SgsState) String() string {
	switch s {
	case SgsNull:
		return "SGs-NULL"
	case SgsLaUpdateRequested:
		return "LA-UPDATE-REQUESTED"
	case SgsAssociated:
		return "SGs-ASSOCIATED"
	}
	return "UNKNOWN"
}

// SgsTimer names one of the five SGs supervision timers held per UE.
type SgsTimer int

const (
	Ts6_1 SgsTimer = iota
	Ts8
	Ts9
	Ts10
	Ts13
	NumSgsTimers
)

func (t SgsTimer) String() string {
	switch t {
	case Ts6_1:
		return "Ts6-1"
	case Ts8:
		return "Ts8"
	case Ts9:
		return "Ts9"
	case Ts10:
		return "Ts10"
	case Ts13:
		return "Ts13"
	}
	return "UNKNOWN"
}
