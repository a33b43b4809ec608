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

package mme

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/components/itti"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/models"
)

var ErrSgsContextExhausted = errors.New("sgs context capacity exhausted")

// TimerHandle is either inactive or refers to a timer armed on the timer service.
type TimerHandle struct {
	id     uuid.UUID
	active bool
}

func Inactive() TimerHandle { return TimerHandle{} }

func Active(id uuid.UUID) TimerHandle { return TimerHandle{id: id, active: true} }

func (h TimerHandle) Id() (uuid.UUID, bool) { return h.id, h.active }

func (h TimerHandle) IsActive() bool { return h.active }

type SgsTimer struct {
	Handle   TimerHandle
	Duration time.Duration
}

// SgsConfig holds the SGs timer durations copied into each new SGS context.
type SgsConfig struct {
	Ts6_1 time.Duration
	Ts8   time.Duration
	Ts9   time.Duration
	Ts10  time.Duration
	Ts13  time.Duration
}

func (c SgsConfig) durations() [models.NumSgsTimers]time.Duration {
	return [models.NumSgsTimers]time.Duration{
		models.Ts6_1: c.Ts6_1,
		models.Ts8:   c.Ts8,
		models.Ts9:   c.Ts9,
		models.Ts10:  c.Ts10,
		models.Ts13:  c.Ts13,
	}
}

// SgsContext is the per UE circuit switched fallback state.
type SgsContext struct {
	State       models.SgsState
	VlrReliable bool
	// Neaf is the non-EPS alert flag.
	Neaf   bool
	Timers [models.NumSgsTimers]SgsTimer
}

type SlotAllocator interface {
	Allocate(imsi64 uint64) (int, error)
	Release(imsi64 uint64) error
	InUse() int
}

type TimerService interface {
	Start(d time.Duration, task itti.TaskID, expiry models.TimerExpiry) (uuid.UUID, error)
	Cancel(id uuid.UUID) bool
}

// EnsureSgsContext returns the SGS context of ue, creating it when absent.
// The new context is fully initialised before it is attached to ue. A nil
// slots allocator puts no bound on the number of contexts.
func EnsureSgsContext(ue *UeMmContext, cfg SgsConfig, slots SlotAllocator) (*SgsContext, error) {
	if ue.SgsContext != nil {
		return ue.SgsContext, nil
	}
	if slots != nil {
		if _, err := slots.Allocate(ue.Imsi64); err != nil {
			return nil, errors.Wrapf(ErrSgsContextExhausted, "imsi %d: %s", ue.Imsi64, err)
		}
	}

	sgs := &SgsContext{
		State:       models.SgsNull,
		VlrReliable: false,
		Neaf:        false,
	}
	for i, d := range cfg.durations() {
		sgs.Timers[i] = SgsTimer{Handle: Inactive(), Duration: d}
	}
	ue.SgsContext = sgs
	return sgs, nil
}

func SetNeaf(sgs *SgsContext) {
	sgs.Neaf = true
}

// StartTimer arms timer t for its configured duration. A timer that is
// already running is restarted.
func (sgs *SgsContext) StartTimer(timers TimerService, task itti.TaskID, imsi64 uint64, t models.SgsTimer) error {
	sgs.StopTimer(timers, t)
	id, err := timers.Start(sgs.Timers[t].Duration, task, models.TimerExpiry{Imsi64: imsi64, Timer: t})
	if err != nil {
		return err
	}
	sgs.Timers[t].Handle = Active(id)
	return nil
}

func (sgs *SgsContext) StopTimer(timers TimerService, t models.SgsTimer) {
	if id, ok := sgs.Timers[t].Handle.Id(); ok {
		timers.Cancel(id)
	}
	sgs.Timers[t].Handle = Inactive()
}

func (sgs *SgsContext) StopAllTimers(timers TimerService) {
	for t := models.SgsTimer(0); t < models.NumSgsTimers; t++ {
		sgs.StopTimer(timers, t)
	}
}

// timerExpired marks t inactive when id is the handle currently held for it.
func (sgs *SgsContext) timerExpired(t models.SgsTimer, id uuid.UUID) bool {
	if t < 0 || t >= models.NumSgsTimers {
		return false
	}
	current, ok := sgs.Timers[t].Handle.Id()
	if !ok || current != id {
		return false
	}
	sgs.Timers[t].Handle = Inactive()
	return true
}
