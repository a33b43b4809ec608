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

package utils

import (
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/components/itti"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/models"
)

var ErrInvalidDuration = errors.New("timer duration must be positive")

// expiryRetryDelay spaces delivery attempts of an expiry while the owning
// mailbox is full.
const expiryRetryDelay = 20 * time.Millisecond

// TimerService arms one shot timers whose expiry is delivered as a
// models.TimerExpiry message to the mailbox of the arming task.
type TimerService struct {
	mutex      sync.Mutex
	timers     map[uuid.UUID]*time.Timer
	dispatcher itti.Dispatcher
	log        zerolog.Logger
}

func NewTimerService(dispatcher itti.Dispatcher, logger zerolog.Logger) *TimerService {
	return &TimerService{
		timers:     make(map[uuid.UUID]*time.Timer),
		dispatcher: dispatcher,
		log:        logger.With().Str("component", "timers").Logger(),
	}
}

// Start arms a timer for d and returns its id. expiry.Id is overwritten.
func (s *TimerService) Start(d time.Duration, task itti.TaskID, expiry models.TimerExpiry) (uuid.UUID, error) {
	if d <= 0 {
		return uuid.Nil, errors.Wrapf(ErrInvalidDuration, "%s: %s", expiry.Timer, d)
	}
	id := uuid.New()
	expiry.Id = id

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.timers[id] = time.AfterFunc(d, func() {
		s.fire(task, expiry)
	})
	return id, nil
}

// Cancel stops the timer. It reports false when the timer already fired or
// was never armed.
func (s *TimerService) Cancel(id uuid.UUID) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	timer, ok := s.timers[id]
	if !ok {
		return false
	}
	delete(s.timers, id)
	return timer.Stop()
}

func (s *TimerService) Active() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.timers)
}

func (s *TimerService) fire(task itti.TaskID, expiry models.TimerExpiry) {
	s.mutex.Lock()
	_, armed := s.timers[expiry.Id]
	delete(s.timers, expiry.Id)
	s.mutex.Unlock()
	if !armed {
		return
	}
	s.deliver(task, expiry)
}

func (s *TimerService) deliver(task itti.TaskID, expiry models.TimerExpiry) {
	err := s.dispatcher.Send(task, models.TimerExpiryType, &expiry)
	if errors.Is(err, itti.ErrMailboxFull) {
		time.AfterFunc(expiryRetryDelay, func() { s.deliver(task, expiry) })
		return
	}
	if err != nil {
		s.log.Error().Err(err).Stringer("timer", expiry.Timer).Uint64("imsi", expiry.Imsi64).Msg("could not deliver timer expiry")
	}
}
