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

	"github.com/giuliocarot0/gitc"
	"github.com/rs/zerolog"

	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/components/itti"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/components/utils"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/models"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/monitoring"
)

type Config struct {
	MmeName        string
	MailboxSize    int
	MaxSgsContexts int // 0 means unbounded
	Sgs            SgsConfig
}

// MmeApp owns the UE directory side of the SGs procedures. Mailbox handlers
// run on the MME_APP task, one message at a time. Register, Detach and Purge
// are called from OAM goroutines and serialize with the handlers on the UE
// lock.
type MmeApp struct {
	cfg        Config
	tasks      itti.Tasks
	ues        UeDirectory
	slots      SlotAllocator
	timers     TimerService
	dispatcher itti.Dispatcher
	metrics    monitoring.Sink
	log        zerolog.Logger
}

func NewMmeApp(cfg Config, tasks itti.Tasks, ues UeDirectory, metrics monitoring.Sink, logger zerolog.Logger) *MmeApp {
	dispatcher := itti.NewDispatcher(tasks.MmeApp)
	return newMmeApp(cfg, tasks, ues, dispatcher, metrics, logger)
}

func newMmeApp(cfg Config, tasks itti.Tasks, ues UeDirectory, dispatcher itti.Dispatcher, metrics monitoring.Sink, logger zerolog.Logger) *MmeApp {
	app := &MmeApp{
		cfg:        cfg,
		tasks:      tasks,
		ues:        ues,
		dispatcher: dispatcher,
		metrics:    metrics,
		log:        logger.With().Str("task", string(tasks.MmeApp)).Logger(),
	}
	if cfg.MaxSgsContexts > 0 {
		app.slots = utils.NewSlotAllocator(cfg.MaxSgsContexts)
	}
	app.timers = utils.NewTimerService(dispatcher, logger)
	return app
}

func (app *MmeApp) InitMmeApp() error {
	app.log.Info().Str("mmeName", app.cfg.MmeName).Msg("started")
	return itti.StartTask(app.tasks.MmeApp, app.cfg.MailboxSize, app.handleMessage)
}

func (app *MmeApp) handleMessage(msg gitc.Message) {
	switch msg.Type {
	case models.SgsapAlertRequestType:
		if _, err := app.HandleSgsapAlertRequest(msg.Payload.(*models.SgsapAlertRequest)); err != nil {
			app.log.Error().Err(err).Msg("SGS-ALERT REQUEST aborted")
		}
	case models.SgsapEpsDetachAckType:
		app.HandleSgsapEpsDetachAck(msg.Payload.(*models.SgsapEpsDetachAck))
	case models.NasUplinkEsmType:
		app.HandleNasUplinkEsm(msg.Payload.(*models.NasUplinkEsm))
	case models.TimerExpiryType:
		app.HandleTimerExpiry(msg.Payload.(*models.TimerExpiry))
	default:
		app.log.Warn().Int("type", int(msg.Type)).Str("from", msg.From).Msg("unexpected message")
	}
}

// Purge releases the SGS resources of a UE that was removed from the directory.
func (app *MmeApp) Purge(ue *UeMmContext) {
	if ue.SgsContext != nil {
		app.dropSgsContext(ue)
	}
}

func (app *MmeApp) dropSgsContext(ue *UeMmContext) {
	ue.SgsContext.StopAllTimers(app.timers)
	if app.slots != nil {
		if err := app.slots.Release(ue.Imsi64); err != nil {
			app.log.Warn().Err(err).Uint64("imsi", ue.Imsi64).Msg("sgs context slot")
		}
	}
	ue.SgsContext = nil
	app.updateSgsGauge()
	app.log.Info().Uint64("imsi", ue.Imsi64).Msg("SGS context released")
}

func (app *MmeApp) updateSgsGauge() {
	if app.slots != nil {
		app.metrics.Set(monitoring.SgsContexts, float64(app.SgsContextsInUse()))
	}
}

// SgsContextsInUse counts the allocated SGS context slots. It is always zero
// when the number of SGS contexts is unbounded.
func (app *MmeApp) SgsContextsInUse() int {
	if app.slots == nil {
		return 0
	}
	return app.slots.InUse()
}

func (app *MmeApp) SgsConfig() SgsConfig { return app.cfg.Sgs }

func DefaultSgsConfig() SgsConfig {
	return SgsConfig{
		Ts6_1: 40 * time.Second,
		Ts8:   4 * time.Second,
		Ts9:   4 * time.Second,
		Ts10:  4 * time.Second,
		Ts13:  4 * time.Second,
	}
}
