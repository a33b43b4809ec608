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
	"github.com/go-faster/errors"

	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/models"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/monitoring"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/sgsap"
)

// Register marks the UE as attached for EPS services.
func (app *MmeApp) Register(imsi64 uint64) error {
	ue, ok := app.ues.LookupByImsi(imsi64)
	if !ok {
		return errors.Wrapf(ErrUeNotFound, "imsi %d", imsi64)
	}
	defer ue.Release()
	ue.Context().MmState = models.UeRegistered
	return nil
}

// Detach performs a network initiated EPS detach. When the UE holds an SGS
// context the VLR is informed and the context is kept until the
// SGsAP-EPS-DETACH-ACK arrives or Ts8 expires.
func (app *MmeApp) Detach(imsi64 uint64) error {
	ue, ok := app.ues.LookupByImsi(imsi64)
	if !ok {
		return errors.Wrapf(ErrUeNotFound, "imsi %d", imsi64)
	}
	defer ue.Release()
	ctx := ue.Context()
	ctx.MmState = models.UeUnregistered

	sgs := ctx.SgsContext
	if sgs == nil {
		return nil
	}

	ind := &models.SgsapEpsDetachIndication{DetachType: sgsap.NetworkInitiatedImsiDetachFromEps}
	ind.ImsiLength = uint8(copy(ind.Imsi[:], ctx.Imsi))
	if err := app.dispatcher.Send(app.tasks.Sgs, models.SgsapEpsDetachIndicationType, ind); err != nil {
		app.metrics.Increment(monitoring.DispatchFailure, "task", "SGS")
		app.dropSgsContext(ctx)
		return errors.Wrap(err, "send eps detach indication")
	}
	if err := sgs.StartTimer(app.timers, app.tasks.MmeApp, imsi64, models.Ts8); err != nil {
		app.log.Warn().Err(err).Uint64("imsi", imsi64).Msg("Ts8 not started")
		app.dropSgsContext(ctx)
	}
	return nil
}

func (app *MmeApp) HandleSgsapEpsDetachAck(ack *models.SgsapEpsDetachAck) {
	imsi64, err := models.ImsiToImsi64(ack.ImsiDigits())
	if err != nil {
		app.log.Warn().Err(err).Msg("SGsAP-EPS-DETACH-ACK with unusable IMSI")
		return
	}
	ue, ok := app.ues.LookupByImsi(imsi64)
	if !ok {
		app.log.Warn().Uint64("imsi", imsi64).Msg("SGsAP-EPS-DETACH-ACK for unknown UE")
		return
	}
	defer ue.Release()
	ctx := ue.Context()

	if ctx.SgsContext == nil || !ctx.SgsContext.Timers[models.Ts8].Handle.IsActive() {
		app.log.Warn().Uint64("imsi", imsi64).Msg("unexpected SGsAP-EPS-DETACH-ACK")
		return
	}
	app.dropSgsContext(ctx)
}

func (app *MmeApp) HandleTimerExpiry(exp *models.TimerExpiry) {
	ue, ok := app.ues.LookupByImsi(exp.Imsi64)
	if !ok {
		return
	}
	defer ue.Release()
	ctx := ue.Context()

	if ctx.SgsContext == nil || !ctx.SgsContext.timerExpired(exp.Timer, exp.Id) {
		app.log.Debug().Uint64("imsi", exp.Imsi64).Stringer("timer", exp.Timer).Msg("stale timer expiry")
		return
	}
	app.metrics.Increment(monitoring.SgsTimerExpiry, "timer", exp.Timer.String())
	app.log.Info().Uint64("imsi", exp.Imsi64).Stringer("timer", exp.Timer).Msg("SGs timer expired")

	if exp.Timer == models.Ts8 {
		app.dropSgsContext(ctx)
	}
}
