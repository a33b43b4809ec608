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

// AlertOutcome is the answer sent to the VLR. Cause is set when rejected.
type AlertOutcome struct {
	Accepted bool
	Cause    sgsap.Cause
}

// HandleSgsapAlertRequest runs the non-EPS alert procedure for one request
// and emits exactly one ALERT-ACK or ALERT-REJECT towards SGS. An error means
// the procedure was aborted and nothing was sent.
func (app *MmeApp) HandleSgsapAlertRequest(req *models.SgsapAlertRequest) (AlertOutcome, error) {
	imsi := req.ImsiDigits()
	imsi64, err := models.ImsiToImsi64(imsi)
	if err != nil {
		app.log.Warn().Err(err).Str("imsi", imsi).Msg("SGS-ALERT REQUEST with unusable IMSI")
	}
	app.log.Info().Uint64("imsi", imsi64).Msg("received SGS-ALERT REQUEST")

	var ue UeHandle
	found := false
	if err == nil {
		ue, found = app.ues.LookupByImsi(imsi64)
	}
	if !found {
		app.log.Error().Uint64("imsi", imsi64).Msg("SGS-ALERT REQUEST: failed to find UE context")
		if err := app.sendAlertReject(req, sgsap.CauseImsiUnknown, imsi64); err != nil {
			return AlertOutcome{}, err
		}
		app.metrics.Increment(monitoring.SgsapAlertReject, "cause", "imsi_unknown")
		return AlertOutcome{Cause: sgsap.CauseImsiUnknown}, nil
	}
	defer ue.Release()
	ctx := ue.Context()

	if ctx.MmState == models.UeUnregistered {
		app.log.Info().Uint64("imsi", imsi64).Msg("SGS-ALERT REQUEST: UE is not attached to EPS services")
		if err := app.sendAlertReject(req, sgsap.CauseImsiDetachedForEpsServices, imsi64); err != nil {
			return AlertOutcome{}, err
		}
		app.metrics.Increment(monitoring.SgsapAlertReject, "cause", "ue_is_not_registered_to_eps")
		return AlertOutcome{Cause: sgsap.CauseImsiDetachedForEpsServices}, nil
	}

	if ctx.SgsContext == nil {
		app.log.Info().Uint64("imsi", imsi64).Msg("creating SGS context on SGS-ALERT REQUEST")
		if _, err := EnsureSgsContext(ctx, app.cfg.Sgs, app.slots); err != nil {
			app.log.Error().Err(err).Uint64("imsi", imsi64).Msg("cannot create SGS context")
			return AlertOutcome{}, err
		}
		app.updateSgsGauge()
	}
	SetNeaf(ctx.SgsContext)

	if err := app.sendAlertAck(req, imsi64); err != nil {
		return AlertOutcome{}, err
	}
	app.metrics.Increment(monitoring.SgsapAlertAck)
	return AlertOutcome{Accepted: true}, nil
}

func (app *MmeApp) sendAlertReject(req *models.SgsapAlertRequest, cause sgsap.Cause, imsi64 uint64) error {
	reject := &models.SgsapAlertReject{
		Imsi:       req.Imsi,
		ImsiLength: req.ImsiLength,
		Cause:      cause,
	}
	app.log.Info().Uint64("imsi", imsi64).Uint8("sgsCause", uint8(cause)).Msg("send SGSAP-ALERT REJECT")
	if err := app.dispatcher.Send(app.tasks.Sgs, models.SgsapAlertRejectType, reject); err != nil {
		app.metrics.Increment(monitoring.DispatchFailure, "task", "SGS")
		return errors.Wrap(err, "send alert reject")
	}
	return nil
}

func (app *MmeApp) sendAlertAck(req *models.SgsapAlertRequest, imsi64 uint64) error {
	ack := &models.SgsapAlertAck{
		Imsi:       req.Imsi,
		ImsiLength: req.ImsiLength,
	}
	app.log.Info().Uint64("imsi", imsi64).Msg("send SGSAP-ALERT ACK")
	if err := app.dispatcher.Send(app.tasks.Sgs, models.SgsapAlertAckType, ack); err != nil {
		app.metrics.Increment(monitoring.DispatchFailure, "task", "SGS")
		return errors.Wrap(err, "send alert ack")
	}
	return nil
}
