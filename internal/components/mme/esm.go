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
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/nas/esm"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/nas/ie"
)

// HandleNasUplinkEsm decodes an uplink ESM message. Malformed messages are
// dropped; an unknown message type is answered with ESM STATUS #97.
func (app *MmeApp) HandleNasUplinkEsm(msg *models.NasUplinkEsm) {
	hdr, body, _, err := esm.DecodePdu(msg.Pdu)
	switch {
	case err == nil:
	case errors.Is(err, esm.ErrUnknownMessageType):
		app.log.Warn().Uint64("imsi", msg.Imsi64).Uint8("type", uint8(hdr.MessageType)).Msg("ESM message type non-existent")
		if err := app.sendEsmStatus(msg.Imsi64, hdr, ie.EsmCauseMessageTypeNonExistent); err != nil {
			app.log.Error().Err(err).Uint64("imsi", msg.Imsi64).Msg("could not send ESM STATUS")
		}
		return
	default:
		app.log.Warn().Err(err).Uint64("imsi", msg.Imsi64).Msg("dropping undecodable ESM message")
		app.metrics.Increment(monitoring.EsmDecodeFailure)
		return
	}

	switch m := body.(type) {
	case *esm.EsmStatus:
		app.log.Info().Uint64("imsi", msg.Imsi64).Uint8("ebi", hdr.EpsBearerIdentity).Stringer("cause", m.Cause).Msg("received ESM STATUS")
	default:
		app.log.Debug().Uint64("imsi", msg.Imsi64).Uint8("type", uint8(hdr.MessageType)).Msg("received ESM message")
	}
}

func (app *MmeApp) sendEsmStatus(imsi64 uint64, hdr esm.Header, cause ie.EsmCause) error {
	buf := make([]byte, esm.HeaderLength+esm.EsmStatusMinimumLength)
	n, err := esm.EncodePdu(esm.Header{
		EpsBearerIdentity:            hdr.EpsBearerIdentity,
		ProcedureTransactionIdentity: hdr.ProcedureTransactionIdentity,
	}, &esm.EsmStatus{Cause: cause}, buf)
	if err != nil {
		return err
	}
	if err := app.dispatcher.Send(app.tasks.S1ap, models.NasDownlinkEsmType, &models.NasDownlinkEsm{Imsi64: imsi64, Pdu: buf[:n]}); err != nil {
		app.metrics.Increment(monitoring.DispatchFailure, "task", "S1AP")
		return errors.Wrap(err, "send esm status")
	}
	app.metrics.Increment(monitoring.EsmStatusSent, "cause", cause.String())
	return nil
}
