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

package sgs

import (
	"encoding/hex"

	"github.com/giuliocarot0/gitc"
	"github.com/go-faster/errors"
	"github.com/rs/zerolog"

	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/components/itti"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/models"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/monitoring"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/sgsap"
)

const maxPduLength = 512

// Transport carries encoded SGsAP PDUs to the VLR.
type Transport interface {
	Write(pdu []byte) error
}

// LoggingTransport only logs outbound PDUs.
type LoggingTransport struct {
	log zerolog.Logger
}

func NewLoggingTransport(logger zerolog.Logger) *LoggingTransport {
	return &LoggingTransport{log: logger.With().Str("component", "sgs-transport").Logger()}
}

func (t *LoggingTransport) Write(pdu []byte) error {
	t.log.Info().Str("pdu", hex.EncodeToString(pdu)).Stringer("type", sgsap.MessageType(pdu[0])).Msg("SGsAP PDU out")
	return nil
}

// Sgs is the SGS task: it owns the SGsAP wire format on both directions.
type Sgs struct {
	tasks       itti.Tasks
	mmeName     string
	mailboxSize int
	transport   Transport
	dispatcher  itti.Dispatcher
	metrics     monitoring.Sink
	log         zerolog.Logger
}

func NewSgs(tasks itti.Tasks, mmeName string, mailboxSize int, transport Transport, metrics monitoring.Sink, logger zerolog.Logger) *Sgs {
	return newSgs(tasks, mmeName, mailboxSize, transport, itti.NewDispatcher(tasks.Sgs), metrics, logger)
}

func newSgs(tasks itti.Tasks, mmeName string, mailboxSize int, transport Transport, dispatcher itti.Dispatcher, metrics monitoring.Sink, logger zerolog.Logger) *Sgs {
	return &Sgs{
		tasks:       tasks,
		mmeName:     mmeName,
		mailboxSize: mailboxSize,
		transport:   transport,
		dispatcher:  dispatcher,
		metrics:     metrics,
		log:         logger.With().Str("task", string(tasks.Sgs)).Logger(),
	}
}

func (s *Sgs) InitSgs() error {
	s.log.Info().Msg("started")
	return itti.StartTask(s.tasks.Sgs, s.mailboxSize, s.handleMessage)
}

func (s *Sgs) handleMessage(msg gitc.Message) {
	var err error
	switch msg.Type {
	case models.SgsapInboundPduType:
		err = s.HandleInboundPdu(msg.Payload.(*models.SgsapInboundPdu).Pdu)
	case models.SgsapAlertAckType:
		ack := msg.Payload.(*models.SgsapAlertAck)
		err = s.write(&sgsap.AlertAck{Imsi: sgsap.Imsi(ack.ImsiDigits())})
	case models.SgsapAlertRejectType:
		rej := msg.Payload.(*models.SgsapAlertReject)
		err = s.write(&sgsap.AlertReject{Imsi: sgsap.Imsi(rej.ImsiDigits()), Cause: rej.Cause})
	case models.SgsapEpsDetachIndicationType:
		ind := msg.Payload.(*models.SgsapEpsDetachIndication)
		err = s.write(&sgsap.EpsDetachIndication{
			Imsi:       sgsap.Imsi(ind.ImsiDigits()),
			MmeName:    sgsap.MmeName(s.mmeName),
			DetachType: ind.DetachType,
		})
	default:
		s.log.Warn().Int("type", int(msg.Type)).Str("from", msg.From).Msg("unexpected message")
	}
	if err != nil {
		s.log.Error().Err(err).Int("type", int(msg.Type)).Msg("could not handle message")
	}
}

// HandleInboundPdu decodes a PDU received from the VLR and forwards it to
// MME_APP. Undecodable PDUs are dropped.
func (s *Sgs) HandleInboundPdu(pdu []byte) error {
	msg, _, err := sgsap.Decode(pdu)
	if err != nil {
		s.log.Warn().Err(err).Str("pdu", hex.EncodeToString(pdu)).Msg("dropping undecodable SGsAP PDU")
		s.metrics.Increment(monitoring.SgsapDecodeFailure)
		return nil
	}

	switch m := msg.(type) {
	case *sgsap.AlertRequest:
		return s.forward(models.SgsapAlertRequestType, models.NewSgsapAlertRequest(string(m.Imsi)))
	case *sgsap.EpsDetachAck:
		ack := &models.SgsapEpsDetachAck{}
		ack.ImsiLength = uint8(copy(ack.Imsi[:], m.Imsi))
		return s.forward(models.SgsapEpsDetachAckType, ack)
	default:
		s.log.Warn().Stringer("type", msg.MessageType()).Msg("SGsAP message not expected from VLR")
		return nil
	}
}

func (s *Sgs) forward(t gitc.MessageType, payload any) error {
	if err := s.dispatcher.Send(s.tasks.MmeApp, t, payload); err != nil {
		s.metrics.Increment(monitoring.DispatchFailure, "task", "MME_APP")
		return errors.Wrap(err, "forward to mme app")
	}
	return nil
}

func (s *Sgs) write(msg sgsap.Message) error {
	buf := make([]byte, maxPduLength)
	n, err := sgsap.Encode(msg, buf)
	if err != nil {
		return errors.Wrapf(err, "encode %s", msg.MessageType())
	}
	return s.transport.Write(buf[:n])
}
