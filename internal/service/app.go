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

package service

import (
	"context"
	"encoding/hex"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/giuliocarot0/gitc"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/components/itti"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/components/mme"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/components/sgs"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/models"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/monitoring"
)

const TaskOam itti.TaskID = "OAM"

type Status string

const (
	STOPPED Status = "STOPPED"
	STARTED Status = "STARTED"
	ERROR   Status = "ERROR"
)

type StatusResponse struct {
	Status      Status `json:"status"`
	InstanceId  string `json:"instanceId"`
	MmeName     string `json:"mmeName"`
	UeContexts  int    `json:"ueContexts"`
	SgsContexts int    `json:"sgsContexts"`
}

// MmeService wires the MME_APP, SGS and S1AP tasks together and exposes them
// through the OAM API.
type MmeService struct {
	instanceId    string
	config        *AppConfig
	tasks         itti.Tasks
	store         *mme.UeContextStore
	mmeApp        *mme.MmeApp
	sgs           *sgs.Sgs
	metrics       *monitoring.Metrics
	oam           itti.Dispatcher
	status        Status
	statusMutex   sync.RWMutex
	server        *http.Server
	metricsServer *http.Server
	wg            sync.WaitGroup
	ctx           context.Context
	log           zerolog.Logger
}

func NewMmeService(config *AppConfig, logger zerolog.Logger) *MmeService {
	return newMmeService(config, itti.DefaultTasks(), nil, logger)
}

// newMmeService builds a service on the given task names. A nil transport
// selects the logging transport.
func newMmeService(config *AppConfig, tasks itti.Tasks, transport sgs.Transport, logger zerolog.Logger) *MmeService {
	instanceId := uuid.NewString()
	metrics := monitoring.NewMetrics(instanceId, logger)
	if transport == nil {
		transport = sgs.NewLoggingTransport(logger)
	}
	store := mme.NewUeContextStore()
	return &MmeService{
		instanceId: instanceId,
		config:     config,
		tasks:      tasks,
		store:      store,
		mmeApp:     mme.NewMmeApp(config.MmeAppConfig(), tasks, store, metrics, logger),
		sgs:        sgs.NewSgs(tasks, config.Mme.MmeName, config.Mme.MailboxSize, transport, metrics, logger),
		metrics:    metrics,
		oam:        itti.NewDispatcher(TaskOam),
		status:     STOPPED,
		log:        logger.With().Str("component", "service").Logger(),
	}
}

// StartTasks starts the task mailboxes. It fails when a task of the same
// name is already running in the process.
func (s *MmeService) StartTasks() error {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()
	if s.status == STARTED {
		return nil
	}

	if err := s.mmeApp.InitMmeApp(); err != nil {
		s.status = ERROR
		return errors.Wrap(err, "start MME_APP")
	}
	if err := s.sgs.InitSgs(); err != nil {
		s.status = ERROR
		return errors.Wrap(err, "start SGS")
	}
	if err := itti.StartTask(s.tasks.S1ap, s.config.Mme.MailboxSize, s.handleDownlinkNas); err != nil {
		s.status = ERROR
		return errors.Wrap(err, "start S1AP")
	}
	s.status = STARTED
	return nil
}

// handleDownlinkNas stands in for S1AP: downlink NAS is only logged.
func (s *MmeService) handleDownlinkNas(msg gitc.Message) {
	switch msg.Type {
	case models.NasDownlinkEsmType:
		dl := msg.Payload.(*models.NasDownlinkEsm)
		s.log.Info().Uint64("imsi", dl.Imsi64).Str("pdu", hex.EncodeToString(dl.Pdu)).Msg("downlink ESM")
	default:
		s.log.Warn().Int("type", int(msg.Type)).Str("from", msg.From).Msg("unexpected message on S1AP")
	}
}

func (s *MmeService) Status() StatusResponse {
	s.statusMutex.RLock()
	status := s.status
	s.statusMutex.RUnlock()

	res := StatusResponse{
		Status:     status,
		InstanceId: s.instanceId,
		MmeName:    s.config.Mme.MmeName,
		UeContexts: s.store.Len(),
	}
	for _, ue := range s.store.Snapshot() {
		if ue.SgsState != "" {
			res.SgsContexts++
		}
	}
	return res
}

func (s *MmeService) started() bool {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.status == STARTED
}

// InjectSgsapPdu posts a PDU received from the VLR to the SGS task.
func (s *MmeService) InjectSgsapPdu(pdu []byte) error {
	if !s.started() {
		return errors.Wrap(itti.ErrTaskNotStarted, string(s.tasks.Sgs))
	}
	return s.oam.Send(s.tasks.Sgs, models.SgsapInboundPduType, &models.SgsapInboundPdu{
		Pdu:        pdu,
		ReceivedAt: time.Now(),
	})
}

// InjectUplinkEsm posts an uplink ESM PDU of imsi64 to MME_APP.
func (s *MmeService) InjectUplinkEsm(imsi64 uint64, pdu []byte) error {
	if !s.started() {
		return errors.Wrap(itti.ErrTaskNotStarted, string(s.tasks.MmeApp))
	}
	return s.oam.Send(s.tasks.MmeApp, models.NasUplinkEsmType, &models.NasUplinkEsm{Imsi64: imsi64, Pdu: pdu})
}

func (s *MmeService) AddSubscriber(imsi string, state models.MmState) (uint64, error) {
	imsi64, err := s.store.Add(imsi, state)
	if err != nil {
		return 0, err
	}
	s.metrics.Set(monitoring.UeContexts, float64(s.store.Len()))
	return imsi64, nil
}

// RemoveSubscriber frees the SGS resources of the UE and drops it from the
// directory under the UE lock.
func (s *MmeService) RemoveSubscriber(imsi64 uint64) error {
	if _, err := s.store.Remove(imsi64, s.mmeApp.Purge); err != nil {
		return err
	}
	s.metrics.Set(monitoring.UeContexts, float64(s.store.Len()))
	return nil
}

func (s *MmeService) Run() {
	var cancel context.CancelFunc
	s.ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	s.wg.Add(1)
	go s.listenShutdownEvent()
	s.log.Info().Msgf("running config: \n%s", s.config.Dumps())

	if err := s.StartTasks(); err != nil {
		s.log.Fatal().Err(err).Msg("could not start the MME tasks")
	}

	s.startHttpServer()
	s.metricsServer = s.metrics.StartMetricsServer(s.config.MetricsPort)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	s.log.Info().Msg("terminating...")

	cancel()
	s.wg.Wait()
}

func (s *MmeService) listenShutdownEvent() {
	defer func() {
		_ = recover()
		s.wg.Done()
	}()

	<-s.ctx.Done()
	s.stopHttpServer()
	if s.metricsServer != nil {
		if err := s.metricsServer.Close(); err != nil {
			s.log.Warn().Err(err).Msg("could not stop metrics server")
		}
	}
}
