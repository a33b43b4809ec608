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
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/components/itti"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/components/mme"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/models"
)

type SubscriberRequest struct {
	Imsi    string `json:"imsi"`
	MmState string `json:"mmState"`
}

type MmStateRequest struct {
	MmState string `json:"mmState"`
}

type PduRequest struct {
	Pdu string `json:"pdu"`
}

type ProblemDetails struct {
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func parseMmState(s string) (models.MmState, error) {
	switch s {
	case "", models.UeRegistered.String():
		return models.UeRegistered, nil
	case models.UeUnregistered.String():
		return models.UeUnregistered, nil
	}
	return 0, errors.Errorf("unknown mmState %q", s)
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "could not encode response", http.StatusInternalServerError)
	}
}

func writeProblem(w http.ResponseWriter, status int, err error) {
	writeJson(w, status, ProblemDetails{Status: status, Detail: err.Error()})
}

// writeError maps component errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrMalformedImsi):
		writeProblem(w, http.StatusBadRequest, err)
	case errors.Is(err, mme.ErrUeNotFound):
		writeProblem(w, http.StatusNotFound, err)
	case errors.Is(err, mme.ErrUeExists):
		writeProblem(w, http.StatusConflict, err)
	case errors.Is(err, itti.ErrTaskNotStarted), errors.Is(err, itti.ErrMailboxFull):
		writeProblem(w, http.StatusServiceUnavailable, err)
	default:
		writeProblem(w, http.StatusInternalServerError, err)
	}
}

func decodePdu(r *http.Request) ([]byte, error) {
	req := PduRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(err, "invalid request body")
	}
	pdu, err := hex.DecodeString(req.Pdu)
	if err != nil {
		return nil, errors.Wrap(err, "pdu is not hex")
	}
	if len(pdu) == 0 {
		return nil, errors.New("empty pdu")
	}
	return pdu, nil
}

func (s *MmeService) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, s.Status())
}

func (s *MmeService) handleListSubscribers(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, s.store.Snapshot())
}

func (s *MmeService) handleAddSubscriber(w http.ResponseWriter, r *http.Request) {
	req := SubscriberRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, errors.Wrap(err, "invalid request body"))
		return
	}
	state, err := parseMmState(req.MmState)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, err)
		return
	}
	imsi64, err := s.AddSubscriber(req.Imsi, state)
	if err != nil {
		writeError(w, err)
		return
	}
	sum, _ := s.store.Get(imsi64)
	writeJson(w, http.StatusCreated, sum)
}

func (s *MmeService) imsiFromPath(r *http.Request) (uint64, error) {
	return models.ImsiToImsi64(mux.Vars(r)["imsi"])
}

func (s *MmeService) handleGetSubscriber(w http.ResponseWriter, r *http.Request) {
	imsi64, err := s.imsiFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sum, ok := s.store.Get(imsi64)
	if !ok {
		writeError(w, errors.Wrapf(mme.ErrUeNotFound, "imsi %d", imsi64))
		return
	}
	writeJson(w, http.StatusOK, sum)
}

// handleUpdateSubscriber registers the UE for EPS services or detaches it.
func (s *MmeService) handleUpdateSubscriber(w http.ResponseWriter, r *http.Request) {
	imsi64, err := s.imsiFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	req := MmStateRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, errors.Wrap(err, "invalid request body"))
		return
	}
	if req.MmState == "" {
		writeProblem(w, http.StatusBadRequest, errors.New("mmState is required"))
		return
	}
	state, err := parseMmState(req.MmState)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, err)
		return
	}

	if state == models.UeRegistered {
		err = s.mmeApp.Register(imsi64)
	} else {
		err = s.mmeApp.Detach(imsi64)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	sum, _ := s.store.Get(imsi64)
	writeJson(w, http.StatusOK, sum)
}

func (s *MmeService) handleDeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	imsi64, err := s.imsiFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.RemoveSubscriber(imsi64); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *MmeService) handleUplinkEsm(w http.ResponseWriter, r *http.Request) {
	imsi64, err := s.imsiFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	pdu, err := decodePdu(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, err)
		return
	}
	if err := s.InjectUplinkEsm(imsi64, pdu); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *MmeService) handleSgsInbound(w http.ResponseWriter, r *http.Request) {
	pdu, err := decodePdu(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, err)
		return
	}
	if err := s.InjectSgsapPdu(pdu); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *MmeService) RegisterNorthboundAPIs(r *mux.Router) {
	api := r.PathPrefix("/mme/v1").Subrouter()

	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/subscribers", s.handleListSubscribers).Methods(http.MethodGet)
	api.HandleFunc("/subscribers", s.handleAddSubscriber).Methods(http.MethodPost)
	api.HandleFunc("/subscribers/{imsi}", s.handleGetSubscriber).Methods(http.MethodGet)
	api.HandleFunc("/subscribers/{imsi}", s.handleUpdateSubscriber).Methods(http.MethodPut)
	api.HandleFunc("/subscribers/{imsi}", s.handleDeleteSubscriber).Methods(http.MethodDelete)
	api.HandleFunc("/subscribers/{imsi}/esm", s.handleUplinkEsm).Methods(http.MethodPost)
	api.HandleFunc("/sgs/inbound", s.handleSgsInbound).Methods(http.MethodPost)
}

func (s *MmeService) startHttpServer() {
	s.wg.Add(1)

	router := mux.NewRouter()
	s.RegisterNorthboundAPIs(router)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.OamPort),
		Handler: h2c.NewHandler(router, &http2.Server{}),
	}

	go func() {
		defer func() {
			_ = recover()
			s.wg.Done()
		}()

		s.log.Info().Uint16("port", s.config.OamPort).Msg("serving OAM api")
		// ErrServerClosed on graceful close
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.log.Fatal().Err(err).Msg("could not start OAM server")
		}
	}()
}

func (s *MmeService) stopHttpServer() {
	if s.server != nil {
		if err := s.server.Close(); err != nil {
			s.log.Warn().Err(err).Msg("could not stop OAM server")
		}
	}
}
