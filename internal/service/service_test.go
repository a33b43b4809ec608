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
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/components/itti"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/components/mme"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/models"
	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/sgsap"
)

const (
	registeredImsi = "001010000000001"
	unknownImsi    = "001010000000002"
)

type captureTransport struct {
	mutex sync.Mutex
	pdus  [][]byte
}

func (t *captureTransport) Write(pdu []byte) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.pdus = append(t.pdus, append([]byte(nil), pdu...))
	return nil
}

func (t *captureTransport) messages(tb testing.TB) []sgsap.Message {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	out := make([]sgsap.Message, 0, len(t.pdus))
	for _, pdu := range t.pdus {
		msg, _, err := sgsap.Decode(pdu)
		require.NoError(tb, err)
		out = append(out, msg)
	}
	return out
}

func newTestService(t *testing.T) (*MmeService, *mux.Router, *captureTransport) {
	cfg := DefaultConfig()
	cfg.Mme.MailboxSize = 16
	cfg.Mme.MaxSgsContexts = 4
	tr := &captureTransport{}
	s := newMmeService(cfg, itti.UniqueTasks(), tr, zerolog.Nop())
	r := mux.NewRouter()
	s.RegisterNorthboundAPIs(r)
	return s, r, tr
}

func do(t *testing.T, r *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func encodePdu(t *testing.T, msg sgsap.Message) string {
	buf := make([]byte, 64)
	n, err := sgsap.Encode(msg, buf)
	require.NoError(t, err)
	return hex.EncodeToString(buf[:n])
}

func subscriber(t *testing.T, r *mux.Router, imsi string) mme.UeSummary {
	rec := do(t, r, http.MethodGet, "/mme/v1/subscribers/"+imsi, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sum := mme.UeSummary{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sum))
	return sum
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("mme:\n  maxSgsContexts: 10\nsgs:\n  ts8: 2\n"))
	require.NoError(t, err)

	assert.Equal(t, uint16(defaultOamPort), cfg.OamPort)
	assert.Equal(t, uint16(defaultMetricsPort), cfg.MetricsPort)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
	assert.Equal(t, defaultMailboxSize, cfg.Mme.MailboxSize)

	mc := cfg.MmeAppConfig()
	assert.Equal(t, 10, mc.MaxSgsContexts)
	assert.Equal(t, 40*time.Second, mc.Sgs.Ts6_1)
	assert.Equal(t, 2*time.Second, mc.Sgs.Ts8)
	assert.Equal(t, 4*time.Second, mc.Sgs.Ts13)
	assert.Contains(t, cfg.Dumps(), "maxSgsContexts: 10")
}

func TestParseConfigErrors(t *testing.T) {
	tests := map[string]string{
		"log level":    "logLevel: loud\n",
		"mailbox":      "mme:\n  mailboxSize: -1\n",
		"capacity":     "mme:\n  maxSgsContexts: -3\n",
		"port clash":   "oamPort: 9000\nmetricsPort: 9000\n",
		"invalid yaml": "oamPort: [\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(doc))
			assert.Error(t, err)
		})
	}

	_, err := ParseConfig([]byte("logLevel: loud\n"))
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = InitConfig("/nonexistent/mme.yaml")
	assert.Error(t, err)
}

func TestSubscriberLifecycle(t *testing.T) {
	_, r, _ := newTestService(t)

	rec := do(t, r, http.MethodPost, "/mme/v1/subscribers", SubscriberRequest{Imsi: registeredImsi})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, r, http.MethodPost, "/mme/v1/subscribers", SubscriberRequest{Imsi: registeredImsi})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, r, http.MethodPost, "/mme/v1/subscribers", SubscriberRequest{Imsi: "00101x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, "/mme/v1/subscribers", SubscriberRequest{Imsi: unknownImsi, MmState: "ATTACHING"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	sum := subscriber(t, r, registeredImsi)
	assert.Equal(t, "REGISTERED", sum.MmState)
	assert.Empty(t, sum.SgsState)

	rec = do(t, r, http.MethodPut, "/mme/v1/subscribers/"+registeredImsi, MmStateRequest{MmState: "UNREGISTERED"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "UNREGISTERED", subscriber(t, r, registeredImsi).MmState)

	rec = do(t, r, http.MethodPut, "/mme/v1/subscribers/"+registeredImsi, MmStateRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodGet, "/mme/v1/subscribers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []mme.UeSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&all))
	assert.Len(t, all, 1)

	rec = do(t, r, http.MethodDelete, "/mme/v1/subscribers/"+registeredImsi, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, r, http.MethodGet, "/mme/v1/subscribers/"+registeredImsi, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, r, http.MethodDelete, "/mme/v1/subscribers/"+registeredImsi, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, r, http.MethodPut, "/mme/v1/subscribers/"+registeredImsi, MmStateRequest{MmState: "REGISTERED"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInjectBeforeStart(t *testing.T) {
	s, r, _ := newTestService(t)

	pdu := encodePdu(t, &sgsap.AlertRequest{Imsi: registeredImsi})
	rec := do(t, r, http.MethodPost, "/mme/v1/sgs/inbound", PduRequest{Pdu: pdu})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, r, http.MethodPost, "/mme/v1/subscribers/"+registeredImsi+"/esm", PduRequest{Pdu: "02ff00"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	assert.Equal(t, STOPPED, s.Status().Status)
}

func TestInjectRejectsBadPdu(t *testing.T) {
	_, r, _ := newTestService(t)

	rec := do(t, r, http.MethodPost, "/mme/v1/sgs/inbound", PduRequest{Pdu: "zz"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, r, http.MethodPost, "/mme/v1/sgs/inbound", PduRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAlertThroughTasks(t *testing.T) {
	s, r, tr := newTestService(t)
	require.NoError(t, s.StartTasks())
	require.NoError(t, s.StartTasks())

	imsi64, err := s.AddSubscriber(registeredImsi, models.UeUnregistered)
	require.NoError(t, err)
	require.NoError(t, s.mmeApp.Register(imsi64))

	for _, imsi := range []sgsap.Imsi{registeredImsi, unknownImsi} {
		rec := do(t, r, http.MethodPost, "/mme/v1/sgs/inbound", PduRequest{Pdu: encodePdu(t, &sgsap.AlertRequest{Imsi: imsi})})
		require.Equal(t, http.StatusAccepted, rec.Code)
	}

	require.Eventually(t, func() bool { return len(tr.messages(t)) == 2 }, 2*time.Second, 10*time.Millisecond)
	msgs := tr.messages(t)
	assert.Equal(t, &sgsap.AlertAck{Imsi: registeredImsi}, msgs[0])
	assert.Equal(t, &sgsap.AlertReject{Imsi: unknownImsi, Cause: sgsap.CauseImsiUnknown}, msgs[1])

	sum := subscriber(t, r, registeredImsi)
	assert.True(t, sum.Neaf)
	assert.NotEmpty(t, sum.SgsState)

	status := s.Status()
	assert.Equal(t, STARTED, status.Status)
	assert.Equal(t, 1, status.UeContexts)
	assert.Equal(t, 1, status.SgsContexts)
}

func TestDetachThroughTasks(t *testing.T) {
	s, r, tr := newTestService(t)
	require.NoError(t, s.StartTasks())

	rec := do(t, r, http.MethodPost, "/mme/v1/subscribers", SubscriberRequest{Imsi: registeredImsi, MmState: "REGISTERED"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, r, http.MethodPost, "/mme/v1/sgs/inbound", PduRequest{Pdu: encodePdu(t, &sgsap.AlertRequest{Imsi: registeredImsi})})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Eventually(t, func() bool { return subscriber(t, r, registeredImsi).SgsState != "" }, 2*time.Second, 10*time.Millisecond)

	rec = do(t, r, http.MethodPut, "/mme/v1/subscribers/"+registeredImsi, MmStateRequest{MmState: "UNREGISTERED"})
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool { return len(tr.messages(t)) == 2 }, 2*time.Second, 10*time.Millisecond)
	ind, ok := tr.messages(t)[1].(*sgsap.EpsDetachIndication)
	require.True(t, ok)
	assert.Equal(t, sgsap.Imsi(registeredImsi), ind.Imsi)
	assert.Equal(t, sgsap.MmeName(s.config.Mme.MmeName), ind.MmeName)

	// SGS context is kept until the VLR acknowledges
	assert.NotEmpty(t, subscriber(t, r, registeredImsi).SgsState)

	rec = do(t, r, http.MethodPost, "/mme/v1/sgs/inbound", PduRequest{Pdu: encodePdu(t, &sgsap.EpsDetachAck{Imsi: registeredImsi})})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Eventually(t, func() bool { return subscriber(t, r, registeredImsi).SgsState == "" }, 2*time.Second, 10*time.Millisecond)

	// detached UE is rejected
	rec = do(t, r, http.MethodPost, "/mme/v1/sgs/inbound", PduRequest{Pdu: encodePdu(t, &sgsap.AlertRequest{Imsi: registeredImsi})})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Eventually(t, func() bool { return len(tr.messages(t)) == 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, &sgsap.AlertReject{Imsi: registeredImsi, Cause: sgsap.CauseImsiDetachedForEpsServices}, tr.messages(t)[2])
}

func TestDeleteReleasesSgsContext(t *testing.T) {
	s, r, tr := newTestService(t)
	require.NoError(t, s.StartTasks())

	rec := do(t, r, http.MethodPost, "/mme/v1/subscribers", SubscriberRequest{Imsi: registeredImsi})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, r, http.MethodPost, "/mme/v1/sgs/inbound", PduRequest{Pdu: encodePdu(t, &sgsap.AlertRequest{Imsi: registeredImsi})})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Eventually(t, func() bool { return len(tr.messages(t)) == 1 }, 2*time.Second, 10*time.Millisecond)

	rec = do(t, r, http.MethodDelete, "/mme/v1/subscribers/"+registeredImsi, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	status := s.Status()
	assert.Equal(t, 0, status.UeContexts)
	assert.Equal(t, 0, status.SgsContexts)
}

func TestUplinkEsmAccepted(t *testing.T) {
	s, r, _ := newTestService(t)
	require.NoError(t, s.StartTasks())

	rec := do(t, r, http.MethodPost, "/mme/v1/subscribers/"+registeredImsi+"/esm", PduRequest{Pdu: "02ff00"})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(t, r, http.MethodPost, "/mme/v1/subscribers/abc/esm", PduRequest{Pdu: "02ff00"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusRoute(t *testing.T) {
	s, r, _ := newTestService(t)

	rec := do(t, r, http.MethodGet, "/mme/v1/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := StatusResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, STOPPED, res.Status)
	assert.Equal(t, s.instanceId, res.InstanceId)
	assert.Equal(t, defaultMmeName, res.MmeName)
}


func TestAlertBurstOnSmallMailboxes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mme.MailboxSize = 1
	tr := &captureTransport{}
	s := newMmeService(cfg, itti.UniqueTasks(), tr, zerolog.Nop())
	r := mux.NewRouter()
	s.RegisterNorthboundAPIs(r)
	require.NoError(t, s.StartTasks())

	_, err := s.AddSubscriber(registeredImsi, models.UeRegistered)
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, err := sgsap.Encode(&sgsap.AlertRequest{Imsi: registeredImsi}, buf)
	require.NoError(t, err)
	pdu := buf[:n]

	full := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20000; i++ {
			if err := s.InjectSgsapPdu(pdu); err != nil {
				assert.True(t, errors.Is(err, itti.ErrMailboxFull))
				full++
			}
		}
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("alert injection stuck on full mailboxes")
	}
	assert.Positive(t, full)

	// both tasks keep serving once the burst is over
	before := len(tr.messages(t))
	require.Eventually(t, func() bool {
		_ = s.InjectSgsapPdu(pdu)
		return len(tr.messages(t)) > before
	}, 5*time.Second, 20*time.Millisecond)

	rec := do(t, r, http.MethodPut, "/mme/v1/subscribers/"+registeredImsi, MmStateRequest{MmState: "UNREGISTERED"})
	assert.Contains(t, []int{http.StatusOK, http.StatusServiceUnavailable}, rec.Code)
	assert.Equal(t, "UNREGISTERED", subscriber(t, r, registeredImsi).MmState)
}

func TestFullMailboxIsUnavailable(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.Wrap(itti.ErrMailboxFull, "OAM -> SGS"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRemoveThenReAddKeepsNewSgsContext(t *testing.T) {
	s, r, tr := newTestService(t)
	require.NoError(t, s.StartTasks())
	alert := PduRequest{Pdu: encodePdu(t, &sgsap.AlertRequest{Imsi: registeredImsi})}

	for round := 1; round <= 3; round++ {
		rec := do(t, r, http.MethodPost, "/mme/v1/subscribers", SubscriberRequest{Imsi: registeredImsi})
		require.Equal(t, http.StatusCreated, rec.Code)
		rec = do(t, r, http.MethodPost, "/mme/v1/sgs/inbound", alert)
		require.Equal(t, http.StatusAccepted, rec.Code)
		require.Eventually(t, func() bool { return len(tr.messages(t)) == round }, 2*time.Second, 10*time.Millisecond)

		assert.Equal(t, 1, s.Status().SgsContexts)
		assert.Equal(t, 1, s.mmeApp.SgsContextsInUse())

		rec = do(t, r, http.MethodDelete, "/mme/v1/subscribers/"+registeredImsi, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, 0, s.mmeApp.SgsContextsInUse())
	}
}
