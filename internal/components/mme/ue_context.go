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
	"sort"
	"sync"

	"github.com/go-faster/errors"

	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/models"
)

var (
	ErrUeExists   = errors.New("ue context already exists")
	ErrUeNotFound = errors.New("ue context not found")
)

// UeMmContext is the mobility management record of one subscriber.
type UeMmContext struct {
	Imsi64     uint64
	Imsi       string
	MmState    models.MmState
	SgsContext *SgsContext
}

// UeHandle grants exclusive access to one UE context until Release.
type UeHandle interface {
	Context() *UeMmContext
	Release()
}

type UeDirectory interface {
	// LookupByImsi returns the locked context of imsi64. No lock is held on a miss.
	LookupByImsi(imsi64 uint64) (UeHandle, bool)
}

type ueEntry struct {
	mutex   sync.Mutex
	ctx     UeMmContext
	removed bool
}

// UeContextStore is an in memory UeDirectory keyed by IMSI64, with one lock per UE.
type UeContextStore struct {
	mutex sync.RWMutex
	ues   map[uint64]*ueEntry
}

func NewUeContextStore() *UeContextStore {
	return &UeContextStore{
		ues: make(map[uint64]*ueEntry),
	}
}

type UeContextHandle struct {
	entry *ueEntry
}

func (h *UeContextHandle) Context() *UeMmContext { return &h.entry.ctx }

func (h *UeContextHandle) Release() { h.entry.mutex.Unlock() }

func (s *UeContextStore) LookupByImsi(imsi64 uint64) (UeHandle, bool) {
	s.mutex.RLock()
	entry, ok := s.ues[imsi64]
	s.mutex.RUnlock()
	if !ok {
		return nil, false
	}

	entry.mutex.Lock()
	if entry.removed {
		entry.mutex.Unlock()
		return nil, false
	}
	return &UeContextHandle{entry: entry}, true
}

func (s *UeContextStore) Add(imsi string, state models.MmState) (uint64, error) {
	imsi64, err := models.ImsiToImsi64(imsi)
	if err != nil {
		return 0, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, exist := s.ues[imsi64]; exist {
		return 0, errors.Wrapf(ErrUeExists, "imsi %s", imsi)
	}
	s.ues[imsi64] = &ueEntry{
		ctx: UeMmContext{Imsi64: imsi64, Imsi: imsi, MmState: state},
	}
	return imsi64, nil
}

// Remove drops the UE from the directory and returns its last state.
// release, when not nil, runs on the context while the UE is still locked
// and listed, so nothing can re-create the UE before its resources are freed.
func (s *UeContextStore) Remove(imsi64 uint64, release func(*UeMmContext)) (UeMmContext, error) {
	s.mutex.RLock()
	entry, ok := s.ues[imsi64]
	s.mutex.RUnlock()
	if !ok {
		return UeMmContext{}, errors.Wrapf(ErrUeNotFound, "imsi %d", imsi64)
	}

	entry.mutex.Lock()
	defer entry.mutex.Unlock()
	if entry.removed {
		return UeMmContext{}, errors.Wrapf(ErrUeNotFound, "imsi %d", imsi64)
	}
	if release != nil {
		release(&entry.ctx)
	}
	entry.removed = true

	s.mutex.Lock()
	delete(s.ues, imsi64)
	s.mutex.Unlock()
	return entry.ctx, nil
}

func (s *UeContextStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.ues)
}

// UeSummary is a copy of a UE context safe to hand outside the lock.
type UeSummary struct {
	Imsi        string `json:"imsi"`
	MmState     string `json:"mmState"`
	SgsState    string `json:"sgsState,omitempty"`
	Neaf        bool   `json:"neaf"`
	VlrReliable bool   `json:"vlrReliable"`
}

func summarize(ctx *UeMmContext) UeSummary {
	sum := UeSummary{Imsi: ctx.Imsi, MmState: ctx.MmState.String()}
	if ctx.SgsContext != nil {
		sum.SgsState = ctx.SgsContext.State.String()
		sum.Neaf = ctx.SgsContext.Neaf
		sum.VlrReliable = ctx.SgsContext.VlrReliable
	}
	return sum
}

func (s *UeContextStore) Get(imsi64 uint64) (UeSummary, bool) {
	h, ok := s.LookupByImsi(imsi64)
	if !ok {
		return UeSummary{}, false
	}
	defer h.Release()
	return summarize(h.Context()), true
}

// Snapshot returns every UE sorted by IMSI. UEs are locked one at a time.
func (s *UeContextStore) Snapshot() []UeSummary {
	s.mutex.RLock()
	keys := make([]uint64, 0, len(s.ues))
	for imsi64 := range s.ues {
		keys = append(keys, imsi64)
	}
	s.mutex.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]UeSummary, 0, len(keys))
	for _, imsi64 := range keys {
		if sum, ok := s.Get(imsi64); ok {
			out = append(out, sum)
		}
	}
	return out
}
