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

	"github.com/go-faster/errors"
)

var (
	ErrNoFreeSlot       = errors.New("no free sgs context slot")
	ErrSlotNotAllocated = errors.New("ue does not hold an sgs context slot")
)

// SlotAllocator bounds the number of SGS contexts that may be alive at once.
// Slots are keyed by IMSI64.
type SlotAllocator struct {
	mutex          sync.Mutex
	availableSlots []int
	allocated      map[uint64]int // imsi64 -> slot
	slotToUser     map[int]uint64 // slot -> imsi64
}

func NewSlotAllocator(capacity int) *SlotAllocator {
	slots := make([]int, 0, capacity)
	for i := 0; i < capacity; i++ {
		slots = append(slots, i)
	}
	return &SlotAllocator{
		availableSlots: slots,
		allocated:      make(map[uint64]int),
		slotToUser:     make(map[int]uint64),
	}
}

func (a *SlotAllocator) Allocate(imsi64 uint64) (int, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if slot, ok := a.allocated[imsi64]; ok {
		return slot, nil
	}
	if len(a.availableSlots) == 0 {
		return 0, errors.Wrapf(ErrNoFreeSlot, "imsi %d", imsi64)
	}

	slot := a.availableSlots[0]
	a.availableSlots = a.availableSlots[1:]
	a.allocated[imsi64] = slot
	a.slotToUser[slot] = imsi64
	return slot, nil
}

func (a *SlotAllocator) Release(imsi64 uint64) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	slot, ok := a.allocated[imsi64]
	if !ok {
		return errors.Wrapf(ErrSlotNotAllocated, "imsi %d", imsi64)
	}
	delete(a.allocated, imsi64)
	delete(a.slotToUser, slot)
	a.availableSlots = append([]int{slot}, a.availableSlots...)
	return nil
}

func (a *SlotAllocator) Owner(slot int) (uint64, bool) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	imsi64, ok := a.slotToUser[slot]
	return imsi64, ok
}

func (a *SlotAllocator) InUse() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return len(a.allocated)
}

func (a *SlotAllocator) Capacity() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return len(a.allocated) + len(a.availableSlots)
}
