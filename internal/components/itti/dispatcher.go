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

package itti

import (
	"reflect"
	"sync"

	"github.com/giuliocarot0/gitc"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// TaskID names a task mailbox.
type TaskID string

const (
	TaskMmeApp TaskID = "MME_APP"
	TaskSgs    TaskID = "SGS"
	TaskS1ap   TaskID = "S1AP"
)

var (
	ErrNilEnvelope    = errors.New("itti: nil message payload")
	ErrTaskNotStarted = errors.New("itti: task not started")
	ErrMailboxFull    = errors.New("itti: mailbox full")
)

// mailbox tracks how many messages sit in a task's gitc channel. A sender
// takes a credit before enqueuing and the task gives it back when the
// message is dequeued, so the channel send itself never waits.
type mailbox struct {
	credits chan struct{}
}

var (
	mailboxes      = map[TaskID]*mailbox{}
	mailboxesMutex sync.RWMutex
)

// Tasks is the set of mailbox names one MME instance talks to.
type Tasks struct {
	MmeApp TaskID
	Sgs    TaskID
	S1ap   TaskID
}

func DefaultTasks() Tasks {
	return Tasks{MmeApp: TaskMmeApp, Sgs: TaskSgs, S1ap: TaskS1ap}
}

// UniqueTasks suffixes every task name with a random id so that several
// instances can share the process wide mailbox registry.
func UniqueTasks() Tasks {
	suffix := "-" + uuid.NewString()
	return Tasks{
		MmeApp: TaskMmeApp + TaskID(suffix),
		Sgs:    TaskSgs + TaskID(suffix),
		S1ap:   TaskS1ap + TaskID(suffix),
	}
}

// Dispatcher enqueues a message into the mailbox of another task and returns
// without waiting for it to be processed. Messages sent by one task to one
// destination are delivered in send order. A full mailbox fails the send
// with ErrMailboxFull.
type Dispatcher interface {
	Send(to TaskID, t gitc.MessageType, payload any) error
}

type GitcDispatcher struct {
	from TaskID
}

func NewDispatcher(from TaskID) *GitcDispatcher {
	return &GitcDispatcher{from: from}
}

func (d *GitcDispatcher) Send(to TaskID, t gitc.MessageType, payload any) error {
	if isNil(payload) {
		return errors.Wrapf(ErrNilEnvelope, "%s -> %s type %d", d.from, to, t)
	}

	mailboxesMutex.RLock()
	mb, ok := mailboxes[to]
	mailboxesMutex.RUnlock()
	if !ok {
		return errors.Wrapf(ErrTaskNotStarted, "%s -> %s type %d", d.from, to, t)
	}

	select {
	case mb.credits <- struct{}{}:
	default:
		return errors.Wrapf(ErrMailboxFull, "%s -> %s type %d", d.from, to, t)
	}
	if err := gitc.Send(string(d.from), string(to), t, payload); err != nil {
		<-mb.credits
		return errors.Wrapf(err, "%s -> %s type %d", d.from, to, t)
	}
	return nil
}

// StartTask registers the mailbox of task id. handler runs on the task's
// own goroutine, one message at a time. At most mailboxSize messages wait
// in the mailbox; a size below one is treated as one.
func StartTask(id TaskID, mailboxSize int, handler func(gitc.Message)) error {
	if mailboxSize < 1 {
		mailboxSize = 1
	}
	mb := &mailbox{credits: make(chan struct{}, mailboxSize)}

	mailboxesMutex.Lock()
	defer mailboxesMutex.Unlock()
	if _, ok := mailboxes[id]; ok {
		return errors.Errorf("start task %s: task already exists", id)
	}
	err := gitc.StartTask(string(id), func(msg gitc.Message) {
		<-mb.credits
		handler(msg)
	}, mailboxSize)
	if err != nil {
		return errors.Wrapf(err, "start task %s", id)
	}
	mailboxes[id] = mb
	return nil
}

func isNil(payload any) bool {
	if payload == nil {
		return true
	}
	v := reflect.ValueOf(payload)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
