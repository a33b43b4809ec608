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
	"testing"
	"time"

	"github.com/giuliocarot0/gitc"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMessageType gitc.MessageType = 42

type testPayload struct {
	seq int
}

func TestDispatcherPreservesOrder(t *testing.T) {
	tasks := UniqueTasks()
	received := make(chan int, 16)

	require.NoError(t, StartTask(tasks.MmeApp, 16, func(gitc.Message) {}))
	require.NoError(t, StartTask(tasks.Sgs, 16, func(msg gitc.Message) {
		if msg.Type == testMessageType {
			received <- msg.Payload.(*testPayload).seq
		}
	}))

	d := NewDispatcher(tasks.MmeApp)
	for i := 0; i < 5; i++ {
		require.NoError(t, d.Send(tasks.Sgs, testMessageType, &testPayload{seq: i}))
	}

	for i := 0; i < 5; i++ {
		select {
		case seq := <-received:
			assert.Equal(t, i, seq)
		case <-time.After(2 * time.Second):
			t.Fatalf("message %d not delivered", i)
		}
	}
}

func TestDispatcherRejectsNilEnvelope(t *testing.T) {
	d := NewDispatcher(TaskMmeApp)

	err := d.Send(TaskSgs, testMessageType, nil)
	assert.True(t, errors.Is(err, ErrNilEnvelope))

	var payload *testPayload
	err = d.Send(TaskSgs, testMessageType, payload)
	assert.True(t, errors.Is(err, ErrNilEnvelope))
}

func TestUniqueTasks(t *testing.T) {
	a, b := UniqueTasks(), UniqueTasks()
	assert.NotEqual(t, a.MmeApp, b.MmeApp)
	assert.Contains(t, string(a.Sgs), string(TaskSgs))
	assert.Equal(t, TaskS1ap, DefaultTasks().S1ap)
}

func TestDispatcherUnknownTask(t *testing.T) {
	d := NewDispatcher(TaskMmeApp)
	err := d.Send(UniqueTasks().Sgs, testMessageType, &testPayload{})
	assert.True(t, errors.Is(err, ErrTaskNotStarted))
}

func TestDispatcherFullMailboxDoesNotBlock(t *testing.T) {
	tasks := UniqueTasks()
	release := make(chan struct{})
	received := make(chan int, 64)

	require.NoError(t, StartTask(tasks.Sgs, 1, func(msg gitc.Message) {
		<-release
		received <- msg.Payload.(*testPayload).seq
	}))

	d := NewDispatcher(tasks.MmeApp)
	accepted := []int{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 32; i++ {
			err := d.Send(tasks.Sgs, testMessageType, &testPayload{seq: i})
			if err == nil {
				accepted = append(accepted, i)
				continue
			}
			assert.True(t, errors.Is(err, ErrMailboxFull))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("send waited on a full mailbox")
	}
	// one message held by the handler, one waiting in the mailbox
	require.GreaterOrEqual(t, len(accepted), 1)
	require.LessOrEqual(t, len(accepted), 2)
	assert.Equal(t, 0, accepted[0])

	close(release)
	for _, seq := range accepted {
		select {
		case got := <-received:
			assert.Equal(t, seq, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("message %d not delivered", seq)
		}
	}

	// credits come back once the backlog drains
	require.Eventually(t, func() bool {
		return d.Send(tasks.Sgs, testMessageType, &testPayload{seq: 100}) == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDispatcherTaskStartsOnce(t *testing.T) {
	tasks := UniqueTasks()
	require.NoError(t, StartTask(tasks.S1ap, 0, func(gitc.Message) {}))
	assert.Error(t, StartTask(tasks.S1ap, 4, func(gitc.Message) {}))
}
