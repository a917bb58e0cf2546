// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects performed searches with their relative fire times.
type recorder struct {
	mu    sync.Mutex
	start time.Time
	texts []string
	times []time.Duration
}

func newRecorder() *recorder {
	return &recorder{start: time.Now()}
}

func (r *recorder) perform(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	r.times = append(r.times, time.Since(r.start))
}

func (r *recorder) fired() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.texts))
	copy(out, r.texts)
	return out
}

func TestDebouncer_BurstCoalescesToLastText(t *testing.T) {
	// Two bursts separated by a pause longer than the interval: each
	// burst fires once with its final text, and the keystroke
	// superseded inside the first window ("a") never fires.
	const interval = 80 * time.Millisecond
	rec := newRecorder()
	d := NewDebouncer(interval, rec.perform)

	d.OnInput("a")
	time.Sleep(10 * time.Millisecond)
	d.OnInput("ap")
	time.Sleep(90 * time.Millisecond) // "ap" fires here, then typing resumes
	d.OnInput("app")

	require.Eventually(t, func() bool { return len(rec.fired()) >= 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(2 * interval) // settle: nothing further may fire

	assert.Equal(t, []string{"ap", "app"}, rec.fired(), "the first keystroke is fully suppressed")
	assert.False(t, d.Pending())
}

func TestDebouncer_SupersededKeystrokesNeverFire(t *testing.T) {
	const interval = 80 * time.Millisecond
	rec := newRecorder()
	d := NewDebouncer(interval, rec.perform)

	d.OnInput("a")
	time.Sleep(10 * time.Millisecond)
	d.OnInput("ap")
	time.Sleep(50 * time.Millisecond) // still inside "ap"'s window
	d.OnInput("app")

	require.Eventually(t, func() bool { return len(rec.fired()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(2 * interval)

	assert.Equal(t, []string{"app"}, rec.fired(), "exactly one search fires, for the settled text")
}

func TestDebouncer_EveryKeystrokeResetsWindow(t *testing.T) {
	const interval = 60 * time.Millisecond
	rec := newRecorder()
	d := NewDebouncer(interval, rec.perform)

	// Keep typing faster than the interval: nothing may fire.
	for i := 0; i < 5; i++ {
		d.OnInput("q")
		time.Sleep(interval / 3)
	}
	assert.Empty(t, rec.fired(), "no search may fire while input is still arriving")
	assert.True(t, d.Pending())

	require.Eventually(t, func() bool { return len(rec.fired()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestDebouncer_FiresTextCapturedAtScheduling(t *testing.T) {
	rec := newRecorder()
	d := NewDebouncer(30*time.Millisecond, rec.perform)

	d.OnInput("final text")

	require.Eventually(t, func() bool { return len(rec.fired()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "final text", rec.fired()[0])
}

func TestDebouncer_QuietIntervalMeasuredFromLastKeystroke(t *testing.T) {
	const interval = 100 * time.Millisecond
	rec := newRecorder()
	d := NewDebouncer(interval, rec.perform)

	d.OnInput("a")
	time.Sleep(50 * time.Millisecond)
	d.OnInput("ab")

	require.Eventually(t, func() bool { return len(rec.fired()) == 1 }, time.Second, 5*time.Millisecond)

	rec.mu.Lock()
	firedAt := rec.times[0]
	rec.mu.Unlock()
	assert.GreaterOrEqual(t, firedAt, 140*time.Millisecond,
		"window must restart at the second keystroke, not run from the first")
}

func TestDebouncer_ExactlyOneTimerPending(t *testing.T) {
	rec := newRecorder()
	d := NewDebouncer(50*time.Millisecond, rec.perform)

	for i := 0; i < 20; i++ {
		d.OnInput("spam")
	}

	require.Eventually(t, func() bool { return len(rec.fired()) >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(120 * time.Millisecond)
	assert.Len(t, rec.fired(), 1, "a burst schedules one search, not one per keystroke")
}

func TestDebouncer_DefaultInterval(t *testing.T) {
	d := NewDebouncer(0, func(string) {})
	assert.Equal(t, DefaultInterval, d.interval)
}
