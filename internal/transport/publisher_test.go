// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"audiobackend/pkg/utils"
)

type fakeSource struct {
	calls atomic.Int32
}

func (s *fakeSource) Report() LevelReport {
	s.calls.Add(1)
	return LevelReport{
		Device: "fake",
		Peak:   []float64{0.5},
		RMS:    []float64{0.25},
		Active: true,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewPublisherValidation(t *testing.T) {
	mock := &utils.MockTransport{}

	if _, err := NewPublisher(time.Millisecond, nil, mock); err == nil {
		t.Error("expected error for nil source")
	}
	if _, err := NewPublisher(time.Millisecond, &fakeSource{}); err == nil {
		t.Error("expected error without transports")
	}

	p, err := NewPublisher(0, &fakeSource{}, mock)
	if err != nil {
		t.Fatalf("NewPublisher() error: %v", err)
	}
	if p.interval != 16*time.Millisecond {
		t.Errorf("interval = %s, want default 16ms", p.interval)
	}
}

func TestPublisherStampsReports(t *testing.T) {
	mock := &utils.MockTransport{}
	p, err := NewPublisher(time.Second, &fakeSource{}, mock)
	if err != nil {
		t.Fatal(err)
	}
	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return stamp }

	p.publish()
	p.publish()

	if mock.Count() != 2 {
		t.Fatalf("sent %d reports, want 2", mock.Count())
	}
	r, ok := mock.Last().(LevelReport)
	if !ok {
		t.Fatalf("sent %T, want LevelReport", mock.Last())
	}
	if r.Sequence != 2 {
		t.Errorf("Sequence = %d, want 2", r.Sequence)
	}
	if !r.Timestamp.Equal(stamp) {
		t.Errorf("Timestamp = %s, want %s", r.Timestamp, stamp)
	}
	if r.Device != "fake" || !r.Active {
		t.Errorf("report fields not carried over: %+v", r)
	}
}

func TestPublisherFailingTransport(t *testing.T) {
	failing := &utils.MockTransport{Err: errors.New("boom")}
	healthy := &utils.MockTransport{}

	p, err := NewPublisher(time.Second, &fakeSource{}, failing, healthy)
	if err != nil {
		t.Fatal(err)
	}
	p.publish()

	if healthy.Count() != 1 {
		t.Errorf("healthy transport got %d reports, want 1", healthy.Count())
	}
}

func TestPublisherStartStop(t *testing.T) {
	source := &fakeSource{}
	mock := &utils.MockTransport{}

	p, err := NewPublisher(time.Millisecond, source, mock)
	if err != nil {
		t.Fatal(err)
	}

	p.Start()
	p.Start()
	waitFor(t, func() bool { return mock.Count() >= 3 })

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("second Stop() error: %v", err)
	}

	sent := mock.Count()
	time.Sleep(10 * time.Millisecond)
	if mock.Count() != sent {
		t.Errorf("reports sent after Stop: %d -> %d", sent, mock.Count())
	}
	if int(source.calls.Load()) != sent {
		t.Errorf("source polled %d times for %d reports", source.calls.Load(), sent)
	}

	// Restart continues the sequence.
	p.Start()
	waitFor(t, func() bool { return mock.Count() > sent })
	p.Stop()

	if r := mock.Last().(LevelReport); int(r.Sequence) <= sent {
		t.Errorf("Sequence = %d after restart, want > %d", r.Sequence, sent)
	}
}

func TestPublisherClose(t *testing.T) {
	a := &utils.MockTransport{}
	b := &utils.MockTransport{}

	p, err := NewPublisher(time.Millisecond, &fakeSource{}, a, b)
	if err != nil {
		t.Fatal(err)
	}
	p.Start()

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !a.Closed || !b.Closed {
		t.Error("Close should close every transport")
	}
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport()
	if err := lt.Send(LevelReport{Device: "x"}); err != nil {
		t.Errorf("Send(LevelReport) error: %v", err)
	}
	if err := lt.Send("other"); err != nil {
		t.Errorf("Send(string) error: %v", err)
	}
	if err := lt.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}
