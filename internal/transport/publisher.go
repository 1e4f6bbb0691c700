// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"sync"
	"time"

	applog "audiobackend/internal/log"
)

// Publisher periodically pulls a LevelReport from a Source, stamps it with
// a sequence number and time, and sends it to every configured transport.
type Publisher struct {
	source     Source
	transports []Transport
	interval   time.Duration
	now        func() time.Time

	ticker   *time.Ticker
	doneChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	sequenceNum uint32
}

// NewPublisher creates a publisher. If the interval is invalid (<= 0), it
// defaults to 16ms (~60Hz).
func NewPublisher(interval time.Duration, source Source, transports ...Transport) (*Publisher, error) {
	if source == nil {
		return nil, fmt.Errorf("publisher: source cannot be nil")
	}
	if len(transports) == 0 {
		return nil, fmt.Errorf("publisher: at least one transport is required")
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("publisher: invalid interval provided, defaulting to %s", interval)
	}

	return &Publisher{
		source:     source,
		transports: transports,
		interval:   interval,
		now:        time.Now,
	}, nil
}

// Start launches the publishing goroutine. Calling Start on a running
// publisher is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ticker != nil {
		applog.Warnf("publisher: Start called but already running")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})

	ticker := p.ticker
	doneChan := p.doneChan

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("publisher: started (interval %s, %d transports)", p.interval, len(p.transports))
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publishing goroutine and waits for it to exit. Calling
// Stop on a stopped publisher is a no-op.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	close(p.doneChan)
	p.ticker.Stop()
	p.ticker = nil
	p.mu.Unlock()

	p.wg.Wait()
	applog.Debugf("publisher: stopped after %d reports", p.sequenceNum)
	return nil
}

// publish sends one report to every transport. A failing transport does
// not prevent delivery to the others.
func (p *Publisher) publish() {
	report := p.source.Report()
	p.sequenceNum++
	report.Sequence = p.sequenceNum
	report.Timestamp = p.now()

	for _, t := range p.transports {
		if err := t.Send(report); err != nil {
			applog.Debugf("publisher: send #%d via %T failed: %v", report.Sequence, t, err)
		}
	}
}

// Close stops the publisher and closes every transport.
func (p *Publisher) Close() error {
	if err := p.Stop(); err != nil {
		return err
	}

	var firstErr error
	for _, t := range p.transports {
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
