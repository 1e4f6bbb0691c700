// SPDX-License-Identifier: MIT
package transport

import (
	applog "audiobackend/internal/log"
)

// LoggingTransport writes every report to the debug log.
type LoggingTransport struct{}

func NewLoggingTransport() *LoggingTransport {
	applog.Debugf("transport: using LoggingTransport")
	return &LoggingTransport{}
}

func (lt *LoggingTransport) Send(data any) error {
	if r, ok := data.(LevelReport); ok {
		applog.Debugf("levels #%d %s peak=%v rms=%v active=%v xruns=%d",
			r.Sequence, r.Device, r.PeakDBFS, r.RMS, r.Active, r.XRuns)
		return nil
	}
	applog.Debugf("transport: %T %+v", data, data)
	return nil
}

func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
