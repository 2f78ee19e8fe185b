package main

import (
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/sweeney/envmon/internal/logic"
	"github.com/sweeney/envmon/internal/mqtt"
	"github.com/sweeney/envmon/internal/status"
)

// loop is the single-threaded polling loop. Every tick updates each button
// exactly once through the detector.
type loop struct {
	detector   *logic.Detector
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	heartbeat  time.Duration
	clock      clock.Clock
	logger     *zap.SugaredLogger
}

// run processes ticks until a signal arrives, then publishes SHUTDOWN.
func (l *loop) run(tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			l.shutdown(s)
			return nil
		case <-tick:
			l.tick()
		}
	}
}

func (l *loop) startup() {
	if net := readNetworkInfo(); net != nil {
		l.tracker.SetNetwork(net)
	}
	l.publishStatus(mqtt.EventStartup, "", true)
}

func (l *loop) tick() {
	events, err := l.detector.Process()
	if err != nil {
		// The detector logs when an input starts and stops failing.
		l.logger.Debugf("gpio read error: %v", err)
	}

	for _, e := range events {
		if e.Type == logic.EventReleased {
			l.logger.Infof("event: %s %s (held %v, %s)", e.Input, e.Type, e.Held, e.Press)
		} else {
			l.logger.Infof("event: %s %s", e.Input, e.Type)
		}
		if err := l.publisher.Publish(e); err != nil {
			// Don't crash on publish failure
			l.logger.Warnf("publish error: %v", err)
		}
	}

	if hb := l.detector.CheckHeartbeat(l.clock.Now(), l.heartbeat); hb != nil {
		total := 0
		for _, c := range hb.Counts {
			total += c.Pressed + c.Released
		}
		l.logger.Infof("heartbeat: uptime=%v events=%d", hb.Uptime, total)
		if net := readNetworkInfo(); net != nil {
			l.tracker.SetNetwork(net)
		}
		l.publishStatus(mqtt.EventHeartbeat, "", false)
	}

	l.refreshTracker()
}

func (l *loop) shutdown(s os.Signal) {
	l.logger.Infof("received %v, shutting down", s)
	l.publishStatus(mqtt.EventShutdown, signalName(s), true)
}

func (l *loop) refreshTracker() {
	l.tracker.Update(l.detector.States(), l.detector.EventCountsSnapshot())
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

// publishStatus publishes a system event carrying a full status snapshot.
func (l *loop) publishStatus(event, reason string, retained bool) {
	l.refreshTracker()
	snap := l.tracker.Snapshot()
	e := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   retained,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	name := strings.ToLower(event)
	if err := l.publisher.PublishSystem(e); err != nil {
		l.logger.Warnf("failed to publish %s event: %v", name, err)
		return
	}
	l.logger.Infof("published %s event", name)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}
