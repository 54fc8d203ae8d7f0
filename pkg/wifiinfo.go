/*
wifiinfo internal architecture:

 Actions are instructions from the user (REST API, CLI) and are submitted
 to WifiInfo.AddAction, becoming Jobs on the job channel and returning a
 Job ID.

 A StartScan job passes the PermissionGate, then the ScanTrigger asks the
 platform for a scan. The platform completes the scan on its own time and
 the ScanListener, registered while WifiInfo is running, reads the full
 result set into the ResultPresenter.

 Finished jobs and every replaced result set are published on the Changes
 channel, along with their Job ID where there is one.

                 ┌─────────────────────────────────┐
                 │            WifiInfo{}           │
  REST API ──┐   │                                 │
             │   │  Jobs ──► Gate ──► Trigger ─────┼──► Platform
  Actions ───┼──►│                                 │    (async scan)
             │   │  Changes ◄── Presenter ◄── Listener ◄──┘
  Job ID ◄───┘   │     │                           │
                 └─────┼───────────────────────────┘
                       ▼
                   WebSocket
*/

package wifiinfo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type WifiInfo struct {
	Gate     PermissionGate
	Trigger  ScanTrigger
	Listener ScanListener
	Results  ResultPresenter
	log      logrus.FieldLogger
	jobs     chan Job
	scans    chan []ScanRecord
	Changes  chan Change
}

func NewWifiInfo(
	gate PermissionGate,
	trigger ScanTrigger,
	listener ScanListener,
	results ResultPresenter,
	log logrus.FieldLogger,
) WifiInfo {
	return WifiInfo{
		Gate:     gate,
		Trigger:  trigger,
		Listener: listener,
		Results:  results,
		log:      log.WithField("service", "wifiinfo"),
		jobs:     make(chan Job),
		scans:    make(chan []ScanRecord, 1),
		Changes:  make(chan Change),
	}
}

// Main WifiInfo goroutine. The results-available registration
// lives exactly as long as this service is running.
func (t WifiInfo) Run(started, stopped chan bool, stop chan context.Context) error {
	if err := t.Listener.Register(); err != nil {
		return err
	}
	removeObserver := t.Results.OnChange(t.queueScan)
	done := make(chan struct{})

	go func() {
		go func() {
		mainloop:
			for {
			dance:
				select {

				// Handle shutdown
				case <-done:
					break mainloop

				// Hand incoming jobs to the Job Dispatcher
				case j, ok := <-t.jobs:
					if !ok {
						break dance
					}
					t.jobDispatcher(j)

				// Publish replaced result sets
				case records := <-t.scans:
					select {
					case t.Changes <- Change{
						ID:     "internal",
						Type:   "scan",
						Update: ScanUpdate{Results: records, At: time.Now()},
					}:
					case <-done:
						break mainloop
					}
				}
			}
		}()
		// flag to Conductor we are running
		started <- true
		// Wait on a stop signal
		<-stop
		close(done)
		removeObserver()
		t.Listener.Unregister()
		stopped <- true
	}()
	return nil
}

// Add an Action to the Action queue, returns a unique ID
// which can be used to match the outcome in the Changes stream
func (t WifiInfo) AddAction(a Action) string {
	id := uuid.NewString()
	t.jobs <- Job{A: a, ID: id, Start: time.Now()}
	return id
}

func (t WifiInfo) jobDispatcher(j Job) {
	t.log.WithField("job", j.ID).Debugf("dispatch job %T", j.A)
	switch a := j.A.(type) {
	case StartScan:
		t.startScan(j)
	case ClearResults:
		t.Results.Clear()
		t.sendFinishedJob("action", j)
	default:
		t.log.Warnf("Unknown action type: %v", a)
	}
}

func (t WifiInfo) startScan(j Job) {
	log := t.log.WithField("job", j.ID)
	ctx := context.Background()

	if err := t.Gate.Ensure(ctx); err != nil {
		j.Err = err.Error()
		log.WithError(err).Info("scan refused by permission gate")
		t.sendFinishedJob("action", j)
		return
	}

	if err := t.Trigger.Scan(ctx); err != nil {
		j.Err = err.Error()
		log.WithError(err).Warn("scan not started")
		t.sendFinishedJob("action", j)
		return
	}

	j.Success = map[string]bool{"scanning": true}
	t.sendFinishedJob("action", j)
}

// runs on the listener's goroutine; keeps only the newest set
func (t WifiInfo) queueScan(records []ScanRecord) {
	for {
		select {
		case t.scans <- records:
			return
		default:
		}
		select {
		case <-t.scans:
		default:
		}
	}
}

// helper to report a completed job back to the client
func (t WifiInfo) sendFinishedJob(changeType string, j Job) {
	t.Changes <- Change{ID: j.ID, Error: j.Err, Type: changeType, Update: j.Success}
}
