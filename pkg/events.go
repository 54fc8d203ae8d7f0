package wifiinfo

import "time"

// A Job is created when an Action is recieved by the system.
// Jobs are passed through the WifiInfo service and result in
// a Change being sent to subscribers.
type Job struct {
	A       Action
	ID      string
	Err     string
	Success any
	Start   time.Time
}

// A Change can be the result of a Job (same ID) or
// represent an internal change such as fresh scan
// results arriving from the platform.
type Change struct {
	ID     string `json:"id"`
	Error  string `json:"error"`
	Type   string `json:"type"`
	Update Update `json:"update"`
}

/* Actions are passed to the WifiInfo service via its
 * AddAction method.
 */
type Action any

// Ask the platform for a fresh scan, gated on permissions.
type StartScan struct{}

// Drop the currently presented results.
type ClearResults struct{}

/* Updates are responses to Actions or internal
 * changes. They need to be json-marshalable.
 */
type Update any

type ScanUpdate struct {
	Results []ScanRecord `json:"results"`
	At      time.Time    `json:"at"`
}
