package web

import (
	"net/http"
	"time"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"golang.org/x/net/websocket"
)

// Represents a websocket connection from a client
type WSCONN struct {
	WS   *websocket.Conn
	Stop chan bool
}

func (t *WSCONN) IsClosed() bool {
	return t.Stop == nil
}

func (t *WSCONN) Close() {
	if t.Stop != nil {
		close(t.Stop)
		t.Stop = nil
	}
}

// Handle incoming websocket connections for scan updates. New
// clients get the current result set straight away.
func (t api) getScanSocket(w http.ResponseWriter, r *http.Request) {
	initialPayload := func() any {
		return wifiinfo.Change{
			ID:     "internal",
			Type:   "scan",
			Update: wifiinfo.ScanUpdate{Results: t.wi.Results.Results(), At: time.Now()},
		}
	}
	t.ws.GetWSHandler(initialPayload).ServeHTTP(w, r)
}
