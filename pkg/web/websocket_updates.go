package web

import (
	"context"
	"time"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"
)

type WSRelay struct {
	socks *[]*WSCONN
	relay chan wifiinfo.Change
	newWs chan *WSCONN
	log   logrus.FieldLogger
}

func NewWSRelay(relay chan wifiinfo.Change, log logrus.FieldLogger) WSRelay {
	return WSRelay{
		socks: &[]*WSCONN{},       // all current connections
		relay: relay,              // recieve Change messages from WifiInfo to broadcast
		newWs: make(chan *WSCONN), // recieve new WSCONNs
		log:   log.WithField("service", "ws-relay"),
	}
}

func (t WSRelay) Run(started, stopped chan bool, stop chan context.Context) error {
	cleanupTime := 10 * time.Second
	cleanup := time.NewTimer(cleanupTime)
	go func() {
		go func() {
		mainloop:
			for {
				select {
				case <-stop:
					break mainloop
				case ws := <-t.newWs:
					t.addSock(ws)
				case v := <-t.relay:
					t.broadcast(v)
				case <-cleanup.C:
					t.cleanupSocks()
					cleanup.Reset(cleanupTime)
				}
			}
			for _, sock := range *t.socks {
				sock.Close()
			}
		}()

		started <- true
		<-stop
		stopped <- true
	}()
	return nil
}

func (t WSRelay) cleanupSocks() {
	remaining := []*WSCONN{}
	for _, s := range *t.socks {
		if s.IsClosed() {
			continue
		}
		remaining = append(remaining, s)
	}
	*t.socks = remaining
}

func (t WSRelay) broadcast(v any) {
	for _, ws := range *t.socks {
		if ws.IsClosed() {
			continue
		}
		err := websocket.JSON.Send(ws.WS, v)
		if err != nil {
			t.log.Debugf("dropping websocket client: %s", err)
			ws.Close()
		}
	}
}

func (t WSRelay) addSock(ws *WSCONN) {
	*t.socks = append(*t.socks, ws)
}

func (t WSRelay) GetWSHandler(initialPayloader func() any) *websocket.Server {
	config := &websocket.Config{
		Origin: nil,
	}
	h := websocket.Server{
		Handler: func(ws *websocket.Conn) {
			stop := make(chan bool)
			t.newWs <- &WSCONN{ws, stop}

			err := websocket.JSON.Send(ws, initialPayloader())
			if err != nil {
				t.log.Warnf("failed to send initial payload: %s", err)
			}
			<-stop // hold the connection until stopper closes
		},
		Config: *config,
	}
	return &h
}
