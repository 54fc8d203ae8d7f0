package web

import (
	"context"
	"fmt"
	"net/http"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/dogeorg/wifiinfo/pkg/conductor"
	"github.com/dogeorg/wifiinfo/pkg/permission"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

func RESTAPI(
	config wifiinfo.ServerConfig,
	wi wifiinfo.WifiInfo,
	gate *permission.Gate,
	consent *permission.ConsentStore,
	ws WSRelay,
	log logrus.FieldLogger,
) conductor.Service {
	return newAPI(config, wi, gate, consent, ws, log)
}

func newAPI(
	config wifiinfo.ServerConfig,
	wi wifiinfo.WifiInfo,
	gate *permission.Gate,
	consent *permission.ConsentStore,
	ws WSRelay,
	log logrus.FieldLogger,
) api {
	a := api{
		mux:      http.NewServeMux(),
		config:   config,
		wi:       wi,
		gate:     gate,
		consent:  consent,
		ws:       ws,
		sessions: newSessionStore(),
		log:      log.WithField("service", "rest"),
	}

	routes := map[string]http.HandlerFunc{
		"POST /authenticate": a.authenticate,
		"POST /logout":       a.logout,

		"GET /scan":                  a.getScan,
		"GET /scan/{bssid}":          a.getScanDetail,
		"POST /scan":                 a.startScan,
		"DELETE /scan":               a.clearScan,
		"GET /permissions":           a.getPermissions,
		"PUT /permissions/{name}":    a.setPermission,
		"DELETE /permissions/{name}": a.resetPermission,

		"/ws/scan": a.getScanSocket,
	}

	for p, h := range routes {
		a.mux.HandleFunc(p, authReq(a.sessions, p, h))
	}
	a.log.Debugf("Loaded %d API routes", len(routes))

	return a
}

type api struct {
	mux      *http.ServeMux
	config   wifiinfo.ServerConfig
	wi       wifiinfo.WifiInfo
	gate     *permission.Gate
	consent  *permission.ConsentStore
	ws       WSRelay
	sessions *sessionStore
	log      logrus.FieldLogger
}

func (t api) handler() http.Handler {
	return cors.AllowAll().Handler(t.mux)
}

func (t api) Run(started, stopped chan bool, stop chan context.Context) error {
	go func() {
		srv := &http.Server{Addr: fmt.Sprintf("%s:%d", t.config.Bind, t.config.Port), Handler: t.handler()}
		go func() {
			if err := srv.ListenAndServe(); err != http.ErrServerClosed {
				t.log.Fatalf("HTTP server public ListenAndServe: %v", err)
			}
		}()
		t.log.Infof("Listening on %s", srv.Addr)

		started <- true
		ctx := <-stop
		srv.Shutdown(ctx)
		stopped <- true
	}()
	return nil
}
