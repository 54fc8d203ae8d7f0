package conductor

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

/* A Service is anything the Conductor can start and stop.
 *
 * Run must return promptly, doing its work in goroutines. It
 * signals `started` once it is serving, and `stopped` once it
 * has shut down after receiving a context on `stop`. The stop
 * context is delivered repeatedly until the service reports
 * stopped, so more than one goroutine may wait on it.
 */
type Service interface {
	Run(started, stopped chan bool, stop chan context.Context) error
}

type Option func(*Conductor)

// Stop all services on SIGINT/SIGTERM
func HookSignals() Option {
	return func(c *Conductor) {
		c.hookSignals = true
	}
}

// Log each service as it starts and stops
func Noisy() Option {
	return func(c *Conductor) {
		c.noisy = true
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Conductor) {
		c.log = log
	}
}

func StopTimeout(d time.Duration) Option {
	return func(c *Conductor) {
		c.stopTimeout = d
	}
}

type service struct {
	name    string
	svc     Service
	started chan bool
	stopped chan bool
	stop    chan context.Context
}

type Conductor struct {
	services    []*service
	hookSignals bool
	noisy       bool
	stopTimeout time.Duration
	log         logrus.FieldLogger
	quit        chan struct{}
}

func NewConductor(opts ...Option) *Conductor {
	c := &Conductor{
		stopTimeout: 10 * time.Second,
		log:         logrus.StandardLogger(),
		quit:        make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Register a service; services start in the order
// they are registered and stop in reverse.
func (c *Conductor) Service(name string, svc Service) {
	c.services = append(c.services, &service{
		name:    name,
		svc:     svc,
		started: make(chan bool),
		stopped: make(chan bool),
		stop:    make(chan context.Context),
	})
}

// Start runs all services and returns a channel that is
// closed once everything has stopped again.
func (c *Conductor) Start() chan bool {
	done := make(chan bool)
	running := []*service{}

	for _, s := range c.services {
		if err := s.svc.Run(s.started, s.stopped, s.stop); err != nil {
			c.log.WithError(err).Errorf("failed to start service %s", s.name)
			c.Stop()
			break
		}
		<-s.started
		running = append(running, s)
		if c.noisy {
			c.log.Infof("started service: %s", s.name)
		}
	}

	go func() {
		if c.hookSignals {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sig)
			select {
			case s := <-sig:
				c.log.Infof("received %s, shutting down", s)
			case <-c.quit:
			}
		} else {
			<-c.quit
		}

		for i := len(running) - 1; i >= 0; i-- {
			c.stopService(running[i])
		}
		close(done)
	}()

	return done
}

// Stop asks the conductor to shut every service down.
func (c *Conductor) Stop() {
	select {
	case <-c.quit:
	default:
		close(c.quit)
	}
}

func (c *Conductor) stopService(s *service) {
	ctx, cancel := context.WithTimeout(context.Background(), c.stopTimeout)
	defer cancel()

	for {
		select {
		case s.stop <- ctx:
		case <-s.stopped:
			if c.noisy {
				c.log.Infof("stopped service: %s", s.name)
			}
			return
		case <-ctx.Done():
			c.log.Warn(fmt.Sprintf("service %s did not stop within %s", s.name, c.stopTimeout))
			return
		}
	}
}
