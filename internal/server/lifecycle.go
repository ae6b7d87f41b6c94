// Package server runs the long-lived components of the deity server and
// shuts them down together on a signal, a failure or context cancellation.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a component that runs until stopped.
type Service interface {
	// Start blocks until the service stops or fails.
	Start() error
	// Stop makes Start return.
	Stop()
}

// FuncService adapts a start/stop function pair to Service.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls StartFn.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls StopFn.
func (f *FuncService) Stop() { f.StopFn() }

// Lifecycle starts services in registration order and stops them in reverse.
type Lifecycle struct {
	logger   *zap.Logger
	signals  []os.Signal
	mu       sync.Mutex
	services []namedService
}

type namedService struct {
	name    string
	service Service
}

// NewLifecycle returns a Lifecycle that shuts down on SIGINT or SIGTERM.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	if logger == nil {
		panic("server: NewLifecycle precondition violated: logger must be non-nil")
	}
	return &Lifecycle{logger: logger, signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM}}
}

// Add registers svc under name.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	if name == "" || svc == nil {
		panic("server: Lifecycle.Add precondition violated: name and service are required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// Run starts every service and blocks until a signal arrives, ctx ends or a
// service returns. It then stops every service and waits for them to return.
//
// Postcondition: All services have returned. The error joins the failures of
// services that returned an error; a clean shutdown returns nil.
func (l *Lifecycle) Run(ctx context.Context) error {
	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	l.mu.Unlock()

	start := time.Now()
	ctx, stop := signal.NotifyContext(ctx, l.signals...)
	defer stop()

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		failures []error
	)
	exited := make(chan string, len(services))
	for _, ns := range services {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.logger.Info("starting service", zap.String("service", ns.name))
			svcStart := time.Now()
			err := ns.service.Start()
			if err != nil {
				l.logger.Error("service failed",
					zap.String("service", ns.name),
					zap.Error(err),
					zap.Duration("uptime", time.Since(svcStart)),
				)
				errMu.Lock()
				failures = append(failures, fmt.Errorf("service %s: %w", ns.name, err))
				errMu.Unlock()
			}
			exited <- ns.name
		}()
	}
	l.logger.Info("all services started",
		zap.Int("count", len(services)),
		zap.Duration("startup", time.Since(start)),
	)

	select {
	case <-ctx.Done():
		l.logger.Info("shutting down", zap.NamedError("cause", context.Cause(ctx)))
	case name := <-exited:
		l.logger.Info("service exited, shutting down", zap.String("service", name))
	}

	l.shutdown(services)
	wg.Wait()
	l.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))

	errMu.Lock()
	defer errMu.Unlock()
	return errors.Join(failures...)
}

func (l *Lifecycle) shutdown(services []namedService) {
	shutdownStart := time.Now()
	for i := len(services) - 1; i >= 0; i-- {
		ns := services[i]
		svcStart := time.Now()
		ns.service.Stop()
		l.logger.Info("service stopped",
			zap.String("service", ns.name),
			zap.Duration("elapsed", time.Since(svcStart)),
		)
	}
	l.logger.Info("all services stopped", zap.Duration("shutdown_elapsed", time.Since(shutdownStart)))
}
