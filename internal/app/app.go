// Package app wires the recognizer core to its adapters: configuration,
// a frame source, the dispatcher and dumper, telemetry, the audit store,
// and the web dashboard. It is the Facade that cmd/zizzaniad drives.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/zizzania-go/zizzaniad/internal/adapters/capture"
	"github.com/zizzania-go/zizzaniad/internal/adapters/dispatcher"
	"github.com/zizzania-go/zizzaniad/internal/adapters/dumper"
	"github.com/zizzania-go/zizzaniad/internal/adapters/parser"
	"github.com/zizzania-go/zizzaniad/internal/adapters/reporting"
	"github.com/zizzania-go/zizzaniad/internal/adapters/storage"
	"github.com/zizzania-go/zizzaniad/internal/adapters/web"
	"github.com/zizzania-go/zizzaniad/internal/config"
	"github.com/zizzania-go/zizzaniad/internal/core/domain"
	"github.com/zizzania-go/zizzaniad/internal/core/ports"
	"github.com/zizzania-go/zizzaniad/internal/core/services/recognizer"
	"github.com/zizzania-go/zizzaniad/internal/telemetry"
)

// Application is the Facade orchestrating every component for one run.
type Application struct {
	Config     *config.Config
	Recognizer *recognizer.Recognizer
	Source     capture.Source
	Audit      *storage.AuditStore
	WebServer  *web.Server
	pcapDumper *dumper.PcapDumper
	tracerStop func(context.Context) error
}

// New bootstraps every component in dependency order and returns a ready
// Application. Callers must call Close once Run returns.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{Config: cfg}
	if err := app.bootstrap(); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}
	return app, nil
}

func (app *Application) bootstrap() error {
	telemetry.InitMetrics()

	tracerStop, err := telemetry.InitTracer(app.Config.Verbose)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	app.tracerStop = tracerStop

	audit, err := app.initAudit()
	if err != nil {
		return err
	}
	app.Audit = audit

	dispatch, err := app.initDispatcher()
	if err != nil {
		return err
	}

	dump, err := app.initDumper()
	if err != nil {
		return err
	}

	eventHub := web.NewEventHub()
	fullDispatcher := dispatcher.NewChannelDispatcher(dispatch, audit.RecordEvent, eventHub.Broadcast)

	app.Recognizer = recognizer.New(recognizer.Options{
		AutoAddTargets: app.Config.AutoAddTargets,
		Passive:        app.Config.Passive,
		Verbose:        app.Config.Verbose,
		Dispatcher:     fullDispatcher,
		Dumper:         dump,
		OnNewClient: func(bssid, client domain.Address) {
			telemetry.NewClientsTotal.WithLabelValues(bssid.String()).Inc()
		},
		OnHandshake: func(bssid, client domain.Address) {
			telemetry.HandshakesTotal.WithLabelValues(bssid.String()).Inc()
		},
	})

	source, err := app.initSource()
	if err != nil {
		return err
	}
	app.Source = source

	reporter := reporting.NewPDFReporter()
	app.WebServer = web.NewServer(
		app.Config.Addr,
		statusAdapter{app: app},
		web.Credentials{User: app.Config.AdminUser, PassHash: app.Config.AdminPassHash},
		eventHub,
		app.buildReport(reporter),
	)

	return nil
}

// buildReport closes over the application so /report.pdf can render a fresh
// summary from the audit trail on every request.
func (app *Application) buildReport(reporter *reporting.PDFReporter) web.ReportFunc {
	return func() ([]byte, error) {
		newClients, err := app.Audit.CountByAction(domain.ActionNewClient.String())
		if err != nil {
			return nil, fmt.Errorf("counting new-client events: %w", err)
		}
		handshakes, err := app.Audit.CountByAction(domain.ActionHandshake.String())
		if err != nil {
			return nil, fmt.Errorf("counting handshake events: %w", err)
		}
		recent, err := app.Audit.RecentEvents(25)
		if err != nil {
			return nil, fmt.Errorf("loading recent events: %w", err)
		}
		return reporter.Render(reporting.Summary{
			GeneratedAt:     time.Now(),
			Interface:       app.Config.Interface,
			TargetsTracked:  app.Recognizer.KnownTargets(),
			NewClients:      newClients,
			HandshakesTotal: handshakes,
			RecentEvents:    recent,
		})
	}
}

func (app *Application) initAudit() (*storage.AuditStore, error) {
	if dir := filepath.Dir(app.Config.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating audit database directory: %w", err)
		}
	}
	store, err := storage.NewAuditStore(app.Config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	return store, nil
}

func (app *Application) initDispatcher() (dispatcher.DispatcherFunc, error) {
	if app.Config.Passive || app.Config.DispatcherPath == "" {
		return func([13]byte) error { return nil }, nil
	}
	f, err := os.OpenFile(app.Config.DispatcherPath, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening dispatcher pipe %s: %w", app.Config.DispatcherPath, err)
	}
	pipe := dispatcher.NewPipeDispatcher(f)
	return pipe.Write, nil
}

// initDumper returns a nil ports.Dumper interface (not a typed nil pointer)
// when no pcap path is configured, so the recognizer's own nil check works.
func (app *Application) initDumper() (ports.Dumper, error) {
	if app.Config.PcapPath == "" {
		return nil, nil
	}
	f, err := os.Create(app.Config.PcapPath)
	if err != nil {
		return nil, fmt.Errorf("creating pcap file %s: %w", app.Config.PcapPath, err)
	}
	pcapDumper, err := dumper.NewPcapDumper(f)
	if err != nil {
		return nil, fmt.Errorf("initializing pcap writer: %w", err)
	}
	app.pcapDumper = pcapDumper
	return pcapDumper, nil
}

const liveCaptureSnapLen = 65536

func (app *Application) initSource() (capture.Source, error) {
	if app.Config.ReplayFile != "" {
		f, err := os.Open(app.Config.ReplayFile)
		if err != nil {
			return nil, fmt.Errorf("opening replay file %s: %w", app.Config.ReplayFile, err)
		}
		return capture.NewReplaySource(f)
	}
	return capture.NewLiveSource(app.Config.Interface, liveCaptureSnapLen)
}

// Run reads frames from the configured source until it is exhausted or ctx
// is cancelled, feeding each one through the parser and recognizer. The web
// server runs concurrently for the same duration.
func (app *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- app.WebServer.Run(ctx) }()

	go func() {
		<-ctx.Done()
		_ = app.Source.Close()
	}()

	for {
		raw, err := app.Source.Next()
		if err != nil {
			break
		}
		telemetry.FramesCaptured.WithLabelValues(app.Config.Interface).Inc()
		telemetry.TargetsKnown.Set(float64(app.Recognizer.KnownTargets()))

		frame, ok := parser.Parse(raw.Data)
		if !ok {
			telemetry.FramesSkipped.WithLabelValues(app.Config.Interface).Inc()
			continue
		}

		if err := app.Recognizer.ProcessFrame(frame, raw.Timestamp, raw.OrigLen); err != nil {
			telemetry.DispatcherErrorsTotal.Inc()
			log.Printf("recognizer stopped: %v", err)
			break
		}
	}

	select {
	case err := <-errCh:
		return err
	case <-time.After(10 * time.Millisecond):
		return nil
	}
}

// Close closes the pcap dumper and the audit store, then shuts down the
// tracer provider last so it can still export spans recorded during shutdown.
// It does not close the capture source (Run closes it once ctx is cancelled)
// or the dispatcher pipe.
func (app *Application) Close() error {
	if app.pcapDumper != nil {
		_ = app.pcapDumper.Close()
	}
	var auditErr error
	if app.Audit != nil {
		auditErr = app.Audit.Close()
	}
	if app.tracerStop != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.tracerStop(shutdownCtx); err != nil && auditErr == nil {
			return fmt.Errorf("shutting down tracer: %w", err)
		}
	}
	return auditErr
}

var _ ports.Dumper = (*dumper.PcapDumper)(nil)

// statusAdapter exposes Application as web.StatusSource without the web
// package needing to import the recognizer package directly.
type statusAdapter struct {
	app *Application
}

func (s statusAdapter) Targets() []web.TargetSnapshot {
	statuses := s.app.Recognizer.Targets()
	snapshots := make([]web.TargetSnapshot, len(statuses))
	for i, status := range statuses {
		snapshots[i] = web.TargetSnapshot{BSSID: status.BSSID.String(), ClientsTracked: status.ClientsTracked}
	}
	return snapshots
}

func (s statusAdapter) Stopped() bool {
	return s.app.Recognizer.Stopped()
}
