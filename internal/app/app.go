// Package app is the composition root. It builds the store, services,
// delivery queue and scheduler from the configuration and runs every
// long-lived loop until a signal or a control-port SHUTDOWN arrives.
package app

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/dmitrijs2005/todobot/internal/api"
	"github.com/dmitrijs2005/todobot/internal/backup"
	"github.com/dmitrijs2005/todobot/internal/cli"
	"github.com/dmitrijs2005/todobot/internal/config"
	"github.com/dmitrijs2005/todobot/internal/delivery"
	"github.com/dmitrijs2005/todobot/internal/logging"
	"github.com/dmitrijs2005/todobot/internal/metrics"
	"github.com/dmitrijs2005/todobot/internal/netx"
	"github.com/dmitrijs2005/todobot/internal/reminder"
	"github.com/dmitrijs2005/todobot/internal/repositories/repomanager"
	"github.com/dmitrijs2005/todobot/internal/services"
	"github.com/dmitrijs2005/todobot/internal/shared"
	"github.com/dmitrijs2005/todobot/internal/store"
	"github.com/dmitrijs2005/todobot/internal/tz"
)

type App struct {
	config *config.Config
	logger logging.Logger

	db          *repomanager.Manager
	store       *store.Store
	timezones   *services.TimezoneService
	tasks       *services.TaskService
	assignments *services.AssignmentService
	scheduler   *reminder.Scheduler

	queue   delivery.Queue
	workers func(ctx context.Context)
	kafka   *kgo.Client
	inbox   *delivery.Inbox

	registry *prometheus.Registry
	control  *netx.ControlListener
	backup   *backup.Backup
}

type Option func(*options)

type options struct {
	console io.Writer
	logOut  io.Writer
}

// WithConsole prints every delivered notification to w as a direct message.
func WithConsole(w io.Writer) Option {
	return func(o *options) { o.console = w }
}

// WithLogOutput redirects the JSON log (stdout by default).
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOut = w }
}

func NewApp(ctx context.Context, c *config.Config, opts ...Option) (*App, error) {
	c.Normalize()
	o := options{logOut: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	logger, err := logging.NewJSON(o.logOut, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	defTZ, _, err := tz.Resolve(c.DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("default timezone: %w", err)
	}

	// Bind first: a second instance must fail before touching the database.
	control, err := netx.ListenControl(c.ControlAddr, logger)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger, control: control, registry: prometheus.NewRegistry()}
	if err := app.build(ctx, defTZ, o); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) build(ctx context.Context, defTZ *time.Location, o options) error {
	c := app.config
	m := metrics.NewPromMetrics(app.registry)

	db, err := repomanager.Open(ctx, c.DBDriver, c.DatabaseDSN, app.logger)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	app.store = store.New(db.State(), store.WithLogger(app.logger))
	if err := app.store.Load(ctx); err != nil {
		return err
	}

	app.inbox = delivery.NewInbox(c.InboxSize)
	sender := delivery.Fanout{delivery.NewLogSender(app.logger), app.inbox}
	if o.console != nil {
		sender = append(sender, delivery.NewWriterSender(o.console))
	}
	if err := app.buildQueue(sender, m); err != nil {
		return err
	}

	secret := c.SecretKey
	if secret == "" {
		if secret, err = shared.MakeRandHexString(32); err != nil {
			return fmt.Errorf("secret init error: %w", err)
		}
		app.logger.Warn(ctx, "no secret key configured; assignment tokens will not survive a restart")
	}

	app.timezones = services.NewTimezoneService(app.store, defTZ, app.logger)
	app.tasks = services.NewTaskService(app.store, app.timezones, nil, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	app.assignments = services.NewAssignmentService(db.State(), app.store, app.timezones, app.queue,
		services.AssignmentConfig{Secret: []byte(secret), TTL: c.AssignmentTTL}, app.logger, nil)
	if err := app.assignments.Load(ctx); err != nil {
		return err
	}

	app.scheduler = reminder.New(reminder.Config{
		Hour:         c.ReminderHour,
		Window:       c.ReminderWindow,
		TickInterval: c.TickInterval,
	}, app.store, app.queue, app.logger, m)

	return app.buildBackup(ctx, db)
}

func (app *App) buildQueue(sender delivery.Sender, m metrics.Metrics) error {
	c := app.config
	policy := delivery.DefaultRetryPolicy()
	policy.MaxRetries = c.DeliveryRetries

	switch c.QueueKind {
	case "kafka":
		client, err := delivery.NewKafkaClient(c.KafkaBrokers, c.KafkaGroup, c.KafkaTopic)
		if err != nil {
			return err
		}
		app.kafka = client
		app.queue = delivery.NewKafkaQueue(client, m)
		worker := delivery.NewKafkaWorker(client, sender, policy, app.logger, m)
		app.workers = worker.Run
	case "memory", "":
		q := delivery.NewLocalQueue(sender, c.QueueWorkers, c.QueueBuffer, policy, app.logger, m)
		app.queue = q
		app.workers = q.Run
	default:
		return fmt.Errorf("unknown queue kind %q", c.QueueKind)
	}
	return nil
}

func (app *App) buildBackup(ctx context.Context, db *repomanager.Manager) error {
	c := app.config
	var up backup.Uploader
	switch c.BackupKind {
	case "":
		return nil
	case "s3":
		s3up, err := backup.NewS3Uploader(ctx, backup.S3Config{
			Region:       c.S3Region,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
		})
		if err != nil {
			return fmt.Errorf("s3 init error: %w", err)
		}
		up = s3up
	case "dir":
		dirUp, err := backup.NewDirUploader(c.BackupDir)
		if err != nil {
			return err
		}
		up = dirUp
	default:
		return fmt.Errorf("unknown backup kind %q", c.BackupKind)
	}
	app.backup = backup.New(db.State(), up, app.logger)
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := api.NewServer(app.config.HTTPAddr, app.logger, api.Deps{
		Tasks:       app.tasks,
		Timezones:   app.timezones,
		Assignments: app.assignments,
		Inbox:       app.inbox,
		Gatherer:    app.registry,
	})
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// expireAssignments closes stale proposals once per tick.
func (app *App) expireAssignments(ctx context.Context) {
	ticker := time.NewTicker(app.config.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := app.assignments.ExpireStale(ctx); n > 0 {
				app.logger.Info(ctx, "assignments expired", "count", n)
			}
		}
	}
}

// Run starts every loop and blocks until they have all stopped.
func (app *App) Run(ctx context.Context) {
	app.run(ctx, nil)
}

// RunConsole is Run with a REPL on in acting as user. Leaving the REPL
// stops the app.
func (app *App) RunConsole(ctx context.Context, in io.Reader, user string) {
	app.run(ctx, func(ctx context.Context) {
		cli.Run(ctx, cli.NewConsole(user, app.tasks, app.timezones, app.assignments), in)
	})
}

func (app *App) run(parent context.Context, foreground func(ctx context.Context)) {
	ctx, cancelFunc := context.WithCancel(parent)
	defer cancelFunc()
	defer app.Close()

	app.logger.Info(ctx, "Starting app...", "users", len(app.store.Users()))
	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	goLoop := func(fn func(ctx context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}

	goLoop(app.workers)
	goLoop(app.scheduler.Run)
	goLoop(app.expireAssignments)
	goLoop(func(ctx context.Context) { app.control.Serve(ctx, cancelFunc) })
	goLoop(func(ctx context.Context) { app.startHTTPServer(ctx, cancelFunc) })
	if app.backup != nil {
		goLoop(func(ctx context.Context) { app.backup.Run(ctx, app.config.BackupInterval) })
	}

	if app.config.StartupSummary {
		n := app.scheduler.SendStartupSummaries(ctx)
		app.logger.Info(ctx, "startup summaries queued", "count", n)
	}

	if foreground != nil {
		foreground(ctx)
		cancelFunc()
	}

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
}

// Close releases the control port, the database and the Kafka client.
func (app *App) Close() {
	if app.control != nil {
		_ = app.control.Close()
	}
	if app.kafka != nil {
		app.kafka.Close()
		app.kafka = nil
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(context.Background(), "db close failed", "error", err)
		}
		app.db = nil
	}
}
