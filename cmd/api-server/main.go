package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/campushq/attendance/internal/attendance"
	"github.com/campushq/attendance/internal/database"
	"github.com/campushq/attendance/internal/env"
	"github.com/campushq/attendance/internal/model"
	"github.com/campushq/attendance/internal/notify"
	"github.com/campushq/attendance/internal/scheduler"
	"github.com/campushq/attendance/internal/timeutil"
	"github.com/campushq/attendance/internal/version"
)

var _cfgFile = flag.String("cfg", "", "path to config file")

func init() {
	flag.Parse()
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := run(logger)
	if err != nil {
		trace := string(debug.Stack())
		logger.Error(err.Error(), "trace", trace)
		os.Exit(1)
	}
}

type config struct {
	httpHost string
	httpPort int
	db       struct {
		dsn         string
		automigrate bool
	}
	timezone     string
	mediaBaseURL string
	email        struct {
		driver     string
		fromName   string
		fromAddr   string
		reportAddr string
		sendgrid   struct {
			apiKey string
		}
	}
}

type application struct {
	config config
	db     *database.DB
	logger *slog.Logger
	wg     sync.WaitGroup

	location *time.Location

	accounts    attendance.AccountDirectory
	engine      *attendance.Engine
	maintenance *attendance.Maintenance
	views       *attendance.Views
	adjuster    *attendance.Adjuster
	mailer      *notify.Sender
}

func (app *application) startOfToday() time.Time {
	return timeutil.StartOfLocalDay(time.Now(), app.location)
}

func (app *application) profilePicture(account model.ID) string {
	return fmt.Sprintf("%s/profile-pictures/%d.png", app.config.mediaBaseURL, account)
}

func run(logger *slog.Logger) error {
	var cfg config

	if *_cfgFile != "" {
		err := env.Load(*_cfgFile)
		if err != nil {
			return err
		}
	}

	cfg.httpHost = env.GetString("HTTP_HOST", "localhost")
	cfg.httpPort = env.GetInt("HTTP_PORT", 8080)
	cfg.db.dsn = env.GetString("DB_DSN", "postgres:postgres@localhost:5432/postgres")
	cfg.db.automigrate = env.GetBool("DB_AUTOMIGRATE", true)
	cfg.timezone = env.GetString("TIMEZONE", "Asia/Manila")
	cfg.mediaBaseURL = env.GetString("MEDIA_BASE_URL", "/media")
	cfg.email.driver = env.GetString("EMAIL_DRIVER", "console")
	cfg.email.fromName = env.GetString("EMAIL_FROM_NAME", "Attendance")
	cfg.email.fromAddr = env.GetString("EMAIL_FROM_ADDR", "noreply@localhost")
	cfg.email.reportAddr = env.GetString("EMAIL_REPORT_ADDR", "")
	cfg.email.sendgrid.apiKey = env.GetString("SENDGRID_API_KEY", "")

	showVersion := flag.Bool("version", false, "display version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s\n", version.Get())
		return nil
	}

	location, err := time.LoadLocation(cfg.timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.timezone, err)
	}

	db, err := database.New(logger, cfg.db.dsn, cfg.db.automigrate)
	if err != nil {
		return err
	}
	defer db.Close()

	clock := timeutil.SystemClock{}

	sessions := database.NewSessionDAO(logger, db)
	accounts := database.NewAccountDAO(logger, db)
	jobs := database.NewJobDAO(logger, db)
	adjustments := database.NewAdjustmentDAO(logger, db)

	pictures := func(account model.ID) string {
		return fmt.Sprintf("%s/profile-pictures/%d.png", cfg.mediaBaseURL, account)
	}

	var emailService notify.EmailService
	switch cfg.email.driver {
	case "sendgrid":
		emailService = notify.NewSendgridService(cfg.email.sendgrid.apiKey, cfg.email.fromName, cfg.email.fromAddr)
	default:
		emailService = notify.ConsoleService{Logger: logger}
	}

	app := &application{
		config:      cfg,
		db:          db,
		logger:      logger,
		location:    location,
		accounts:    accounts,
		engine:      attendance.NewEngine(logger, sessions, accounts, jobs, clock, location, pictures),
		maintenance: attendance.NewMaintenance(logger, sessions, clock),
		views:       attendance.NewViews(logger, sessions, accounts, jobs, adjustments, clock, location, pictures),
		adjuster:    attendance.NewAdjuster(logger, adjustments, accounts),
		mailer:      notify.NewSender(logger, emailService),
	}

	sched := scheduler.New(logger, app.engine, clock, location)
	if cfg.email.reportAddr != "" {
		sched.OnSwept = func(closed int) {
			app.mailer.Send(notify.Message{
				To:      cfg.email.reportAddr,
				Subject: "Attendance: sessions auto-closed",
				Body:    fmt.Sprintf("The nightly sweep force-closed %d session(s) left open past 23:00.", closed),
			})
		}
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	return app.serveHTTP()
}
