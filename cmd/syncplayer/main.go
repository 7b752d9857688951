package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jscyril/golang_music_sync/api"
	"github.com/jscyril/golang_music_sync/internal/audio"
	"github.com/jscyril/golang_music_sync/internal/config"
	"github.com/jscyril/golang_music_sync/internal/cue"
	"github.com/jscyril/golang_music_sync/internal/script"
	"github.com/jscyril/golang_music_sync/internal/sequence"
	"github.com/jscyril/golang_music_sync/internal/track"
	"github.com/jscyril/golang_music_sync/internal/ui"
	apperrors "github.com/jscyril/golang_music_sync/pkg/errors"
	"github.com/jscyril/golang_music_sync/pkg/events"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.GetConfigPath(), "config file path")
	headless := flag.Bool("headless", false, "run without the terminal UI")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <cue sheet>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		return fmt.Errorf("missing cue sheet")
	}

	// Load configuration
	if err := config.LoadEnvFiles(".env"); err != nil {
		return err
	}
	cfg, err := config.LoadOrCreate(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, closeLog, err := newLogger(cfg, *headless)
	if err != nil {
		return err
	}
	defer closeLog()
	log := logrus.NewEntry(logger)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sheetPath := flag.Arg(0)
	sheet, err := cue.Load(sheetPath)
	if err != nil {
		return err
	}

	// Initialize audio engine
	engine := audio.NewEngine(log)
	if err := engine.Init(cfg.SampleRate, cfg.Buffer()); err != nil {
		return fmt.Errorf("init audio: %w", err)
	}
	defer engine.Shutdown()
	if err := engine.SetVolume(cfg.DefaultVolume); err != nil {
		return err
	}

	audioPath := sheet.AudioPath()
	info, err := audio.ReadInfo(audioPath)
	if err != nil {
		return fmt.Errorf("read track: %w", err)
	}
	tr, err := audio.OpenTrack(info.ID, audioPath)
	if err != nil {
		return err
	}
	defer tr.Release()

	bus := events.NewEventBus()
	defer bus.Close()
	sub := bus.SubscribeAll()

	synchronizer := track.New(info.ID, tr, engine, bus, log)
	synchronizer.LoadSheet(sheet)
	defer synchronizer.Unload()
	if err := tr.Play(engine); err != nil {
		return err
	}

	driver, err := loadScript(sheet, synchronizer, log)
	if err != nil {
		return err
	}
	if driver != nil {
		defer func() {
			driver.OnUnload()
			driver.Close()
		}()
	}

	session := &ui.Session{
		Sync:      synchronizer,
		Info:      info,
		Sheet:     sheet,
		SheetPath: sheetPath,
		Events:    sub,
		Log:       log,
	}
	if sections := sequence.SectionsFromSheet(sheet); len(sections) > 0 {
		q := sequence.NewQueue()
		q.Set(sections)
		session.Sequencer = sequence.NewSequencer(synchronizer, q, sequence.DefaultOptions, log)
		session.Sequencer.Arm()
		session.Attach()
	}

	if *headless {
		return runHeadless(ctx, session, cfg.FrameInterval())
	}
	if err := ui.Run(session, cfg); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// loadScript starts the sheet's script, if it has one
func loadScript(sheet *cue.Sheet, synchronizer *track.Synchronizer, log *logrus.Entry) (*script.Driver, error) {
	src, err := sheet.ScriptSource()
	if err != nil {
		return nil, err
	}
	if src == "" {
		return nil, nil
	}

	name := sheet.Name
	if name == "" {
		name = "cue"
	}
	driver := script.NewDriver(name, synchronizer, log)
	driver.SetErrorHandler(func(e *apperrors.ScriptError) { synchronizer.ReportScriptError(e) })
	if err := driver.Load(src); err != nil {
		// the player keeps running without a script
		log.WithError(err).Error("script failed to load")
		return nil, nil
	}
	synchronizer.SetSink(driver)
	driver.OnInit()
	driver.OnLoad()
	return driver, nil
}

// runHeadless drives frames from a ticker and logs every event
func runHeadless(ctx context.Context, s *ui.Session, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			for _, ev := range s.Frame(now.Sub(last)) {
				logEvent(s.Log, ev)
			}
			last = now
		}
	}
}

func logEvent(log *logrus.Entry, ev api.Event) {
	entry := log.WithField("event", ev.Type.String())
	if ev.Type == api.EventScriptError {
		entry.Warn(ui.Describe(ev))
		return
	}
	entry.Info(ui.Describe(ev))
}

// newLogger configures logrus from cfg. The terminal UI owns stdout, so
// without a log file the UI logs nowhere.
func newLogger(cfg *config.Config, headless bool) (*logrus.Logger, func(), error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logger.SetOutput(f)
		return logger, func() { f.Close() }, nil
	case headless:
		logger.SetOutput(os.Stderr)
	default:
		logger.SetOutput(io.Discard)
	}
	return logger, func() {}, nil
}
