// Command tutord runs a live AI tutoring session from the terminal: it
// generates a practice problem, connects the realtime voice session, and
// drives the shared whiteboard through the model's tool calls.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"google.golang.org/genai"

	"github.com/hr7657316/education-ai/internal/config"
	"github.com/hr7657316/education-ai/internal/dotenv"
	"github.com/hr7657316/education-ai/pkg/core/canvas"
	"github.com/hr7657316/education-ai/pkg/core/live"
	"github.com/hr7657316/education-ai/pkg/core/sandbox"
	"github.com/hr7657316/education-ai/pkg/core/session"
	"github.com/hr7657316/education-ai/pkg/core/tools"
	"github.com/hr7657316/education-ai/pkg/gen"
	"github.com/hr7657316/education-ai/pkg/problems"
	"github.com/hr7657316/education-ai/pkg/store"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		topic      = flag.String("topic", "arrays and loops", "problem topic")
		subject    = flag.String("subject", "algorithms", "problem subject: algorithms, math or science")
	)
	flag.Parse()

	if err := dotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := run(cfg, logger, *topic, problems.Subject(*subject)); err != nil {
		logger.Error("tutord failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func run(cfg config.Config, logger *slog.Logger, topic string, subject problems.Subject) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("create genai client: %w", err)
	}

	generator := problems.NewGenerator(genaiClient.Models, db, "", logger)
	problem, err := generator.GenerateProblem(ctx, topic, subject)
	if err != nil {
		return err
	}
	logger.Info("problem ready", slog.String("title", problem.Title))
	fmt.Printf("\n=== %s ===\n%s\n\n", problem.Title, problem.Text)

	payload, _ := json.Marshal(problem)
	if err := db.AppendHistory(ctx, store.HistoryEntry{
		Title:   problem.Title,
		Subject: string(problem.Subject),
		Payload: payload,
	}); err != nil {
		logger.Warn("record history", slog.String("error", err.Error()))
	}

	board := canvas.NewBoard(nil, logger)
	board.PlaceInitialCode(problem.InitialCode)

	runner := sandbox.NewRunner(logger)
	images := gen.NewImageService(genaiClient, "", logger)
	var videos tools.VideoGenerator
	if cfg.FalAPIKey != "" {
		videos = gen.NewVideoService(cfg.FalAPIKey, logger)
	}
	dispatcher := tools.NewDispatcher(board, images, videos, runner, logger)

	sessCfg := session.DefaultConfig()
	sessCfg.Model = cfg.Session.Model
	sessCfg.Voice = cfg.Session.Voice
	sessCfg.System = problems.SystemInstruction(problem)
	sessCfg.InterruptMinGap = cfg.Session.InterruptMinGap
	sessCfg.Capture.SampleRate = cfg.Audio.CaptureRate
	sessCfg.Capture.FrameSamples = cfg.Audio.FrameSamples
	sessCfg.Capture.RMSThreshold = cfg.Audio.RMSThreshold
	sessCfg.Playback.SampleRate = cfg.Audio.PlaybackRate
	sessCfg.Monitor.PollInterval = cfg.Monitor.PollInterval
	sessCfg.Monitor.Debounce = cfg.Monitor.Debounce

	mic := newMicSource(cfg.Audio.CaptureRate)
	speaker, err := newSpeakerSink(cfg.Audio.PlaybackRate)
	if err != nil {
		return err
	}
	defer speaker.Close()

	dial := func(ctx context.Context, setup live.Setup) (session.RealtimeSession, error) {
		client, err := live.Connect(ctx, live.Config{APIKey: cfg.GeminiAPIKey, Logger: logger}, setup)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	coord := session.NewCoordinator(sessCfg, session.Deps{
		Dial:       dial,
		Source:     mic,
		Sink:       speaker,
		Dispatcher: dispatcher,
		CanvasText: board.AllText,
		CanvasPNG:  board.ExportPNG,
		Logger:     logger,
	})

	go logEvents(logger, coord.Events())

	if err := coord.Connect(ctx); err != nil {
		return err
	}
	defer coord.Stop()

	fmt.Println("Session started. Commands: mute, unmute, hint, explain <prompt>, test, board, quit")
	return commandLoop(ctx, coord, board, runner, problem)
}

func commandLoop(ctx context.Context, coord *session.Coordinator, board *canvas.Board, runner *sandbox.Runner, problem *problems.Problem) error {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
			switch cmd {
			case "":
			case "mute":
				coord.SetMuted(true)
			case "unmute":
				coord.SetMuted(false)
			case "hint":
				if err := coord.AskForHint(ctx); err != nil {
					fmt.Println("hint request failed:", err)
				}
			case "explain":
				prompt := "Explain this problem with images."
				if arg != "" {
					prompt = arg
				}
				if err := coord.ExplainWithImages(ctx, prompt); err != nil {
					fmt.Println("explain request failed:", err)
				}
			case "test":
				if problem.FunctionName == "" {
					fmt.Println("this problem has no automated tests")
					continue
				}
				report := runner.RunTests(ctx, board.AllText(), problem.FunctionName, problem.TestCases)
				fmt.Printf("tests: %d passed, %d failed\n", report.Passed, report.Failed)
				for _, r := range report.Results {
					if !r.Passed {
						fmt.Printf("  FAIL %s: %s\n", r.TestCase.Description, r.Error)
					}
				}
			case "board":
				fmt.Println("--- board ---")
				fmt.Println(board.AllText())
				fmt.Println("-------------")
			case "quit", "exit":
				return nil
			default:
				fmt.Println("unknown command:", cmd)
			}
		}
	}
}

func logEvents(logger *slog.Logger, events <-chan session.Event) {
	for event := range events {
		switch e := event.(type) {
		case *session.StateChangedEvent:
			logger.Info("session state", slog.String("from", e.From.String()), slog.String("to", e.To.String()))
		case *session.ErrorEvent:
			logger.Error("session error", slog.String("code", e.Code), slog.String("message", e.Message))
		case *session.SessionClosedEvent:
			logger.Info("session ended", slog.String("reason", e.Reason))
		default:
			logger.Debug("session event", slog.String("type", event.EventType()))
		}
	}
}
