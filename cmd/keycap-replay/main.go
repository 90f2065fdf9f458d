// Command keycap-replay streams a recorded typing session through the
// client capture pipeline into a running API
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"keycap/internal/adapters/apiclient"
	"keycap/internal/adapters/signals"
	"keycap/internal/capture"
	"keycap/internal/platform/config"
	"keycap/internal/platform/logger"
)

func main() {
	var (
		file      = flag.String("file", "", "JSONL recording to replay (required)")
		questions = flag.Int("questions", 0, "question count, defaults to the number of sections in the recording")
		register  = flag.Bool("register", false, "register the account instead of logging in")
	)
	flag.Parse()
	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	// credentials and endpoint come from env (REPLAY_*)
	cfg := config.New().Prefix("REPLAY_")
	baseURL := cfg.MayString("API_URL", "http://localhost:4000")
	email := cfg.MustString("EMAIL")
	password := cfg.MustString("PASSWORD")
	timeout := cfg.MayDuration("HTTP_TIMEOUT", 30*time.Second)

	l := logger.Named("replay")
	ctx := context.Background()

	qc := *questions
	if qc <= 0 {
		n, err := countSections(*file)
		if err != nil {
			l.Fatal().Err(err).Str("file", *file).Msg("cannot scan recording")
		}
		qc = n
	}
	if qc == 0 {
		l.Fatal().Str("file", *file).Msg("recording holds no sections")
	}

	client := apiclient.New(baseURL, timeout)
	if *register {
		if err := client.Register(ctx, email, password); err != nil {
			l.Fatal().Err(err).Msg("register failed")
		}
	} else {
		if err := client.Login(ctx, email, password); err != nil {
			l.Fatal().Err(err).Msg("login failed")
		}
	}

	rd, err := signals.Open(*file)
	if err != nil {
		l.Fatal().Err(err).Str("file", *file).Msg("cannot open recording")
	}
	defer func() { _ = rd.Close() }()

	rp := &capture.Replayer{
		Client:        client,
		QuestionCount: qc,
		BatchSize:     capture.DefaultBatchSize,
	}
	sum, err := rp.Run(ctx, rd)
	if err != nil {
		l.Fatal().Err(err).Msg("replay failed")
	}

	parsed, skipped := rd.Stats()
	l.Info().
		Str("participant_id", sum.ParticipantID).
		Int("sections", sum.Sections).
		Int("keystrokes", sum.Keystrokes).
		Int("average_wpm", sum.AverageWPM).
		Int("signals", parsed).
		Int("skipped_lines", skipped).
		Msg("replay complete")
	fmt.Println(sum.ParticipantID)
}

// countSections pre-scans the recording so the session can be configured
// with the right question count
func countSections(path string) (int, error) {
	rd, err := signals.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rd.Close() }()

	n := 0
	for {
		sig, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		if sig.Kind == signals.KindSectionStart {
			n++
		}
	}
}
