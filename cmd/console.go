package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/metrics"
)

const endCommand = "/end"

// consoleTranscriber reads answers from the terminal. /end, Ctrl+C and Ctrl+D end the interview.
type consoleTranscriber struct{}

func (consoleTranscriber) Transcribe(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	prompt := promptui.Prompt{
		Label: "Answer",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("answer is empty")
			}
			return nil
		},
	}

	answer, err := prompt.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}

	answer = strings.TrimSpace(answer)
	if strings.EqualFold(answer, endCommand) {
		return "", io.EOF
	}
	return answer, nil
}

// consoleSynthesizer prints numbered questions.
type consoleSynthesizer struct {
	w io.Writer
	n int
}

func (s *consoleSynthesizer) Synthesize(_ context.Context, text string) error {
	s.n++
	_, err := fmt.Fprintf(s.w, "\nQ%d. %s\n", s.n, text)
	return err
}

// serveMetrics exposes the recorder on addr until the returned function is called.
func serveMetrics(addr string, recorder *metrics.Recorder, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("shutting down metrics server", zap.Error(err))
		}
	}
}
