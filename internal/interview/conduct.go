package interview

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
)

// Conduct runs the engine and relays questions to out and answers from in until the
// interview completes or the candidate ends it with io.EOF.
func (e *Engine) Conduct(ctx context.Context, in Transcriber, out Synthesizer) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.Run(gctx) })
	g.Go(func() error {
		for q := range e.Questions() {
			if e.session.Ended() {
				continue
			}
			if err := out.Synthesize(gctx, q.Text); err != nil {
				e.End()
				return fmt.Errorf("presenting question: %w", err)
			}

			answer, err := in.Transcribe(gctx)
			if errors.Is(err, io.EOF) {
				e.logger.Info("candidate ended the interview")
				e.End()
				continue
			}
			if err != nil {
				e.End()
				return fmt.Errorf("reading answer: %w", err)
			}

			if err := e.Submit(gctx, answer); err != nil && !errors.Is(err, ErrSessionEnded) {
				return err
			}
		}
		return nil
	})
	return g.Wait()
}
