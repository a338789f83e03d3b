package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/atikulmunna/catloom/internal/filter"
	"github.com/atikulmunna/catloom/internal/output"
	"github.com/atikulmunna/catloom/internal/pipeline"
	"github.com/atikulmunna/catloom/internal/source"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func run(cmd *cobra.Command, v *viper.Viper) error {
	settings, err := loadSettings(cmd, v)
	if err != nil {
		return err
	}

	// Bad patterns are reported before any input is opened.
	f, err := filter.Build(settings.Filter)
	if err != nil {
		return err
	}

	// --- Set up context with graceful shutdown ---
	ctx, stop := interruptContext(contextOf(cmd))
	defer stop()

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	src, err := source.Open(ctx, settings.Input, func(msg string) {
		fmt.Fprintf(stderr, "warning: %s\n", msg)
	})
	if err != nil {
		return err
	}
	if settings.Verbose {
		fmt.Fprintf(stderr, "catloom reading %s\n", src.Name())
	}

	p := pipeline.New(f, newRenderer(settings, stdout), stderr)
	runErr := p.Run(ctx, src)
	closeErr := src.Close()

	if settings.Stats {
		if err := p.Stats().WriteSummary(stderr); err != nil {
			return err
		}
	}

	if runErr != nil {
		return runErr
	}
	return closeErr
}

func newRenderer(s Settings, w io.Writer) output.Renderer {
	if s.Output == "json" {
		return output.NewJSONRenderer(w)
	}
	styles := output.NewStyleRenderer(w, s.Color)
	return output.NewTextRenderer(w, output.NewFormatter(styles, s.MaxTagWidth))
}

// interruptContext is cancelled by the first interrupt or SIGTERM. Default
// signal handling is restored at that point, so a second interrupt ends the
// process even while a read is blocked on a terminal.
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
