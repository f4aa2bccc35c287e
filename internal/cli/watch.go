package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/autosave"
	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/content"
	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/filedoc"
	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/session"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	OnUpdate string
	Base     string
	File     string
	Delay    time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <url>",
		Short: "Edit a notebook's working copy as a local file",
		Long: `Open the notebook at <url>, write its working copy to --file, and
autosave edits made to that file back into the store until interrupted.

Saves happen once the file has been quiet for --delay. Pending edits are
saved before the command exits.

Examples:
  nbsession watch https://example.com/course/nb.json --file ./nb.json
  nbsession watch nb.json --file /tmp/edit.json --on-update keep`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.OnUpdate, "on-update", "ask", "when the published notebook changed: ask|keep|reset")
	cmd.Flags().StringVar(&opts.Base, "base", "", "base URL for relative notebook URLs (default: current directory)")
	cmd.Flags().StringVar(&opts.File, "file", "", "local file to edit (required)")
	_ = cmd.MarkFlagRequired("file")
	cmd.Flags().DurationVar(&opts.Delay, "delay", autosave.DefaultDelay, "quiet period before an edit is saved")

	return cmd
}

func runWatch(opts *WatchOptions, rawURL string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.Logger()

	prompter, err := newPrompter(opts.OnUpdate, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --on-update", err)
	}
	fetcher, err := newFetcher(opts.Base)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --base", err)
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var doc *filedoc.Document
	opener := session.OpenerFunc(func(ctx context.Context, path string) (autosave.Document, error) {
		entry, err := st.Get(ctx, path, content.GetOptions{Content: true})
		if err != nil {
			return nil, fmt.Errorf("load working copy: %w", err)
		}
		d, err := filedoc.Open(opts.File, filedoc.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := d.SetContent(entry.Content); err != nil {
			d.Close()
			return nil, err
		}
		doc = d
		return d, nil
	})

	sess, err := session.Start(ctx, rawURL, session.Options{
		Store:    st,
		Fetcher:  fetcher,
		Opener:   opener,
		Prompter: prompter,
		Logger:   logger,
		Autosave: []autosave.Option{autosave.WithDelay(opts.Delay)},
	})
	if err != nil {
		if doc != nil {
			doc.Close()
		}
		var startErr *session.StartError
		if errors.As(err, &startErr) && startErr.Stage == session.StageFetch {
			return formatter.Fail(ExitFailure, ErrCodeFetchFailed, fmt.Sprintf("cannot fetch %s", rawURL), err)
		}
		return formatter.Fail(ExitFailure, ErrCodeStartFailed, "session failed to start", err)
	}
	defer doc.Close()

	fmt.Fprintf(formatter.GetErrWriter(), "Watching %s (working copy %s); press Ctrl-C to stop\n", doc.Path(), sess.WorkingCopyPath())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return doc.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return sess.Close(context.Background())
	})
	if err := g.Wait(); err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, "final save failed", err)
	}

	if formatter.Format == "json" {
		w := formatter.Writer
		return jsonEncode(w, CLIResponse{
			Status:    "ok",
			SessionID: sess.ID,
			Data: map[string]string{
				"file":              doc.Path(),
				"working_copy_path": sess.WorkingCopyPath(),
			},
		})
	}
	return formatter.Success(fmt.Sprintf("Saved %s", sess.WorkingCopyPath()))
}
