package cli

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/content"
	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/fetch"
	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/reconcile"
)

// OpenOptions holds flags for the open command.
type OpenOptions struct {
	*RootOptions
	OnUpdate string // "ask" | "keep" | "reset"
	Base     string
}

// OpenResult is the outcome of opening a notebook.
type OpenResult struct {
	URL                string   `json:"url"`
	CanonicalPath      string   `json:"canonical_path"`
	WorkingCopyPath    string   `json:"working_copy_path"`
	BaseChanged        bool     `json:"base_changed"`
	WorkingCopyExisted bool     `json:"working_copy_existed"`
	Prompted           bool     `json:"prompted"`
	Choice             string   `json:"choice,omitempty"`
	SaveErrors         []string `json:"save_errors,omitempty"`
	LookupError        string   `json:"lookup_error,omitempty"`
}

// NewOpenCommand creates the open command.
func NewOpenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OpenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "open <url>",
		Short: "Fetch a notebook and reconcile it with the stored working copy",
		Long: `Fetch the published notebook at <url> and reconcile it with the store.

On a first visit the working copy is seeded from the published source. When
the published source changed since the last visit and a working copy exists,
--on-update decides whether the working copy keeps its edits or is reset.
"ask" prompts on the terminal; an empty answer keeps the edits.

Relative URLs and plain paths resolve against --base, which defaults to the
current directory.

Exit codes:
  0 - Working copy ready
  1 - Notebook could not be fetched
  2 - Command error (bad flags, database cannot be opened, etc.)

Examples:
  nbsession open https://example.com/course/nb.json
  nbsession open ./nb.json --on-update reset
  nbsession open nb.json --db ./course.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.OnUpdate, "on-update", "ask", "when the published notebook changed: ask|keep|reset")
	cmd.Flags().StringVar(&opts.Base, "base", "", "base URL for relative notebook URLs (default: current directory)")

	return cmd
}

func runOpen(opts *OpenOptions, rawURL string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

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

	ctx := cmd.Context()
	src, err := fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeFetchFailed, fmt.Sprintf("cannot fetch %s", rawURL), err)
	}
	formatter.VerboseLog("Fetched %s (%d bytes)", src.URL, len(src.Content))

	rec := reconcile.New(st, prompter, reconcile.WithLogger(opts.Logger()))
	res, err := rec.Reconcile(ctx, src.Path, src.Content)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStartFailed, "reconciliation interrupted", err)
	}

	result := newOpenResult(src, res)
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	for _, msg := range result.SaveErrors {
		fmt.Fprintf(formatter.GetErrWriter(), "warning: %s\n", msg)
	}
	if result.LookupError != "" {
		fmt.Fprintf(formatter.GetErrWriter(), "warning: working copy left untouched: %s\n", result.LookupError)
	}
	return formatter.Success(result.WorkingCopyPath)
}

func newOpenResult(src fetch.CanonicalSource, res reconcile.Result) OpenResult {
	out := OpenResult{
		URL:                src.URL,
		CanonicalPath:      src.Path,
		WorkingCopyPath:    res.WorkingCopyPath,
		BaseChanged:        res.Decision.BaseChanged,
		WorkingCopyExisted: res.Decision.WorkingCopyExisted,
		Prompted:           res.Decision.Prompted,
	}
	if res.Decision.Prompted {
		out.Choice = res.Decision.Choice.String()
	}
	for _, err := range res.SaveErrors {
		out.SaveErrors = append(out.SaveErrors, err.Error())
	}
	if res.LookupError != nil {
		out.LookupError = res.LookupError.Error()
	}
	return out
}

// newPrompter maps the --on-update flag to a confirmation source.
func newPrompter(onUpdate string, cmd *cobra.Command) (reconcile.Prompter, error) {
	if onUpdate == "ask" {
		return &reconcile.TerminalPrompter{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()}, nil
	}
	choice, err := reconcile.ParseChoice(onUpdate)
	if err != nil {
		return nil, err
	}
	return reconcile.StaticPrompter(choice), nil
}

// newFetcher builds a fetcher resolving relative URLs against base, or
// against the working directory when base is empty.
func newFetcher(base string) (*fetch.HTTPFetcher, error) {
	if base != "" {
		u, err := url.Parse(base)
		if err != nil {
			return nil, err
		}
		return &fetch.HTTPFetcher{Base: u}, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return &fetch.HTTPFetcher{Base: dirURL(wd)}, nil
}

func dirURL(dir string) *url.URL {
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(dir) + "/"}
}

// entryNotFound reports whether err is a store miss.
func entryNotFound(err error) bool {
	return errors.Is(err, content.ErrNotFound)
}
