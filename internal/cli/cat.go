package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/content"
)

// CatEntry is a stored entry as printed by cat in JSON format.
type CatEntry struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Writer  string `json:"writer,omitempty"`
	Seq     int64  `json:"seq,omitempty"`
}

// NewCatCommand creates the cat command.
func NewCatCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a stored entry",
		Long: `Print the content stored at <path>.

Canonical entries are stored under the notebook's file name and working
copies under autosaved.<name>.

Examples:
  nbsession cat nb.json
  nbsession cat autosaved.nb.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCat(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runCat(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	path = content.NormalizePath(path)
	e, err := st.Get(cmd.Context(), path, content.GetOptions{Content: true})
	if entryNotFound(err) {
		return formatter.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("no entry at %s", path), nil)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read entry", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(CatEntry{
			Path:    e.Path,
			Content: e.Content,
			Writer:  e.Revision.Writer,
			Seq:     e.Revision.Seq,
		})
	}
	_, err = fmt.Fprint(formatter.Writer, e.Content)
	return err
}

// NewLsCommand creates the ls command.
func NewLsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List stored entries",
		Long: `List the paths held in the content store, marking working copies.

Examples:
  nbsession ls --db ./course.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLs(rootOpts, cmd)
		},
	}
	return cmd
}

func runLs(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	paths, err := st.List(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list entries", err)
	}

	if formatter.Format == "json" {
		if paths == nil {
			paths = []string{}
		}
		return formatter.Success(paths)
	}
	if len(paths) == 0 {
		fmt.Fprintln(formatter.Writer, "No entries in store.")
		return nil
	}
	for _, p := range paths {
		kind := "canonical"
		if content.IsWorkingCopyPath(p) {
			kind = "working copy"
		}
		fmt.Fprintf(formatter.Writer, "%s\t%s\n", p, kind)
	}
	return nil
}
