package cli

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/kernel"
)

// BootstrapOptions holds flags for the bootstrap command.
type BootstrapOptions struct {
	*RootOptions
	Wheels     []string
	WheelsFile string
	Base       string
}

// NewBootstrapCommand creates the bootstrap command.
func NewBootstrapCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BootstrapOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Print the kernel initialization program",
		Long: `Print the program a session submits to the kernel once it first
becomes idle. The program loads the given wheel packages, skipping any the
kernel already has.

Package URLs resolve against --base. --wheels-file reads one package per
line, the same form as the initwheels element attribute.

Examples:
  nbsession bootstrap --wheel wheels/course-1.0-py3-none-any.whl --base https://example.com/notebook/
  nbsession bootstrap --wheels-file wheels.txt`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(opts, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Wheels, "wheel", nil, "wheel package URL (repeatable)")
	cmd.Flags().StringVar(&opts.WheelsFile, "wheels-file", "", "file listing wheel URLs, one per line")
	cmd.Flags().StringVar(&opts.Base, "base", "", "base URL for relative package URLs")

	return cmd
}

func runBootstrap(opts *BootstrapOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	pkgs := append([]string(nil), opts.Wheels...)
	if opts.WheelsFile != "" {
		data, err := os.ReadFile(opts.WheelsFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read wheels file", err)
		}
		pkgs = append(pkgs, kernel.ParsePackageList(string(data))...)
	}
	if len(pkgs) == 0 {
		return NewExitError(ExitCommandError, "no packages: pass --wheel or --wheels-file")
	}

	var base *url.URL
	if opts.Base != "" {
		u, err := url.Parse(opts.Base)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --base", err)
		}
		base = u
	}

	program, err := kernel.PreloadProgram(pkgs, base)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeBadPackage, "invalid package URL", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{
			"packages": len(pkgs),
			"program":  program,
		})
	}
	_, err = fmt.Fprint(formatter.Writer, program)
	return err
}
