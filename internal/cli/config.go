package cli

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/config"
)

// ConfigOptions holds flags for the config command.
type ConfigOptions struct {
	*RootOptions
	Overrides        []string
	PublicPath       string
	PyodideURL       string
	ServiceWorkerURL string
}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfigOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the page configuration",
		Long: `Print the jupyter-config-data page configuration.

The base configuration is resolved against --public-path, then element
attribute overrides (--pyodide-url, --service-worker-url) and each
--override file are merged over it in order. A --service-worker-url of
"disabled" turns the service worker off. The result is validated before it
is printed.

Exit codes:
  0 - Configuration valid
  1 - Configuration invalid
  2 - Command error (unreadable overrides file, bad URL, etc.)

Examples:
  nbsession config --public-path https://example.com/notebook/
  nbsession config --override site.yaml --service-worker-url disabled`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(opts, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Overrides, "override", nil, "YAML or JSON overrides file (repeatable)")
	cmd.Flags().StringVar(&opts.PublicPath, "public-path", "", "URL the notebook assets are published under")
	cmd.Flags().StringVar(&opts.PyodideURL, "pyodide-url", "", "pyodide runtime URL (pyodideurl attribute)")
	cmd.Flags().StringVar(&opts.ServiceWorkerURL, "service-worker-url", "", `service worker URL, or "disabled" (serviceworkerurl attribute)`)

	return cmd
}

func runConfig(opts *ConfigOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var publicPath *url.URL
	if opts.PublicPath != "" {
		u, err := url.Parse(opts.PublicPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --public-path", err)
		}
		publicPath = u
	}

	var extra []config.Value
	for _, path := range opts.Overrides {
		m, err := config.LoadOverrides(path)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeBadOverrides, fmt.Sprintf("cannot load overrides %s", path), err)
		}
		formatter.VerboseLog("Loaded %d override key(s) from %s", len(m), path)
		extra = append(extra, m)
	}

	v, err := config.Page(publicPath, config.Attributes{
		PyodideURL:       opts.PyodideURL,
		ServiceWorkerURL: opts.ServiceWorkerURL,
	}, extra...)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeInvalidConfig, "page configuration is invalid", err)
	}

	out, err := config.Render(v)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to render config", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(json.RawMessage(out))
	}
	_, err = formatter.Writer.Write(out)
	return err
}
