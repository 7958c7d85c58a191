// Package cli implements storefrontctl, a terminal client for sellers that talks to the
// storefront API directly.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	appinbox "storefront/internal/app/inbox"
	apporders "storefront/internal/app/orders"
	"storefront/internal/domain/shared/apperr"
	"storefront/internal/infra/api"
	"storefront/internal/infra/obs"
)

var version = "dev"

type options struct {
	apiURL  string
	token   string
	timeout time.Duration
	verbose bool
}

// NewRootCommand wires every subcommand. Flags fall back to STOREFRONT_API_URL and
// STOREFRONT_TOKEN.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Seller tools for the storefront API",
		Long:          "storefrontctl lists orders, issues refunds and reads conversations against the storefront API.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api-url", os.Getenv("STOREFRONT_API_URL"), "storefront API base URL")
	flags.StringVar(&opts.token, "token", os.Getenv("STOREFRONT_TOKEN"), "bearer token for the signed-in seller")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log upstream failures to stderr")

	root.AddCommand(newOrdersCommand(opts), newInboxCommand(opts))
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %s\n", describe(err))
		return 1
	}
	return 0
}

func (o *options) client(stderr io.Writer) (*api.Client, error) {
	if strings.TrimSpace(o.apiURL) == "" {
		return nil, errors.New("--api-url or STOREFRONT_API_URL is required")
	}
	var logger *slog.Logger
	if o.verbose {
		logger = obs.NewLoggerTo("dev", stderr)
	}
	return api.NewClient(api.Config{BaseURL: o.apiURL, Timeout: o.timeout}, logger, nil), nil
}

func (o *options) credential() (string, error) {
	token := strings.TrimSpace(o.token)
	if token == "" {
		return "", errors.New("--token or STOREFRONT_TOKEN is required")
	}
	return token, nil
}

func (o *options) orders(stderr io.Writer) (*apporders.Service, string, error) {
	cred, err := o.credential()
	if err != nil {
		return nil, "", err
	}
	client, err := o.client(stderr)
	if err != nil {
		return nil, "", err
	}
	return &apporders.Service{Gateway: client}, cred, nil
}

func (o *options) inbox(stderr io.Writer) (*appinbox.Service, string, error) {
	cred, err := o.credential()
	if err != nil {
		return nil, "", err
	}
	client, err := o.client(stderr)
	if err != nil {
		return nil, "", err
	}
	return &appinbox.Service{Gateway: client}, cred, nil
}

// describe renders the displayable message, keeping refund rejections recognizable.
func describe(err error) string {
	var refundErr *apperr.RefundError
	if errors.As(err, &refundErr) {
		return "refund rejected: " + apperr.Message(err)
	}
	return apperr.Message(err)
}
