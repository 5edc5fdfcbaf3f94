package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/snitch/internal/config"
	"github.com/nao1215/snitch/internal/gopher"
)

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <url> [query]",
		Short: "Fetch a single Gopher address",
		Long: `Fetch requests one address and prints the response. Menus are rendered
one entry per line with the address each entry links to; everything else
is copied to stdout as-is. The optional query is sent to search servers
(item type 7).

Nothing is written to the database.

Examples:
  snitch fetch gopher://gopher.floodgap.com
  snitch fetch gopher://gopher.floodgap.com/0/gopher/proxy
  snitch fetch gopher://gopher.floodgap.com/7/v2/vs "gopher"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runFetchCmd,
	}

	addLogFlags(cmd)
	addProxyFlags(cmd)

	return cmd
}

// runFetchCmd executes the fetch command.
func runFetchCmd(cmd *cobra.Command, args []string) error {
	u, err := gopher.ParseURL(args[0])
	if err != nil {
		return err
	}
	var query string
	if len(args) == 2 {
		query = args[1]
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.ProxyAddress != "" && cfg.EmbeddedTor {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingProxy)
	}
	logger := newLogger(cmd, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proxyClient, stopProxy, err := connectProxy(ctx, cfg, logger)
	defer stopProxy()
	if err != nil {
		return err
	}

	var clientOpts []gopher.ClientOption
	if proxyClient != nil {
		clientOpts = append(clientOpts, gopher.WithDialer(proxyClient))
	}

	body, err := gopher.NewClient(clientOpts...).Fetch(ctx, u, query)
	if err != nil {
		return err
	}
	defer body.Close()

	out := cmd.OutOrStdout()
	switch u.Type {
	case gopher.ItemSubmenu, gopher.ItemSearch:
		menu, err := gopher.ParseMenu(body, gopher.WithMenuLogger(logger.With("url", u.String())))
		if err != nil {
			return err
		}
		return writeMenu(out, menu)
	default:
		_, err = io.Copy(out, body)
		return err
	}
}

// menuIndent lines up info text with the labels of link entries.
const menuIndent = "         "

// writeMenu prints a menu one entry per line.
func writeMenu(w io.Writer, menu *gopher.Menu) error {
	for _, e := range menu.Entries {
		var err error
		if e.URL == nil {
			_, err = fmt.Fprintf(w, "%s%s\n", menuIndent, strings.ReplaceAll(e.Label, "\n", "\n"+menuIndent))
		} else {
			_, err = fmt.Fprintf(w, "%-8s %s  <%s>\n", "["+e.Type.Name()+"]", e.Label, e.URL.String())
		}
		if err != nil {
			return err
		}
	}
	return nil
}
