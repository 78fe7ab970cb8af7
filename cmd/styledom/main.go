// Command styledom loads HTML and XHTML documents into the styledom
// engine: it renders them to PNG, dumps their DOM, box tree and display
// list, diffs two documents and shows a document in a native window.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"styledom/pkg/app"
	"styledom/pkg/config"
	"styledom/pkg/geom"
	"styledom/pkg/loader"
	"styledom/pkg/observability"
	"styledom/pkg/text"
)

// cli holds what the persistent flags and PersistentPreRunE set up.
type cli struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	log     *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{log: zap.NewNop()}
	root := &cobra.Command{
		Use:           "styledom",
		Short:         "Style, lay out and render documents with the styledom engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			observability.Sync(c.log)
		},
	}
	c.v = config.New("")
	flags := root.PersistentFlags()
	flags.StringVarP(&c.cfgFile, "config", "c", "", "YAML config file")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Float64("width", 800, "viewport width")
	flags.Float64("height", 600, "viewport height")
	flags.String("shaper", "simple", `text shaper, "simple" or "harfbuzz"`)
	_ = c.v.BindPFlag("logger.level", flags.Lookup("log-level"))
	_ = c.v.BindPFlag("layout.viewport_width", flags.Lookup("width"))
	_ = c.v.BindPFlag("layout.viewport_height", flags.Lookup("height"))
	_ = c.v.BindPFlag("text.shaper", flags.Lookup("shaper"))

	root.AddCommand(
		newRenderCmd(c),
		newDumpCmd(c),
		newDiffCmd(c),
		newShowCmd(c),
		newReftestCmd(c),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", c.cfgFile, err)
		}
	}
	cfg, err := config.FromViper(c.v)
	if err != nil {
		return err
	}
	c.cfg = cfg
	log, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	c.log = log.With(zap.String("command", cmd.Name()))
	return nil
}

// viewport returns the configured window size.
func (c *cli) viewport() geom.Size {
	return geom.Size{Width: c.cfg.Layout.ViewportWidth, Height: c.cfg.Layout.ViewportHeight}
}

// load reads uri, honoring the --no-scripts and --xhtml flags of cmd when
// it has them.
func (c *cli) load(cmd *cobra.Command, uri string) (*loader.Document, error) {
	opts := []loader.Option{loader.WithLogger(c.log)}
	if off, _ := cmd.Flags().GetBool("no-scripts"); off {
		opts = append(opts, loader.WithoutScripts())
	}
	if x, _ := cmd.Flags().GetBool("xhtml"); x {
		opts = append(opts, loader.WithSyntax(loader.SyntaxXHTML))
	}
	return loader.Load(cmd.Context(), uri, opts...)
}

// open builds an app for doc with one window described by wopts. Title
// and size default to the document title and the configured viewport.
// The window is bound to doc so page timers run on it.
func (c *cli) open(doc *loader.Document, wopts app.WindowOptions, fonts text.FontProvider) (*app.App, *app.Window, error) {
	opts := []app.Option{app.WithLogger(c.log)}
	if fonts != nil {
		opts = append(opts, app.WithFonts(fonts))
	}
	a, err := app.New(nil, c.cfg, doc.Layout, opts...)
	if err != nil {
		return nil, nil, err
	}
	if wopts.Title == "" {
		wopts.Title = doc.WindowTitle()
	}
	if wopts.Size == (geom.Size{}) {
		wopts.Size = c.viewport()
	}
	w, err := a.OpenWindow(wopts)
	if err != nil {
		return nil, nil, err
	}
	doc.Bind(w)
	return a, w, nil
}

func documentFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-scripts", false, "do not run page scripts")
	cmd.Flags().Bool("xhtml", false, "parse as XHTML regardless of the content type")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "styledom:", err)
		os.Exit(1)
	}
}
