package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matthewriabinin/blog/internal/config"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

// cli is the state shared by every subcommand once flags are parsed
type cli struct {
	v          *viper.Viper
	configFile string
	envFiles   []string

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	c := &cli{v: config.New()}

	rootCmd := &cobra.Command{
		Use:   "blog",
		Short: "Blog - markdown posts served as server-rendered pages",
		Long: `Blog serves a small set of markdown posts: an index page that shows
every post in the feed, and one page per configured post.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.configFile, "config", "c", "", "Config file (default ./blog.yaml when present)")
	flags.StringSliceVar(&c.envFiles, "env", []string{".env"}, "Env files to load before reading the environment")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("manifest", "", "Site manifest replacing the bundled one")
	_ = c.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = c.v.BindPFlag("site.manifest", flags.Lookup("manifest"))

	rootCmd.AddCommand(newServeCommand(c))
	rootCmd.AddCommand(newRoutesCommand(c))
	rootCmd.AddCommand(newPreviewCommand(c))

	return rootCmd
}

func (c *cli) load(cmd *cobra.Command) error {
	if err := config.LoadEnv(c.envFiles...); err != nil {
		return err
	}

	cfg, err := config.Load(c.v, c.configFile)
	if err != nil {
		return err
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}

	c.cfg = cfg
	c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(c.logger)
	return nil
}
