package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/gitpress"
	"github.com/eringen/gitpress/content"
)

// cli carries the resolved configuration and logger into subcommands.
type cli struct {
	v   *viper.Viper
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New(), log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "gitpress",
		Short: "A blog that stores its posts in a GitHub repository",
		Long: `gitpress serves a blog whose posts are Markdown files with a frontmatter
header, stored in a GitHub repository through the contents API.

Every setting can be given as a flag or as an environment variable named
after the flag (--github-token reads GITHUB_TOKEN). A .env file in the
working directory is loaded first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
	}

	f := root.PersistentFlags()
	f.String("env-file", ".env", "dotenv file to load before reading the environment")
	f.String("github-token", "", "token with contents read/write access")
	f.String("github-owner", "", "owner of the content repository")
	f.String("github-repo", "", "name of the content repository")
	f.String("github-branch", "", "branch to read and write (default: repository default branch)")
	f.String("github-api-url", "https://api.github.com", "GitHub REST API root")
	f.Duration("github-timeout", 15*time.Second, "timeout for each GitHub request")
	f.Int("github-concurrency", 6, "concurrent post fetches while listing")
	f.String("log-level", "info", "log level (debug, info, warn, error)")
	f.String("log-format", "console", "log format (console or json)")

	root.AddCommand(
		newServeCmd(c),
		newPostsCmd(c),
		newImagesCmd(c),
		newVersionCmd(),
	)
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	if err := c.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if err := godotenv.Load(c.v.GetString("env-file")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", c.v.GetString("env-file"), err)
	}

	log, err := newLogger(cmd.ErrOrStderr(), c.v.GetString("log-level"), c.v.GetString("log-format"))
	if err != nil {
		return err
	}
	c.log = log
	return nil
}

func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	switch format {
	case "json":
	case "console", "":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

func (c *cli) contentConfig() content.Config {
	return content.Config{
		Token:          c.v.GetString("github-token"),
		Owner:          c.v.GetString("github-owner"),
		Repo:           c.v.GetString("github-repo"),
		Branch:         c.v.GetString("github-branch"),
		APIBaseURL:     c.v.GetString("github-api-url"),
		Timeout:        c.v.GetDuration("github-timeout"),
		MaxConcurrency: c.v.GetInt("github-concurrency"),
	}
}

// repository builds the content repository and fails early when the
// configuration is incomplete.
func (c *cli) repository() (*content.Repository, error) {
	cfg := c.contentConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return content.New(cfg, content.WithLogger(c.log)), nil
}

func (c *cli) siteConfig() gitpress.SiteConfig {
	return gitpress.SiteConfig{
		Name:          c.v.GetString("site-name"),
		URL:           c.v.GetString("site-url"),
		Description:   c.v.GetString("site-description"),
		Author:        c.v.GetString("site-author"),
		Addr:          c.v.GetString("addr"),
		Content:       c.contentConfig(),
		AdminPassword: c.v.GetString("admin-password"),
		SessionSecret: c.v.GetString("session-secret"),
		CookieSecure:  c.v.GetBool("cookie-secure"),
		Revalidate:    c.v.GetDuration("revalidate"),
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gitpress version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gitpress %s\n", version)
		},
	}
}
