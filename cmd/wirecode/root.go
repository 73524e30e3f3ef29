package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirecode/internal/app"
	"github.com/vovakirdan/wirecode/internal/config"
	"github.com/vovakirdan/wirecode/internal/log"
	"github.com/vovakirdan/wirecode/internal/proto"
	"github.com/vovakirdan/wirecode/internal/route"
)

type rootFlags struct {
	configPath string
	logLevel   string
	apiURL     string
	wsURL      string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "wirecode",
		Short:         "Collaborative code editor client",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(a *app.App) error {
				return a.RunLanding(cmd.Context())
			})
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/wirecode/wirecode.yaml)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flags.apiURL, "api", "", "backend HTTP base URL")
	pf.StringVar(&flags.wsURL, "ws", "", "backend WebSocket base URL")

	root.AddCommand(
		newLandingCmd(flags),
		newCreateCmd(flags),
		newJoinCmd(flags),
		newEditCmd(flags),
		newLinkCmd(),
	)
	return root
}

func newLandingCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "landing",
		Short: "Create or join a room interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(a *app.App) error {
				return a.RunLanding(cmd.Context())
			})
		},
	}
}

func newCreateCmd(flags *rootFlags) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a room and open the editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(a *app.App) error {
				return a.CreateAndEdit(cmd.Context(), lang)
			})
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", fmt.Sprintf("room language %v (default from config)", proto.Languages))
	return cmd
}

func newJoinCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "join <room-id>",
		Short: "Join an existing room and open the editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app.App) error {
				return a.JoinAndEdit(cmd.Context(), args[0])
			})
		},
	}
}

func newEditCmd(flags *rootFlags) *cobra.Command {
	var room, lang string
	cmd := &cobra.Command{
		Use:   "edit [link]",
		Short: "Open the editor for an editor link (editor?room=<id>&lang=<lang>)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link := ""
			if len(args) == 1 {
				link = args[0]
			} else if room != "" {
				link = route.EditorLink(route.Ref{RoomID: room, Language: lang})
			}
			return withApp(cmd, flags, func(a *app.App) error {
				return a.RunEditor(cmd.Context(), link)
			})
		},
	}
	cmd.Flags().StringVar(&room, "room", "", "room id")
	cmd.Flags().StringVar(&lang, "lang", "", "room language")
	return cmd
}

func newLinkCmd() *cobra.Command {
	var room, lang string
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Print the editor link for a room",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if room == "" {
				return route.ErrMissingRoom
			}
			if lang == "" {
				lang = proto.DefaultLanguage
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), route.EditorLink(route.Ref{RoomID: room, Language: lang}))
			return err
		},
	}
	cmd.Flags().StringVar(&room, "room", "", "room id")
	cmd.Flags().StringVar(&lang, "lang", "", "room language")
	return cmd
}

// withApp loads configuration, applies flag overrides and runs fn with an
// app that logs to the log file, since the editor owns the screen.
func withApp(cmd *cobra.Command, flags *rootFlags, fn func(*app.App) error) error {
	bootLogger := log.New(flags.logLevel, cmd.ErrOrStderr())
	cfg, path, err := config.Load(bootLogger, flags.configPath)
	if err != nil {
		return err
	}
	cfg.UpdateFrom(config.Config{
		LogLevel:   flags.logLevel,
		APIBaseURL: flags.apiURL,
		WSBaseURL:  flags.wsURL,
	})

	logger, closer, err := log.NewFile(cfg.LogLevel, cfg.LogPath())
	if err != nil {
		bootLogger.Warn().Err(err).Str("path", cfg.LogPath()).Msg("log file unavailable, logging disabled")
		logger, closer = log.Nop(), io.NopCloser(nil)
	}
	defer closer.Close()

	logger.Info().
		Str("config", path).
		Str("api", cfg.APIBaseURL).
		Str("ws", cfg.WSBaseURL).
		Msg("starting wirecode")

	a, err := app.New(cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	return fn(a)
}
