package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/marghivasal/internal"
)

// App carries out the commands. The processor implements it.
type App interface {
	Translate(ctx context.Context, text string) error
	TranslateBatch(ctx context.Context, file string) error
	ListHistory(ctx context.Context) error
	ClearHistory(ctx context.Context) error
	ListPhrases(ctx context.Context, lang string) error
	SuggestPhrase(ctx context.Context, lang, local, english string) error
	ListLessons(ctx context.Context, lang string) error
	MarkLearned(ctx context.Context, lang string) error
	ExportLessons(ctx context.Context, lang string) error
	ShowProgress(ctx context.Context) error
	Chat(ctx context.Context, lang string) error
	Login(ctx context.Context) error
	Signup(ctx context.Context) error
	ShowProfile(ctx context.Context) error
	SetName(ctx context.Context, name string) error
	SetFavorite(ctx context.Context, code string) error
	ResetProfile(ctx context.Context) error
	Speak(ctx context.Context, text string) error
	ListLanguages(ctx context.Context) error
	ListModels(ctx context.Context) error
	Serve(ctx context.Context) error
	Close() error
}

// AppFactory builds the App once configuration has been loaded
type AppFactory func(cmd *cobra.Command) (App, error)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags, newApp AppFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "marghivasal [text]",
		Short: "Phrase translator for Nigerian minority languages",
		Long: `marghivasal translates phrases between English, major world languages
and Nigerian minority languages such as Marghi, Hona and Glavda.

Minority language translations come from the community phrase dictionary
and are polished by a generative model. Everything else goes through
machine translation with a generative fallback.

Examples:
  marghivasal "good morning"                  # English to Marghi (default)
  marghivasal --from en --to fr hello          # English to French
  marghivasal --batch phrases.txt --to hwo     # Translate a file, one phrase per line
  marghivasal phrases suggest mrt "N jiri" "Thank you"
  marghivasal serve --addr :8080               # JSON API for mobile front-ends`,
		Args:          cobra.ArbitraryArgs,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          translateRunE(flags, newApp),
	}

	setupFlags(rootCmd, flags)

	rootCmd.AddCommand(
		newTranslateCommand(flags, newApp),
		newHistoryCommand(flags, newApp),
		newPhrasesCommand(flags, newApp),
		newLearnCommand(flags, newApp),
		newChatCommand(newApp),
		newLoginCommand(flags, newApp),
		newSignupCommand(flags, newApp),
		newProfileCommand(newApp),
		newSpeakCommand(flags, newApp),
		newLanguagesCommand(newApp),
		newModelsCommand(newApp),
		newServeCommand(flags, newApp),
	)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	pf := cmd.PersistentFlags()

	// Global flags
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.marghivasal.yaml)")
	pf.StringVar(&flags.EnvFile, "env-file", flags.EnvFile, "dotenv file loaded before the config")
	pf.BoolVar(&flags.Ephemeral, "ephemeral", false, "Keep history and profile in memory only")
	pf.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.LogFormat, "log-format", "", "Log format: text or json")
	pf.StringVar(&flags.Locale, "locale", flags.Locale, "Message language: en or pcm (Nigerian Pidgin)")
	pf.StringVarP(&flags.Source, "from", "s", flags.Source, "Source language code")
	pf.StringVarP(&flags.Target, "to", "t", flags.Target, "Target language code")

	// Speech flags, shared by speak and translate --speak
	pf.StringVar(&flags.AudioProvider, "audio-provider", flags.AudioProvider, "Speech provider: openai, espeak or auto")
	pf.StringVar(&flags.OpenAIVoice, "openai-voice", "", "OpenAI voice: alloy, ash, coral, echo, fable, onyx, nova, sage, shimmer")
	pf.StringVar(&flags.TTSModel, "tts-model", flags.TTSModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")

	// Root command translates directly
	addTranslateFlags(cmd, flags)

	bindFlagsToViper(cmd)
}

func addTranslateFlags(cmd *cobra.Command, flags *Flags) {
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Translate phrases from file (one per line, optional '= expected')")
	cmd.Flags().BoolVar(&flags.Speak, "speak", false, "Speak the translation")
}

func bindFlagsToViper(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.format", pf.Lookup("log-format"))
	viper.BindPFlag("locale", pf.Lookup("locale"))
	viper.BindPFlag("audio.provider", pf.Lookup("audio-provider"))
	viper.BindPFlag("audio.openai_voice", pf.Lookup("openai-voice"))
	viper.BindPFlag("audio.openai_model", pf.Lookup("tts-model"))
}

// run wraps a command body with App construction and cleanup
func run(newApp AppFactory, fn func(ctx context.Context, app App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return fn(cmd.Context(), app, args)
	}
}

func translateRunE(flags *Flags, newApp AppFactory) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if flags.BatchFile == "" && len(args) == 0 {
			return cmd.Help()
		}
		return run(newApp, func(ctx context.Context, app App, args []string) error {
			if flags.BatchFile != "" {
				return app.TranslateBatch(ctx, flags.BatchFile)
			}
			return app.Translate(ctx, strings.Join(args, " "))
		})(cmd, args)
	}
}

func newTranslateCommand(flags *Flags, newApp AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate [text]",
		Short: "Translate a phrase",
		Args:  cobra.ArbitraryArgs,
		RunE:  translateRunE(flags, newApp),
	}
	addTranslateFlags(cmd, flags)
	return cmd
}

func newHistoryCommand(flags *Flags, newApp AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear recent translations",
	}
	clear := &cobra.Command{
		Use:   "clear",
		Short: "Remove all translations from history",
		Args:  cobra.NoArgs,
		RunE: run(newApp, func(ctx context.Context, app App, _ []string) error {
			return app.ClearHistory(ctx)
		}),
	}
	clear.Flags().BoolVar(&flags.Archive, "archive", false, "Save a JSON snapshot of the history before clearing")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List recent translations, newest first",
			Args:  cobra.NoArgs,
			RunE: run(newApp, func(ctx context.Context, app App, _ []string) error {
				return app.ListHistory(ctx)
			}),
		},
		clear,
	)
	return cmd
}

func newPhrasesCommand(flags *Flags, newApp AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phrases",
		Short: "Browse and contribute to the community phrase dictionary",
	}
	suggest := &cobra.Command{
		Use:   "suggest <lang> <local phrase> <english meaning>",
		Short: "Suggest a phrase pair for moderation",
		Args:  cobra.ExactArgs(3),
		RunE: run(newApp, func(ctx context.Context, app App, args []string) error {
			return app.SuggestPhrase(ctx, args[0], args[1], args[2])
		}),
	}
	suggest.Flags().StringVar(&flags.Context, "context", "", "When the phrase is used, e.g. 'greeting'")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list <lang>",
			Short: "List approved phrases for a minority language",
			Args:  cobra.ExactArgs(1),
			RunE: run(newApp, func(ctx context.Context, app App, args []string) error {
				return app.ListPhrases(ctx, args[0])
			}),
		},
		suggest,
	)
	return cmd
}

func newLearnCommand(flags *Flags, newApp AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Lessons built from approved community phrases",
	}
	export := &cobra.Command{
		Use:   "export <lang>",
		Short: "Export the lessons as an Anki CSV deck",
		Args:  cobra.ExactArgs(1),
		RunE: run(newApp, func(ctx context.Context, app App, args []string) error {
			return app.ExportLessons(ctx, args[0])
		}),
	}
	export.Flags().StringVarP(&flags.OutputFile, "output", "o", "", "CSV file to write (default: <language>_lessons.csv)")
	export.Flags().BoolVar(&flags.ExportAudio, "audio", false, "Generate pronunciation audio for each card")

	cmd.AddCommand(
		export,
		&cobra.Command{
			Use:   "lessons <lang>",
			Short: "Show the lessons for a language",
			Args:  cobra.ExactArgs(1),
			RunE: run(newApp, func(ctx context.Context, app App, args []string) error {
				return app.ListLessons(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "mark <lang>",
			Short: "Record one more learned lesson",
			Args:  cobra.ExactArgs(1),
			RunE: run(newApp, func(ctx context.Context, app App, args []string) error {
				return app.MarkLearned(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "progress",
			Short: "Show learned lessons per language",
			Args:  cobra.NoArgs,
			RunE: run(newApp, func(ctx context.Context, app App, _ []string) error {
				return app.ShowProgress(ctx)
			}),
		},
	)
	return cmd
}

func newChatCommand(newApp AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <lang>",
		Short: "Practice a language with the chat tutor",
		Args:  cobra.ExactArgs(1),
		RunE: run(newApp, func(ctx context.Context, app App, args []string) error {
			return app.Chat(ctx, args[0])
		}),
	}
}

func addAccountFlags(cmd *cobra.Command, flags *Flags) {
	cmd.Flags().StringVar(&flags.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&flags.Password, "password", "", "Account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
}

func newLoginCommand(flags *Flags, newApp AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the community backend",
		Args:  cobra.NoArgs,
		RunE: run(newApp, func(ctx context.Context, app App, _ []string) error {
			return app.Login(ctx)
		}),
	}
	addAccountFlags(cmd, flags)
	return cmd
}

func newSignupCommand(flags *Flags, newApp AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a community backend account",
		Args:  cobra.NoArgs,
		RunE: run(newApp, func(ctx context.Context, app App, _ []string) error {
			return app.Signup(ctx)
		}),
	}
	addAccountFlags(cmd, flags)
	cmd.Flags().StringVar(&flags.FullName, "name", "", "Full name")
	cmd.Flags().StringVar(&flags.Country, "country", "", "Country")
	return cmd
}

func newProfileCommand(newApp AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change the local profile",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the profile",
			Args:  cobra.NoArgs,
			RunE: run(newApp, func(ctx context.Context, app App, _ []string) error {
				return app.ShowProfile(ctx)
			}),
		},
		&cobra.Command{
			Use:   "name <name>",
			Short: "Set your display name",
			Args:  cobra.MinimumNArgs(1),
			RunE: run(newApp, func(ctx context.Context, app App, args []string) error {
				return app.SetName(ctx, strings.Join(args, " "))
			}),
		},
		&cobra.Command{
			Use:   "favorite <lang>",
			Short: "Set your favorite language",
			Args:  cobra.ExactArgs(1),
			RunE: run(newApp, func(ctx context.Context, app App, args []string) error {
				return app.SetFavorite(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Clear profile, login and history",
			Args:  cobra.NoArgs,
			RunE: run(newApp, func(ctx context.Context, app App, _ []string) error {
				return app.ResetProfile(ctx)
			}),
		},
	)
	return cmd
}

func newSpeakCommand(flags *Flags, newApp AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speak <text>",
		Short: "Speak text in the --to language",
		Args:  cobra.MinimumNArgs(1),
		RunE: run(newApp, func(ctx context.Context, app App, args []string) error {
			return app.Speak(ctx, strings.Join(args, " "))
		}),
	}
	cmd.Flags().StringVarP(&flags.OutputFile, "output", "o", "", "Audio file to write (default: temporary file)")
	return cmd
}

func newLanguagesCommand(newApp AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		Args:  cobra.NoArgs,
		RunE: run(newApp, func(ctx context.Context, app App, _ []string) error {
			return app.ListLanguages(ctx)
		}),
	}
}

func newModelsCommand(newApp AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List generative models available for the configured key",
		Args:  cobra.NoArgs,
		RunE: run(newApp, func(ctx context.Context, app App, _ []string) error {
			return app.ListModels(ctx)
		}),
	}
}

func newServeCommand(flags *Flags, newApp AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: run(newApp, func(ctx context.Context, app App, _ []string) error {
			return app.Serve(ctx)
		}),
	}
	cmd.Flags().StringVar(&flags.Addr, "addr", flags.Addr, "Listen address")
	viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}
