// cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webdriver-keywords/internal/config"
	"github.com/xkilldash9x/webdriver-keywords/internal/observability"
)

type contextKey string

// configKey stores the loaded configuration in a command's context.
const configKey contextKey = "config"

// NewRootCommand builds a fresh command tree. Every call gets its own viper
// instance and flag set, so the interactive prompt can run one per line.
func NewRootCommand() *cobra.Command {
	var (
		cfgFile string
		noColor bool
	)
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "wdk",
		Short:         "wdk drives a browser with Robot-style keywords.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			config.SetDefaults(v)
			if err := initializeConfig(cmd, v, cfgFile); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.NewDefaultConfig().Logger())
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting wdk.", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
	flags.String("browser", "", "browser used by Open Browser when none is given")
	flags.Bool("headless", true, "run the browser without a window")
	flags.Duration("timeout", 0, "element wait timeout, e.g. 10s")
	_ = v.BindPFlag("browser.name", flags.Lookup("browser"))
	_ = v.BindPFlag("browser.headless", flags.Lookup("headless"))
	_ = v.BindPFlag("wait.element_timeout", flags.Lookup("timeout"))

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newShellCmd())
	rootCmd.AddCommand(newKeywordsCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the command tree with args, or the process arguments when
// args is nil.
func Execute(ctx context.Context, args []string) error {
	rootCmd := NewRootCommand()
	if args != nil {
		rootCmd.SetArgs(args)
	}
	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		zap.L().Debug("Command execution failed.", zap.Error(err))
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	observability.Sync()
	return err
}

// initializeConfig reads the config file and environment overrides into v.
// A missing ./config.yaml is fine; a missing --config file is not.
func initializeConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	config.BindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// getConfigFromContext returns the configuration stored by PersistentPreRunE.
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not found in command context")
	}
	return cfg, nil
}
