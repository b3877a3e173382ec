package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/telekom/cogauth/pkg/config"
	"github.com/telekom/cogauth/pkg/metrics"
	"github.com/telekom/cogauth/pkg/output"
	"github.com/telekom/cogauth/pkg/system"
)

// Config carries the process level dependencies of the command tree. Tests
// replace the writers, the HTTP client and the clock.
type Config struct {
	ConfigPath   string
	OutputWriter io.Writer
	ErrorWriter  io.Writer
	Context      context.Context
	HTTPClient   *http.Client
	Clock        clock.Clock
}

type runtimeState struct {
	configPath    string
	cfg           *config.Config
	configMissing bool

	profileOverride  string
	methodOverride   string
	tenantOverride   string
	clientIDOverride string
	cloudOverride    string
	loginEndpoint    string
	openBrowser      bool
	openBrowserSet   bool
	noBrowser        bool
	tokenOverride    string
	tokenEnv         string
	tokenFile        string
	tokenKeychain    string

	outputFormat    string
	logFormat       string
	metricsTextfile string
	debug           bool

	writer     io.Writer
	errWriter  io.Writer
	httpClient *http.Client
	clock      clock.Clock
	logger     *zap.Logger
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		ConfigPath:   config.DefaultConfigPath(),
		OutputWriter: os.Stdout,
		ErrorWriter:  os.Stderr,
		Context:      context.Background(),
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{
		configPath: cfg.ConfigPath,
		writer:     cfg.OutputWriter,
		errWriter:  cfg.ErrorWriter,
		httpClient: cfg.HTTPClient,
		clock:      cfg.Clock,
		logger:     zap.NewNop(),
	}

	root := &cobra.Command{
		Use:   "cogauth",
		Short: "Obtain bearer tokens for Azure Cognitive Services",
		Long: `cogauth obtains a bearer token for Azure Cognitive Services, either through
the OAuth 2.0 device code flow or from a token obtained elsewhere.

The token is printed to stdout; sign-in instructions and logs go to stderr.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			if rt.errWriter == nil {
				rt.errWriter = os.Stderr
			}
			if rt.configPath == "" {
				rt.configPath = config.DefaultConfigPath()
			}
			envFallback(&rt.profileOverride, "COGAUTH_PROFILE")
			envFallback(&rt.methodOverride, "COGAUTH_METHOD")
			envFallback(&rt.tenantOverride, "COGAUTH_TENANT_ID")
			envFallback(&rt.clientIDOverride, "COGAUTH_CLIENT_ID")
			envFallback(&rt.cloudOverride, "COGAUTH_CLOUD")
			envFallback(&rt.loginEndpoint, "COGAUTH_LOGIN_ENDPOINT")
			envFallback(&rt.tokenOverride, "COGAUTH_TOKEN")
			envFallback(&rt.tokenFile, "COGAUTH_TOKEN_FILE")
			envFallback(&rt.tokenKeychain, "COGAUTH_TOKEN_KEYCHAIN")
			envFallback(&rt.outputFormat, "COGAUTH_OUTPUT")
			envFallback(&rt.logFormat, "COGAUTH_LOG_FORMAT")
			envFallback(&rt.metricsTextfile, "COGAUTH_METRICS_TEXTFILE")
			if !rt.debug {
				rt.debug = strings.EqualFold(os.Getenv("COGAUTH_DEBUG"), "true")
			}
			rt.openBrowserSet = cmd.Flags().Changed("open-browser")
			if !rt.openBrowserSet {
				if v, err := strconv.ParseBool(os.Getenv("COGAUTH_OPEN_BROWSER")); err == nil {
					rt.openBrowser = v
					rt.openBrowserSet = true
				}
			}

			// Skip config loading for commands that don't need it
			if cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config" {
				return rt.initLogger()
			}
			if cmd.Name() == "version" || cmd.Name() == "completion" {
				return rt.initLogger()
			}

			cfg, err := config.Load(rt.configPath)
			switch {
			case errors.Is(err, os.ErrNotExist):
				// Flags and environment variables alone are sufficient.
				defaults := config.DefaultConfig()
				rt.cfg = &defaults
				rt.configMissing = true
			case err != nil:
				return err
			default:
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("invalid config %s: %w", rt.configPath, err)
				}
				rt.cfg = cfg
			}
			return rt.initLogger()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&rt.configPath, "config", rt.configPath, "Path to config file (env COGAUTH_CONFIG)")
	flags.StringVarP(&rt.profileOverride, "profile", "p", "", "Profile name override")
	flags.StringVarP(&rt.methodOverride, "method", "m", "", "Authentication method: device-code or manual-token")
	flags.StringVar(&rt.tenantOverride, "tenant", "", "Azure AD tenant ID or domain")
	flags.StringVar(&rt.clientIDOverride, "client-id", "", "OAuth client ID (defaults to the Azure CLI client)")
	flags.StringVar(&rt.cloudOverride, "cloud", "", "Azure cloud: global or china")
	flags.StringVar(&rt.loginEndpoint, "login-endpoint", "", "Login endpoint override")
	flags.BoolVar(&rt.openBrowser, "open-browser", false, "Open the verification URL in the default browser")
	flags.BoolVar(&rt.noBrowser, "no-browser", false, "Never open a browser, even if the profile enables it")
	flags.StringVar(&rt.tokenOverride, "token", "", "Pre-obtained bearer token (env COGAUTH_TOKEN)")
	flags.StringVar(&rt.tokenEnv, "token-env", "", "Read the bearer token from this environment variable")
	flags.StringVar(&rt.tokenFile, "token-file", "", "Read the bearer token from this file")
	flags.StringVar(&rt.tokenKeychain, "token-keychain", "", "Read the bearer token from the OS keychain entry with this key")
	flags.StringVarP(&rt.outputFormat, "output", "o", "", "Output format: raw, json, yaml (table for claims)")
	flags.StringVar(&rt.logFormat, "log-format", "", "Log format: json or console")
	flags.StringVar(&rt.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after the command")
	flags.BoolVarP(&rt.debug, "debug", "d", false, "Enable debug logging")
	_ = flags.MarkHidden("login-endpoint")

	base := cfg.Context
	if base == nil {
		base = context.Background()
	}
	root.SetContext(context.WithValue(base, runtimeKey{}, rt))

	root.AddCommand(
		NewLoginCommand(),
		NewClaimsCommand(),
		NewKeychainCommand(),
		NewConfigCommand(),
		NewCompletionCommand(),
		NewVersionCommand(),
	)

	return root
}

func envFallback(target *string, key string) {
	if *target == "" {
		*target = os.Getenv(key)
	}
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) initLogger() error {
	format := rt.logFormat
	if format == "" && rt.cfg != nil {
		format = rt.cfg.Settings.LogFormat
	}
	logger, err := system.NewLogger(rt.ErrWriter(), rt.debug, format)
	if err != nil {
		return err
	}
	rt.logger = logger
	return nil
}

func (rt *runtimeState) Logger() *zap.SugaredLogger {
	return rt.logger.Sugar()
}

// OutputFormat resolves the output format, falling back to def when neither
// flag, environment nor config set one.
func (rt *runtimeState) OutputFormat(def output.Format) (output.Format, error) {
	name := rt.outputFormat
	if name == "" && rt.cfg != nil {
		name = rt.cfg.Settings.OutputFormat
	}
	return output.ParseFormat(name, def)
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

func (rt *runtimeState) ErrWriter() io.Writer {
	if rt.errWriter != nil {
		return rt.errWriter
	}
	return os.Stderr
}

func (rt *runtimeState) EnsureConfigLoaded() error {
	if rt.cfg != nil {
		return nil
	}
	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return err
	}
	rt.cfg = cfg
	return nil
}

func (rt *runtimeState) configPathValue() string {
	if rt.configPath == "" {
		return config.DefaultConfigPath()
	}
	return rt.configPath
}

func (rt *runtimeState) metricsTextfilePath() string {
	if rt.metricsTextfile != "" {
		return rt.metricsTextfile
	}
	if rt.cfg != nil {
		return rt.cfg.Settings.MetricsTextfile
	}
	return ""
}

// flushMetrics writes the metrics textfile when one is configured. Failures
// are logged and never change the command result.
func (rt *runtimeState) flushMetrics() {
	path := rt.metricsTextfilePath()
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		rt.Logger().Warnw("Failed to write metrics textfile", "path", path, "error", err)
	}
}
