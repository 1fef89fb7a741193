package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/branchspec/packages/checks"
	"github.com/abdul-hamid-achik/branchspec/packages/core/config"
	"github.com/abdul-hamid-achik/branchspec/packages/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run [scenario...]",
	Short: "Run branch checks",
	Long: `Run built-in scenarios and declarative suite files against the repository.

Without arguments the secondary-main and feature-branch scenarios run.
Available scenarios: ` + strings.Join(checks.Names(), ", ") + `

Examples:
  branchspec run
  branchspec run secondary-main
  branchspec run feature-branch --dir ./checkout
  branchspec run --suite ./suites/ --tags branch
  branchspec run --name "*protected*" -o junit --output-file report.xml
  branchspec run --suite ./suites/ --env-file .env
  branchspec run --watch`,
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return checks.Names(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	suiteFlags     []string
	dirFlag        string
	ownerFlag      string
	repoFlag       string
	apiURLFlag     string
	nameFlag       string
	tagsFlag       string
	verboseFlag    bool
	bailFlag       bool
	timeoutFlag    time.Duration
	retriesFlag    int
	rateLimitFlag  float64
	noColorFlag    bool
	outputFlag     string
	outputFileFlag string
	watchFlag      bool
	envFileFlag    string

	// Notification flags
	notifyFlag       string
	notifyOnFlag     string
	slackWebhookFlag string
	slackChannelFlag string
)

func init() {
	// Source flags
	runCmd.Flags().StringSliceVarP(&suiteFlags, "suite", "s", nil, "Suite file or directory to run (repeatable)")
	runCmd.Flags().StringVar(&dirFlag, "dir", ".", "Local checkout holding the readme and ignore file")
	runCmd.Flags().StringVar(&ownerFlag, "owner", "", "Repository owner")
	runCmd.Flags().StringVar(&repoFlag, "repo", "", "Repository name")
	runCmd.Flags().StringVar(&apiURLFlag, "api-url", "", "API base URL")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", "", "Load credentials and {{$VAR}} values from a .env file")

	// Filter flags
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run only checks matching name pattern")
	runCmd.Flags().StringVarP(&tagsFlag, "tags", "t", "", "Run only checks with specified tags (comma-separated)")

	// Output flags
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose output")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", output.FormatConsole, "Output format: "+strings.Join(output.Formats, ", "))
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", "", "Write output to file (default: stdout)")

	// Execution flags
	runCmd.Flags().BoolVar(&bailFlag, "bail", false, "Stop on first failure")
	runCmd.Flags().DurationVar(&timeoutFlag, "timeout", 30*time.Second, "Request timeout (0 disables)")
	runCmd.Flags().IntVar(&retriesFlag, "retries", 2, "Retries on transport errors, 5xx and 429 responses")
	runCmd.Flags().Float64Var(&rateLimitFlag, "rate-limit", 0, "Maximum requests per second (0 disables)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch local files for changes and re-run checks")

	// Notification flags
	runCmd.Flags().StringVar(&notifyFlag, "notify", "", "Notification service: slack")
	runCmd.Flags().StringVar(&notifyOnFlag, "notify-on", "failure", "When to notify: always, failure, success, recovery")
	runCmd.Flags().StringVar(&slackWebhookFlag, "slack-webhook", "", "Slack webhook URL (env: SLACK_WEBHOOK)")
	runCmd.Flags().StringVar(&slackChannelFlag, "slack-channel", "", "Slack channel override")
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.File != "" {
		logger.Debug("loaded configuration", zap.String("file", cfg.File))
	}

	s, err := newSession(cfg, logger, args, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	s.nameFilter = nameFlag
	s.tagsFilter = splitList(tagsFlag)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ok, err := s.run(ctx)
	if err != nil {
		return err
	}

	if watchFlag {
		return s.watch(ctx, cmd.OutOrStdout())
	}

	if !ok {
		return errChecksFailed
	}
	return nil
}

// applyRunFlags overrides config values with the flags the user set.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("suite") {
		cfg.Suites = suiteFlags
	}
	if flags.Changed("dir") {
		cfg.Dir = dirFlag
	}
	if flags.Changed("owner") {
		cfg.Owner = ownerFlag
	}
	if flags.Changed("repo") {
		cfg.Repo = repoFlag
	}
	if flags.Changed("api-url") {
		cfg.APIURL = apiURLFlag
	}
	if flags.Changed("env-file") {
		cfg.EnvFile = envFileFlag
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verboseFlag
	}
	if flags.Changed("no-color") {
		cfg.NoColor = noColorFlag
	}
	if flags.Changed("output") {
		cfg.Output = outputFlag
	}
	if flags.Changed("output-file") {
		cfg.OutputFile = outputFileFlag
	}
	if flags.Changed("bail") {
		cfg.Bail = bailFlag
	}
	if flags.Changed("timeout") {
		cfg.Timeout = int(timeoutFlag.Milliseconds())
	}
	if flags.Changed("retries") {
		cfg.Retries = retriesFlag
	}
	if flags.Changed("rate-limit") {
		cfg.RateLimit = rateLimitFlag
	}
	if flags.Changed("notify-on") {
		cfg.Notify.On = notifyOnFlag
	}
	if flags.Changed("slack-channel") {
		cfg.Notify.SlackChannel = slackChannelFlag
	}

	if notifyFlag != "" {
		for _, service := range splitList(notifyFlag) {
			switch strings.ToLower(service) {
			case "slack":
				webhook := slackWebhookFlag
				if webhook == "" {
					webhook = os.Getenv("SLACK_WEBHOOK")
				}
				if webhook == "" && cfg.Notify.Slack == "" {
					return fmt.Errorf("--slack-webhook is required when using --notify slack")
				}
				if webhook != "" {
					cfg.Notify.Slack = webhook
				}
			default:
				return fmt.Errorf("unknown notification service %q (want slack)", service)
			}
		}
	}

	return cfg.Validate()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
