package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yourusername/winsync/internal/client"
	"github.com/yourusername/winsync/internal/config"
	"github.com/yourusername/winsync/internal/journal"
	"github.com/yourusername/winsync/internal/lifecycle"
	"github.com/yourusername/winsync/internal/logging"
	"github.com/yourusername/winsync/internal/metrics"
	"github.com/yourusername/winsync/internal/native"
	"github.com/yourusername/winsync/internal/output"
	"github.com/yourusername/winsync/internal/queue"
	"github.com/yourusername/winsync/internal/server"
	"github.com/yourusername/winsync/internal/state"
	"github.com/yourusername/winsync/internal/types"
	"github.com/yourusername/winsync/internal/windowinfo"
)

var (
	configPath string
	socketPath string
	timeout    time.Duration
	jsonOutput bool
	noColor    bool
	debugMode  bool

	cfg *config.Config

	// Color functions
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	keyColor     = color.New(color.FgYellow)
)

// status command flags
var statusVisual bool

// watch command flags
var watchMetricsAddr string

// serve command flags
var (
	serveFake         bool
	serveSize         string
	serveMinSize      string
	servePollInterval time.Duration
)

// journal command flags
var (
	journalLimit int
	journalClear bool
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "winsync",
	Short: "winsync - keep a native window in step with what you asked for",
	Long: `winsync drives a native window through a window server socket.

Size, minimum size, display state and widget/edit mode changes are queued,
executed one at a time and confirmed against the window's own events.`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded

		if !cmd.Flags().Changed("socket") && cfg.Settings.SocketPath != "" {
			socketPath = cfg.Settings.SocketPath
		}
		if !cmd.Flags().Changed("timeout") {
			timeout = cfg.GetTimeout()
		}

		if cfg.Settings.LogPath != "" {
			logging.Close()
			if err := logging.Init(cfg.Settings.LogPath); err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
		}
		logging.SetDebug(debugMode)
		return nil
	},
}

// pingCmd tests server connectivity
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test connection to the window server",
	Long:  `Sends a ping request to the server to test connectivity and response time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(socketPath, timeout)
		defer c.Close()

		start := time.Now()
		result, err := c.Ping(context.Background())
		elapsed := time.Since(start)

		if err != nil {
			printError(fmt.Sprintf("Ping failed: %v", err))
			return err
		}

		if jsonOutput {
			return printJSON(result)
		}

		successColor.Println("✓ Pong received")
		fmt.Printf("Response time: %v\n", elapsed)
		if v, ok := result["version"].(string); ok {
			fmt.Printf("Server version: %s\n", v)
		}

		return nil
	},
}

// statusCmd prints the current window info
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the window's size, state and mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(context.Background())
		if err != nil {
			printError(err.Error())
			return err
		}
		defer sess.Close()

		info := sess.svc.Value()
		if jsonOutput {
			return printJSON(info)
		}

		output.PrintWindowInfo(os.Stdout, info)
		if statusVisual {
			fmt.Println()
			output.PrintSketch(os.Stdout, info, output.DefaultSketchOptions())
		}
		return nil
	},
}

var sizeCmd = &cobra.Command{
	Use:   "size <W> <H> | size <WxH>",
	Short: "Resize the window",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := parseSizeArgs(args)
		if err != nil {
			return err
		}
		return dispatchAndReport(windowinfo.SetSize{Value: size})
	},
}

var minSizeCmd = &cobra.Command{
	Use:   "min-size <W> <H> | min-size <WxH>",
	Short: "Set the window's minimum size",
	Long:  `Sets the minimum size. The window grows if it is currently smaller.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := parseSizeArgs(args)
		if err != nil {
			return err
		}
		return dispatchAndReport(windowinfo.SetMinimumSize{Value: size})
	},
}

var stateCmd = &cobra.Command{
	Use:       "state <normal|maximized|minimized|fullscreen>",
	Short:     "Change the window's display state (edit mode only)",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"normal", "maximized", "minimized", "fullscreen"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, ok := types.ParseDisplayState(args[0])
		if !ok {
			return fmt.Errorf("unknown display state %q", args[0])
		}
		return dispatchAndReport(windowinfo.SetState{Value: ds})
	},
}

var resizableCmd = &cobra.Command{
	Use:   "resizable <true|false>",
	Short: "Allow or forbid user resizing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.ParseBool(args[0])
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", args[0], err)
		}
		return dispatchAndReport(windowinfo.SetResizable{Value: v})
	},
}

var modeCmd = &cobra.Command{
	Use:       "mode <widget|edit>",
	Short:     "Switch between widget and edit mode",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"widget", "edit"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, ok := types.ParseModeKind(args[0])
		if !ok {
			return fmt.Errorf("unknown mode %q", args[0])
		}
		return dispatchAndReport(windowinfo.SetWindowMode{Kind: kind})
	},
}

// watchCmd follows the window until interrupted
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print every window change until interrupted",
	Long: `Follows the window and prints each change. The window section of the
config file is applied on start and again whenever the file changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		hooks := lifecycle.NewHooks()
		ctx := hooks.RunOnSignal(context.Background())

		var collectors *metrics.Collectors
		var reg *prometheus.Registry
		addr := watchMetricsAddr
		if addr == "" {
			addr = cfg.Settings.MetricsAddr
		}
		if addr != "" {
			reg = prometheus.NewRegistry()
			collectors = metrics.New(reg)
		}

		sess, err := openSession(ctx, withHooks(hooks), withMetrics(collectors))
		if err != nil {
			printError(err.Error())
			return err
		}
		defer sess.Close()
		svc := sess.svc

		if reg != nil {
			go func() {
				if err := metrics.Serve(ctx, addr, reg); err != nil {
					logging.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
				}
			}()
		}

		svc.OnResult(func(r queue.Result) {
			if r.Err != nil {
				printError(fmt.Sprintf("%s: %v", r.Name, r.Err))
			}
		})

		printInfo := func(info windowinfo.WindowInfo) {
			if jsonOutput {
				printJSON(info)
				return
			}
			infoColor.Printf("[%s] ", time.Now().Format("15:04:05.000"))
			fmt.Printf("%s %s min %s mode %s\n", info.Size, info.State, info.MinimumSize, info.Mode)
		}

		snap := svc.Snapshot()
		unsubscribe := snap.Subscribe(func() { printInfo(snap.Value()) })
		defer unsubscribe()

		svc.Start(ctx)
		printInfo(svc.Value())
		applyWindowConfig(svc, cfg)

		path := configPath
		if path == "" {
			path = config.GetConfigPath()
		}
		err = config.Watch(ctx, path, func(c *config.Config, err error) {
			if err != nil {
				printError(fmt.Sprintf("config reload failed: %v", err))
				return
			}
			applyWindowConfig(svc, c)
		})
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("not watching config")
		}

		<-ctx.Done()
		return nil
	},
}

// serveCmd hosts a window on the socket
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a window server",
	Long: `Runs a window server on the socket. With --fake the window is simulated,
which is enough to try every other command without a native backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !serveFake {
			return errors.New("no native window backend is available; use --fake")
		}

		size, err := types.ParseVec2(serveSize)
		if err != nil {
			return err
		}
		minimum, err := types.ParseVec2(serveMinSize)
		if err != nil {
			return err
		}

		win := native.NewFake(size, minimum)
		srv := server.New(win, socketPath, servePollInterval)
		if err := srv.Listen(); err != nil {
			printError(err.Error())
			return err
		}

		hooks := lifecycle.NewHooks()
		hooks.Add(func() { srv.Close() })
		ctx := hooks.RunOnSignal(context.Background())

		successColor.Printf("✓ Serving fake window on %s\n", srv.Addr())
		keyColor.Print("Size: ")
		fmt.Println(win.Size())
		keyColor.Print("Minimum size: ")
		fmt.Println(win.MinimumSize())

		return srv.Serve(ctx)
	},
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "List recorded window transitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		j, err := journal.Open(journalPath())
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer j.Close()

		if journalClear {
			if err := j.Clear(ctx); err != nil {
				return fmt.Errorf("failed to clear journal: %w", err)
			}
			successColor.Println("✓ Journal cleared")
			return nil
		}

		entries, err := j.List(ctx, journalLimit)
		if err != nil {
			return fmt.Errorf("failed to read journal: %w", err)
		}

		if jsonOutput {
			return printJSON(entries)
		}
		output.PrintJournal(os.Stdout, entries)
		return nil
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or reset the persisted session",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the persisted session",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := state.LoadSessionFrom(statePath())
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		if jsonOutput {
			return printJSON(sess)
		}

		keyColor.Print("Session file: ")
		fmt.Println(sess.Path())
		output.PrintSession(os.Stdout, sess)
		return nil
	},
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the persisted mode and edit geometry",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := state.LoadSessionFrom(statePath())
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		if err := sess.Reset(); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}

		successColor.Println("✓ Session has been reset")
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput {
			return printJSON(cfg)
		}

		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cfg
		if len(args) > 0 {
			loaded, err := config.LoadConfig(args[0])
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			c = loaded
		}

		if err := c.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		successColor.Println("✓ Configuration is valid")
		fmt.Printf("  Socket: %s\n", c.Settings.SocketPath)
		fmt.Printf("  Widget size: %s\n", c.GetWidgetSize())
		fmt.Printf("  Window actions: %d\n", len(c.WindowActions()))
		fmt.Printf("  Revision: %s\n", c.Revision())
		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/winsync/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", client.DefaultSocketPath, "Unix socket path")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", client.DefaultTimeout, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sizeCmd)
	rootCmd.AddCommand(minSizeCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(resizableCmd)
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(journalCmd)

	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionResetCmd)

	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	statusCmd.Flags().BoolVar(&statusVisual, "visual", false, "Also draw a sketch of the window")

	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	serveCmd.Flags().BoolVar(&serveFake, "fake", false, "Host a simulated window")
	serveCmd.Flags().StringVar(&serveSize, "size", "800x600", "Initial size of the simulated window")
	serveCmd.Flags().StringVar(&serveMinSize, "min-size", "200x150", "Initial minimum size of the simulated window")
	serveCmd.Flags().DurationVar(&servePollInterval, "poll-interval", server.DefaultPollInterval, "How often silent window changes are pushed to clients")

	journalCmd.Flags().IntVar(&journalLimit, "limit", 20, "Number of entries to show (0 for all)")
	journalCmd.Flags().BoolVar(&journalClear, "clear", false, "Delete every recorded transition")

	cobra.OnInitialize(func() {
		if noColor {
			color.NoColor = true
		}
	})
}

func main() {
	// Initialize logging. A CLI that cannot open its log file still works.
	if err := logging.Init(""); err != nil {
		fmt.Fprintln(os.Stderr, "warning: logging disabled:", err)
	}
	defer logging.Close()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// windowSession is a service bound to the remote window plus everything it
// needs to be torn down
type windowSession struct {
	svc     *windowinfo.Service
	client  *client.Client
	journal *journal.Journal
}

type sessionOption func(*windowinfo.Options)

func withHooks(h *lifecycle.Hooks) sessionOption {
	return func(o *windowinfo.Options) { o.Hooks = h }
}

func withMetrics(m *metrics.Collectors) sessionOption {
	return func(o *windowinfo.Options) { o.Metrics = m }
}

// openSession connects to the window server and creates the service over it.
// The service is not started.
func openSession(ctx context.Context, opts ...sessionOption) (*windowSession, error) {
	c := client.NewClient(socketPath, timeout)
	if err := c.Connect(); err != nil {
		return nil, err
	}

	// a native call may not outlive the confirmation that waits on it
	remote, err := client.NewRemote(ctx, c, cfg.GetConfirmTimeout())
	if err != nil {
		c.Close()
		return nil, err
	}

	sess, err := state.LoadSessionFrom(statePath())
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	// The journal is best effort; a read-only state dir should not stop resizing.
	j, err := journal.Open(journalPath())
	if err != nil {
		logging.Warn().Err(err).Msg("journal unavailable")
		j = nil
	}

	o := windowinfo.Options{
		FrameInterval:  cfg.GetFrameInterval(),
		ConfirmTimeout: cfg.GetConfirmTimeout(),
		WidgetSize:     cfg.GetWidgetSize(),
		Session:        sess,
	}
	if j != nil {
		o.Journal = j
	}
	for _, opt := range opts {
		opt(&o)
	}

	svc, err := windowinfo.Create(remote, o)
	if err != nil {
		if j != nil {
			j.Close()
		}
		c.Close()
		return nil, err
	}

	return &windowSession{svc: svc, client: c, journal: j}, nil
}

// Close disposes the service before dropping the connection it runs over
func (s *windowSession) Close() {
	s.svc.Dispose()
	if s.journal != nil {
		s.journal.Close()
	}
	s.client.Close()
}

// dispatchAndReport runs a single action to completion and prints the window
// afterwards
func dispatchAndReport(a windowinfo.Action) error {
	ctx := context.Background()
	sess, err := openSession(ctx)
	if err != nil {
		printError(err.Error())
		return err
	}
	defer sess.Close()
	svc := sess.svc

	if _, ok := a.(windowinfo.SetState); ok && svc.Value().Mode.Kind != types.ModeEdit {
		err := errors.New("display state can only be changed in edit mode (run `winsync mode edit` first)")
		printError(err.Error())
		return err
	}

	var mu sync.Mutex
	var actionErr error
	var id uuid.UUID
	svc.OnResult(func(r queue.Result) {
		mu.Lock()
		defer mu.Unlock()
		if r.ID == id {
			actionErr = r.Err
		}
	})

	svc.Start(ctx)

	mu.Lock()
	id = svc.Dispatch(a)
	mu.Unlock()

	flushCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := svc.Flush(flushCtx); err != nil {
		printError(fmt.Sprintf("%s did not finish: %v", a.Type(), err))
		return err
	}

	mu.Lock()
	err = actionErr
	mu.Unlock()

	info := svc.Value()
	if jsonOutput {
		result := map[string]interface{}{
			"action": a.Type(),
			"detail": a.Detail(),
			"window": info,
		}
		if err != nil {
			result["error"] = err.Error()
		}
		if encErr := printJSON(result); encErr != nil {
			return encErr
		}
		return err
	}

	if err != nil {
		var ce *windowinfo.ConfirmError
		if errors.As(err, &ce) {
			printError(fmt.Sprintf("%s %s was not confirmed (%s); window resynced", a.Type(), a.Detail(), ce.Status))
		} else {
			printError(fmt.Sprintf("%s %s failed: %v", a.Type(), a.Detail(), err))
		}
	} else {
		successColor.Printf("✓ %s %s\n", a.Type(), a.Detail())
	}
	output.PrintWindowInfo(os.Stdout, info)
	return err
}

// applyWindowConfig dispatches the config's window actions once per revision
func applyWindowConfig(svc *windowinfo.Service, c *config.Config) {
	rev := c.Revision()
	for _, a := range c.WindowActions() {
		if svc.DispatchOnce(rev+"/"+string(a.Type()), a) {
			logging.Info().Str("revision", rev).Str("action", string(a.Type())).Str("detail", a.Detail()).Msg("applying config")
		}
	}
}

func parseSizeArgs(args []string) (types.Vec2, error) {
	var size types.Vec2
	if len(args) == 1 {
		v, err := types.ParseVec2(args[0])
		if err != nil {
			return size, err
		}
		size = v
	} else {
		w, err := strconv.Atoi(args[0])
		if err != nil {
			return size, fmt.Errorf("invalid width %q: %w", args[0], err)
		}
		h, err := strconv.Atoi(args[1])
		if err != nil {
			return size, fmt.Errorf("invalid height %q: %w", args[1], err)
		}
		size = types.Vec2{w, h}
	}

	if size.W() < 0 || size.H() < 0 {
		return size, fmt.Errorf("size must not be negative: %s", size)
	}
	return size, nil
}

func statePath() string {
	if cfg != nil && cfg.Settings.StatePath != "" {
		return cfg.Settings.StatePath
	}
	return state.GetStatePath()
}

func journalPath() string {
	if cfg != nil && cfg.Settings.JournalPath != "" {
		return cfg.Settings.JournalPath
	}
	return journal.GetJournalPath()
}

func printJSON(data interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printError(msg string) {
	if noColor {
		fmt.Fprintln(os.Stderr, "Error:", msg)
	} else {
		errorColor.Fprint(os.Stderr, "✗ Error: ")
		fmt.Fprintln(os.Stderr, msg)
	}
}
