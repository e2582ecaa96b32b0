package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/labdesk/labctl/internal/config"
	"github.com/labdesk/labctl/internal/logging"
	"github.com/labdesk/labctl/internal/release"
	"github.com/labdesk/labctl/internal/session"
	"github.com/labdesk/labctl/internal/storage"
	"github.com/labdesk/labctl/internal/tui"
	"github.com/labdesk/labctl/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// bareAnnotation marks commands that run without config, storage or a client.
const bareAnnotation = "labctl/bare"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	stop()
	if err != nil {
		a.reportError(err)
		os.Exit(1)
	}
}

// app is the state shared by every command of one invocation.
type app struct {
	in          io.Reader
	reader      *bufio.Reader
	out, errOut io.Writer

	configPath string
	apiURL     string
	dataDir    string
	backend    string
	logLevel   string
	jsonOut    bool
	releaseURL string

	cfg      *config.Config
	log      *zap.Logger
	store    storage.Storage
	sess     *session.Store
	client   *client.Client
	notifier *cliNotifier
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		in:         in,
		out:        out,
		errOut:     errOut,
		releaseURL: release.LatestURL,
		notifier:   newCLINotifier(errOut),
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "labctl",
		Short: "Reserve laboratories from the terminal",
		Long: `labctl talks to the laboratory reservation service.

Run without a subcommand to open the interactive client. The subcommands
cover the same operations for scripts and the admin console.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[bareAnnotation] != "" {
				return nil
			}
			return a.setup(cmd, !cmd.HasParent())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default $LABCTL_CONFIG or ~/.labctl/config.yaml)")
	pf.StringVar(&a.apiURL, "api-url", "", "API base URL")
	pf.StringVar(&a.dataDir, "data-dir", "", "directory for the session and logs")
	pf.StringVar(&a.backend, "storage", "", "session storage backend: file, badger or memory")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")
	pf.BoolVar(&a.jsonOut, "json", false, "print results as JSON")
	pf.StringVar(&a.releaseURL, "release-url", release.LatestURL, "endpoint reporting the latest release")
	_ = pf.MarkHidden("release-url")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newRegisterCmd(a),
		newLabsCmd(a),
		newSlotsCmd(a),
		newReserveCmd(a),
		newReservationsCmd(a),
		newMessagesCmd(a),
		newReportCmd(a),
		newUploadCmd(a),
		newAdminCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup resolves configuration and opens the session. Interactive runs log
// to a file because the terminal belongs to the UI.
func (a *app) setup(cmd *cobra.Command, interactive bool) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = a.apiURL
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = a.dataDir
	}
	if flags.Changed("storage") {
		cfg.Storage = a.backend
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logFile := cfg.LogFile
	if interactive {
		logFile = cfg.TUILogFile()
	}
	if a.log, err = logging.New(cfg.LogLevel, logFile); err != nil {
		return err
	}

	if a.store, err = storage.Open(cfg.Storage, cfg.DataDir); err != nil {
		return err
	}
	a.sess = session.New(a.store, a.log.Named("session"))
	return nil
}

// newClient builds the API client. The CLI has no login route to redirect
// to, so a 401 only clears the stored token.
func (a *app) newClient(opts ...client.Option) *client.Client {
	base := []client.Option{
		client.WithTimeout(a.cfg.Timeout),
		client.WithLogger(a.log.Named("client")),
	}
	a.client = client.New(a.cfg.APIURL, a.sess, append(base, opts...)...)
	return a.client
}

func (a *app) api() *client.Client {
	if a.client != nil {
		return a.client
	}
	return a.newClient(client.WithNotifier(a.notifier))
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
		a.client = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.log != nil {
			a.log.Warn("close storage", zap.Error(err))
		}
		a.store = nil
	}
	if a.log != nil {
		_ = a.log.Sync() //nolint:errcheck
	}
}

// requireLogin fails early when there is no stored token.
func (a *app) requireLogin() error {
	if !a.sess.LoggedIn() {
		return errNotLoggedIn
	}
	return nil
}

var errNotLoggedIn = errors.New("not logged in, run `labctl login` first")

// reportError prints err unless the client already showed it as a notice.
func (a *app) reportError(err error) {
	if a.notifier.shown() > 0 && isClientError(err) {
		return
	}
	fmt.Fprintln(a.errOut, errorStyle.Render("error:"), client.Message(err)) //nolint:errcheck
}

func isClientError(err error) bool {
	var bizErr *client.BusinessError
	var httpErr *client.HTTPError
	return errors.As(err, &bizErr) || errors.As(err, &httpErr) || client.IsNetwork(err)
}

func (a *app) runTUI(ctx context.Context) error {
	bridge := tui.NewBridge()
	c := a.newClient(
		client.WithNotifier(bridge),
		client.WithNavigator(bridge, a.cfg.RedirectDelay),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	changes, err := a.sess.Watch(ctx)
	if err != nil && !errors.Is(err, session.ErrNotWatchable) {
		a.log.Warn("session watch unavailable", zap.Error(err))
	}

	model := tui.NewApp(tui.Deps{
		Client:     c,
		Session:    a.sess,
		Bridge:     bridge,
		Logger:     a.log.Named("tui"),
		PageSize:   a.cfg.PageSize,
		Version:    version,
		ReleaseURL: a.releaseURL,
		Changes:    changes,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(p)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
