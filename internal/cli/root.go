// Package cli implements hoactl, a terminal client for the HOA backend that
// shares the portal's session, guard and payment packages.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/hoaapi"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/middleware"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/models"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/session"
)

var ErrNotLoggedIn = errors.New("not logged in, run `hoactl login`")

// app carries the state shared by every command of one invocation.
type app struct {
	v *viper.Viper

	verbose bool

	api      *hoaapi.Client
	sessions *session.Manager
	store    *FileStore
	profile  string
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "hoactl",
		Short: "hoactl - HOA portal from the terminal",
		Long: `hoactl talks to the HOA REST backend with the same session and role
rules as the web portal. Log in once per profile; the token is kept in
~/.hoactl/session.yaml until logout or expiry.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.String("api-url", "", "HOA backend base URL (env HOA_API_URL)")
	pf.String("profile", "default", "Session profile name (env HOACTL_PROFILE)")
	pf.String("session-file", DefaultSessionPath(), "Session file path (env HOACTL_SESSION_FILE)")
	pf.Duration("timeout", 15*time.Second, "Backend request timeout")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")

	_ = a.v.BindPFlag("api_url", pf.Lookup("api-url"))
	_ = a.v.BindPFlag("profile", pf.Lookup("profile"))
	_ = a.v.BindPFlag("session_file", pf.Lookup("session-file"))
	_ = a.v.BindPFlag("timeout", pf.Lookup("timeout"))
	_ = a.v.BindEnv("api_url", "HOA_API_URL")
	_ = a.v.BindEnv("profile", "HOACTL_PROFILE")
	_ = a.v.BindEnv("session_file", "HOACTL_SESSION_FILE")

	rootCmd.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.registerCmd(),
		a.changePasswordCmd(),
		a.listCmd(),
		a.payCmd(),
		a.historyCmd(),
		a.receiptCmd(),
	)
	return rootCmd
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd := NewRootCmd()
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) setup() error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	baseURL := strings.TrimSpace(a.v.GetString("api_url"))
	if baseURL == "" {
		return errors.New("backend URL required: set --api-url or HOA_API_URL")
	}
	a.api = hoaapi.New(baseURL, hoaapi.Options{Timeout: a.v.GetDuration("timeout")})
	a.store = NewFileStore(a.v.GetString("session_file"))
	a.sessions = session.NewManager(a.store, 0)
	a.profile = a.v.GetString("profile")
	return nil
}

// requireSession is the terminal counterpart of middleware.RequireSession:
// missing, expired and wrong-role sessions all give ErrNotLoggedIn.
func (a *app) requireSession(ctx context.Context, roles ...models.Role) (models.Session, error) {
	s, err := a.sessions.Get(ctx, a.profile)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return models.Session{}, ErrNotLoggedIn
		}
		return models.Session{}, err
	}
	if !middleware.Allowed(s.Role, roles) {
		return models.Session{}, ErrNotLoggedIn
	}
	return s, nil
}

// upstream turns a backend failure into a user-facing error. A rejected token
// ends the local session.
func (a *app) upstream(ctx context.Context, err error, fallback string) error {
	if hoaapi.IsUnauthorized(err) {
		_ = a.sessions.Logout(ctx, a.profile)
		return ErrNotLoggedIn
	}
	return errors.New(hoaapi.UserMessage(err, fallback))
}

func prompt(in io.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	var line strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			line.WriteByte(buf[0])
		}
		if err != nil {
			if errors.Is(err, io.EOF) && line.Len() > 0 {
				break
			}
			return "", err
		}
	}
	return strings.TrimSpace(strings.TrimSuffix(line.String(), "\r")), nil
}

// promptSecret reads a line without echo when in is a terminal and falls
// back to prompt otherwise.
func promptSecret(in io.Reader, out io.Writer, label string) (string, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return prompt(in, out, label)
	}
	fmt.Fprint(out, label)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
