package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"toolroom/internal/core/config"
	"toolroom/internal/core/container"
	"toolroom/internal/core/logger"
	"toolroom/internal/devserver/store"
	"toolroom/internal/filter"
	"toolroom/internal/menu"
	"toolroom/internal/session"
	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/roles"
)

type app struct {
	flags struct {
		apiURL  string
		timeout time.Duration
		verbose bool
	}

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	// cache replaces the session file, for tests.
	cache session.Cache
	// store replaces the database of tools import and seed, for tests.
	store store.Store

	log *zap.Logger
	c   *container.Container
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: bufio.NewReader(in), out: out, errOut: errOut}
}

// logLevel applies --verbose on top of the configured level.
func (a *app) logLevel(configured string) string {
	if a.flags.verbose {
		return "debug"
	}
	return configured
}

func (a *app) logger(level string) (*zap.Logger, error) {
	if a.log != nil {
		return a.log, nil
	}
	log, err := logger.NewLogger(a.logLevel(level))
	if err != nil {
		return nil, err
	}
	a.log = log
	return log, nil
}

func (a *app) clientConfig() (config.Client, error) {
	var cfg config.Client
	if err := config.ParseEnv(&cfg); err != nil {
		return config.Client{}, err
	}
	if a.flags.apiURL != "" {
		cfg.APIURL = a.flags.apiURL
	}
	cfg.Timeout = durationOr(a.flags.timeout, cfg.Timeout)
	if err := cfg.Validate(); err != nil {
		return config.Client{}, err
	}
	return cfg, nil
}

// container builds the client wiring once per invocation.
func (a *app) container() (*container.Container, error) {
	if a.c != nil {
		return a.c, nil
	}

	cfg, err := a.clientConfig()
	if err != nil {
		return nil, err
	}
	log, err := a.logger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	cache := a.cache
	if cache == nil {
		fileCache, err := container.SessionCache(cfg)
		if err != nil {
			return nil, err
		}
		log.Debug("using session file", zap.String("path", fileCache.Path()))
		cache = fileCache
	}

	c, err := container.NewAppContainer(cfg, log, cache)
	if err != nil {
		return nil, err
	}
	a.c = c
	return c, nil
}

// gate refuses commands that are not on the menu of the current role.
func (a *app) gate(cmd *cobra.Command) error {
	entry := cmd.Annotations[menuAnnotation]
	if entry == "" {
		return nil
	}

	c, err := a.container()
	if err != nil {
		return err
	}
	role, ok := c.Session.CurrentRole()
	if !ok {
		return custom_error.ErrNotAuthenticated
	}
	if !menu.Allowed(role, entry) {
		return custom_error.NewAuthorizationError("%s is not available to role %s", cmd.CommandPath(), role)
	}
	return nil
}

// role is the role of the current session, empty before login.
func (a *app) role() roles.Role {
	if a.c == nil {
		return ""
	}
	role, _ := a.c.Session.CurrentRole()
	return role
}

func (a *app) close() {
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// prompt reads one line from stdin when value was not given as a flag.
func (a *app) prompt(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(a.errOut, "%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

func menuEntry(entry string) map[string]string {
	return map[string]string{menuAnnotation: entry}
}

type filterFlags struct {
	search string
	date   string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.search, "search", "", "Case-insensitive text filter")
	cmd.Flags().StringVar(&f.date, "date", "", "Only entries from this day ("+filter.DateLayout+")")
}

func (f *filterFlags) query(loc *time.Location) (filter.Query, error) {
	date, err := filter.ParseDate(f.date, loc)
	if err != nil {
		return filter.Query{}, err
	}
	return filter.Query{Text: f.search, Date: date}, nil
}

func applyFilter[T any](items []T, f *filterFlags, fields filter.Fields[T], loc *time.Location) ([]T, error) {
	q, err := f.query(loc)
	if err != nil {
		return nil, err
	}
	return filter.Apply(items, q, fields, loc), nil
}
