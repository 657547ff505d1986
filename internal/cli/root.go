// Package cli командная строка nullupload: тариф посетителя, оплата,
// дневные счётчики инструментов и список ожидания.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lordkro/nullupload/internal/client"
	"github.com/Lordkro/nullupload/internal/config"
	"github.com/Lordkro/nullupload/internal/lib/cookie"
	"github.com/Lordkro/nullupload/internal/lib/sl"
	"github.com/Lordkro/nullupload/internal/storage"
	"github.com/Lordkro/nullupload/internal/storage/local"
	"github.com/Lordkro/nullupload/internal/storage/redisstore"
	"github.com/Lordkro/nullupload/internal/tier"
)

const envServer = "NULLUPLOAD_SERVER"

type options struct {
	server    string
	storePath string
	redisAddr string
	output    string
	offline   bool
	verbose   bool
}

// runner состояние одного запуска команды.
type runner struct {
	out    io.Writer
	errOut io.Writer
	opts   options

	log     *slog.Logger
	cfg     *config.Config
	store   *local.Store
	visitor string
	api     *client.Client
	session *tier.Session
	closers []func() error
}

// Execute запускает корневую команду.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &runner{out: os.Stdout, errOut: os.Stderr}
	defer r.close()
	return newRootCmd(r).ExecuteContext(ctx)
}

func newRootCmd(r *runner) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nullupload",
		Short: "nullupload CLI - tier, billing and daily usage limits",
		Long: `nullupload CLI checks the visitor's subscription tier, opens Stripe
checkout and the billing portal, and tracks the free tier's daily per-tool
usage limits in a local store.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return r.init(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return r.saveSession(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(r.out)
	rootCmd.SetErr(r.errOut)

	server := os.Getenv(envServer)
	if server == "" {
		server = client.DefaultBaseURL
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&r.opts.server, "server", server, "billing server URL (env "+envServer+")")
	flags.StringVar(&r.opts.storePath, "store", "", "local store file (default $USAGE_STORE_PATH or ~/.nullupload/store.json)")
	flags.StringVar(&r.opts.redisAddr, "redis", "", "keep usage counters in Redis at this address instead of the local store")
	flags.StringVarP(&r.opts.output, "output", "o", "table", "output format: table, json, yaml")
	flags.BoolVar(&r.opts.offline, "offline", false, "do not contact the billing server, assume the free tier")
	flags.BoolVarP(&r.opts.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(newStatusCmd(r))
	rootCmd.AddCommand(newCheckoutCmd(r))
	rootCmd.AddCommand(newPortalCmd(r))
	rootCmd.AddCommand(newUsageCmd(r))
	rootCmd.AddCommand(newWaitlistCmd(r))
	return rootCmd
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".nullupload", "store.json")
	}
	return filepath.Join(home, ".nullupload", "store.json")
}

func (r *runner) init(ctx context.Context) error {
	const op = "cli.init"
	switch r.opts.output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", r.opts.output)
	}

	level := slog.LevelWarn
	if r.opts.verbose {
		level = slog.LevelDebug
	}
	r.log = slog.New(slog.NewTextHandler(r.errOut, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	r.cfg = cfg

	storePath := r.opts.storePath
	if storePath == "" {
		storePath = cfg.Usage.StorePath
	}
	if storePath == "" {
		storePath = defaultStorePath()
	}
	store, err := local.New(storePath, r.log)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	r.store = store
	r.log.Debug("using local store", slog.String("path", store.Path()))

	if r.visitor, err = visitorID(ctx, store); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r.api, err = client.New(client.Config{
		BaseURL:    r.opts.server,
		Timeout:    30 * time.Second,
		CookieName: cfg.Session.CookieName,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	saved, _, err := store.Get(ctx, cookie.DefaultName)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	r.api.SetSessionCookie(string(saved))
	r.session = tier.New(r.log, r.api)
	return nil
}

// refreshTier спрашивает тариф у сервера; в режиме --offline посетитель остаётся free.
func (r *runner) refreshTier(ctx context.Context, sessionID string) {
	if r.opts.offline {
		return
	}
	r.session.Refresh(ctx, sessionID)
}

// usageKV хранилище счётчиков: Redis, если задан --redis, иначе локальный файл.
func (r *runner) usageKV(ctx context.Context) (storage.KeyValue, error) {
	if r.opts.redisAddr == "" {
		return r.store, nil
	}
	conn := r.cfg.RedisConnection
	conn.AddressRedis = r.opts.redisAddr
	if conn.DialTimeout == 0 {
		conn.DialTimeout = 5 * time.Second
	}
	if conn.TimeoutRedis == 0 {
		conn.TimeoutRedis = 5 * time.Second
	}
	db, err := redisstore.Connect(ctx, conn)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, db.Close)
	return redisstore.New(db, r.visitor, r.log), nil
}

// saveSession сохраняет cookie сессии, выданную сервером, для следующих
// запусков. Сброшенная сервером cookie удаляется из хранилища.
func (r *runner) saveSession(ctx context.Context) error {
	const op = "cli.saveSession"
	if r.api == nil || r.store == nil {
		return nil
	}
	value := r.api.SessionCookie()
	var err error
	if value == "" {
		err = r.store.Delete(ctx, cookie.DefaultName)
	} else {
		err = r.store.Set(ctx, cookie.DefaultName, []byte(value))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *runner) close() {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	r.closers = nil
	if err := errors.Join(errs...); err != nil && r.log != nil {
		r.log.Warn("failed to close resources", sl.Err(err))
	}
}
