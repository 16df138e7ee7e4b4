// Package main provides the liferpg binary: the account-setup web server and
// a few operator commands against its database.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Daltraxx/life-rpg-sub000/internal/availability"
	"github.com/Daltraxx/life-rpg-sub000/internal/config"
	"github.com/Daltraxx/life-rpg-sub000/internal/game"
	"github.com/Daltraxx/life-rpg-sub000/internal/profile"
	"github.com/Daltraxx/life-rpg-sub000/internal/session"
	"github.com/Daltraxx/life-rpg-sub000/internal/storage"
	"github.com/Daltraxx/life-rpg-sub000/internal/web"
)

const (
	Version = "0.1.0"
	appName = "liferpg"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cfg, cfgErr := config.Load()

	cmd := &cobra.Command{
		Use:          appName,
		Short:        "Life RPG account setup server",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return cfgErr
			}
			level, err := config.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the setup web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runServer(cmd.Context(), cfg)
		},
	}
	serve.Flags().StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	serve.Flags().StringVar(&cfg.SeedPath, "seed", cfg.SeedPath, "YAML seed with starting attributes and quests")
	serve.Flags().DurationVar(&cfg.NameDelay, "name-delay", cfg.NameDelay, "Debounce for tag availability checks")
	serve.Flags().DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "Idle time before a setup session is dropped")
	serve.Flags().StringVar(&cfg.UserHeader, "user-header", cfg.UserHeader, "Request header carrying the signed-in user id")
	cmd.AddCommand(serve)

	cmd.AddCommand(&cobra.Command{
		Use:   "check-name <tag>",
		Short: "Report whether a tag is already taken",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), cfg, func(st *storage.Store) error {
				return checkName(cmd.Context(), st, args[0], cmd.OutOrStdout())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "register [tag]",
		Short: "Create a user and print its id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := ""
			if len(args) == 1 {
				n, err := game.CheckName("tag", args[0], game.MaxTagLen)
				if err != nil {
					return err
				}
				tag = n
			}
			return withStore(cmd.Context(), cfg, func(st *storage.Store) error {
				id := uuid.NewString()
				if err := st.EnsureUser(cmd.Context(), id, tag); err != nil {
					if errors.Is(profile.Classify(err), profile.ErrDuplicate) {
						return fmt.Errorf("tag %q is already taken", tag)
					}
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	return cmd
}

func withStore(ctx context.Context, cfg config.Config, fn func(*storage.Store) error) error {
	st, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// checkName runs a single availability check through the same checker the
// web page uses.
func checkName(ctx context.Context, st *storage.Store, tag string, out io.Writer) error {
	done := make(chan availability.Result, 1)
	c := availability.NewChecker(st.NameExists, availability.Options{
		OnResult: func(r availability.Result) {
			if r.Status != availability.StatusPending {
				select {
				case done <- r:
				default:
				}
			}
		},
	})
	defer c.Close()

	c.Check(tag)
	select {
	case r := <-done:
		if r.Err != nil {
			return r.Err
		}
		fmt.Fprintf(out, "%s: %s\n", tag, r.Status)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func runServer(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := slog.Default()

	seed := game.DefaultSeed()
	if cfg.SeedPath != "" {
		s, err := game.LoadSeed(cfg.SeedPath)
		if err != nil {
			return fmt.Errorf("load seed: %w", err)
		}
		seed = s
	}
	// Fail fast on a seed that cannot build a setup.
	if _, err := game.NewSetup(seed, logger); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	st, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	sessions := session.NewMemoryStore[*web.SetupSession]()
	go web.SweepSessions(ctx, sessions, cfg.SessionTTL, logger)

	srv := &web.Server{
		Store:      sessions,
		Directory:  st,
		Submitter:  profile.NewSubmitter(st, logger),
		Seed:       seed,
		Tmpl:       tmpl,
		Logger:     logger,
		NameDelay:  cfg.NameDelay,
		UserHeader: cfg.UserHeader,
	}
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "db", cfg.DBPath, "version", Version)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
