// Package main provides the donor-service binary entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/donor-service/internal/auth"
	"github.com/spec-kit/donor-service/internal/config"
	"github.com/spec-kit/donor-service/internal/domain"
	"github.com/spec-kit/donor-service/internal/observability"
	"github.com/spec-kit/donor-service/internal/persistence"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "donor-service",
		Short:         "Donor and organization management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		migrateCmd(),
		tokenCmd(),
		hashPasswordCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "donor-service %s\n", Version)
			},
		},
	)
	return cmd
}

// loadConfig treats a missing signing secret as fatal, like every other
// invalid configuration.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingJWTSecret) {
			log.Fatalf("refusing to start: %v", err)
		}
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func newTokenManager(cfg config.AuthConfig) (*auth.TokenManager, error) {
	keys := auth.KeyConfig{
		Active: auth.SigningKey{ID: cfg.JWTKeyID, Secret: []byte(cfg.JWTSecret)},
	}
	ids := make([]string, 0, len(cfg.PreviousKeys))
	for id := range cfg.PreviousKeys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		keys.Previous = append(keys.Previous, auth.SigningKey{ID: id, Secret: []byte(cfg.PreviousKeys[id])})
	}
	return auth.NewTokenManager(keys, cfg.TokenTTL())
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			logger, err := observability.NewLogger(cfg.Logger)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
			if err != nil {
				return err
			}
			defer pg.Close()
			return persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), logger)
		},
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Credential diagnostics",
	}

	var (
		id    int64
		email string
		role  string
	)
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed credential with the configured active key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := domain.ParseRole(role)
			if err != nil {
				return err
			}
			tm, err := newTokenManager(loadConfig().Auth)
			if err != nil {
				return err
			}
			token, expires, err := tm.Issue(auth.Identity{ID: id, Email: email, Role: parsed})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.Format(time.RFC3339))
			return nil
		},
	}
	issue.Flags().Int64Var(&id, "id", 0, "Subject id")
	issue.Flags().StringVar(&email, "email", "", "Subject email")
	issue.Flags().StringVar(&role, "role", string(domain.RoleDonor), "Role (DONOR, MANAGER, ADMIN, SUPERADMIN)")
	_ = issue.MarkFlagRequired("id")
	_ = issue.MarkFlagRequired("email")

	verify := &cobra.Command{
		Use:   "verify TOKEN",
		Short: "Verify a credential and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tm, err := newTokenManager(loadConfig().Auth)
			if err != nil {
				return err
			}
			claims, err := tm.Verify(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", auth.FailureReason(err), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "id=%d email=%s role=%s expires=%s\n",
				claims.UserID, claims.Email, claims.Role, claims.ExpiresAt.Time.Format(time.RFC3339))
			return nil
		},
	}

	cmd.AddCommand(issue, verify)
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password [PASSWORD]",
		Short: "Print a bcrypt hash; reads the password from stdin when no argument is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = strings.TrimRight(string(raw), "\r\n")
			}
			if password == "" {
				return errors.New("password must not be empty")
			}
			hash, err := auth.HashPassword(password, cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}
