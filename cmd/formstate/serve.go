package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	actionscomp "github.com/dwellio/go-formstate/components/actions"
	formactions "github.com/dwellio/go-formstate/pkg/actions"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the form actions over HTTP",
		Long: `serve exposes every form action as POST {base-path}/api/actions/{action}
backed by an in-memory store. Requests identify the user with an HS256 bearer
token whose subject is the user id; FORMSTATE_JWT_SECRET holds the key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := a.v.GetString("jwt-secret")
			if strings.TrimSpace(secret) == "" {
				return errors.New("FORMSTATE_JWT_SECRET (or --jwt-secret) is required for bearer auth")
			}

			handler, err := a.newRouter(secret, time.Now)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			addr := a.v.GetString("addr")
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			a.logger.Info("serving form actions",
				slog.String("addr", addr),
				slog.String("path", actionscomp.MountPath(a.v.GetString("base-path"))),
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().String("base-path", "/", "path the actions endpoint is mounted under")
	for _, name := range []string{"addr", "base-path"} {
		_ = a.v.BindPFlag(name, cmd.Flags().Lookup(name))
	}
	return cmd
}

func (a *app) newRouter(secret string, now func() time.Time) (http.Handler, error) {
	svc := formactions.NewService(
		formactions.NewMemoryStore(now),
		formactions.WithLogger(a.logger),
		formactions.WithClock(now),
		formactions.WithMaxDepth(a.v.GetInt("depth")),
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	component := actionscomp.New(svc,
		actionscomp.WithLogger(a.logger),
		actionscomp.WithUserFunc(bearerUser(secret)),
	)
	if _, err := component.RegisterRoutes(router, a.v.GetString("base-path")); err != nil {
		return nil, err
	}
	return router, nil
}

// bearerUser resolves the acting user from an HS256 bearer token. Requests
// without an Authorization header are anonymous.
func bearerUser(secret string) actionscomp.UserFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return func(r *http.Request) (string, error) {
		authz := strings.TrimSpace(r.Header.Get("Authorization"))
		if authz == "" {
			return "", nil
		}
		token, ok := bearerToken(authz)
		if !ok {
			return "", unauthorized(errors.New("malformed authorization header"))
		}

		claims := &jwt.RegisteredClaims{}
		parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil {
			return "", unauthorized(err)
		}
		if !parsed.Valid {
			return "", unauthorized(errors.New("invalid token"))
		}
		if claims.Subject == "" {
			return "", unauthorized(errors.New("subject claim required"))
		}
		return claims.Subject, nil
	}
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(err error) error {
	return actionscomp.StatusError{Code: http.StatusUnauthorized, Err: err}
}

// signToken mints an HS256 token for subject.
func signToken(secret, subject string, now time.Time, ttl time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("jwt secret not configured")
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject required")
	}
	claims := jwt.RegisteredClaims{
		Subject:  subject,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (a *app) tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for serve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := signToken(a.v.GetString("jwt-secret"), subject, time.Now(), ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "user id placed in the subject claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime (0 for no expiry)")
	return cmd
}
