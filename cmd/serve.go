package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodgram/auth"
	"foodgram/controllers"
	"foodgram/database"
	grpcserver "foodgram/grpc_server"
	"foodgram/registry"
	"foodgram/repositories"
	"foodgram/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the gRPC health endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		return serve(ctx, a)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, a *app) error {
	auth.SetSigningKey([]byte(a.cfg.JwtSecret))
	auth.SetTokenTTL(a.cfg.TokenTTL)

	db := a.db
	recipeRepo := repositories.NewRecipeRepository(db)
	ingredientRepo := repositories.NewIngredientRepository(db)
	tagRepo := repositories.NewTagRepository(db)
	memberRepo := repositories.NewMembershipRepository(db)
	subRepo := repositories.NewSubscriptionRepository(db)
	ping := func(ctx context.Context) error { return database.Ping(ctx, db) }

	container := controllers.NewContainer(controllers.Deps{
		Users:         a.users,
		Tags:          services.NewTagService(tagRepo),
		Ingredients:   services.NewIngredientService(ingredientRepo),
		Memberships:   services.NewMembershipService(recipeRepo, memberRepo, a.store),
		Subscriptions: services.NewSubscriptionService(a.userRepo, subRepo, recipeRepo, a.store),
		Admin:         services.NewAdminService(repositories.NewAdminRepository(db), memberRepo, a.cfg.Admin),
		Recipes: services.NewRecipeService(services.RecipeDeps{
			Recipes:     recipeRepo,
			Ingredients: ingredientRepo,
			Tags:        tagRepo,
			Members:     memberRepo,
			Subs:        subRepo,
			Users:       a.userRepo,
			Store:       a.store,
			Log:         a.log,
		}),
		Accounts:   a.userRepo,
		Store:      a.store,
		Pagination: a.cfg.Pagination,
		Ping:       ping,
		Log:        a.log,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.HTTPPort),
		Handler:           container,
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcServer := grpcserver.New(a.cfg.ServiceName, a.log)
	go grpcServer.Watch(ctx, 15*time.Second, ping)

	errCh := make(chan error, 2)
	go func() {
		a.log.Info("HTTP server listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()
	go func() {
		if err := grpcServer.Serve(a.cfg.GRPCPort); err != nil {
			errCh <- err
		}
	}()

	deregister := registerWithConsul(a)
	defer deregister()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("Shutting down")
	case runErr = <-errCh:
		a.log.Error("Server failed, shutting down", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	grpcServer.Stop()
	return runErr
}

// registerWithConsul announces the HTTP service when consul is enabled. The
// returned func removes the registration. A failed registration is logged,
// the service still runs.
func registerWithConsul(a *app) func() {
	if !a.cfg.Consul.Enabled {
		return func() {}
	}
	reg, err := registry.NewConsulRegistry(a.cfg.Consul, a.log.Sugar())
	if err != nil {
		a.log.Error("Consul unavailable, skipping registration", zap.Error(err))
		return func() {}
	}

	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	id := registry.InstanceID(a.cfg.ServiceName, host, a.cfg.HTTPPort)
	err = reg.Register(registry.Instance{
		ID:      id,
		Name:    a.cfg.ServiceName,
		Address: host,
		Port:    a.cfg.HTTPPort,
		Tags:    []string{"http", "api"},
		Check:   registry.HTTPCheck(id, host, a.cfg.HTTPPort, "/healthz", "10s", "1s"),
	})
	if err != nil {
		a.log.Error("Consul registration failed", zap.Error(err))
		return func() {}
	}
	return func() {
		if err := reg.Deregister(id); err != nil {
			a.log.Warn("Consul deregistration failed", zap.Error(err))
		}
	}
}
