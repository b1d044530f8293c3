package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/phoenix-club/membership-core/internal/application"
	apprepo "github.com/phoenix-club/membership-core/internal/application/repo"
	"github.com/phoenix-club/membership-core/internal/contact"
	contactrepo "github.com/phoenix-club/membership-core/internal/contact/repo"
	"github.com/phoenix-club/membership-core/internal/member"
	memberrepo "github.com/phoenix-club/membership-core/internal/member/repo"
	"github.com/phoenix-club/membership-core/internal/notify"
	"github.com/phoenix-club/membership-core/internal/router"
	"github.com/phoenix-club/membership-core/internal/schema"
	"github.com/phoenix-club/membership-core/internal/token"
	"github.com/phoenix-club/membership-core/pkg/database"
	"github.com/phoenix-club/membership-core/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting membership-core")

	cfg := database.ConfigFromEnv()
	sqlDB, err := database.Connect(cfg)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	sqlxDB := sqlx.NewDb(sqlDB, "postgres")
	defer sqlxDB.Close()

	// Reconcile the schema once, before any handler sees the pool. A
	// failure here is fatal: the process must not serve traffic against
	// an unreconciled schema.
	recCtx, recCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := schema.NewReconciler(sqlxDB, sugar).Reconcile(recCtx, schema.Default()); err != nil {
		recCancel()
		sugar.Fatalf("schema reconciliation failed: %v", err)
	}
	recCancel()
	sugar.Info("schema reconciled")

	tokens, err := token.NewIssuer(token.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("token issuer: %v", err)
	}

	mailer := notify.NewMailer(notify.MailerConfigFromEnv())
	webhook := notify.DiscordWebhookFromEnv()

	loginSvc := member.NewService(memberrepo.NewMemberRepo(sqlxDB), mailer, tokens, member.ConfigFromEnv(), sugar)
	appSvc := application.NewService(apprepo.NewApplicationRepo(sqlxDB), webhook, sugar)

	handler := router.RegisterRoutes(sugar, router.Handlers{
		Member:      member.NewHandler(loginSvc, sugar),
		Application: application.NewHandler(appSvc, sugar),
		Contact:     contact.NewHandler(contactrepo.NewContactRepo(sqlxDB), sugar),
	})

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8431"
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	sugar.Infow("service is running", "addr", addr)

	<-ctx.Done()

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	if err := sqlDB.PingContext(doneCtx); err != nil {
		sugar.Warnf("db ping on shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
