package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/hdnotes/api/internal/config"
	"github.com/hdnotes/api/internal/database"
	"github.com/hdnotes/api/internal/handlers"
	"github.com/hdnotes/api/internal/logger"
	"github.com/hdnotes/api/internal/mail"
	"github.com/hdnotes/api/internal/middleware"
	"github.com/hdnotes/api/internal/services/auth"
	"github.com/hdnotes/api/internal/services/google"
	"github.com/hdnotes/api/internal/services/otp"
	"github.com/hdnotes/api/internal/services/token"
	"github.com/hdnotes/api/internal/telemetry"
)

const serviceName = "hd-notes-api"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// OpenTelemetry tracing
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), serviceName, cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	if err := db.Migrate(context.Background()); err != nil {
		zapLogger.Fatal("failed_to_run_migrations", zap.Error(err))
	}
	zapLogger.Info("migrations_applied")

	// Redis for rate limiting
	redisLimiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisLimiter.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	// Repositories
	userRepo := database.NewUserRepository(db)
	noteRepo := database.NewNoteRepository(db)

	// Mail delivery for verification codes
	var mailer mail.Mailer
	if cfg.SMTPHost != "" {
		smtpMailer, err := mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.MailFrom,
		})
		if err != nil {
			zapLogger.Fatal("failed_to_configure_smtp_mailer", zap.Error(err))
		}
		mailer = smtpMailer
		zapLogger.Info("smtp_mailer_configured", zap.String("host", cfg.SMTPHost))
	} else {
		mailer = mail.NewLogMailer(zapLogger)
		zapLogger.Warn("smtp_not_configured_mail_will_be_logged")
	}

	// Services
	tokenService, err := token.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		zapLogger.Fatal("failed_to_create_token_service", zap.Error(err))
	}
	otpService := otp.NewService(userRepo, mailer, zapLogger)
	authService := auth.NewService(userRepo, tokenService, otpService, zapLogger)

	var authOpts []handlers.AuthHandlerOption
	if cfg.GoogleClientID != "" {
		jwks := google.NewJWKSManager(google.DefaultJWKSURL)
		authOpts = append(authOpts, handlers.WithGoogleVerifier(google.NewVerifier(jwks, cfg.GoogleClientID)))
		if cfg.GoogleClientSecret != "" {
			authOpts = append(authOpts, handlers.WithGoogleExchange(
				google.NewClient(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)))
		}
		zapLogger.Info("google_sign_in_enabled")
	} else {
		zapLogger.Warn("google_client_id_not_configured_credential_verification_disabled")
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, otpService, zapLogger, authOpts...)
	noteHandler := handlers.NewNoteHandler(noteRepo, zapLogger)
	healthChecker := handlers.NewHealthChecker(db, redisLimiter)

	rateLimitMW, err := middleware.RateLimit(redisLimiter, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Router
	r := mux.NewRouter()

	// Middleware (outermost first)
	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware(serviceName))
		zapLogger.Info("otel_middleware_enabled")
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	r.NotFoundHandler = handlers.NotFoundHandler()

	// Health endpoint stays outside rate limiting
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")

	authMW := middleware.Auth(userRepo, tokenService, zapLogger)

	// Auth routes
	authRouter := r.PathPrefix("/auth").Subrouter()

	publicAuthRouter := authRouter.PathPrefix("").Subrouter()
	publicAuthRouter.Use(rateLimitMW)
	authHandler.RegisterPublicRoutes(publicAuthRouter)

	protectedAuthRouter := authRouter.PathPrefix("").Subrouter()
	protectedAuthRouter.Use(rateLimitMW)
	protectedAuthRouter.Use(authMW)
	authHandler.RegisterProtectedRoutes(protectedAuthRouter)

	// Note routes require a verified account
	notesRouter := r.PathPrefix("/notes").Subrouter()
	notesRouter.Use(rateLimitMW)
	notesRouter.Use(authMW)
	notesRouter.Use(middleware.RequireVerified)
	noteHandler.RegisterRoutes(notesRouter)

	// Preflight requests are answered after the CORS middleware sets headers
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}
