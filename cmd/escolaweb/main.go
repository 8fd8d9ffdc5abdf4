package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/escolaweb/escolaweb/internal/alunos"
	"github.com/escolaweb/escolaweb/internal/app"
	"github.com/escolaweb/escolaweb/internal/atestados"
	"github.com/escolaweb/escolaweb/internal/aulas"
	"github.com/escolaweb/escolaweb/internal/auth"
	"github.com/escolaweb/escolaweb/internal/crud"
	"github.com/escolaweb/escolaweb/internal/dashboard"
	"github.com/escolaweb/escolaweb/internal/guard"
	"github.com/escolaweb/escolaweb/internal/notas"
	"github.com/escolaweb/escolaweb/internal/platform/cache"
	"github.com/escolaweb/escolaweb/internal/platform/db"
	"github.com/escolaweb/escolaweb/internal/precadastro"
	"github.com/escolaweb/escolaweb/internal/professores"
	"github.com/escolaweb/escolaweb/internal/shared"
	"github.com/escolaweb/escolaweb/internal/uploads"
	"github.com/escolaweb/escolaweb/internal/view"
	"github.com/escolaweb/escolaweb/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "escola_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	guardMiddleware := guard.Middleware{Logger: logger, Templates: templates, CSRF: csrfManager}
	reviewRecorder := shared.NewReviewRecorder(dbpool, logger)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, logger, auth.Profile{Nome: cfg.AdminNome, Email: cfg.AdminEmail})
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	alunosRepo := alunos.NewRepository(dbpool)
	alunosService := alunos.NewService(alunosRepo)
	alunosHandler := alunos.NewHandler(logger, alunosService, templates, csrfManager, guardMiddleware)

	professoresRepo := professores.NewRepository(dbpool)
	professoresService := professores.NewService(professoresRepo)
	professoresHandler := professores.NewHandler(logger, professoresService, templates, csrfManager, guardMiddleware)

	aulasRepo := aulas.NewRepository(dbpool)
	aulasService := aulas.NewService(aulasRepo, alunosService)
	aulasHandler := aulas.NewHandler(logger, aulasService, templates, csrfManager, guardMiddleware)

	notasRepo := notas.NewRepository(dbpool)
	notasService := notas.NewService(notasRepo)
	notasHandler := notas.NewHandler(logger, notasService, templates, csrfManager, guardMiddleware)

	uploadStore := uploads.NewStore(cfg.UploadDir, cfg.UploadMaxSize)

	atestadosRepo := atestados.NewRepository(dbpool)
	atestadosService := atestados.NewService(logger, atestadosRepo, reviewRecorder, aulasService)
	atestadosHandler := atestados.NewHandler(logger, atestadosService, uploadStore, templates, csrfManager, guardMiddleware, cfg.UploadMaxSize)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	preCadastroRepo := precadastro.NewRepository(dbpool)
	preCadastroService := precadastro.NewService(logger, preCadastroRepo, reviewRecorder, jobClient)
	preCadastroHandler := precadastro.NewHandler(logger, preCadastroService, templates, csrfManager, guardMiddleware)

	dashboardService := dashboard.NewService(logger, dashboard.NewRepository(dbpool), redisClient, time.Minute)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, templates, csrfManager, guardMiddleware)

	crudDispatcher, err := crud.NewDispatcher(crud.SchoolRegistry(dbpool))
	if err != nil {
		logger.Error("init crud dispatcher", slog.Any("error", err))
		os.Exit(1)
	}
	crudHandler := crud.NewHandler(logger, crudDispatcher)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Templates:          templates,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		Guard:              guardMiddleware,
		AuthHandler:        authHandler,
		DashboardHandler:   dashboardHandler,
		AlunosHandler:      alunosHandler,
		ProfessoresHandler: professoresHandler,
		AulasHandler:       aulasHandler,
		NotasHandler:       notasHandler,
		AtestadosHandler:   atestadosHandler,
		PreCadastroHandler: preCadastroHandler,
		CRUDHandler:        crudHandler,
		JobHandler:         jobHandler,
		AttachmentOwners:   atestadosService,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
