package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	gfirestore "cloud.google.com/go/firestore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"google.golang.org/api/option"

	httpctx "github.com/dtroode/noteboard/internal/api/http/context"
	"github.com/dtroode/noteboard/internal/api/http/handler"
	"github.com/dtroode/noteboard/internal/api/http/router"
	httpServer "github.com/dtroode/noteboard/internal/api/http/server"
	"github.com/dtroode/noteboard/internal/api/http/view"
	"github.com/dtroode/noteboard/internal/board"
	"github.com/dtroode/noteboard/internal/config"
	"github.com/dtroode/noteboard/internal/logger"
	"github.com/dtroode/noteboard/internal/model"
	repo "github.com/dtroode/noteboard/internal/repository/memory"
	"github.com/dtroode/noteboard/internal/repository/postgres"
	"github.com/dtroode/noteboard/internal/server"
	"github.com/dtroode/noteboard/internal/service"
	storage "github.com/dtroode/noteboard/internal/storage/minio"
	"github.com/dtroode/noteboard/internal/store/firestore"
	"github.com/dtroode/noteboard/internal/store/memory"
	"github.com/dtroode/noteboard/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

const pictureProbeTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	auth, closeAuth := newAuthBackend(ctx, cfg, logger)
	defer closeAuth()

	docs, closeDocs := newDocumentStore(ctx, cfg, logger)
	defer closeDocs()

	var pictureStorage model.Storage
	if cfg.Storage.Enabled {
		minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
			Secure: cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Fatal("failed to create minio client", "error", err)
		}
		storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
		if err != nil {
			logger.Fatal("failed to initialize storage client", "error", err)
		}
		pictureStorage = storageClient
	}
	pictureService := service.NewPicture(pictureStorage, service.ProbeClient(pictureProbeTimeout), cfg.PublicURL, logger)

	tmpl, err := view.NewTemplates()
	if err != nil {
		logger.Fatal("failed to load templates", "error", err)
	}

	registry := board.NewRegistry()
	ctxMgr := httpctx.NewManager()

	r := router.New(registry, auth, docs, pictureService, tmpl, ctxMgr, handler.Options{
		Board: board.Options{
			MessageLimit: cfg.Board.MessageLimit,
			NoticeTTL:    cfg.Board.NoticeTTL,
			Placeholder:  cfg.Board.PlaceholderPicture,
		},
		MaxMessageLimit: cfg.Board.MaxMessageLimit,
		SecureCookies:   cfg.HTTP.SecureCookies,
	}, logger)

	webServer := httpServer.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(webServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down",
		"open_boards", registry.Len())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := webServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", webServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

func newAuthBackend(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*service.Auth, func()) {
	var (
		users         model.UserStore
		sessions      model.AuthSessionStore
		verifications model.VerificationStore
		closeFn       = func() {}
	)

	switch cfg.Auth.Driver {
	case "postgres":
		db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
		if err != nil {
			logger.Fatal("failed to initialize storage", "error", err)
		}
		users = postgres.NewUserRepository(db)
		sessions = postgres.NewSessionRepository(db)
		verifications = postgres.NewVerificationRepository(db)
		closeFn = func() { db.Close() }
	case "memory":
		logger.Warn("accounts are kept in memory and lost on restart")
		users = repo.NewUserRepository()
		sessions = repo.NewSessionRepository()
		verifications = repo.NewVerificationRepository()
	default:
		logger.Fatal("unknown auth driver", "driver", cfg.Auth.Driver)
	}

	auth := service.NewAuth(
		users,
		sessions,
		verifications,
		token.NewJWT(cfg.JWT.Secret),
		service.NewLogMailer(cfg.Mail.From, logger),
		service.AuthOptions{
			AllowSignup: cfg.Auth.AllowSignup,
			BcryptCost:  cfg.Auth.BcryptCost,
			PublicURL:   cfg.PublicURL,
		},
		logger,
	)
	return auth, closeFn
}

func newDocumentStore(ctx context.Context, cfg *config.Config, logger *logger.Logger) (model.DocumentStore, func()) {
	switch cfg.Documents.Driver {
	case "firestore":
		var opts []option.ClientOption
		if cfg.Firestore.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Firestore.CredentialsFile))
		}
		client, err := gfirestore.NewClient(ctx, cfg.Firestore.ProjectID, opts...)
		if err != nil {
			logger.Fatal("failed to create firestore client", "error", err)
		}
		store := firestore.NewDocumentStore(client, firestore.Collections{
			Profiles: cfg.Firestore.ProfilesCollection,
			Messages: cfg.Firestore.MessagesCollection,
		}, logger)
		return store, func() { client.Close() }
	case "memory":
		logger.Warn("documents are kept in memory and lost on restart")
		return memory.NewDocumentStore(logger), func() {}
	default:
		logger.Fatal("unknown documents driver", "driver", cfg.Documents.Driver)
		return nil, nil
	}
}
