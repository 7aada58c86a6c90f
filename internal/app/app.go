// Package app wires configuration, storage, clients, and services into the
// shared core used by cmd/academy-server.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/apollostem/academy/internal/auth"
	"github.com/apollostem/academy/internal/clients/classroom"
	"github.com/apollostem/academy/internal/clients/gemini"
	"github.com/apollostem/academy/internal/clients/googleoauth"
	"github.com/apollostem/academy/internal/common"
	"github.com/apollostem/academy/internal/interfaces"
	"github.com/apollostem/academy/internal/services/generation"
	syncsvc "github.com/apollostem/academy/internal/services/sync"
	"github.com/apollostem/academy/internal/services/tutor"
	"github.com/apollostem/academy/internal/storage/surrealdb"
)

// App holds all initialized services and clients.
type App struct {
	Config          *common.Config
	Logger          *common.Logger
	Codec           *auth.Codec
	Storage         interfaces.StorageManager
	OAuthClient     interfaces.OAuthClient
	ClassroomClient interfaces.ClassroomClient
	Gateway         interfaces.Gateway
	SyncService     interfaces.SyncService
	TutorService    interfaces.TutorService
	StartupTime     time.Time
}

// NewApp initializes all services, clients, and storage.
// configPath may be empty, in which case ACADEMY_CONFIG and a default
// location are consulted.
func NewApp(configPath string) (*App, error) {
	if configPath == "" {
		configPath = os.Getenv("ACADEMY_CONFIG")
	}
	if configPath == "" {
		configPath = "config/academy.toml"
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLogger(config.Logging.Level)

	storageManager, err := surrealdb.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return newApp(config, logger, storageManager)
}

// newApp finishes wiring on top of an initialized storage manager.
func newApp(config *common.Config, logger *common.Logger, storageManager interfaces.StorageManager) (*App, error) {
	codec := auth.NewCodec(config.Auth.JWTSecret, config.Auth.GetTokenExpiry())

	oauthClient := googleoauth.NewClient(
		config.Auth.Google.ClientID,
		config.Auth.Google.ClientSecret,
		googleoauth.WithLogger(logger),
	)

	classroomClient := classroom.NewClient(
		classroom.WithBaseURL(config.Clients.Classroom.BaseURL),
		classroom.WithRateLimit(config.Clients.Classroom.RateLimit),
		classroom.WithTimeout(config.Clients.Classroom.GetTimeout()),
		classroom.WithLogger(logger),
	)

	// Generation is optional: without a key the gateway serves fallbacks.
	var generativeClient interfaces.GenerativeClient
	if config.Clients.Gemini.APIKey != "" {
		client, err := gemini.NewClient(context.Background(), config.Clients.Gemini.APIKey,
			gemini.WithModel(config.Clients.Gemini.Model),
			gemini.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		generativeClient = client
	} else {
		logger.Warn().Msg("Gemini API key not configured, AI features will serve fallbacks")
	}
	gateway := generation.NewGateway(generativeClient, logger)

	syncService := syncsvc.NewService(
		storageManager.UserStore(),
		storageManager.ClassStore(),
		storageManager.TokenStore(),
		oauthClient,
		classroomClient,
		logger,
	)

	tutorService := tutor.NewService(gateway, logger)

	return &App{
		Config:          config,
		Logger:          logger,
		Codec:           codec,
		Storage:         storageManager,
		OAuthClient:     oauthClient,
		ClassroomClient: classroomClient,
		Gateway:         gateway,
		SyncService:     syncService,
		TutorService:    tutorService,
		StartupTime:     time.Now(),
	}, nil
}

// Close releases all resources.
func (a *App) Close() {
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Failed to close storage")
		}
	}
}
