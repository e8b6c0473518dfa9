// Package app wires configuration, the LLM client, the persona set, the
// stores, and the HTTP server together.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"roomcraft/internal/config"
	"roomcraft/internal/llmclient"
	"roomcraft/internal/persona"
	"roomcraft/internal/repository/artifact"
	"roomcraft/internal/repository/savedproject"
	"roomcraft/internal/server"
	"roomcraft/internal/workflow"
)

type App struct {
	server   *server.Server
	projects *savedproject.Store
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	llm, err := newLLMClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	personas := workflow.Personas{
		Analyst:        persona.NewAnalyst(llm),
		Curator:        persona.NewCurator(llm),
		Supervisor:     persona.NewSupervisor(llm),
		Designer:       persona.NewDesigner(llm),
		ArtDirector:    persona.NewArtDirector(llm),
		ProjectManager: persona.NewProjectManager(llm),
	}

	projects, err := newProjectStore(cfg)
	if err != nil {
		return nil, err
	}
	artifacts := newArtifactStore(cfg)

	handlers := server.NewHandlers(server.NewRegistry(personas), projects, artifacts)
	srv := server.New(cfg.Port, server.Routes(handlers))

	return &App{server: srv, projects: projects}, nil
}

func newLLMClient(ctx context.Context, cfg *config.Config) (llmclient.Client, error) {
	gemini, err := llmclient.NewGemini(ctx, llmclient.GeminiConfig{
		APIKey:     cfg.LLM.APIKey,
		TextModel:  cfg.LLM.TextModel,
		ImageModel: cfg.LLM.ImageModel,
		Timeout:    cfg.LLM.Timeout,
		Retries:    cfg.LLM.Retries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
	}
	cached, err := llmclient.WithCache(gemini, cfg.LLM.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize response cache: %w", err)
	}
	return cached, nil
}

func newProjectStore(cfg *config.Config) (*savedproject.Store, error) {
	var backend savedproject.Backend
	switch cfg.Store.Backend {
	case "postgres":
		pg, err := savedproject.NewPostgresBackend(cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		backend = pg
	case "sqlite":
		lite, err := savedproject.NewSQLiteBackend(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		backend = lite
	default:
		backend = savedproject.NewFileBackend(cfg.Store.Path, cfg.Store.MaxBytes)
	}
	log.Printf("project store: %s", cfg.Store.Backend)

	retention := time.Duration(cfg.Store.RetentionDays) * 24 * time.Hour
	if retention <= 0 {
		retention = savedproject.DefaultRetention
	}
	return savedproject.New(backend, savedproject.WithRetention(retention)), nil
}

func newArtifactStore(cfg *config.Config) artifact.Store {
	if !cfg.Artifact.Enabled {
		log.Printf("artifact store: in-memory")
		return artifact.NewMemoryStore()
	}
	s3, err := artifact.NewS3Store(artifact.S3Config{
		Endpoint:  cfg.Artifact.Endpoint,
		Region:    cfg.Artifact.Region,
		AccessKey: cfg.Artifact.AccessKey,
		SecretKey: cfg.Artifact.SecretKey,
		Bucket:    cfg.Artifact.Bucket,
		UseSSL:    cfg.Artifact.UseSSL,
	})
	if err != nil {
		log.Printf("artifact store: s3 init failed, falling back to in-memory: %v", err)
		return artifact.NewMemoryStore()
	}
	log.Printf("artifact store: s3 bucket=%s endpoint=%s", cfg.Artifact.Bucket, cfg.Artifact.Endpoint)
	return s3
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if cerr := a.projects.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
