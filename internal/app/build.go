// Package app assembles the client's long-lived pieces from config:
// credential stores, API client, auth manager, transcript archive,
// capture and RTC backends. Meeting sessions are created per join on
// top of a BuildResult.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/voxmeet/voxmeet/internal/api"
	"github.com/voxmeet/voxmeet/internal/archive"
	"github.com/voxmeet/voxmeet/internal/auth"
	"github.com/voxmeet/voxmeet/internal/capture"
	"github.com/voxmeet/voxmeet/internal/config"
	"github.com/voxmeet/voxmeet/internal/credential"
	"github.com/voxmeet/voxmeet/internal/observability"
	"github.com/voxmeet/voxmeet/internal/rtc"
	"github.com/voxmeet/voxmeet/internal/transcript"
)

type BuildResult struct {
	Config  config.Config
	API     *api.Client
	Auth    *auth.Manager
	Archive archive.Store
	RTC     rtc.Provider
	Capture capture.Capture
	Metrics *observability.Metrics

	// WSBaseURL is resolved: configured value, or derived from the API
	// base URL.
	WSBaseURL string

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	wsBase := cfg.WSBaseURL
	if wsBase == "" {
		derived, err := transcript.DeriveWSBase(cfg.APIBaseURL)
		if err != nil {
			return nil, fmt.Errorf("derive websocket base url: %w", err)
		}
		wsBase = derived
	}

	store, err := archive.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("archive store init failed: %w", err)
	}

	holder := credential.NewHolder()
	client := api.New(cfg.APIBaseURL, cfg.RequestTimeout, holder, metrics)

	durable := credential.NewFileStore(cfg.StateDir)
	cookie := credential.NewCookieStore(cfg.StateDir, cfg.CookieTTL)
	authManager := auth.NewManager(client, holder, durable, cookie, nil)

	cleanup := func() error {
		var errs []string
		if err := store.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:    cfg,
		API:       client,
		Auth:      authManager,
		Archive:   store,
		RTC:       rtc.NewMockProvider(),
		Capture:   capture.NewFFmpeg(cfg.CaptureBinary, cfg.CaptureDevice),
		Metrics:   metrics,
		WSBaseURL: wsBase,
		Cleanup:   cleanup,
	}, nil
}
