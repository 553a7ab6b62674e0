package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jakechorley/residency-scheduler/internal/config"
	"github.com/jakechorley/residency-scheduler/pkg/clients/scheduleclient"
	"github.com/jakechorley/residency-scheduler/pkg/core/access"
	"github.com/jakechorley/residency-scheduler/pkg/core/conflicts"
	"github.com/jakechorley/residency-scheduler/pkg/core/swaps"
	"github.com/jakechorley/residency-scheduler/pkg/notify"
	"github.com/jakechorley/residency-scheduler/pkg/utils"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Env      string
	Cfg      *config.Config
	Client   *scheduleclient.Client
	Identity access.Identity
	Notifier notify.Notifier
	Logger   *zap.Logger
	Ctx      context.Context

	// Google OAuth, loaded on first use by GoogleAuth
	OAuthCfg   *config.OAuthClientConfig
	OAuthToken *oauth2.Token
}

// GoogleAuth loads the OAuth client config and a token for the Google clients,
// running the browser flow if no valid token is stored for the environment
func (a *AppContext) GoogleAuth() (*config.OAuthClientConfig, *oauth2.Token, error) {
	if a.OAuthToken != nil {
		return a.OAuthCfg, a.OAuthToken, nil
	}

	a.Logger.Info("Loading OAuth client configuration")
	oauthCfg, err := config.LoadOAuthClientWithEnv(a.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build OAuth config: %w", err)
	}

	token, err := utils.GetTokenWithFlow(a.Ctx, oauthConfig, a.Env, a.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get OAuth token: %w", err)
	}

	a.OAuthCfg = oauthCfg
	a.OAuthToken = token
	return oauthCfg, token, nil
}

// SwapOptions returns the executor options from config
func (a *AppContext) SwapOptions() swaps.Options {
	return swaps.Options{RequireValidation: a.Cfg.Swaps.RequireValidation}
}

// BatchOptions returns the resolver options from config
func (a *AppContext) BatchOptions() conflicts.Options {
	return conflicts.Options{
		ChunkSize:      a.Cfg.Batch.ChunkSize,
		MaxConcurrency: a.Cfg.Batch.MaxConcurrency,
	}
}
