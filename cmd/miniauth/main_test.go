package main

import (
	"context"
	"testing"
	"time"

	"github.com/brizzai/miniauth/internal/auth/session"
	"github.com/brizzai/miniauth/internal/config"
	"github.com/brizzai/miniauth/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 0, Metrics: true},
		Provider: config.ProviderConfig{Name: config.ProviderWeChat, AppID: "wx-app", AppSecret: "wx-secret", Timeout: time.Second},
		Token:    config.TokenConfig{Secret: "secret", ExpiresIn: "7d"},
		Store:    config.StoreConfig{Driver: config.StoreDriverMemory},
	}
}

func TestNewApp(t *testing.T) {
	var (
		srv    *server.Server
		issuer *session.Issuer
	)
	app := newApp(testConfig(), &srv, &issuer)
	require.NoError(t, app.Err())
	require.NotNil(t, srv)
	require.NotNil(t, issuer)
	assert.NoError(t, issuer.Ready())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx))
	require.NoError(t, app.Stop(ctx))
}

func TestNewApp_MissingSecretStillStarts(t *testing.T) {
	cfg := testConfig()
	cfg.Token.Secret = ""

	var issuer *session.Issuer
	app := newApp(cfg, &issuer)
	require.NoError(t, app.Err())
	assert.Error(t, issuer.Ready())
}

func TestNewApp_InvalidProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Provider.Name = "myspace"

	var srv *server.Server
	app := newApp(cfg, &srv)
	assert.Error(t, app.Err())
}
