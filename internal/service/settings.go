package service

import (
	"context"
	"strings"
)

// AISettings is the configuration consulted before any remote call
type AISettings struct {
	Enabled bool
	APIKey  string
}

// Check returns the configuration error for s, if any
func (s AISettings) Check() error {
	if !s.Enabled {
		return ErrAIDisabled
	}
	if strings.TrimSpace(s.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// SettingsProvider supplies the current AI settings. Settings are read per
// request so a rotated key takes effect without a restart.
type SettingsProvider interface {
	CurrentSettings(ctx context.Context) (AISettings, error)
}

// SettingsFunc adapts a function to SettingsProvider
type SettingsFunc func(ctx context.Context) (AISettings, error)

func (f SettingsFunc) CurrentSettings(ctx context.Context) (AISettings, error) {
	return f(ctx)
}

// StaticSettings always returns the same settings
func StaticSettings(enabled bool, apiKey string) SettingsProvider {
	return SettingsFunc(func(context.Context) (AISettings, error) {
		return AISettings{Enabled: enabled, APIKey: apiKey}, nil
	})
}
