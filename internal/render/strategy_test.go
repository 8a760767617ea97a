package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/catalogapp/catalog-server/internal/config"
)

func TestResolveStrategy(t *testing.T) {
	tests := []struct {
		env       string
		inProcess bool
		deferred  bool
		want      Strategy
	}{
		{config.EnvDevelopment, true, false, StrategyDevProxy},
		{config.EnvDevelopment, false, false, StrategyDevProxy},
		{config.EnvProduction, true, false, StrategyInProcess},
		{config.EnvStaging, true, false, StrategyInProcess},
		{config.EnvProduction, false, false, StrategyFetch},
		{config.EnvProduction, true, true, StrategyDeferred},
		{config.EnvDevelopment, false, true, StrategyDeferred},
	}

	for _, tt := range tests {
		got := ResolveStrategy(tt.env, tt.inProcess, tt.deferred)
		assert.Equal(t, tt.want, got, "env=%s inProcess=%v deferred=%v", tt.env, tt.inProcess, tt.deferred)
	}
}

func TestStrategy_String(t *testing.T) {
	assert.Equal(t, "dev-proxy", StrategyDevProxy.String())
	assert.Equal(t, "in-process", StrategyInProcess.String())
	assert.Equal(t, "fetch", StrategyFetch.String())
	assert.Equal(t, "deferred", StrategyDeferred.String())
	assert.Equal(t, "unknown", Strategy(42).String())
}
