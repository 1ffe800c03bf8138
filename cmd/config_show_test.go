package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpkotak/giftbud/internal/config"
)

func TestRunConfigShow(t *testing.T) {
	out, _ := isolate(t)
	cfg := config.Default()
	cfg.APIKey = "gsk_supersecretkey"
	require.NoError(t, config.Save(cfg))

	require.NoError(t, runConfigShow(configShowCmd, nil))

	assert.Contains(t, out.String(), "Config file: "+config.Path())
	assert.Contains(t, out.String(), "provider: groq")
	assert.Contains(t, out.String(), "api_key: gsk_**************")
	assert.NotContains(t, out.String(), "supersecret")
}

func TestRunConfigShowWithoutConfig(t *testing.T) {
	isolate(t)

	err := runConfigShow(configShowCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giftbud setup")
}
