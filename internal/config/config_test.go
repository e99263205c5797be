package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8050, cfg.Port)
	assert.False(t, cfg.Debug)
	assert.Equal(t, OthersWeighted, cfg.OthersMean)
	assert.Equal(t, DriverFS, cfg.Source.Driver)
	assert.Equal(t, "./clean_data", cfg.Source.Dir)
	assert.Equal(t, "0.0.0.0:8050", cfg.Addr())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DEBUG", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a,http://b")
	t.Setenv("SOURCE_DRIVER", "s3")
	t.Setenv("SOURCE_S3_BUCKET", "surveys")
	t.Setenv("SOURCE_S3_PATH_STYLE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.CORSOrigins)
	assert.Equal(t, "surveys", cfg.Source.S3Bucket)
	assert.True(t, cfg.Source.S3PathStyle)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"driver":      {"SOURCE_DRIVER": "ftp"},
		"memory":      {"SOURCE_DRIVER": "memory"},
		"s3 bucket":   {"SOURCE_DRIVER": "s3"},
		"dsn":         {"SOURCE_DRIVER": "postgres"},
		"others mean": {"OTHERS_MEAN": "median"},
		"port":        {"PORT": "70000"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
