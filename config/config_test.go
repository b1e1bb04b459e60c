package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"MONGODB_URI":                  "mongodb://localhost:27017",
		"JWT_SECRET":                   "0123456789abcdef0123",
		"STRIPE_PUBLISHABLE_KEY":       "pk_test_123",
		"FIREBASE_API_KEY":             "api-key",
		"FIREBASE_AUTH_DOMAIN":         "linkrite.firebaseapp.com",
		"FIREBASE_PROJECT_ID":          "linkrite",
		"FIREBASE_STORAGE_BUCKET":      "linkrite.appspot.com",
		"FIREBASE_MESSAGING_SENDER_ID": "1234",
		"FIREBASE_APP_ID":              "1:1234:web:abcd",
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(baseEnv())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "mongo", cfg.Store)
	assert.Equal(t, "linkrite", cfg.DBName)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, "linkrite", cfg.Firebase.ProjectID)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.GoogleEnabled())
	assert.False(t, cfg.PushEnabled())
	assert.False(t, cfg.MailEnabled())
}

func TestFromEnvParsesTypes(t *testing.T) {
	env := baseEnv()
	env["PORT"] = "9090"
	env["APP_ENV"] = "production"
	env["JWT_TTL"] = "2h"
	env["CORS_ORIGINS"] = "https://linkrite.app, https://www.linkrite.app,"
	env["RATE_LIMIT_RPS"] = "2.5"
	env["REDIS_DB"] = "3"
	env["GOOGLE_CLIENT_ID"] = "cid"
	env["GOOGLE_CLIENT_SECRET"] = "secret"
	env["GOOGLE_REDIRECT_URL"] = "https://api.linkrite.app/api/auth/google/callback"

	cfg, err := FromEnv(env)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"https://linkrite.app", "https://www.linkrite.app"}, cfg.CORSOrigins)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 1e-9)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.GoogleEnabled())
}

func TestFromEnvReportsEveryMissingVariable(t *testing.T) {
	env := baseEnv()
	delete(env, "JWT_SECRET")
	delete(env, "FIREBASE_APP_ID")
	delete(env, "STRIPE_PUBLISHABLE_KEY")

	_, err := FromEnv(env)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 3)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "FIREBASE_APP_ID")
	assert.Contains(t, err.Error(), "STRIPE_PUBLISHABLE_KEY")
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"PORT":                "http",
		"APP_ENV":             "staging",
		"STORE":               "sqlite",
		"JWT_SECRET":          "short",
		"JWT_TTL":             "forever",
		"RATE_LIMIT_BURST":    "0",
		"GOOGLE_REDIRECT_URL": "not a url",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			env := baseEnv()
			env[key] = value
			_, err := FromEnv(env)
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestMemoryStoreNeedsNoMongoURI(t *testing.T) {
	env := baseEnv()
	delete(env, "MONGODB_URI")

	_, err := FromEnv(env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGODB_URI")

	env["STORE"] = "memory"
	cfg, err := FromEnv(env)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store)
}

func TestVAPIDKeysComeInPairs(t *testing.T) {
	env := baseEnv()
	env["VAPID_PUBLIC_KEY"] = "pub"
	_, err := FromEnv(env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VAPID_PRIVATE_KEY")

	env["VAPID_PRIVATE_KEY"] = "priv"
	cfg, err := FromEnv(env)
	require.NoError(t, err)
	assert.True(t, cfg.PushEnabled())
}

func TestFromEnvBlankValuesUseDefaults(t *testing.T) {
	env := baseEnv()
	env["PORT"] = ""
	env["JWT_TTL"] = ""

	cfg, err := FromEnv(env)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
}

func TestFromEnvReportsEveryUnparsableVariable(t *testing.T) {
	env := baseEnv()
	env["JWT_TTL"] = "forever"
	env["REDIS_DB"] = "three"

	_, err := FromEnv(env)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 2)
	assert.Contains(t, err.Error(), "JWT_TTL")
	assert.Contains(t, err.Error(), "REDIS_DB")
}
