package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/postboard/apiv1/config"
	"github.com/postboard/apiv1/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, extra map[string]string) config.Config {
	t.Helper()
	vars := map[string]string{
		"DATABASE_URL": "memory://",
		"JWT_SECRET":   "main-secret",
		"BCRYPT_COST":  "4",
	}
	for k, v := range extra {
		vars[k] = v
	}
	cfg, err := config.FromMap(vars)
	require.NoError(t, err)
	return cfg
}

func TestNewApp_ServesSignup(t *testing.T) {
	var logs bytes.Buffer
	logger, err := logging.New(&logs, "info", "text")
	require.NoError(t, err)

	a, err := newApp(context.Background(), testConfig(t, nil), logger)
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "GOOGLE_CLIENT_ID is not set")

	body := `{"email":"m@example.com","password":"Abcdefg1","firstName":"M","lastName":"N"}`
	req := httptest.NewRequest(http.MethodPost, "/user/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)
}

func TestNewApp_GoogleConfigured(t *testing.T) {
	var logs bytes.Buffer
	logger, err := logging.New(&logs, "info", "text")
	require.NoError(t, err)

	_, err = newApp(context.Background(), testConfig(t, map[string]string{"GOOGLE_CLIENT_ID": "client-id"}), logger)
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "GOOGLE_CLIENT_ID is not set")
}

func TestNewApp_UnknownStore(t *testing.T) {
	_, err := newApp(context.Background(), testConfig(t, map[string]string{"DATABASE_URL": "postgres://x"}), logging.Discard())
	assert.Error(t, err)
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()
	assert.NotNil(t, cmd.Flags().Lookup("env-file"))
	assert.NotNil(t, cmd.Flags().Lookup("addr"))
}
