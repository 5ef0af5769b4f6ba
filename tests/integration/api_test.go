// Package integration provides end-to-end tests for the Sebastian
// Contacts HTTP API. They run against a live server, see getTestConfig.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConfig holds the configuration for integration tests.
type TestConfig struct {
	Endpoint string
}

// getTestConfig reads test configuration from environment variables.
func getTestConfig() TestConfig {
	return TestConfig{
		Endpoint: getEnv("SEBASTIAN_ENDPOINT", "http://localhost:8080"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// apiClient is a thin client over the envelope-based API.
type apiClient struct {
	endpoint string
	token    string
	http     *http.Client
}

func newAPIClient(cfg TestConfig) *apiClient {
	return &apiClient{
		endpoint: cfg.Endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// envelope mirrors the API response shape.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors string          `json:"errors"`
	Paging *struct {
		CurrentPage int `json:"currentPage"`
		TotalPages  int `json:"totalPages"`
		Size        int `json:"size"`
	} `json:"paging"`
}

func (c *apiClient) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.endpoint+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("X-API-TOKEN", c.token)
	}

	resp, err := c.http.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

// TestContactAPIFlow exercises the full register/login/contact/address
// lifecycle against a running server.
func TestContactAPIFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cfg := getTestConfig()
	client := newAPIClient(cfg)

	username := "it-user-" + time.Now().Format("20060102150405")
	var contactID, addressID string

	t.Run("Register", func(t *testing.T) {
		code, env := client.do(t, http.MethodPost, "/api/users", map[string]string{
			"username": username,
			"password": "integration-secret",
			"name":     "Integration User",
		})
		require.Equal(t, http.StatusOK, code, env.Errors)
	})

	t.Run("Login", func(t *testing.T) {
		code, env := client.do(t, http.MethodPost, "/api/auth/login", map[string]string{
			"username": username,
			"password": "integration-secret",
		})
		require.Equal(t, http.StatusOK, code, env.Errors)

		var data struct {
			Token     string `json:"token"`
			ExpiredAt int64  `json:"expiredAt"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.NotEmpty(t, data.Token)
		client.token = data.Token
	})

	t.Run("CreateContact", func(t *testing.T) {
		code, env := client.do(t, http.MethodPost, "/api/contacts", map[string]string{
			"firstName": "Integration",
			"lastName":  "Contact",
			"email":     "integration@example.com",
			"phone":     "555-0199",
		})
		require.Equal(t, http.StatusOK, code, env.Errors)

		var data struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.NotEmpty(t, data.ID)
		contactID = data.ID
	})

	t.Run("SearchContacts", func(t *testing.T) {
		code, env := client.do(t, http.MethodGet, "/api/contacts?name=Integration", nil)
		require.Equal(t, http.StatusOK, code, env.Errors)
		require.NotNil(t, env.Paging)
		require.Equal(t, 0, env.Paging.CurrentPage)
		require.Equal(t, 10, env.Paging.Size)
	})

	t.Run("CreateAddress", func(t *testing.T) {
		path := fmt.Sprintf("/api/contacts/%s/addresses", contactID)
		code, env := client.do(t, http.MethodPost, path, map[string]string{
			"street":     "Integration St 1",
			"city":       "Testville",
			"province":   "TS",
			"postalCode": "00001",
			"country":    "Testland",
		})
		require.Equal(t, http.StatusOK, code, env.Errors)

		var data struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.NotEmpty(t, data.ID)
		addressID = data.ID
	})

	t.Run("ListAddresses", func(t *testing.T) {
		path := fmt.Sprintf("/api/contacts/%s/addresses", contactID)
		code, env := client.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, code, env.Errors)

		var data []struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Len(t, data, 1)
		require.Equal(t, addressID, data[0].ID)
	})

	t.Run("DeleteContactCascades", func(t *testing.T) {
		code, env := client.do(t, http.MethodDelete, "/api/contacts/"+contactID, nil)
		require.Equal(t, http.StatusOK, code, env.Errors)

		path := fmt.Sprintf("/api/contacts/%s/addresses/%s", contactID, addressID)
		code, _ = client.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusNotFound, code)
	})

	t.Run("Logout", func(t *testing.T) {
		code, env := client.do(t, http.MethodDelete, "/api/auth/logout", nil)
		require.Equal(t, http.StatusOK, code, env.Errors)

		code, _ = client.do(t, http.MethodGet, "/api/users/current", nil)
		require.Equal(t, http.StatusUnauthorized, code)
	})
}
