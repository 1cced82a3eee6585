package apiclient

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	client := New("http://localhost:8765/")
	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:8765", client.BaseURL())

	assert.Equal(t, DefaultBaseURL, New("").BaseURL())
}

func TestWithToken(t *testing.T) {
	client := New("http://localhost:8765")
	tokenClient := client.WithToken("test-token")

	assert.Empty(t, client.token)
	assert.Equal(t, "test-token", tokenClient.token)
	assert.Equal(t, "http://localhost:8765", tokenClient.baseURL)
}

func TestSetToken(t *testing.T) {
	client := New("http://localhost:8765")
	client.SetToken("my-token")
	assert.Equal(t, "my-token", client.token)
}

func TestDoWithAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL).WithToken("test-token")
	require.NoError(t, client.get("/test", nil))
}

func TestDoWithProblem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"type":"about:blank","title":"Unauthorized","status":401,"detail":"Invalid token"}`)
	}))
	defer server.Close()

	err := New(server.URL).get("/test", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid token", apiErr.Message)
	assert.True(t, apiErr.IsAuthError())
	assert.Equal(t, "401 Unauthorized: Invalid token", apiErr.Error())
}

func TestDoWithPlainError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer server.Close()

	err := New(server.URL).get("/test", nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "Bad Gateway", apiErr.Title)
	assert.Equal(t, "gateway down", apiErr.Message)
}

func TestModules(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/modules", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"modules":{"MetaDeck":true},"restart_required":false}`)
		case http.MethodPut:
			var req struct {
				Modules map[string]bool `json:"modules"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, map[string]bool{"MetaDeck": false}, req.Modules)
			_, _ = io.WriteString(w, `{"modules":{"MetaDeck":false},"restart_required":true}`)
		}
	}))
	defer server.Close()

	client := New(server.URL)

	mods, err := client.GetModules()
	require.NoError(t, err)
	assert.True(t, mods.Modules["MetaDeck"])

	mods, err = client.SetModules(map[string]bool{"MetaDeck": false})
	require.NoError(t, err)
	assert.False(t, mods.Modules["MetaDeck"])
	assert.True(t, mods.RestartRequired)
}

func TestSettings(t *testing.T) {
	var committed bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/settings":
			_, _ = io.WriteString(w, `{"hidden":true}`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/settings/hidden":
			_, _ = io.WriteString(w, `{"key":"hidden","value":true}`)
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/settings/hidden":
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"value":false}`, string(body))
			_, _ = io.WriteString(w, `{"key":"hidden","value":false}`)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/settings/hidden":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/settings/commit":
			committed = true
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := New(server.URL)

	all, err := client.ListSettings()
	require.NoError(t, err)
	assert.JSONEq(t, `true`, string(all["hidden"]))

	s, err := client.GetSetting("hidden")
	require.NoError(t, err)
	assert.Equal(t, "hidden", s.Key)

	s, err = client.SetSetting("hidden", json.RawMessage(`false`))
	require.NoError(t, err)
	assert.JSONEq(t, `false`, string(s.Value))

	require.NoError(t, client.DeleteSetting("hidden"))
	require.NoError(t, client.CommitSettings())
	assert.True(t, committed)
}

func TestCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/call/reset_playtime", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"game_id":"42"}`, string(body))
		_, _ = io.WriteString(w, `{"result":null}`)
	}))
	defer server.Close()

	res, err := New(server.URL).Call("reset_playtime", json.RawMessage(`{"game_id":"42"}`))
	require.NoError(t, err)
	assert.Equal(t, "null", string(res))
}

func TestReady(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"status":"healthy","data":{"state":"running","started":["MetaDeck"]}}`)
		}))
		defer server.Close()

		report, ready, err := New(server.URL).Ready()
		require.NoError(t, err)
		assert.True(t, ready)
		assert.Equal(t, "running", report.State)
		assert.Equal(t, []string{"MetaDeck"}, report.Started)
	})

	t.Run("not ready", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"status":"unhealthy","error":"coordinator is failed","data":{"state":"failed"}}`)
		}))
		defer server.Close()

		report, ready, err := New(server.URL).Ready()
		require.NoError(t, err)
		assert.False(t, ready)
		assert.Equal(t, "failed", report.State)
	})
}

func TestLiveness(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"healthy","data":{"service":"emudecky","uptime":"1h2m3s","uptime_sec":3723}}`)
	}))
	defer server.Close()

	live, err := New(server.URL).Liveness()
	require.NoError(t, err)
	assert.Equal(t, "emudecky", live.Service)
	assert.Equal(t, "1h2m3s", live.Uptime)
	assert.EqualValues(t, 3723, live.UptimeSec)
}
