package atmosphere

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Generate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/generate", r.URL.Path)

		var req struct {
			Topic string `json:"topic"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "rainy evening", req.Topic)

		json.NewEncoder(w).Encode(map[string]string{"text": "Rain taps the windows while the channel hums along."})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	text, err := c.Generate(context.Background(), "rainy evening")
	require.NoError(t, err)
	assert.Contains(t, text, "Rain taps")
}

func TestClient_Generate_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	_, err := c.Generate(context.Background(), "anything")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_Generate_Unreachable(t *testing.T) {
	t.Parallel()

	c := NewClient("http://127.0.0.1:1", 500*time.Millisecond)
	_, err := c.Generate(context.Background(), "anything")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_Generate_EmptyBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"text": ""})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	_, err := c.Generate(context.Background(), "anything")
	require.ErrorIs(t, err, ErrUnavailable)
}
