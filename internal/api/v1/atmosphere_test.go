package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/wardenhq/warden/internal/api/v1"
	"github.com/wardenhq/warden/internal/atmosphere"
)

func TestGenerateAtmosphere(t *testing.T) {
	t.Parallel()

	client := &mockAtmosphere{
		generateFn: func(_ context.Context, topic string) (string, error) {
			if topic == "down" {
				return "", atmosphere.ErrUnavailable
			}
			return "a thin fog rolls over the harbor", nil
		},
	}

	_, api := humatest.New(t)
	v1.RegisterAtmosphereRoutes(api, client)

	t.Run("generates text", func(t *testing.T) {
		resp := api.Post("/atmosphere", map[string]any{
			"topic": "harbor at night",
		})
		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Text string `json:"text"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "a thin fog rolls over the harbor", body.Text)
	})

	t.Run("backend unavailable", func(t *testing.T) {
		resp := api.Post("/atmosphere", map[string]any{
			"topic": "down",
		})
		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	})
}
