package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/wardenhq/warden/internal/atmosphere"
)

type GenerateAtmosphereInput struct {
	Body struct {
		Topic string `json:"topic" maxLength:"500" doc:"Optional topic to steer the generated text"`
	}
}

type GenerateAtmosphereOutput struct {
	Body struct {
		Text string `json:"text"`
	}
}

func RegisterAtmosphereRoutes(api huma.API, client AtmosphereClient) {
	huma.Register(api, huma.Operation{
		OperationID: "generate-atmosphere",
		Method:      http.MethodPost,
		Path:        "/atmosphere",
		Summary:     "Generate a short piece of atmosphere text",
		Tags:        []string{"Atmosphere"},
	}, func(ctx context.Context, input *GenerateAtmosphereInput) (*GenerateAtmosphereOutput, error) {
		text, err := client.Generate(ctx, input.Body.Topic)
		if err != nil {
			if errors.Is(err, atmosphere.ErrUnavailable) {
				return nil, huma.Error503ServiceUnavailable("atmosphere backend unavailable")
			}
			return nil, huma.Error500InternalServerError("failed to generate atmosphere text", err)
		}

		out := &GenerateAtmosphereOutput{}
		out.Body.Text = text
		return out, nil
	})
}
