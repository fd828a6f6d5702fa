package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/wardenhq/warden/internal/command"
	"github.com/wardenhq/warden/internal/domain"
	"github.com/wardenhq/warden/internal/platform"
)

// EntryHandler processes member entry events from the platform gateway.
// *evasion.Detector satisfies this interface.
type EntryHandler interface {
	OnEntry(ctx context.Context, e platform.EntryEvent) (*domain.MemberIdentity, error)
}

// CommandDispatcher routes administrative chat commands from the gateway.
// *command.Dispatcher satisfies this interface.
type CommandDispatcher interface {
	Dispatch(ctx context.Context, actor command.Actor, content string) (string, error)
}

type GatewayEntryInput struct {
	Body struct {
		ExternalID  string    `json:"external_id" minLength:"1" doc:"Platform member ID"`
		DisplayName string    `json:"display_name" maxLength:"255" doc:"Display name at entry"`
		Timestamp   time.Time `json:"timestamp,omitempty" doc:"Entry time; defaults to now"`
	}
}

type GatewayEntryOutput struct {
	Body struct {
		Identity *domain.MemberIdentity `json:"identity"`
	}
}

type GatewayCommandInput struct {
	Body struct {
		ActorID string `json:"actor_id" minLength:"1" doc:"Platform ID of the message author"`
		Staff   bool   `json:"staff" doc:"Whether the author holds the staff role"`
		Content string `json:"content" minLength:"1" maxLength:"4000" doc:"Raw message content"`
	}
}

type GatewayCommandOutput struct {
	Body struct {
		// Command is false when the content was plain chat; Reply is then
		// empty and the gateway should do nothing.
		Command bool   `json:"command"`
		Reply   string `json:"reply,omitempty"`
	}
}

// RegisterGatewayRoutes wires the inbound half of the platform boundary:
// the gateway process forwards entry events and chat messages here.
func RegisterGatewayRoutes(api huma.API, entries EntryHandler, dispatcher CommandDispatcher) {
	huma.Register(api, huma.Operation{
		OperationID: "gateway-entry",
		Method:      http.MethodPost,
		Path:        "/gateway/entry",
		Summary:     "Process a member entry event",
		Tags:        []string{"Gateway"},
	}, func(ctx context.Context, input *GatewayEntryInput) (*GatewayEntryOutput, error) {
		identity, err := entries.OnEntry(ctx, platform.EntryEvent{
			ExternalID:  input.Body.ExternalID,
			DisplayName: input.Body.DisplayName,
			Timestamp:   input.Body.Timestamp,
		})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to record entry", err)
		}

		out := &GatewayEntryOutput{}
		out.Body.Identity = identity
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "gateway-command",
		Method:      http.MethodPost,
		Path:        "/gateway/command",
		Summary:     "Dispatch an administrative chat command",
		Tags:        []string{"Gateway"},
	}, func(ctx context.Context, input *GatewayCommandInput) (*GatewayCommandOutput, error) {
		out := &GatewayCommandOutput{}

		reply, err := dispatcher.Dispatch(ctx, command.Actor{
			ID:    input.Body.ActorID,
			Staff: input.Body.Staff,
		}, input.Body.Content)
		if err != nil {
			if errors.Is(err, command.ErrNotCommand) {
				return out, nil
			}
			return nil, huma.Error500InternalServerError("failed to dispatch command", err)
		}

		out.Body.Command = true
		out.Body.Reply = reply
		return out, nil
	})
}
