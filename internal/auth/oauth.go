package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

// Discord OAuth2 endpoints.
const (
	discordAuthURL     = "https://discord.com/oauth2/authorize"
	discordTokenURL    = "https://discord.com/api/oauth2/token"
	discordUserInfoURL = "https://discord.com/api/users/@me"
)

// OAuthProvider lets operators sign in to the dashboard with the same
// platform account they moderate from. The exchanged identity still has
// to be linked to a provisioned operator (Service.LoginExternal).
type OAuthProvider struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	UserInfoURL  string

	// oauthConfig is the compiled oauth2.Config.
	oauthConfig *oauth2.Config
}

// ExternalIdentity is the provider-verified account.
type ExternalIdentity struct {
	ID       string
	Username string
}

// NewDiscordProvider returns an OAuth2 configuration for Discord.
func NewDiscordProvider(clientID, clientSecret, redirectURL string) *OAuthProvider {
	p := &OAuthProvider{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		UserInfoURL:  discordUserInfoURL,
	}
	p.oauthConfig = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  discordAuthURL,
			TokenURL: discordTokenURL,
		},
		Scopes:      []string{"identify"},
		RedirectURL: redirectURL,
	}
	return p
}

// AuthorizationURL returns the OAuth2 authorization URL with the given state parameter.
func (p *OAuthProvider) AuthorizationURL(state string) string {
	return p.oauthConfig.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for tokens and fetches the
// authenticated account's identity.
func (p *OAuthProvider) ExchangeCode(ctx context.Context, code string) (*ExternalIdentity, error) {
	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth.ExchangeCode: %w", err)
	}

	client := p.oauthConfig.Client(ctx, token)

	resp, err := client.Get(p.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth.ExchangeCode: fetching user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth.ExchangeCode: user info returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("auth.ExchangeCode: reading user info: %w", err)
	}

	return parseDiscordUserInfo(body)
}

type discordUserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func parseDiscordUserInfo(data []byte) (*ExternalIdentity, error) {
	var info discordUserInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("auth.parseDiscordUserInfo: %w", err)
	}

	if info.ID == "" {
		return nil, fmt.Errorf("auth.parseDiscordUserInfo: missing account id")
	}

	return &ExternalIdentity{ID: info.ID, Username: info.Username}, nil
}
