package discord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://discord.com/api/v10"

// RestClient is a minimal Discord REST client covering the calls the
// moderation pipeline and the alert messenger need. It implements both
// DiscordAPI interfaces (actions and messenger).
type RestClient struct {
	baseURL  string
	botToken string
	httpc    *http.Client
}

// NewRestClient creates a client authenticated with a bot token.
func NewRestClient(botToken string) *RestClient {
	return &RestClient{
		baseURL:  defaultBaseURL,
		botToken: botToken,
		httpc:    &http.Client{Timeout: 10 * time.Second},
	}
}

// GuildMemberKick removes the member from the guild.
func (c *RestClient) GuildMemberKick(guildID, userID, reason string) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/guilds/%s/members/%s", guildID, userID), reason, nil, nil)
}

// GuildBanCreate bans the member from the guild.
func (c *RestClient) GuildBanCreate(guildID, userID, reason string) error {
	return c.do(http.MethodPut, fmt.Sprintf("/guilds/%s/bans/%s", guildID, userID), reason, struct{}{}, nil)
}

// GuildMemberRoleAdd grants a role to the member.
func (c *RestClient) GuildMemberRoleAdd(guildID, userID, roleID string) error {
	return c.do(http.MethodPut, fmt.Sprintf("/guilds/%s/members/%s/roles/%s", guildID, userID, roleID), "", nil, nil)
}

// GuildMemberRoleRemove revokes a role from the member.
func (c *RestClient) GuildMemberRoleRemove(guildID, userID, roleID string) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/guilds/%s/members/%s/roles/%s", guildID, userID, roleID), "", nil, nil)
}

// ChannelMessageSend posts a message to a channel and returns its ID.
func (c *RestClient) ChannelMessageSend(channelID, content string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	body := map[string]string{"content": content}
	if err := c.do(http.MethodPost, fmt.Sprintf("/channels/%s/messages", channelID), "", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// UserChannelCreate opens (or reuses) a DM channel with the user and
// returns the channel ID.
func (c *RestClient) UserChannelCreate(userID string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	body := map[string]string{"recipient_id": userID}
	if err := c.do(http.MethodPost, "/users/@me/channels", "", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *RestClient) do(method, path, auditReason string, body, out any) error {
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("discord.RestClient: marshal body: %w", err)
		}
		buf = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, buf)
	if err != nil {
		return fmt.Errorf("discord.RestClient: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.botToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auditReason != "" {
		// Shown in the guild's own audit log next to the action.
		req.Header.Set("X-Audit-Log-Reason", url.PathEscape(auditReason))
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("discord.RestClient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("discord.RestClient: %s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
			return fmt.Errorf("discord.RestClient: decode response: %w", err)
		}
	}

	return nil
}
