package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cubedraft/internal/config"
	"cubedraft/internal/constants"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const discordAPIBase = "https://discord.com/api/v10"

// DiscordClient implements Messenger and Identity over the Discord REST API.
// Reply collection polls the channel rather than holding a gateway socket;
// the poll interval is short next to the minutes-long response windows it
// serves.
type DiscordClient struct {
	token  string
	client *fasthttp.Client
	logger zerolog.Logger
}

func NewDiscordClient(cfg *config.Config, logger zerolog.Logger) *DiscordClient {
	return &DiscordClient{
		token: cfg.DiscordBotToken,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

type discordChannel struct {
	ID string `json:"id"`
}

type discordMessage struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Author  struct {
		ID string `json:"id"`
	} `json:"author"`
}

type discordUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
}

func (c *DiscordClient) SendDirect(ctx context.Context, userID, text string) (string, error) {
	body, err := c.do(ctx, fasthttp.MethodPost, discordAPIBase+"/users/@me/channels",
		map[string]string{"recipient_id": userID})
	if err != nil {
		return "", fmt.Errorf("opening DM channel for %s: %w", userID, err)
	}

	var ch discordChannel
	if err := json.Unmarshal(body, &ch); err != nil {
		return "", fmt.Errorf("decoding DM channel: %w", err)
	}

	if err := c.SendToChannel(ctx, ch.ID, text); err != nil {
		return "", err
	}
	return ch.ID, nil
}

func (c *DiscordClient) SendToChannel(ctx context.Context, channelID, text string) error {
	uri := fmt.Sprintf("%s/channels/%s/messages", discordAPIBase, channelID)
	if _, err := c.do(ctx, fasthttp.MethodPost, uri, map[string]string{"content": text}); err != nil {
		return fmt.Errorf("sending to channel %s: %w", channelID, err)
	}
	return nil
}

func (c *DiscordClient) CollectOneReply(ctx context.Context, channelID, userID string, accept func(string) bool, timeout time.Duration) (string, bool) {
	deadline := time.Now().Add(timeout)
	after := c.latestMessageID(ctx, channelID)

	ticker := time.NewTicker(constants.ReplyPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", false
		case <-ticker.C:
		}
		if time.Now().After(deadline) {
			return "", false
		}

		msgs, err := c.messagesAfter(ctx, channelID, after)
		if err != nil {
			c.logger.Warn().Err(err).Str("channel_id", channelID).Msg("polling for reply failed")
			continue
		}
		// Discord returns newest first; walk backwards to keep arrival order.
		for i := len(msgs) - 1; i >= 0; i-- {
			if snowflakeLess(after, msgs[i].ID) {
				after = msgs[i].ID
			}
			if msgs[i].Author.ID == userID && accept(msgs[i].Content) {
				return msgs[i].Content, true
			}
		}
	}
}

// snowflakeLess compares two decimal snowflake IDs numerically.
func snowflakeLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func (c *DiscordClient) FetchDisplayName(ctx context.Context, userID string) (string, error) {
	body, err := c.do(ctx, fasthttp.MethodGet, discordAPIBase+"/users/"+userID, nil)
	if err != nil {
		return "", fmt.Errorf("fetching user %s: %w", userID, err)
	}

	var user discordUser
	if err := json.Unmarshal(body, &user); err != nil {
		return "", fmt.Errorf("decoding user %s: %w", userID, err)
	}
	if user.GlobalName != "" {
		return user.GlobalName, nil
	}
	return user.Username, nil
}

func (c *DiscordClient) latestMessageID(ctx context.Context, channelID string) string {
	uri := fmt.Sprintf("%s/channels/%s/messages?limit=1", discordAPIBase, channelID)
	body, err := c.do(ctx, fasthttp.MethodGet, uri, nil)
	if err != nil {
		c.logger.Warn().Err(err).Str("channel_id", channelID).Msg("reading latest message id failed")
		return "0"
	}
	var msgs []discordMessage
	if err := json.Unmarshal(body, &msgs); err != nil || len(msgs) == 0 {
		return "0"
	}
	return msgs[0].ID
}

func (c *DiscordClient) messagesAfter(ctx context.Context, channelID, after string) ([]discordMessage, error) {
	uri := fmt.Sprintf("%s/channels/%s/messages?after=%s&limit=50", discordAPIBase, channelID, after)
	body, err := c.do(ctx, fasthttp.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	var msgs []discordMessage
	if err := json.Unmarshal(body, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *DiscordClient) do(ctx context.Context, method, uri string, payload any) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.Set("Authorization", "Bot "+c.token)
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.Do(req, resp)
	}
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("discord API error: %d", resp.StatusCode())
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}
