package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/config"
)

const defaultAPIRoot = "https://gateway.example.com/api/v1"

// RESTClient talks to the chat gateway over its HTTP API. Events arrive via
// long-polling; everything else is plain request/response.
type RESTClient struct {
	cfg    config.GatewayConfig
	http   *http.Client
	logger *zap.Logger
}

// NewRESTClient builds a client from gateway configuration.
func NewRESTClient(cfg config.GatewayConfig, logger *zap.Logger) *RESTClient {
	if strings.TrimSpace(cfg.APIRoot) == "" {
		cfg.APIRoot = defaultAPIRoot
	}
	if cfg.PollSeconds <= 0 {
		cfg.PollSeconds = 20
	}
	return &RESTClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: time.Duration(cfg.PollSeconds+10) * time.Second},
		logger: logger,
	}
}

// Connected reports whether the client has credentials to reach the gateway.
func (c *RESTClient) Connected() bool {
	return c.cfg.Configured()
}

// CreateThread opens a new thread under the given channel.
func (c *RESTClient) CreateThread(ctx context.Context, channelID, name string) (*Thread, error) {
	var thread Thread
	payload := map[string]any{"name": name}
	path := fmt.Sprintf("channels/%s/threads", url.PathEscape(channelID))
	if err := c.call(ctx, http.MethodPost, path, payload, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// FetchThread retrieves thread state by id.
func (c *RESTClient) FetchThread(ctx context.Context, threadID string) (*Thread, error) {
	var thread Thread
	path := fmt.Sprintf("threads/%s", url.PathEscape(threadID))
	if err := c.call(ctx, http.MethodGet, path, nil, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// SetArchived archives or unarchives a thread.
func (c *RESTClient) SetArchived(ctx context.Context, threadID string, archived bool) error {
	path := fmt.Sprintf("threads/%s", url.PathEscape(threadID))
	return c.call(ctx, http.MethodPatch, path, map[string]any{"archived": archived}, nil)
}

// Send posts a message to a channel or thread.
func (c *RESTClient) Send(ctx context.Context, channelID string, msg Outgoing) (*Message, error) {
	var sent Message
	path := fmt.Sprintf("channels/%s/messages", url.PathEscape(channelID))
	if err := c.call(ctx, http.MethodPost, path, outgoingPayload(msg), &sent); err != nil {
		return nil, err
	}
	return &sent, nil
}

// EditMessage replaces the content of a previously sent message.
func (c *RESTClient) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	path := fmt.Sprintf("channels/%s/messages/%s", url.PathEscape(channelID), url.PathEscape(messageID))
	return c.call(ctx, http.MethodPatch, path, map[string]any{"content": content}, nil)
}

// React adds a reaction emoji to a message.
func (c *RESTClient) React(ctx context.Context, channelID, messageID, emoji string) error {
	path := fmt.Sprintf("channels/%s/messages/%s/reactions/%s",
		url.PathEscape(channelID), url.PathEscape(messageID), url.PathEscape(emoji))
	return c.call(ctx, http.MethodPut, path, nil, nil)
}

// Pin pins a message in its channel.
func (c *RESTClient) Pin(ctx context.Context, channelID, messageID string) error {
	path := fmt.Sprintf("channels/%s/pins/%s", url.PathEscape(channelID), url.PathEscape(messageID))
	return c.call(ctx, http.MethodPut, path, nil, nil)
}

// Respond answers a command or button interaction.
func (c *RESTClient) Respond(ctx context.Context, interactionID string, msg Outgoing) error {
	path := fmt.Sprintf("interactions/%s/response", url.PathEscape(interactionID))
	return c.call(ctx, http.MethodPost, path, outgoingPayload(msg), nil)
}

// PollEvents long-polls the gateway for the next batch of events.
func (c *RESTClient) PollEvents(ctx context.Context) ([]Event, error) {
	var result struct {
		Events []Event `json:"events"`
	}
	path := fmt.Sprintf("guilds/%s/events?timeout=%d", url.PathEscape(c.cfg.GuildID), c.cfg.PollSeconds)
	if err := c.call(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Events, nil
}

func outgoingPayload(msg Outgoing) map[string]any {
	payload := map[string]any{"content": msg.Content}
	if msg.Ephemeral {
		payload["ephemeral"] = true
	}
	if len(msg.Buttons) > 0 {
		buttons := make([]map[string]string, 0, len(msg.Buttons))
		for _, b := range msg.Buttons {
			buttons = append(buttons, map[string]string{"id": b.ID, "label": b.Label})
		}
		payload["buttons"] = buttons
	}
	return payload
}

func (c *RESTClient) call(ctx context.Context, method, path string, payload any, out any) error {
	if !c.Connected() {
		return ErrNotConnected
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	endpoint := strings.TrimRight(c.cfg.APIRoot, "/") + "/" + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.cfg.Token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		err := classifyStatus(resp.StatusCode)
		c.logger.Debug("gateway call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", data),
		)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func classifyStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrPermissionDenied
	case http.StatusNotFound:
		return ErrUnknownEntity
	case http.StatusGone:
		return ErrExpiredInteraction
	default:
		return fmt.Errorf("gateway returned status %d", status)
	}
}
