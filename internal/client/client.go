// Package client обращается к серверу биллинга так же, как браузер:
// cookie сессии запоминается из ответов и отправляется с каждым запросом.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Lordkro/nullupload/internal/lib/cookie"
	"github.com/Lordkro/nullupload/internal/models"
)

// DefaultBaseURL адрес сервера по умолчанию.
const DefaultBaseURL = "https://nullupload.dev"

// APIError ответ сервера с кодом 4xx или 5xx.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Detail     string `json:"detail,omitempty"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error (status %d): %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// IsUnauthorized сообщает, что сервер не принял cookie сессии.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// Config настройки клиента.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	CookieName string
	HTTPClient *http.Client
}

// Client клиент API биллинга. Cookie сессии хранится в самом клиенте, а не
// в cookie jar: сервер ставит флаг Secure, и jar не вернул бы её для
// http-адреса локального сервера.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	cookieName string

	mu      sync.Mutex
	session string
}

// New создаёт клиента.
func New(cfg Config) (*Client, error) {
	const op = "client.New"
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CookieName == "" {
		cfg.CookieName = cookie.DefaultName
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		cookieName: cfg.CookieName,
	}, nil
}

// SessionCookie возвращает текущее значение cookie сессии. Пустая строка
// означает, что сессии нет или сервер её сбросил.
func (c *Client) SessionCookie() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SetSessionCookie восстанавливает сохранённое значение cookie сессии.
func (c *Client) SetSessionCookie(value string) {
	c.mu.Lock()
	c.session = value
	c.mu.Unlock()
}

// rememberSession применяет Set-Cookie ответа к cookie сессии.
func (c *Client) rememberSession(resp *http.Response) {
	for _, ck := range resp.Cookies() {
		if ck.Name != c.cookieName {
			continue
		}
		expired := ck.MaxAge < 0 || (!ck.Expires.IsZero() && ck.Expires.Before(time.Now()))
		if expired || ck.Value == "" {
			c.SetSessionCookie("")
		} else {
			c.SetSessionCookie(ck.Value)
		}
	}
}

// Status запрашивает тариф. Непустой sessionID обменивается на cookie сессии.
func (c *Client) Status(ctx context.Context, sessionID string) (models.StatusResponse, error) {
	const op = "client.Status"
	path := "/api/status"
	if sessionID != "" {
		path += "?session_id=" + url.QueryEscape(sessionID)
	}
	var resp models.StatusResponse
	if err := c.do(ctx, http.MethodGet, path, &resp); err != nil {
		return models.NotPro(), fmt.Errorf("%s: %w", op, err)
	}
	return resp, nil
}

// Checkout создаёт сессию оплаты и возвращает её адрес.
func (c *Client) Checkout(ctx context.Context) (string, error) {
	const op = "client.Checkout"
	var resp models.URLResponse
	if err := c.do(ctx, http.MethodPost, "/api/checkout", &resp); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return resp.URL, nil
}

// Portal создаёт сессию портала подписки и возвращает её адрес.
func (c *Client) Portal(ctx context.Context) (string, error) {
	const op = "client.Portal"
	var resp models.URLResponse
	if err := c.do(ctx, http.MethodPost, "/api/portal", &resp); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return resp.URL, nil
}

// Config возвращает публичный ключ провайдера.
func (c *Client) Config(ctx context.Context) (string, error) {
	const op = "client.Config"
	var resp models.ConfigResponse
	if err := c.do(ctx, http.MethodGet, "/api/config", &resp); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return resp.PublishableKey, nil
}

func (c *Client) do(ctx context.Context, method, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if session := c.SessionCookie(); session != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: session})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.rememberSession(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{}
		if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
