package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/iudanet/forkful/pkg/api"
)

//go:generate moq -out client_mock.go . ClientAPI

// ClientAPI определяет удаленные операции, нужные движку вовлеченности
type ClientAPI interface {
	// ToggleEngagement выполняет атомарную мутацию лайка/сохранения
	ToggleEngagement(ctx context.Context, req api.ToggleRequest) (*api.ToggleResponse, error)

	// CreateComment сохраняет новый комментарий
	CreateComment(ctx context.Context, req api.CreateCommentRequest) (*api.CreateCommentResponse, error)

	// RecordShare пишет событие аналитики шеринга
	RecordShare(ctx context.Context, event api.ShareEvent) error

	// GetAuthor возвращает публичный профиль автора
	GetAuthor(ctx context.Context, authorID string) (*api.Author, error)
}

// TokenSource returns the current access token, or "" for anonymous calls.
type TokenSource func(ctx context.Context) (string, error)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// ToggleEngagement выполняет атомарную мутацию лайка/сохранения
func (c *Client) ToggleEngagement(ctx context.Context, req api.ToggleRequest) (*api.ToggleResponse, error) {
	var resp api.ToggleResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/engagement/toggle", req, &resp); err != nil {
		return nil, fmt.Errorf("toggle request failed: %w", err)
	}
	return &resp, nil
}

// CreateComment сохраняет новый комментарий
func (c *Client) CreateComment(ctx context.Context, req api.CreateCommentRequest) (*api.CreateCommentResponse, error) {
	var resp api.CreateCommentResponse
	path := fmt.Sprintf("/api/v1/posts/%s/comments", url.PathEscape(req.ItemID))
	if err := c.doRequest(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("create comment request failed: %w", err)
	}
	return &resp, nil
}

// RecordShare пишет событие аналитики шеринга
func (c *Client) RecordShare(ctx context.Context, event api.ShareEvent) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/analytics/shares", event, nil); err != nil {
		return fmt.Errorf("record share request failed: %w", err)
	}
	return nil
}

// GetAuthor возвращает публичный профиль автора
func (c *Client) GetAuthor(ctx context.Context, authorID string) (*api.Author, error) {
	var resp api.Author
	path := fmt.Sprintf("/api/v1/profiles/%s", url.PathEscape(authorID))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get author request failed: %w", err)
	}
	return &resp, nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens(ctx)
		if err != nil {
			return fmt.Errorf("failed to get access token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && (errResp.Message != "" || errResp.Error != "") {
			msg := errResp.Message
			if msg == "" {
				msg = errResp.Error
			}
			return &StatusError{StatusCode: resp.StatusCode, Message: msg}
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	// Декодируем успешный ответ
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
