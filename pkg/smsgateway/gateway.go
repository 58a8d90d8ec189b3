package smsgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Gateway represents an SMS gateway interface
type Gateway interface {
	SendSMS(ctx context.Context, msisdn, message string) (string, error)
}

// HTTPGateway posts messages to a JSON SMS API authenticated with a bearer key
type HTTPGateway struct {
	BaseURL    string
	APIKey     string
	SenderID   string
	httpClient *http.Client
}

// NewHTTPGateway creates a new HTTPGateway
func NewHTTPGateway(baseURL, apiKey, senderID string) *HTTPGateway {
	return &HTTPGateway{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		SenderID: senderID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SendSMS sends an SMS and returns the gateway's message id
func (g *HTTPGateway) SendSMS(ctx context.Context, msisdn, message string) (string, error) {
	requestBody := map[string]interface{}{
		"phoneNumber": msisdn,
		"message":     message,
		"senderId":    g.SenderID,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		MessageID string `json:"messageId"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return response.MessageID, nil
}

// SentMessage is a message accepted by MockGateway
type SentMessage struct {
	MSISDN  string
	Message string
}

// MockGateway logs messages instead of sending them and keeps them for inspection
type MockGateway struct {
	Name string

	mu   sync.Mutex
	sent []SentMessage
}

// NewMockGateway creates a new Mock SMS gateway
func NewMockGateway(name string) *MockGateway {
	return &MockGateway{Name: name}
}

// SendSMS records the message
func (g *MockGateway) SendSMS(ctx context.Context, msisdn, message string) (string, error) {
	g.mu.Lock()
	g.sent = append(g.sent, SentMessage{MSISDN: msisdn, Message: message})
	g.mu.Unlock()

	msgID := fmt.Sprintf("%s-MOCK-MSG-%d", g.Name, time.Now().UnixNano())
	slog.Debug("Mock SMS sent", "gateway", g.Name, "msisdn", msisdn, "messageId", msgID)
	return msgID, nil
}

// Sent returns a copy of the messages accepted so far
func (g *MockGateway) Sent() []SentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]SentMessage(nil), g.sent...)
}
