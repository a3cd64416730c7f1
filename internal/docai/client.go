// Package docai talks to a Document AI style OCR endpoint and converts
// its paragraph layout into the form elements the layout engine
// consumes.
package docai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// Client posts PDF documents to a Document AI :process endpoint
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	attempts   uint
}

// NewClient creates a Document AI client. The endpoint is the full
// :process URL of the processor.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		attempts:   3,
	}
}

type processRequest struct {
	RawDocument rawDocument `json:"rawDocument"`
}

type rawDocument struct {
	Content  string `json:"content"`
	MimeType string `json:"mimeType"`
}

// ProcessFile sends the PDF at path to the OCR endpoint and returns the
// decoded response. Transient HTTP failures are retried with backoff.
func (c *Client) ProcessFile(ctx context.Context, path string) (*ProcessResponse, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	payload, err := json.Marshal(processRequest{
		RawDocument: rawDocument{
			Content:  base64.StdEncoding.EncodeToString(content),
			MimeType: "application/pdf",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var result *ProcessResponse
	err = retry.Do(
		func() error {
			resp, err := c.post(ctx, payload)
			if err != nil {
				return err
			}
			result = resp
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("document ai request failed: %w", err)
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, payload []byte) (*ProcessResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var decoded ProcessResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &decoded, nil
}
