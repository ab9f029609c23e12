// internal/common/crm/client.go
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"wastewise/internal/common/httpclient"
)

const defaultBaseURL = "https://www.zohoapis.com/crm/v3"

// Client talks to a Zoho-compatible CRM. Contacts created here mirror
// kitchen accounts so the sales team sees signups without a manual export.
type Client struct {
	oauthToken string
	baseURL    string
	httpClient *httpclient.Client
}

type Contact struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"Email"`
	FirstName string `json:"First_Name"`
	LastName  string `json:"Last_Name"`
	Phone     string `json:"Phone,omitempty"`
	Source    string `json:"Lead_Source,omitempty"`
}

type mutationResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

type listResponse struct {
	Data []Contact `json:"data"`
}

func NewClient(baseURL, oauthToken string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		oauthToken: oauthToken,
		baseURL:    baseURL,
		httpClient: httpclient.NewClient(30 * time.Second),
	}
}

func (c *Client) CreateContact(ctx context.Context, contact *Contact) (string, error) {
	payload := map[string]interface{}{
		"data": []Contact{*contact},
	}

	body, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/Contacts", payload, http.StatusCreated, http.StatusOK)
	if err != nil {
		return "", err
	}

	var createResp mutationResponse
	if err := json.Unmarshal(body, &createResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(createResp.Data) == 0 {
		return "", fmt.Errorf("no data in response")
	}

	if createResp.Data[0].Status != "success" {
		return "", fmt.Errorf("contact creation failed: %s", createResp.Data[0].Message)
	}

	return createResp.Data[0].Details.ID, nil
}

func (c *Client) GetContact(ctx context.Context, contactID string) (*Contact, error) {
	body, err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/Contacts/"+contactID, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var result listResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Data) == 0 {
		return nil, fmt.Errorf("contact not found")
	}

	return &result.Data[0], nil
}

func (c *Client) SearchContactsByEmail(ctx context.Context, email string) ([]Contact, error) {
	searchURL := fmt.Sprintf("%s/Contacts/search?email=%s", c.baseURL, url.QueryEscape(email))

	body, err := c.doJSON(ctx, http.MethodGet, searchURL, nil, http.StatusOK, http.StatusNoContent)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}

	var result listResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Data, nil
}

func (c *Client) doJSON(ctx context.Context, method, requestURL string, payload interface{}, okStatuses ...int) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.oauthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	for _, status := range okStatuses {
		if resp.StatusCode == status {
			return body, nil
		}
	}
	return nil, fmt.Errorf("%s %s failed (status %d): %s", method, requestURL, resp.StatusCode, string(body))
}
