// Package notary submits fingerprints to the external settlement service and
// drives the durable retry queue. The settlement service owns the ledger
// write; this package only knows its request/response shape.
package notary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/karlsjo/sustainlog/internal/model"
)

// Client calls the settlement endpoint.
type Client struct {
	url string
	hc  *http.Client
}

// NewClient constructs a client for the given endpoint URL. timeout bounds a
// single settlement call.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{url: url, hc: &http.Client{Timeout: timeout}}
}

type notarizeRequest struct {
	AgreementHash string `json:"agreementHash"`
	Timestamp     int64  `json:"timestamp"`
}

type notarizeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	TxHash  string `json:"txHash,omitempty"`
}

// Notarize sends the fingerprint and its creation timestamp (unix seconds)
// to the settlement service and returns the ledger transaction reference.
func (c *Client) Notarize(ctx context.Context, fp string, createdAt time.Time) (model.NotarizationReceipt, error) {
	body, err := json.Marshal(notarizeRequest{AgreementHash: fp, Timestamp: createdAt.Unix()})
	if err != nil {
		return model.NotarizationReceipt{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return model.NotarizationReceipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return model.NotarizationReceipt{}, fmt.Errorf("settlement call: %w", err)
	}
	defer resp.Body.Close()

	var out notarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.NotarizationReceipt{}, fmt.Errorf("settlement response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || out.Status != "success" {
		return model.NotarizationReceipt{}, fmt.Errorf("settlement rejected (http %d): %s", resp.StatusCode, out.Message)
	}
	return model.NotarizationReceipt{
		Fingerprint: fp,
		TxHash:      out.TxHash,
		NotarizedAt: time.Now(),
	}, nil
}
