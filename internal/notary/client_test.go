package notary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const fpA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func TestClient_Notarize_OK(t *testing.T) {
	createdAt := time.Unix(1735686000, 0)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			AgreementHash string `json:"agreementHash"`
			Timestamp     int64  `json:"timestamp"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, fpA, body.AgreementHash)
		require.Equal(t, createdAt.Unix(), body.Timestamp)

		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "success", "message": "Payout processed", "txHash": "0xabc123",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	rcpt, err := c.Notarize(context.Background(), fpA, createdAt)
	require.NoError(t, err)
	require.Equal(t, fpA, rcpt.Fingerprint)
	require.Equal(t, "0xabc123", rcpt.TxHash)
}

func TestClient_Notarize_RejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "error", "message": "Transaction failed",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Notarize(context.Background(), fpA, time.Now())
	require.Error(t, err)
	require.Contains(t, err.Error(), "Transaction failed")
}

func TestClient_Notarize_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": "Blockchain transaction failed"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Notarize(context.Background(), fpA, time.Now())
	require.Error(t, err)
}

func TestClient_Notarize_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-block
	}))
	defer func() { close(block); srv.Close() }()

	c := NewClient(srv.URL, 50*time.Millisecond)
	_, err := c.Notarize(context.Background(), fpA, time.Now())
	require.Error(t, err)
}
