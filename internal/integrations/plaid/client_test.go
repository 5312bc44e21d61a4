package plaid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/donor-service/internal/config"
)

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(config.PlaidConfig{ClientID: "id"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCreateLinkToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/link/token/create", r.URL.Path)
		assert.Equal(t, "cid", r.Header.Get("PLAID-CLIENT-ID"))
		assert.Equal(t, "sec", r.Header.Get("PLAID-SECRET"))

		var req struct {
			ClientName string   `json:"client_name"`
			Products   []string `json:"products"`
			User       struct {
				ClientUserID string `json:"client_user_id"`
				EmailAddress string `json:"email_address"`
			} `json:"user"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Donor Portal", req.ClientName)
		assert.Equal(t, "42", req.User.ClientUserID)
		assert.Equal(t, "a@b.com", req.User.EmailAddress)
		assert.Equal(t, []string{"auth"}, req.Products)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"link_token":"link-sandbox-1","expiration":"2026-01-01T00:00:00Z","request_id":"r1"}`))
	}))
	defer ts.Close()

	client, err := NewClient(config.PlaidConfig{ClientID: "cid", Secret: "sec", BaseURL: ts.URL, ClientName: "Donor Portal"})
	require.NoError(t, err)

	tok, err := client.CreateLinkToken(context.Background(), "42", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "link-sandbox-1", tok.Token)
	assert.Equal(t, "r1", tok.RequestID)
	assert.Equal(t, 2026, tok.Expiration.Year())
}

func TestCreateLinkTokenUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_type":"INVALID_INPUT","error_code":"INVALID_API_KEYS","error_message":"bad keys","request_id":"r2"}`))
	}))
	defer ts.Close()

	client, err := NewClient(config.PlaidConfig{ClientID: "cid", Secret: "sec", BaseURL: ts.URL})
	require.NoError(t, err)

	_, err = client.CreateLinkToken(context.Background(), "1", "")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
}
