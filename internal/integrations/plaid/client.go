// Package plaid creates Link tokens through the Plaid Go SDK.
package plaid

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	plaidapi "github.com/plaid/plaid-go/v29/plaid"

	"github.com/spec-kit/donor-service/internal/config"
)

// ErrNotConfigured is returned when client id or secret is missing.
var ErrNotConfigured = errors.New("plaid: client not configured")

// LinkToken is a short-lived token the browser uses to open Plaid Link.
type LinkToken struct {
	Token      string    `json:"link_token"`
	Expiration time.Time `json:"expiration"`
	RequestID  string    `json:"request_id"`
}

// StatusError carries the HTTP status of a rejected Plaid call.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("plaid: status %d: %s", e.StatusCode, e.Body)
}

// Client wraps the generated Plaid API client.
type Client struct {
	api        *plaidapi.APIClient
	clientName string
}

// NewClient builds a client from config. BaseURL selects the Plaid
// environment, sandbox or production.
func NewClient(cfg config.PlaidConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	conf := plaidapi.NewConfiguration()
	conf.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	conf.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	if cfg.BaseURL != "" {
		conf.Servers = plaidapi.ServerConfigurations{{URL: cfg.BaseURL}}
	} else {
		conf.UseEnvironment(plaidapi.Sandbox)
	}
	conf.HTTPClient = &http.Client{Timeout: 10 * time.Second}

	name := cfg.ClientName
	if name == "" {
		name = "Donor Portal"
	}
	return &Client{api: plaidapi.NewAPIClient(conf), clientName: name}, nil
}

// CreateLinkToken requests a Link token bound to clientUserID.
func (c *Client) CreateLinkToken(ctx context.Context, clientUserID, email string) (*LinkToken, error) {
	user := plaidapi.LinkTokenCreateRequestUser{ClientUserId: clientUserID}
	if email != "" {
		user.SetEmailAddress(email)
	}
	req := plaidapi.NewLinkTokenCreateRequestWithDefaults()
	req.SetClientName(c.clientName)
	req.SetLanguage("en")
	req.SetCountryCodes([]plaidapi.CountryCode{plaidapi.COUNTRYCODE_US})
	req.SetProducts([]plaidapi.Products{plaidapi.PRODUCTS_AUTH})
	req.SetUser(user)

	resp, httpResp, err := c.api.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*req).Execute()
	if err != nil {
		if httpResp != nil && httpResp.StatusCode >= http.StatusBadRequest {
			se := &StatusError{StatusCode: httpResp.StatusCode}
			var apiErr plaidapi.GenericOpenAPIError
			if errors.As(err, &apiErr) {
				se.Body = string(apiErr.Body())
			}
			return nil, se
		}
		return nil, fmt.Errorf("plaid link token: %w", err)
	}
	if resp.GetLinkToken() == "" {
		return nil, errors.New("plaid link token: empty token in response")
	}
	return &LinkToken{
		Token:      resp.GetLinkToken(),
		Expiration: resp.GetExpiration(),
		RequestID:  resp.GetRequestId(),
	}, nil
}

// IsStatus reports whether err is a Plaid rejection with the given status.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == status
}
