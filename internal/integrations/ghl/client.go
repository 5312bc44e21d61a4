// Package ghl talks to the GoHighLevel CRM REST API.
package ghl

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spec-kit/donor-service/internal/config"
	"github.com/spec-kit/donor-service/pkg/httpclient"
)

const apiVersion = "2021-07-28"

// ErrNotConfigured is returned when no API key or location is set.
var ErrNotConfigured = errors.New("ghl: client not configured")

// Contact is the subset of contact fields the service writes.
type Contact struct {
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Source    string   `json:"source,omitempty"`
}

type upsertRequest struct {
	Contact
	LocationID string `json:"locationId"`
}

type upsertResponse struct {
	New     bool `json:"new"`
	Contact struct {
		ID string `json:"id"`
	} `json:"contact"`
}

type noteRequest struct {
	Body string `json:"body"`
}

// Client is a GHL API client scoped to one location.
type Client struct {
	http       *httpclient.Client
	locationID string
}

// NewClient builds a client from config. It returns ErrNotConfigured when
// credentials are absent so callers can skip CRM sync.
func NewClient(cfg config.GHLConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	hc := httpclient.New(cfg.BaseURL,
		httpclient.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
		httpclient.WithHeader("Authorization", "Bearer "+cfg.APIKey),
		httpclient.WithHeader("Version", apiVersion),
	)
	return &Client{http: hc, locationID: cfg.LocationID}, nil
}

// UpsertContact creates or updates a contact matched by email and returns its id.
func (c *Client) UpsertContact(ctx context.Context, contact Contact) (string, error) {
	var resp upsertResponse
	req := upsertRequest{Contact: contact, LocationID: c.locationID}
	if err := c.http.PostJSON(ctx, "/contacts/upsert", req, &resp); err != nil {
		return "", fmt.Errorf("ghl upsert contact: %w", err)
	}
	if resp.Contact.ID == "" {
		return "", errors.New("ghl upsert contact: response carried no contact id")
	}
	return resp.Contact.ID, nil
}

// AddNote appends a note to a contact.
func (c *Client) AddNote(ctx context.Context, contactID, body string) error {
	path := "/contacts/" + url.PathEscape(contactID) + "/notes"
	if err := c.http.PostJSON(ctx, path, noteRequest{Body: body}, nil); err != nil {
		return fmt.Errorf("ghl add note: %w", err)
	}
	return nil
}
