package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// Client wraps the server-side authorization-code exchange for clients that
// cannot run the browser sign-in flow themselves.
type Client struct {
	config *oauth2.Config
}

// NewClient creates an OAuth2 client against Google's endpoints
func NewClient(clientID, clientSecret, redirectURL string) *Client {
	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}
	return &Client{config: config}
}

// ExchangeCode exchanges an authorization code for the ID token it carries
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code: %w", err)
	}

	idToken, ok := token.Extra("id_token").(string)
	if !ok || idToken == "" {
		return "", fmt.Errorf("token response missing id_token")
	}
	return idToken, nil
}

// AuthCodeURL returns the authorization URL for the given state
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}
