package dropbox

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"
)

const tokenURL = "https://api.dropboxapi.com/oauth2/token"

// refreshExpiryMargin is how long before the stated expiry a cached access
// token is considered stale and refreshed.
const refreshExpiryMargin = 5 * time.Minute

// Credentials configures API access. Either AccessToken is set (a long-lived
// static token used directly) or RefreshToken plus AppKey/AppSecret are set
// (short-lived access tokens are obtained from the OAuth token endpoint and
// cached until shortly before expiry).
type Credentials struct {
	AccessToken  string
	RefreshToken string
	AppKey       string
	AppSecret    string
}

// NewTokenSource builds an oauth2.TokenSource for the given credentials.
// In refresh mode the returned source caches the exchanged token in memory
// and refreshes it once it is within refreshExpiryMargin of expiry.
func NewTokenSource(ctx context.Context, creds Credentials) (oauth2.TokenSource, error) {
	if creds.AccessToken != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.AccessToken}), nil
	}

	if creds.RefreshToken == "" {
		return nil, errors.New("dropbox: no access token or refresh token configured")
	}
	if creds.AppKey == "" || creds.AppSecret == "" {
		return nil, errors.New("dropbox: refresh token requires app key and app secret")
	}

	config := &oauth2.Config{
		ClientID:     creds.AppKey,
		ClientSecret: creds.AppSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: tokenURL,
		},
	}

	base := config.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})
	return oauth2.ReuseTokenSourceWithExpiry(nil, base, refreshExpiryMargin), nil
}
