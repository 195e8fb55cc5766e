package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/pkg/errors"
)

const defaultTokenInfoBaseURL = "https://oauth2.googleapis.com"

// IdentityClient verifies Google ID tokens against the tokeninfo endpoint
// and yields the verified email plus profile basics.
type IdentityClient struct {
	BaseURL    *url.URL
	ClientID   string
	HTTPClient *http.Client
}

// NewIdentityClient creates a verifier bound to an OAuth client id. When
// clientID is empty the audience check is skipped.
func NewIdentityClient(clientID string) *IdentityClient {
	baseURL, _ := url.Parse(defaultTokenInfoBaseURL)
	return &IdentityClient{
		BaseURL:  baseURL,
		ClientID: clientID,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type tokenInfoQuery struct {
	IDToken string `url:"id_token"`
}

// Identity is the verified subject of a Google ID token.
type Identity struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Audience      string `json:"aud"`
}

// VerifyIDToken checks the bearer token with Google and returns the identity
// it asserts. Any non-200 answer means the token is invalid or expired.
func (c *IdentityClient) VerifyIDToken(ctx context.Context, idToken string) (Identity, error) {
	if idToken == "" {
		return Identity{}, errors.New("empty id token")
	}

	values, err := query.Values(tokenInfoQuery{IDToken: idToken})
	if err != nil {
		return Identity{}, errors.Wrap(err, "encoding tokeninfo query")
	}

	endpoint := *c.BaseURL
	endpoint.Path = "/tokeninfo"
	endpoint.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Identity{}, errors.Wrap(err, "building tokeninfo request")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Identity{}, errors.Wrap(err, "calling tokeninfo")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Identity{}, fmt.Errorf("tokeninfo rejected token: %d %s", resp.StatusCode, string(body))
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return Identity{}, errors.Wrap(err, "decoding tokeninfo response")
	}

	if identity.Email == "" {
		return Identity{}, errors.New("token carries no email")
	}
	if c.ClientID != "" && identity.Audience != c.ClientID {
		return Identity{}, errors.New("token audience mismatch")
	}

	return identity, nil
}
