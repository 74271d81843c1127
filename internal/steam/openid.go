package steam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const defaultOpenIDEndpoint = "https://steamcommunity.com/openid/login"

var claimedIDPattern = regexp.MustCompile(`^https?://steamcommunity\.com/openid/id/(\d+)$`)

// OpenID implements the Steam flavour of OpenID 2.0. Steam only supports
// the stateless check_authentication verification, so no association
// state is kept here.
type OpenID struct {
	endpoint   string
	httpClient *http.Client
}

// NewOpenID builds the verifier. endpoint overrides the Steam login URL
// in tests; pass "" for the real one.
func NewOpenID(endpoint string, httpClient *http.Client) *OpenID {
	if endpoint == "" {
		endpoint = defaultOpenIDEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &OpenID{endpoint: endpoint, httpClient: httpClient}
}

// LoginURL builds the redirect that starts the login flow. returnTo is
// where Steam sends the user back; realm is the trust root it displays.
func (o *OpenID) LoginURL(realm, returnTo string) string {
	params := url.Values{
		"openid.ns":         {"http://specs.openid.net/auth/2.0"},
		"openid.mode":       {"checkid_setup"},
		"openid.return_to":  {returnTo},
		"openid.realm":      {realm},
		"openid.identity":   {"http://specs.openid.net/auth/2.0/identifier_select"},
		"openid.claimed_id": {"http://specs.openid.net/auth/2.0/identifier_select"},
	}
	return o.endpoint + "?" + params.Encode()
}

// Verify validates the callback parameters with Steam and returns the
// authenticated 64-bit Steam id.
func (o *OpenID) Verify(ctx context.Context, params url.Values) (string, error) {
	if params.Get("openid.mode") != "id_res" {
		return "", fmt.Errorf("openid response mode %q is not id_res", params.Get("openid.mode"))
	}
	claimed := params.Get("openid.claimed_id")
	match := claimedIDPattern.FindStringSubmatch(claimed)
	if match == nil {
		return "", fmt.Errorf("claimed id %q is not a steam identity", claimed)
	}

	check := url.Values{}
	for key, values := range params {
		if strings.HasPrefix(key, "openid.") {
			check[key] = values
		}
	}
	check.Set("openid.mode", "check_authentication")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, strings.NewReader(check.Encode()))
	if err != nil {
		return "", fmt.Errorf("building verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("verifying openid assertion: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("reading verification response: %w", err)
	}
	if !verificationValid(string(body)) {
		return "", fmt.Errorf("openid assertion rejected by provider")
	}
	return match[1], nil
}

// verificationValid parses the key:value response of check_authentication.
func verificationValid(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), ":")
		if found && key == "is_valid" {
			return value == "true"
		}
	}
	return false
}
