package zettle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	tokenSkew      = 30 * time.Second
	tokenTimeout   = 15 * time.Second
)

// tokenSource exchanges the API key assertion for an access token and keeps
// it until shortly before it expires.
type tokenSource struct {
	httpClient *http.Client
	url        string
	clientID   string
	assertion  string
	now        func() time.Time

	sfg    singleflight.Group
	mu     sync.Mutex
	token  string
	expiry time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	if t.token != "" && t.now().Before(t.expiry) {
		token := t.token
		t.mu.Unlock()
		return token, nil
	}
	t.mu.Unlock()

	// The refresh is shared by every waiter, so it must outlive the caller
	// that happened to start it.
	ch := t.sfg.DoChan("token", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tokenTimeout)
		defer cancel()
		return t.fetch(fetchCtx)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate forgets the cached token after the vendor refused it.
func (t *tokenSource) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = ""
}

func (t *tokenSource) fetch(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type": {jwtBearerGrant},
		"client_id":  {t.clientID},
		"assertion":  {t.assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", unavailable("token", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", unavailable("token", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// A refused credential is still an outage from the caller's point of view.
		return "", unavailable("token", &APIError{Op: "token", StatusCode: resp.StatusCode, Body: string(body)})
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", malformed("token", err)
	}
	if tr.AccessToken == "" {
		return "", malformed("token", errors.New("missing access_token"))
	}

	ttl := time.Duration(tr.ExpiresIn)*time.Second - tokenSkew
	if ttl <= 0 {
		ttl = time.Minute
	}

	t.mu.Lock()
	t.token = tr.AccessToken
	t.expiry = t.now().Add(ttl)
	t.mu.Unlock()

	return tr.AccessToken, nil
}
