// Package spotify is the third-party profile collaborator: it exchanges an
// authorization code for a token and turns the listener's top artists into
// an instrument role hint. The session core treats the hint as an opaque
// string and never validates it.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/soundmingle/jam/internal/config"
)

const scopes = "user-top-read user-read-recently-played user-library-read"

const (
	sessionKeyState = "spotify_state"
	sessionKeyToken = "spotify_token"
)

type Client struct {
	cfg config.SpotifyConfig
	hc  *http.Client

	// Overridable for tests.
	AuthURL  string
	TokenURL string
	APIURL   string
}

func NewClient(cfg config.SpotifyConfig) *Client {
	return &Client{
		cfg:      cfg,
		hc:       &http.Client{Timeout: 10 * time.Second},
		AuthURL:  "https://accounts.spotify.com/authorize",
		TokenURL: "https://accounts.spotify.com/api/token",
		APIURL:   "https://api.spotify.com",
	}
}

// Login redirects the browser to Spotify's consent page. The state nonce is
// kept in the cookie session and checked on callback.
func (cl *Client) Login(c *gin.Context) {
	state := uuid.NewString()
	sess := sessions.Default(c)
	sess.Set(sessionKeyState, state)
	if err := sess.Save(); err != nil {
		log.Error().Err(err).Str("module", "spotify").Msg("save session")
		c.Status(http.StatusInternalServerError)
		return
	}

	q := url.Values{}
	q.Set("client_id", cl.cfg.ClientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", cl.cfg.RedirectURI)
	q.Set("scope", scopes)
	q.Set("state", state)
	c.Redirect(http.StatusFound, cl.AuthURL+"?"+q.Encode())
}

// Callback completes the authorization-code exchange and stashes the access
// token in the cookie session.
func (cl *Client) Callback(c *gin.Context) {
	sess := sessions.Default(c)
	want, _ := sess.Get(sessionKeyState).(string)
	if want == "" || c.Query("state") != want {
		log.Warn().Str("module", "spotify").Msg("state mismatch on callback")
		c.Status(http.StatusBadRequest)
		return
	}
	sess.Delete(sessionKeyState)

	code := c.Query("code")
	if code == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	token, err := cl.Exchange(c.Request.Context(), code)
	if err != nil {
		log.Error().Err(err).Str("module", "spotify").Msg("token exchange")
		c.Status(http.StatusBadGateway)
		return
	}

	sess.Set(sessionKeyToken, token)
	if err := sess.Save(); err != nil {
		log.Error().Err(err).Str("module", "spotify").Msg("save session")
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// RoleHint looks up the listener's top artists and answers with a suggested
// instrument role for the join screen.
func (cl *Client) RoleHint(c *gin.Context) {
	sess := sessions.Default(c)
	token, _ := sess.Get(sessionKeyToken).(string)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not linked"})
		return
	}

	genres, err := cl.TopGenres(c.Request.Context(), token)
	if err != nil {
		log.Error().Err(err).Str("module", "spotify").Msg("top artists lookup")
		c.JSON(http.StatusBadGateway, gin.H{"error": "spotify unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": RoleForGenres(genres)})
}

// Exchange swaps an authorization code for an access token.
func (cl *Client) Exchange(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", cl.cfg.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cl.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(cl.cfg.ClientID, cl.cfg.ClientSecret)

	resp, err := cl.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %s", resp.Status)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access_token")
	}
	return body.AccessToken, nil
}

// TopGenres flattens the genre lists of the listener's top artists.
func (cl *Client) TopGenres(ctx context.Context, token string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cl.APIURL+"/v1/me/top/artists?limit=20", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := cl.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("top artists endpoint returned %s", resp.Status)
	}

	var body struct {
		Items []struct {
			Name   string   `json:"name"`
			Genres []string `json:"genres"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	var genres []string
	for _, it := range body.Items {
		genres = append(genres, it.Genres...)
	}
	return genres, nil
}
