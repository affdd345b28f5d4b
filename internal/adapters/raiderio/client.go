// Package raiderio is a client for the raider.io public API.
package raiderio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/guildsnap/internal/domain/model"
	"github.com/okian/guildsnap/pkg/logger"
	"github.com/okian/guildsnap/pkg/metrics"
)

const (
	DefaultBaseURL   = "https://raider.io/api/v1"
	DefaultRegion    = "eu"
	DefaultUserAgent = "guildsnap/1.0"
	DefaultTimeout   = 15 * time.Second

	rosterFields  = "members"
	profileFields = "mythic_plus_scores_by_season:current"

	maxBodyBytes = 8 << 20
)

// Governor admits remote calls. Penalize is called on a 429 answer.
type Governor interface {
	Wait(ctx context.Context) error
	Penalize()
}

type nopGovernor struct{}

func (nopGovernor) Wait(ctx context.Context) error { return ctx.Err() }
func (nopGovernor) Penalize()                      {}

// Client fetches guild rosters and character scores.
type Client struct {
	baseURL   string
	region    string
	userAgent string
	timeout   time.Duration
	http      *http.Client
	gov       Governor
	log       logger.Logger
}

// New builds a client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		region:    DefaultRegion,
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
		http:      &http.Client{},
		gov:       nopGovernor{},
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type guildResponse struct {
	Name    string `json:"name"`
	Realm   string `json:"realm"`
	Members []struct {
		Character struct {
			Name           string `json:"name"`
			Class          string `json:"class"`
			ActiveSpecName string `json:"active_spec_name"`
		} `json:"character"`
	} `json:"members"`
}

type profileResponse struct {
	Seasons []struct {
		Scores struct {
			All    float64 `json:"all"`
			DPS    float64 `json:"dps"`
			Healer float64 `json:"healer"`
			Tank   float64 `json:"tank"`
			Spec0  float64 `json:"spec_0"`
			Spec1  float64 `json:"spec_1"`
			Spec2  float64 `json:"spec_2"`
			Spec3  float64 `json:"spec_3"`
		} `json:"scores"`
	} `json:"mythic_plus_scores_by_season"`
}

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// RosterURL returns the guild profile URL for g.
func (c *Client) RosterURL(g model.GuildIdentifier) string {
	q := url.Values{}
	q.Set("region", g.Region)
	q.Set("realm", g.Realm)
	q.Set("name", g.Name)
	q.Set("fields", rosterFields)
	return c.baseURL + "/guilds/profile?" + q.Encode()
}

// ProfileURL returns the character profile URL for key in region. An empty
// region falls back to the client's region.
func (c *Client) ProfileURL(key model.PlayerKey, region string) string {
	if region == "" {
		region = c.region
	}
	q := url.Values{}
	q.Set("region", strings.ToLower(region))
	q.Set("realm", key.Realm)
	q.Set("name", key.Name)
	q.Set("fields", profileFields)
	return c.baseURL + "/characters/profile?" + q.Encode()
}

// FetchRoster returns the members of g. Members without a name or class are dropped.
func (c *Client) FetchRoster(ctx context.Context, g model.GuildIdentifier) (model.Roster, error) {
	u := c.RosterURL(g)
	var body guildResponse
	check := func() error {
		if body.Realm == "" || body.Name == "" {
			return fmt.Errorf("missing guild realm or name")
		}
		return nil
	}
	if err := c.get(ctx, "roster", metrics.EndpointRoster, ErrUnknownGuild, u, &body, check); err != nil {
		return model.Roster{}, err
	}

	roster := model.Roster{
		Guild:   body.Name,
		Realm:   body.Realm,
		Region:  g.Region,
		Members: make([]model.Member, 0, len(body.Members)),
	}
	for _, m := range body.Members {
		ch := m.Character
		if ch.Name == "" || ch.Class == "" {
			continue
		}
		roster.Members = append(roster.Members, model.Member{Name: ch.Name, Class: ch.Class, ActiveSpec: ch.ActiveSpecName})
	}
	return roster, nil
}

// FetchScores returns the current season scores of key in region. Missing
// score fields are zero.
func (c *Client) FetchScores(ctx context.Context, key model.PlayerKey, region string) (model.Scores, error) {
	u := c.ProfileURL(key, region)
	var body profileResponse
	check := func() error {
		if len(body.Seasons) == 0 {
			return fmt.Errorf("no mythic_plus_scores_by_season entry")
		}
		return nil
	}
	if err := c.get(ctx, "profile", metrics.EndpointProfile, ErrUnknownCharacter, u, &body, check); err != nil {
		return model.Scores{}, err
	}

	s := body.Seasons[0].Scores
	return model.Scores{
		All: s.All, DPS: s.DPS, Healer: s.Healer, Tank: s.Tank,
		Spec0: s.Spec0, Spec1: s.Spec1, Spec2: s.Spec2, Spec3: s.Spec3,
	}, nil
}

// get performs one governed GET, decodes a 200 body into out and runs check
// on it. notFound is the kind reported for 404 and "could not find" answers.
func (c *Client) get(ctx context.Context, op, endpoint string, notFound error, u string, out any, check func() error) error {
	if err := c.gov.Wait(ctx); err != nil {
		return &RequestError{Op: op, URL: u, Err: err}
	}

	start := time.Now()
	statusCode, body, err := c.do(ctx, u)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordRequest(endpoint, metrics.OutcomeRetryable, elapsed)
		return &RequestError{Op: op, URL: u, Kind: ErrTransport, Err: err}
	}

	if statusCode == http.StatusOK {
		if err := json.Unmarshal(body, out); err != nil {
			metrics.RecordRequest(endpoint, metrics.OutcomeRetryable, elapsed)
			return &RequestError{Op: op, URL: u, StatusCode: statusCode, Kind: ErrTransport, Err: fmt.Errorf("decode body: %w", err)}
		}
		if err := check(); err != nil {
			metrics.RecordRequest(endpoint, metrics.OutcomeMalformed, elapsed)
			return &RequestError{Op: op, URL: u, StatusCode: statusCode, Kind: ErrMalformedResponse, Err: err}
		}
		metrics.RecordRequest(endpoint, metrics.OutcomeSuccess, elapsed)
		return nil
	}

	reqErr := &RequestError{Op: op, URL: u, StatusCode: statusCode, Kind: ErrTransport}
	switch {
	case statusCode == http.StatusNotFound, statusCode == http.StatusBadRequest && couldNotFind(body):
		reqErr.Kind = notFound
		metrics.RecordRequest(endpoint, metrics.OutcomeTerminal, elapsed)
		return reqErr
	case statusCode == http.StatusTooManyRequests:
		c.gov.Penalize()
	}

	if msg := errorMessage(body); msg != "" {
		reqErr.Err = errors.New(msg)
	}
	metrics.RecordRequest(endpoint, metrics.OutcomeRetryable, elapsed)
	c.log.Debug(ctx, "remote call failed", logger.String("op", op), logger.Int("status", statusCode))
	return reqErr
}

func (c *Client) do(ctx context.Context, u string) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func couldNotFind(body []byte) bool {
	return strings.Contains(strings.ToLower(errorMessage(body)), "could not find")
}

func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Message
}
