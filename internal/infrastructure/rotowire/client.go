package rotowire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/draftkit/nba-drafter/internal/platform/cache"
	"github.com/draftkit/nba-drafter/internal/platform/logging"
	"github.com/draftkit/nba-drafter/internal/platform/resilience"
	"github.com/draftkit/nba-drafter/internal/usecase"
)

const (
	defaultBaseURL  = "https://api.rotowire.com/basketball"
	defaultCacheTTL = 5 * time.Minute
	lineupsPath     = "/lineups/nba"
)

var apiKeyParamRegex = regexp.MustCompile(`key=[^&\s"']+`)
var errFeedTransient = crerr.New("lineup feed transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	CacheTTL       time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches confirmed starters and injury notes per team for a
// slate date. Responses are cached for a short TTL so repeated candidate
// builds within one run hit the provider once.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	store          *cache.Store
}

var _ usecase.LineupFeed = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		store:          cache.NewStore(ttl),
	}
}

type lineupsEnvelope struct {
	Date  string     `json:"date"`
	Games []gameItem `json:"games"`
}

type gameItem struct {
	HomeTeam teamItem `json:"home_team"`
	AwayTeam teamItem `json:"away_team"`
}

type teamItem struct {
	Abbreviation string       `json:"abbr"`
	Players      []playerItem `json:"players"`
}

type playerItem struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Injury   string `json:"injury"`
}

func (c *Client) FetchLineups(ctx context.Context, date time.Time) ([]usecase.TeamLineup, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("slate date must be set")
	}

	day := date.UTC().Format("2006-01-02")
	out, err := c.store.GetOrLoad(ctx, "lineups:"+day, func(ctx context.Context) (any, error) {
		return c.fetchSlate(ctx, day)
	})
	if err != nil {
		return nil, err
	}

	lineups, ok := out.([]usecase.TeamLineup)
	if !ok {
		return nil, fmt.Errorf("unexpected cached payload type %T", out)
	}
	return lineups, nil
}

func (c *Client) fetchSlate(ctx context.Context, day string) ([]usecase.TeamLineup, error) {
	query := map[string]string{"date": day}

	var envelope lineupsEnvelope
	if err := c.doJSON(ctx, lineupsPath, query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch lineups date=%s: %w", day, err)
	}

	lineups := make([]usecase.TeamLineup, 0, len(envelope.Games)*2)
	for _, item := range envelope.Games {
		for _, side := range []teamItem{item.AwayTeam, item.HomeTeam} {
			lineup, ok := mapTeamLineup(side)
			if !ok {
				continue
			}
			lineups = append(lineups, lineup)
		}
	}

	sort.SliceStable(lineups, func(i, j int) bool { return lineups[i].Team < lineups[j].Team })
	return lineups, nil
}

// mapTeamLineup applies the feed convention that the first five listed
// players are the confirmed starters. Every player carrying an injury
// note lands in Injured, starters included.
func mapTeamLineup(side teamItem) (usecase.TeamLineup, bool) {
	abbr := strings.ToUpper(strings.TrimSpace(side.Abbreviation))
	if abbr == "" {
		return usecase.TeamLineup{}, false
	}

	lineup := usecase.TeamLineup{Team: abbr}
	for i, row := range side.Players {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			continue
		}
		mapped := usecase.FeedPlayer{
			Name:     name,
			Team:     abbr,
			Position: strings.ToUpper(strings.TrimSpace(row.Position)),
			Injury:   strings.TrimSpace(row.Injury),
		}
		if i < 5 {
			lineup.Starters = append(lineup.Starters, mapped)
		}
		if mapped.Injury != "" {
			lineup.Injured = append(lineup.Injured, mapped)
		}
	}
	return lineup, true
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "lineup feed circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: lineup feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	if c.token != "" {
		values.Set("key", c.token)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	key := path + "?" + values.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errFeedTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode feed payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errFeedTransient, sanitizeSensitiveText(err.Error(), c.token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errFeedTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: feed status=%d body=%s", errFeedTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("feed request failed")
	}
	c.logger.WarnContext(ctx, "lineup feed request failed", "url", redactFeedURL(fullURL), "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func abbreviateBody(raw []byte) string {
	body := strings.TrimSpace(string(raw))
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return body
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return apiKeyParamRegex.ReplaceAllString(value, "key=REDACTED")
}

func redactFeedURL(fullURL string) string {
	return apiKeyParamRegex.ReplaceAllString(fullURL, "key=REDACTED")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
