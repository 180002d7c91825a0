package projections

import (
	"context"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/gridplay/boxgame/internal/domain/projection"
	"github.com/gridplay/boxgame/internal/platform/cache"
	"github.com/gridplay/boxgame/internal/platform/logging"
	"github.com/gridplay/boxgame/internal/platform/resilience"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultCacheTTL = 5 * time.Minute
	warmupParallel  = 4
)

var errFeedTransient = crerr.New("projections feed transient failure")

type ClientConfig struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	CacheTTL       time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches weekly projections from the feed. Responses are cached per
// (position, week) with single-flight loading, and the feed is shielded by a
// circuit breaker so a dead upstream fails fast instead of piling up.
type Client struct {
	httpClient     *fasthttp.Client
	baseURL        string
	token          string
	timeout        time.Duration
	maxRetries     int
	cache          *cache.Store
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient: &fasthttp.Client{
			MaxConnsPerHost:     64,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:          strings.TrimSpace(cfg.Token),
		timeout:        timeout,
		maxRetries:     maxRetries,
		cache:          cache.NewStore(cacheTTL),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type feedRecord struct {
	PlayerID        string  `json:"player_id"`
	PlayerName      string  `json:"player_name"`
	Position        string  `json:"position"`
	Team            string  `json:"team"`
	Opponent        string  `json:"opponent"`
	Week            int     `json:"week"`
	ProjectedPoints float64 `json:"projected_points"`
	InjuryStatus    string  `json:"injury_status"`
}

// Projections implements projection.Source.
func (c *Client) Projections(ctx context.Context, position string, week int) ([]projection.Projection, error) {
	position = strings.TrimSpace(strings.ToUpper(position))
	if position == "" {
		return nil, fmt.Errorf("position is required")
	}
	if week <= 0 {
		return nil, fmt.Errorf("week must be greater than zero")
	}

	key := fmt.Sprintf("projections::%s::%d", position, week)
	value, err := c.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return c.fetch(ctx, position, week)
	})
	if err != nil {
		return nil, err
	}

	items, ok := value.([]projection.Projection)
	if !ok {
		return nil, fmt.Errorf("unexpected cache value for %s", key)
	}

	return append([]projection.Projection(nil), items...), nil
}

// WarmUp pre-loads the cache for several positions of one week. Failures are
// logged and reported, but one cold position does not block the others.
func (c *Client) WarmUp(ctx context.Context, positions []string, week int) error {
	p := pool.New().WithContext(ctx).WithMaxGoroutines(warmupParallel)
	for _, position := range positions {
		position := position
		p.Go(func(ctx context.Context) error {
			if _, err := c.Projections(ctx, position, week); err != nil {
				c.logger.WarnContext(ctx, "projection warmup failed",
					"position", position,
					"week", week,
					"error", err,
				)
				return err
			}
			return nil
		})
	}

	return p.Wait()
}

func (c *Client) fetch(ctx context.Context, position string, week int) ([]projection.Projection, error) {
	if c.baseURL == "" {
		return nil, crerr.New("projections feed base url is not configured")
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 200 * time.Millisecond)
		}

		items, err := c.fetchOnce(position, week)
		if err == nil {
			return items, nil
		}
		lastErr = err
		if !crerr.Is(err, errFeedTransient) {
			break
		}
		c.logger.WarnContext(ctx, "projections fetch retrying",
			"position", position,
			"week", week,
			"attempt", attempt+1,
			"error", err,
		)
	}

	return nil, lastErr
}

func (c *Client) fetchOnce(position string, week int) ([]projection.Projection, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			return nil, crerr.Wrap(err, "projections feed")
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/v1/projections?position=%s&week=%d", c.baseURL, position, week))
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if err := c.httpClient.DoTimeout(req, resp, c.timeout); err != nil {
		c.recordFailure()
		return nil, crerr.Mark(crerr.Wrapf(err, "fetch projections %s week %d", position, week), errFeedTransient)
	}

	status := resp.StatusCode()
	if status >= 500 {
		c.recordFailure()
		return nil, crerr.Mark(crerr.Newf("projections feed returned %d", status), errFeedTransient)
	}
	if status != fasthttp.StatusOK {
		c.recordFailure()
		return nil, crerr.Newf("projections feed returned %d", status)
	}

	// The response body is only valid until the fasthttp objects are
	// released, so it is copied through a pooled buffer before decoding.
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.Write(resp.Body()); err != nil {
		c.recordFailure()
		return nil, crerr.Wrap(err, "buffer projections body")
	}

	var records []feedRecord
	if err := sonic.Unmarshal(buf.B, &records); err != nil {
		c.recordFailure()
		return nil, crerr.Wrap(err, "decode projections body")
	}

	items := make([]projection.Projection, 0, len(records))
	for _, rec := range records {
		item := projection.Projection{
			PlayerID:        strings.TrimSpace(rec.PlayerID),
			PlayerName:      strings.TrimSpace(rec.PlayerName),
			Position:        strings.TrimSpace(strings.ToUpper(rec.Position)),
			Team:            rec.Team,
			Opponent:        rec.Opponent,
			Week:            rec.Week,
			ProjectedPoints: rec.ProjectedPoints,
			InjuryStatus:    rec.InjuryStatus,
		}
		if item.PlayerID == "" {
			continue
		}
		if err := item.Validate(); err != nil {
			return nil, crerr.Wrapf(err, "projection %s", item.PlayerID)
		}
		items = append(items, item)
	}

	if c.circuitEnabled {
		c.breaker.RecordSuccess()
	}

	return items, nil
}

func (c *Client) recordFailure() {
	if c.circuitEnabled {
		c.breaker.RecordFailure()
	}
}
