package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"recipe-aggregator/internal/infrastructure/config"
	"recipe-aggregator/internal/infrastructure/metrics"
	"recipe-aggregator/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Response 供應商原始回應
type Response struct {
	StatusCode int
	Body       []byte
}

// Options 單一供應商的 HTTP 設定
type Options struct {
	Name              string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Breaker           config.BreakerConfig
	UserAgent         string
}

// OptionsFor 由供應商設定產生 Options
func OptionsFor(name string, p config.ProviderConfig, b config.BreakerConfig) Options {
	return Options{
		Name:              name,
		Timeout:           p.Timeout,
		RequestsPerSecond: p.RequestsPerSecond,
		Burst:             p.Burst,
		Breaker:           b,
	}
}

// Client 以 resty 發送 GET，外層有速率限制與斷路器
type Client struct {
	name    string
	http    *resty.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[*Response]
}

// upstreamError 5xx/429 對斷路器而言是失敗，但回應仍交給呼叫者判斷
type upstreamError struct {
	status int
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.status)
}

// New 建立供應商 HTTP 客戶端
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "recipe-aggregator/1.0"
	}

	httpClient := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", opts.UserAgent)

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		name:    opts.Name,
		http:    httpClient,
		limiter: limiter,
		cb:      newBreaker(opts.Name, opts.Breaker),
	}
}

func newBreaker(name string, cfg config.BreakerConfig) *gobreaker.CircuitBreaker[*Response] {
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			common.LogWarn("斷路器狀態變更",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
}

// Get 發送 GET 請求；非 2xx 不視為錯誤，由呼叫者決定如何處理
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.cb.Execute(func() (*Response, error) {
		r, err := c.http.R().
			SetContext(ctx).
			SetHeaders(headers).
			Get(url)
		if err != nil {
			return nil, err
		}
		out := &Response{StatusCode: r.StatusCode(), Body: r.Body()}
		if out.StatusCode >= http.StatusInternalServerError || out.StatusCode == http.StatusTooManyRequests {
			return out, &upstreamError{status: out.StatusCode}
		}
		return out, nil
	})

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	metrics.RecordProviderRequest(c.name, status, time.Since(start))

	var upstream *upstreamError
	if errors.As(err, &upstream) {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// State 斷路器目前狀態
func (c *Client) State() string {
	return c.cb.State().String()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
