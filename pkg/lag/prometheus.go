package lag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// PrometheusSampler reads a latency metric from the Prometheus HTTP API.
// It issues a /api/v1/query call every Interval and expects the query to yield
// a latency in seconds, for example:
//
//	max(nodejs_eventloop_lag_seconds{service="storefront"})
//
// If multiple series are returned, their values are SUMMED.
type PrometheusSampler struct {
	// ServerURL is the base URL to Prometheus, e.g. http://prometheus.monitoring.svc:9090
	ServerURL string
	// Query is the PromQL expression to evaluate.
	Query string
	// Interval controls how often Prometheus is polled (defaults to 15s if <= 0).
	Interval time.Duration
	// StaleAfter is how long the last successful poll stays usable
	// (defaults to 3 * Interval if <= 0).
	StaleAfter time.Duration
	// Alpha is the EMA smoothing factor (defaults to DefaultAlpha).
	Alpha float64
	// HTTPClient is optional; if nil a default client with timeout is used.
	HTTPClient *http.Client
	// Logger is optional; if nil slog.Default() is used.
	Logger *slog.Logger

	once   sync.Once
	ema    *EMA
	now    func() time.Time
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	lastOK time.Time
}

func (p *PrometheusSampler) init() {
	p.once.Do(func() {
		alpha := p.Alpha
		if alpha == 0 {
			alpha = DefaultAlpha
		}
		p.ema = NewEMA(alpha)
		if p.now == nil {
			p.now = time.Now
		}
		if p.Logger == nil {
			p.Logger = slog.Default()
		}
	})
}

// Lag implements Sampler. It returns the smoothed value of the successful
// polls. ok is false before the first success and once the last success is
// older than StaleAfter.
func (p *PrometheusSampler) Lag() (time.Duration, bool) {
	p.init()

	p.mu.Lock()
	lastOK := p.lastOK
	p.mu.Unlock()

	if lastOK.IsZero() || p.now().Sub(lastOK) > p.staleAfter() {
		return p.ema.Value(), false
	}
	return p.ema.Value(), true
}

func (p *PrometheusSampler) interval() time.Duration {
	if p.Interval <= 0 {
		return 15 * time.Second
	}
	return p.Interval
}

func (p *PrometheusSampler) staleAfter() time.Duration {
	if p.StaleAfter <= 0 {
		return 3 * p.interval()
	}
	return p.StaleAfter
}

// Start polls Prometheus in the background until Stop is called or ctx ends.
// The first poll happens immediately.
func (p *PrometheusSampler) Start(ctx context.Context) {
	p.init()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx, p.done)
}

// Stop halts polling and waits for the background goroutine to exit.
func (p *PrometheusSampler) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *PrometheusSampler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval())
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll collects once and folds the result into the average. Failures keep
// the previous estimate until it goes stale.
func (p *PrometheusSampler) poll(ctx context.Context) {
	d, err := p.Collect(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.Logger.Warn("prometheus lag sample failed", "query", p.Query, "error", err)
		}
		return
	}
	smoothed := p.ema.Update(d)

	p.mu.Lock()
	p.lastOK = p.now()
	p.mu.Unlock()

	p.Logger.Debug("prometheus lag sampled",
		"raw_ms", float64(d.Microseconds())/1000,
		"smoothed_ms", float64(smoothed.Microseconds())/1000,
	)
}

// Collect queries Prometheus once and returns the raw latency. It respects the
// provided context for cancellation and deadlines.
func (p *PrometheusSampler) Collect(ctx context.Context) (time.Duration, error) {
	p.init()

	if p.ServerURL == "" || p.Query == "" {
		return 0, errors.New("prometheus sampler: ServerURL and Query are required")
	}

	u, err := url.Parse(p.ServerURL)
	if err != nil {
		return 0, fmt.Errorf("invalid ServerURL: %w", err)
	}
	u.Path = "/api/v1/query"
	q := u.Query()
	q.Set("query", p.Query)
	u.RawQuery = q.Encode()

	cli := p.HTTPClient
	if cli == nil {
		cli = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := cli.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("prometheus: status %d", resp.StatusCode)
	}

	var pr prometheusInstantResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return 0, fmt.Errorf("decode prometheus response: %w", err)
	}
	if pr.Status != "success" {
		return 0, fmt.Errorf("prometheus status: %s", pr.Status)
	}
	if len(pr.Data.Result) == 0 {
		return 0, errors.New("prometheus: query returned no series")
	}

	seconds, err := sumVector(pr.Data.Result)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("prometheus: non-finite value %v", seconds)
	}
	if seconds < 0 {
		seconds = 0
	}
	return time.Duration(math.Round(seconds * float64(time.Second))), nil
}

type prometheusInstantResponse struct {
	Status string                `json:"status"`
	Data   prometheusInstantData `json:"data"`
}

type prometheusInstantData struct {
	ResultType string                  `json:"resultType"`
	Result     []prometheusVectorSerie `json:"result"`
}

type prometheusVectorSerie struct {
	Metric map[string]string `json:"metric"`
	// Value is [ <unix_time_float>, "<value_string>" ]
	Value []any `json:"value"`
}

func sumVector(series []prometheusVectorSerie) (float64, error) {
	var total float64
	for _, s := range series {
		if len(s.Value) != 2 {
			return 0, fmt.Errorf("invalid value pair length: %d", len(s.Value))
		}

		switch v := s.Value[1].(type) {
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return 0, fmt.Errorf("parse value: %w", err)
			}
			total += f
		case float64:
			total += v
		default:
			return 0, fmt.Errorf("unexpected value type %T", v)
		}
	}
	return total, nil
}
