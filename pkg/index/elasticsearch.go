package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ember-nexus/nexus-search/pkg/logger"
)

const (
	defaultBreakerMaxFailures uint32 = 5
	defaultBreakerTimeout            = 30 * time.Second
	defaultBreakerInterval           = 60 * time.Second
)

var tracer = otel.Tracer("pkg/index")

// BreakerConfig configures the circuit breaker in front of the backend.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32

	// Timeout is how long the circuit stays open before a probe is let through.
	Timeout time.Duration

	// Interval is the cyclic period of the closed state for clearing failure counts.
	Interval time.Duration
}

// ElasticsearchConfig configures an ElasticsearchSearcher.
type ElasticsearchConfig struct {
	Addresses    []string
	Username     string
	Password     string
	APIKey       string
	MaxRetries   int
	DisableRetry bool

	// Transport defaults to an otelhttp instrumented http.DefaultTransport.
	Transport http.RoundTripper

	Breaker BreakerConfig
	Logger  logger.Logger
}

// ElasticsearchSearcher implements Searcher with the official Elasticsearch client.
type ElasticsearchSearcher struct {
	client  *elasticsearch.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  logger.Logger
}

var _ Searcher = (*ElasticsearchSearcher)(nil)

// NewElasticsearchSearcher creates a searcher for the cluster described by cfg.
func NewElasticsearchSearcher(cfg ElasticsearchConfig) (*ElasticsearchSearcher, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNoopLogger()
	}

	transport := cfg.Transport
	if transport == nil {
		transport = otelhttp.NewTransport(http.DefaultTransport)
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    cfg.Addresses,
		Username:     cfg.Username,
		Password:     cfg.Password,
		APIKey:       cfg.APIKey,
		MaxRetries:   cfg.MaxRetries,
		DisableRetry: cfg.DisableRetry,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize elasticsearch client: %w", err)
	}

	return &ElasticsearchSearcher{
		client:  client,
		breaker: newBreaker(cfg.Breaker, log),
		logger:  log,
	}, nil
}

func newBreaker(cfg BreakerConfig, log logger.Logger) *gobreaker.CircuitBreaker[[]byte] {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultBreakerTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultBreakerInterval
	}

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "elasticsearch",
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: isSuccessful,
	})
}

// isSuccessful keeps rejected requests and cancellations from tripping the breaker.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}

	var responseErr *ResponseError
	return errors.As(err, &responseErr) && responseErr.IsClientError()
}

// Search see [Searcher].Search.
func (s *ElasticsearchSearcher) Search(ctx context.Context, index string, body map[string]any) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "elasticsearch.Search", trace.WithAttributes(attribute.String("index", index)))
	defer span.End()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	raw, err := s.breaker.Execute(func() ([]byte, error) {
		return s.search(ctx, index, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return raw, err
}

func (s *ElasticsearchSearcher) search(ctx context.Context, index string, payload []byte) ([]byte, error) {
	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(index),
		s.client.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read elasticsearch response: %w", err)
	}

	if res.IsError() {
		return nil, &ResponseError{StatusCode: res.StatusCode, Body: string(raw)}
	}

	return raw, nil
}
