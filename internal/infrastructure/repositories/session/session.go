package session

import (
	"context"
	"net/http"
	"time"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// SessionConfig tunes the shared HTTP session.
type SessionConfig struct {
	// RetryMax is the number of retries after the first attempt.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// ResponseHeaderTimeout bounds each individual request independently of
	// the retry backoff ceiling, so one hung call cannot stall a run.
	ResponseHeaderTimeout time.Duration
	// RequestsPerSecond caps outbound requests across the whole session.
	// Callers queue behind the limiter instead of failing.
	RequestsPerSecond float64
}

// DefaultSessionConfig returns the production policy: 5 attempts with
// exponential backoff between 2s and 10s.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		RetryMax:              4,
		RetryWaitMin:          2 * time.Second,
		RetryWaitMax:          10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		RequestsPerSecond:     4,
	}
}

// Session is the explicit HTTP client shared by the registry client and the
// download engine: opened at run start, closed at run end, passed by
// reference to everything that performs network I/O.
type Session struct {
	config  SessionConfig
	retry   *retryablehttp.Client
	limiter *rate.Limiter
}

// NewSession creates a session with the given policy.
func NewSession(config SessionConfig) *Session {
	transport := cleanhttp.DefaultPooledTransport()
	transport.ResponseHeaderTimeout = config.ResponseHeaderTimeout

	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{Transport: transport}
	client.RetryMax = config.RetryMax
	client.RetryWaitMin = config.RetryWaitMin
	client.RetryWaitMax = config.RetryWaitMax
	client.CheckRetry = checkRetry
	client.Logger = &leveledLogger{}

	return &Session{
		config:  config,
		retry:   client,
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
	}
}

// NewDefaultSession creates a session with the production policy.
func NewDefaultSession() *Session {
	return NewSession(DefaultSessionConfig())
}

// Do performs a request with retries, waiting on the session limiter first.
func (s *Session) Do(request *retryablehttp.Request) (*http.Response, error) {
	if err := s.limiter.Wait(request.Context()); err != nil {
		return nil, err
	}
	return s.retry.Do(request)
}

// StandardClient returns the underlying non-retrying client sharing the
// session transport. The download engine drives its own attempt loop so one
// backoff budget covers transport and integrity failures alike.
func (s *Session) StandardClient() *http.Client {
	return s.retry.HTTPClient
}

// Wait blocks on the session-wide request limiter.
func (s *Session) Wait(ctx context.Context) error {
	return s.limiter.Wait(ctx)
}

// Backoff returns the wait before the given zero-based retry, using the
// session's backoff policy.
func (s *Session) Backoff(attempt int) time.Duration {
	return retryablehttp.DefaultBackoff(s.config.RetryWaitMin, s.config.RetryWaitMax, attempt, nil)
}

// MaxAttempts returns the total attempt budget (first try plus retries).
func (s *Session) MaxAttempts() int {
	return s.config.RetryMax + 1
}

// CallTimeout bounds one fully retried call: every attempt may take up to
// the header timeout and every retry may wait up to the backoff ceiling, so
// an outer deadline tighter than this would truncate the attempt budget.
func (s *Session) CallTimeout() time.Duration {
	attempts := time.Duration(s.MaxAttempts())
	return attempts*s.config.ResponseHeaderTimeout + (attempts-1)*s.config.RetryWaitMax
}

// Close releases idle connections. The session must not be used afterwards.
func (s *Session) Close() {
	s.retry.HTTPClient.CloseIdleConnections()
}

// checkRetry retries transport failures, rate limiting and server errors.
// Every other 4xx is terminal.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return true, nil
	}
	return false, nil
}

// leveledLogger adapts logrus to retryablehttp's LeveledLogger interface.
type leveledLogger struct{}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	logger.WithFields(fields(keysAndValues)).Error(msg)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	logger.WithFields(fields(keysAndValues)).Warn(msg)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.WithFields(fields(keysAndValues)).Info(msg)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	logger.WithFields(fields(keysAndValues)).Debug(msg)
}

func fields(keysAndValues []interface{}) logger.Fields {
	out := make(logger.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		out[key] = keysAndValues[i+1]
	}
	return out
}
