package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/metrics"
)

// DataService performs JSON requests against the remote API. The base
// address is set once per run (and again when the organization host
// resolves elsewhere); every entity service shares one instance so the
// underlying connections are pooled.
type DataService interface {
	SetBaseAddress(baseAddress string)
	Get(ctx context.Context, uri string, out interface{}) error
	Post(ctx context.Context, uri string, body, out interface{}) error
}

// Status is the status envelope the remote API returns on every response
type Status struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateResponse is the body returned by entity creation and update calls
type CreateResponse struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
}

type httpDataService struct {
	logger  *logger.Logger
	metrics *metrics.Metrics
	client  *http.Client
	base    string
}

// NewDataService creates a DataService with pooled connections
func NewDataService(log *logger.Logger, m *metrics.Metrics) DataService {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &httpDataService{
		logger:  log,
		metrics: m,
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}
}

func (s *httpDataService) SetBaseAddress(baseAddress string) {
	s.base = strings.TrimSuffix(baseAddress, "/")
}

// Get issues a GET and decodes the JSON response into out (which may be
// nil for calls whose body is irrelevant). Non-2xx responses become
// OperationError.
func (s *httpDataService) Get(ctx context.Context, uri string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+uri, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.count("GET", "error")
		return fmt.Errorf("request to %s failed: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.count("GET", "failure")
		return &OperationError{
			Endpoint:   uri,
			StatusCode: resp.StatusCode,
			Reason:     resp.Status,
		}
	}
	s.count("GET", "success")

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", uri, err)
	}
	return nil
}

// Post serializes body as JSON, issues a POST and decodes the response
// into out. Non-2xx responses become OperationError carrying the request
// body for diagnostics.
func (s *httpDataService) Post(ctx context.Context, uri string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+uri, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.count("POST", "error")
		return fmt.Errorf("request to %s failed: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.count("POST", "failure")
		return &OperationError{
			Endpoint:   uri,
			StatusCode: resp.StatusCode,
			Reason:     resp.Status,
			Body:       string(payload),
		}
	}
	s.count("POST", "success")

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", uri, err)
	}
	return nil
}

func (s *httpDataService) count(method, outcome string) {
	if s.metrics != nil {
		s.metrics.RemoteRequests.WithLabelValues(method, outcome).Inc()
	}
}
