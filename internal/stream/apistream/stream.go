package apistream

import (
	"context"
	"strconv"
	"time"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/cache"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/directory"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/metrics"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/remote"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/stream"
)

// Name is the stream type this package registers under
const Name = "api"

const defaultLoginIntervalMinutes = 20

// APIStream writes directory records into the remote HR system. Each run
// logs in with the configured credentials, renews the session on a timer
// and reconciles every record through the engine.
type APIStream struct {
	logger  *logger.Logger
	metrics *metrics.Metrics
	caches  *cache.Factory

	auth          AuthenticationService
	employees     EmployeeService
	divisions     DivisionService
	departments   DepartmentService
	groups        GroupService
	relationships RelationshipService
	lookups       LookupService
	companies     CompanyService

	token  *remote.TokenHolder
	engine *engine

	baseAddress  string
	organization string
	username     string
	password     string

	stopRenew chan struct{}
	renewDone chan struct{}
}

// New creates an API stream backed by the real remote services
func New(log *logger.Logger, m *metrics.Metrics, caches *cache.Factory) *APIStream {
	data := remote.NewDataService(log, m)
	return &APIStream{
		logger:        log,
		metrics:       m,
		caches:        caches,
		auth:          remote.NewAuthenticationService(log, data),
		employees:     remote.NewEmployeeService(log, data),
		divisions:     remote.NewDivisionService(log, data),
		departments:   remote.NewDepartmentService(log, data),
		groups:        remote.NewGroupService(log, data),
		relationships: remote.NewRelationshipService(log, data),
		lookups:       remote.NewLookupService(log, data),
		companies:     remote.NewCompanyService(log, data),
		token:         remote.NewTokenHolder(),
	}
}

// Register adds this stream type to the registry
func Register(registry *stream.Registry, log *logger.Logger, m *metrics.Metrics, caches *cache.Factory) {
	registry.Register(Name, func() stream.OutputStream {
		return New(log, m, caches)
	})
}

// Open authenticates against the remote system, opens the job's caches
// and starts the session renewal timer.
func (s *APIStream) Open(ctx context.Context, job *config.JobConfig, streamCfg *config.StreamConfig) error {
	s.baseAddress = streamCfg.Setting("baseAddress", "")
	s.organization = streamCfg.Setting("organization", "")
	s.username = streamCfg.Setting("username", "")
	s.password = streamCfg.Setting("password", "")
	if s.baseAddress == "" || s.organization == "" {
		return &config.ConfigurationError{Message: "api stream requires baseAddress and organization settings"}
	}

	interval := defaultLoginIntervalMinutes
	if v := streamCfg.Setting("loginIntervalMinutes", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return &config.ConfigurationError{Message: "loginIntervalMinutes must be a positive integer"}
		}
		interval = n
	}

	token, err := s.auth.Login(ctx, s.baseAddress, s.organization, s.username, s.password)
	if err != nil {
		return err
	}
	s.token.Set(token)

	caches, err := openCaches(s.caches, job.Name)
	if err != nil {
		return err
	}

	s.engine = newEngine(s.logger, s.metrics, job, streamCfg,
		s.employees, s.divisions, s.departments, s.groups, s.relationships, s.lookups,
		s.companies, s.token, caches)

	s.stopRenew = make(chan struct{})
	s.renewDone = make(chan struct{})
	go s.renewSessions(time.Duration(interval) * time.Minute)

	return nil
}

// renewSessions re-authenticates on a fixed interval so long runs never
// work with an expired token. Callers racing a renewal see either the
// old token or the new one, both valid.
func (s *APIStream) renewSessions(interval time.Duration) {
	defer close(s.renewDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopRenew:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			token, err := s.auth.Login(ctx, s.baseAddress, s.organization, s.username, s.password)
			cancel()
			if err != nil {
				s.logger.Errorf("failed to renew API session: %v", err)
				continue
			}
			s.token.Set(token)
		}
	}
}

// Write reconciles one directory record with the remote system
func (s *APIStream) Write(ctx context.Context, record *directory.Record) error {
	return s.engine.process(ctx, record)
}

// StreamComplete processes the relationships deferred during the run
func (s *APIStream) StreamComplete(ctx context.Context) error {
	s.engine.processPendingRelationships(ctx)
	return nil
}

// Close stops session renewal, logs out and persists the caches. A
// failed logout is logged but does not fail the run.
func (s *APIStream) Close() error {
	if s.stopRenew != nil {
		close(s.stopRenew)
		<-s.renewDone
		s.stopRenew = nil
	}

	if s.token.Get() != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.auth.Logout(ctx, s.token.Get()); err != nil {
			s.logger.Errorf("failed to log out of API: %v", err)
		}
	}

	if s.engine != nil {
		return s.engine.caches.flush()
	}
	return nil
}
