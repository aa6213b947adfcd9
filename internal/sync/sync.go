package sync

import (
	"context"
	"sync"
	"time"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/directory"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/metrics"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/notify"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/stream"
)

// Service drives the configured sync jobs: read users from the
// directory, fan each record out to the job's output streams, stop a run
// that crosses the error threshold.
type Service struct {
	logger    *logger.Logger
	metrics   *metrics.Metrics
	cfg       *config.Config
	connector directory.Connector
	streams   *stream.Registry
	notifier  notify.Notifier
}

// NewService creates the sync service
func NewService(log *logger.Logger, m *metrics.Metrics, cfg *config.Config,
	connector directory.Connector, streams *stream.Registry, notifier notify.Notifier) *Service {
	return &Service{
		logger:    log,
		metrics:   m,
		cfg:       cfg,
		connector: connector,
		streams:   streams,
		notifier:  notifier,
	}
}

// Run schedules every configured job until the context is cancelled. A
// job with no interval runs once.
func (s *Service) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := range s.cfg.Jobs {
		job := &s.cfg.Jobs[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runScheduled(ctx, job)
		}()
	}
	wg.Wait()
	return ctx.Err()
}

func (s *Service) runScheduled(ctx context.Context, job *config.JobConfig) {
	log := s.logger.WithJob(job.Name)

	for {
		if err := s.RunJob(ctx, job); err != nil {
			log.Errorf("job run failed: %v", err)
		}
		if job.IntervalSeconds <= 0 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(job.IntervalSeconds) * time.Second):
		}
	}
}

// RunJob executes one pass of one job. Individual record failures are
// logged and counted; the run is stopped, with one notification, when
// the count passes the configured threshold.
func (s *Service) RunJob(ctx context.Context, job *config.JobConfig) error {
	log := s.logger.WithJob(job.Name)
	log.Info("starting sync run")

	streams, err := s.openStreams(ctx, job)
	if err != nil {
		return err
	}
	defer s.closeStreams(job, streams)

	results, err := s.connector.Users(ctx, job)
	if err != nil {
		return err
	}

	threshold := s.cfg.Notifications.ErrorThreshold
	errorCount := 0
	processed := 0

	for result := range results {
		if result.Err != nil {
			log.Errorf("failed to read user from directory: %v", result.Err)
			errorCount++
		} else if result.Record == nil {
			continue
		} else {
			processed++
			s.metrics.RecordsProcessed.WithLabelValues(job.Name).Inc()
			for _, out := range streams {
				if err := out.Write(ctx, result.Record); err != nil {
					log.Errorf("failed to write user [%s]: %v", result.Record.DN(), err)
					s.metrics.RecordsFailed.WithLabelValues(job.Name).Inc()
					errorCount++
				}
			}
		}

		if threshold > 0 && errorCount > threshold {
			log.Errorf("stopping run, error count %d passed the threshold of %d", errorCount, threshold)
			if err := s.notifier.NotifyErrors(job.Name, errorCount); err != nil {
				log.Errorf("failed to send error notification: %v", err)
			}
			go drain(results)
			break
		}
	}

	for _, out := range streams {
		if err := out.StreamComplete(ctx); err != nil {
			log.Errorf("stream completion failed: %v", err)
		}
	}

	log.Infof("sync run finished, %d users processed, %d errors", processed, errorCount)
	return nil
}

// openStreams creates and opens one instance of each configured output
// stream. A stream that fails to open closes the ones already opened and
// fails the run.
func (s *Service) openStreams(ctx context.Context, job *config.JobConfig) ([]stream.OutputStream, error) {
	var streams []stream.OutputStream
	for i := range job.OutputStreams {
		streamCfg := &job.OutputStreams[i]

		out, err := s.streams.Create(streamCfg.Name)
		if err == nil {
			err = out.Open(ctx, job, streamCfg)
		}
		if err != nil {
			s.closeStreams(job, streams)
			return nil, err
		}
		streams = append(streams, out)
	}
	return streams, nil
}

func (s *Service) closeStreams(job *config.JobConfig, streams []stream.OutputStream) {
	for _, out := range streams {
		if err := out.Close(); err != nil {
			s.logger.WithJob(job.Name).Errorf("failed to close stream: %v", err)
		}
	}
}

// drain consumes the remainder of an abandoned result channel so the
// directory reader can finish and release its connection.
func drain(results <-chan directory.UserResult) {
	for range results {
	}
}
