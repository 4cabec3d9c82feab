package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/orgball2608/insta-downloader-api/pkg/config"
	"github.com/orgball2608/insta-downloader-api/pkg/logger"
	"go.uber.org/fx"
)

// Manager owns the download base directory. It hands out uniquely named
// per-request directories and arms their delayed removal on a scheduler
// that is shut down with the application, so cleanup jobs are cancellable
// instead of detached sleeping goroutines.
type Manager struct {
	base      string
	auto      bool
	delay     time.Duration
	logger    logger.Logger
	scheduler gocron.Scheduler
}

type Opts struct {
	fx.In
	LC fx.Lifecycle

	Config *config.Config
	Logger logger.Logger
}

func New(opts Opts) (*Manager, error) {
	m, err := NewManager(opts.Config.Download.Dir, opts.Config.Cleanup.Auto, opts.Config.CleanupDelay(), opts.Logger)
	if err != nil {
		return nil, err
	}
	opts.LC.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return m.Close()
		},
	})
	return m, nil
}

func NewManager(base string, auto bool, delay time.Duration, log logger.Logger) (*Manager, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir %s: %w", base, err)
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create cleanup scheduler: %w", err)
	}
	scheduler.Start()

	return &Manager{
		base:      base,
		auto:      auto,
		delay:     delay,
		logger:    log,
		scheduler: scheduler,
	}, nil
}

// Close stops the cleanup scheduler. Pending cleanup jobs are dropped;
// anything left over is confined to the base directory.
func (m *Manager) Close() error {
	return m.scheduler.Shutdown()
}

// Allocate creates a fresh directory for one in-flight request. The
// microsecond-resolution timestamp in the name keeps concurrent requests
// for the same subject apart.
func (m *Manager) Allocate(subject string) (string, error) {
	now := time.Now()
	name := fmt.Sprintf("%s_%s_%06d", subject, now.Format("20060102_150405"), now.Nanosecond()/1000)
	dir := filepath.Join(m.base, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("allocate download dir: %w", err)
	}
	return dir, nil
}

// Remove deletes a directory and its contents. Removing an already absent
// directory is a no-op.
func (m *Manager) Remove(dir string) error {
	return os.RemoveAll(dir)
}

// ScheduleCleanup arms delayed removal of dir and its sibling <dir>.zip.
// Only armed when auto cleanup is enabled; never blocks and never reports
// failure to the caller.
func (m *Manager) ScheduleCleanup(dir string) {
	if !m.auto {
		return
	}
	_, err := m.scheduler.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(time.Now().Add(m.delay))),
		gocron.NewTask(func() {
			if err := m.Remove(dir); err != nil {
				m.logger.Error("Failed to clean up download dir", "dir", dir, "error", err)
			}
			zipPath := dir + ".zip"
			if err := os.Remove(zipPath); err != nil && !os.IsNotExist(err) {
				m.logger.Error("Failed to clean up archive", "path", zipPath, "error", err)
			}
			m.logger.Debug("Cleaned up download dir", "dir", dir)
		}),
	)
	if err != nil {
		m.logger.Error("Failed to schedule cleanup", "dir", dir, "error", err)
	}
}
