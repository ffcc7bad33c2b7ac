// Package storage manages the local directory where uploads are staged
// before they are handed to the blob adapter.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/CUknot/tasksphere_backend/logger"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TempDir is the upload staging directory.
type TempDir struct {
	path  string
	log   *zap.Logger
	sched gocron.Scheduler

	mu   sync.Mutex
	held map[string]int
}

// NewTempDir creates the staging directory if missing.
func NewTempDir(path string, log *zap.Logger) (*TempDir, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("upload temp dir is required")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create upload temp dir: %w", err)
	}
	return &TempDir{path: path, log: log.Named("storage"), held: make(map[string]int)}, nil
}

// Path returns the directory path.
func (d *TempDir) Path() string {
	return d.path
}

// Stage returns a fresh path inside the directory for a file uploaded under
// uploadName. Concurrent uploads of the same name never collide.
func (d *TempDir) Stage(uploadName string) string {
	return filepath.Join(d.path, uuid.NewString()+"-"+SafeFilename(uploadName))
}

// Hold keeps Sweep away from path until the returned release is called.
// Requests hold their staged file for as long as the blob upload may still
// be reading it.
func (d *TempDir) Hold(path string) (release func()) {
	d.mu.Lock()
	d.held[path]++
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			if d.held[path]--; d.held[path] <= 0 {
				delete(d.held, path)
			}
		})
	}
}

func (d *TempDir) isHeld(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.held[path] > 0
}

// Sweep removes staged files last modified before now-maxAge and returns how
// many were removed. Held files are skipped whatever their age.
func (d *TempDir) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return 0, fmt.Errorf("read upload temp dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(d.path, entry.Name())
		if d.isHeld(path) {
			continue
		}
		if err := os.Remove(path); err != nil {
			d.log.Warn("failed to remove stale upload", zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}

// StartSweeper schedules Sweep every interval.
func (d *TempDir) StartSweeper(interval, maxAge time.Duration) error {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(logger.NewGocronLogger(d.log)),
	)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			n, err := d.Sweep(maxAge)
			if err != nil {
				d.log.Error("upload temp dir sweep failed", zap.Error(err))
				return
			}
			if n > 0 {
				d.log.Info("removed stale uploads", zap.Int("count", n))
			}
		}),
		gocron.WithName("sweep-upload-temp"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}

	s.Start()
	d.sched = s
	return nil
}

// Shutdown stops the sweeper if it was started.
func (d *TempDir) Shutdown() error {
	if d.sched == nil {
		return nil
	}
	return d.sched.Shutdown()
}

// SafeFilename strips directories and separators from a client-supplied name.
func SafeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "upload"
	}
	return name
}
