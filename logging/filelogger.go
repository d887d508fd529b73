package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/acarl005/stripansi"
	"github.com/google/uuid"
)

const (
	SummaryFilename    = "summary.log"
	RunDirectoryPrefix = "testrun-" // Standardized prefix for run directories
)

// FileLogger stores the raw output of each module run under a per-run
// directory so failures can be inspected after the process exits.
type FileLogger struct {
	baseDir string
	logDir  string
	runID   string
	mu      sync.Mutex
}

// NewFileLogger creates the run directory and returns a logger writing into it.
func NewFileLogger(baseDir string, runID string) (*FileLogger, error) {
	if runID == "" {
		runID = uuid.New().String()
	}

	logDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	return &FileLogger{
		baseDir: baseDir,
		logDir:  logDir,
		runID:   runID,
	}, nil
}

// GetRunID returns the run ID associated with this logger.
func (l *FileLogger) GetRunID() string {
	return l.runID
}

// GetDirectory returns the directory that holds this run's log files.
func (l *FileLogger) GetDirectory() string {
	return l.logDir
}

// WriteModuleOutput stores the captured stdout of a module run. ANSI escape
// sequences are stripped so the files are greppable.
func (l *FileLogger) WriteModuleOutput(module string, output []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	name := sanitizeFilename(module) + ".log"
	path := filepath.Join(l.logDir, name)
	clean := stripansi.Strip(string(output))
	if err := os.WriteFile(path, []byte(clean), 0644); err != nil {
		return fmt.Errorf("failed to write module output %s: %w", path, err)
	}
	return nil
}

// WriteSummary stores the final per-run summary text.
func (l *FileLogger) WriteSummary(summary string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	path := filepath.Join(l.logDir, SummaryFilename)
	if err := os.WriteFile(path, []byte(summary), 0644); err != nil {
		return fmt.Errorf("failed to write summary %s: %w", path, err)
	}
	return nil
}

// sanitizeFilename makes a module name safe to use as a file name.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"?", "_",
		"#", "_",
		"&", "_",
		"=", "_",
		" ", "_",
	)
	s := replacer.Replace(name)
	if s == "" {
		s = "module"
	}
	return s
}
