package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/armon/circbuf"
	"github.com/dustin/go-humanize"
	"github.com/fgeck/rsyncrule/internal/rule"
	"github.com/fgeck/rsyncrule/internal/services/rsync"
)

const (
	logDirPerm = 0o750
	tailSize   = 4096
)

// logPaths holds the transcript paths of one run, expanded at its start time.
type logPaths struct {
	success  string
	progress string
	errorLog string
}

func resolvePaths(l *rule.Log, at time.Time) (logPaths, error) {
	var (
		paths logPaths
		err   error
	)
	if paths.success, err = l.SuccessPath(at); err != nil {
		return paths, fmt.Errorf("expanding success log path: %w", err)
	}
	if paths.progress, err = l.ProgressPath(at); err != nil {
		return paths, fmt.Errorf("expanding progress log path: %w", err)
	}
	if paths.errorLog, err = l.ErrorPath(at); err != nil {
		return paths, fmt.Errorf("expanding error log path: %w", err)
	}
	return paths, nil
}

// makeParent creates the directory holding path.
func makeParent(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), logDirPerm); err != nil {
		return fmt.Errorf("creating log directory for %s: %w", path, err)
	}
	return nil
}

// sinks routes the output of the rsync process.
type sinks struct {
	stdout io.Writer
	stderr io.Writer
	tail   *circbuf.Buffer
	files  []*os.File
}

// openSinks sends stdout and stderr to their log files, or to the console
// when console is set or no file is configured. stderr is always mirrored
// into a tail buffer so the last error line survives.
func (s *Impl) openSinks(paths logPaths, console bool) (*sinks, error) {
	tail, err := circbuf.NewBuffer(tailSize)
	if err != nil {
		return nil, fmt.Errorf("allocating stderr tail: %w", err)
	}
	sk := &sinks{tail: tail}

	if err := makeParent(paths.success); err != nil {
		return nil, err
	}

	stdout, err := sk.open(paths.progress, console, s.stdout)
	if err != nil {
		_ = sk.close()
		return nil, err
	}
	sk.stdout = stdout

	stderr, err := sk.open(paths.errorLog, console, s.stderr)
	if err != nil {
		_ = sk.close()
		return nil, err
	}
	sk.stderr = io.MultiWriter(stderr, sk.tail)

	return sk, nil
}

func (sk *sinks) open(path string, console bool, fallback io.Writer) (io.Writer, error) {
	if console || path == "" {
		return fallback, nil
	}
	if err := makeParent(path); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	sk.files = append(sk.files, f)
	return f, nil
}

func (sk *sinks) close() error {
	var errs []error
	for _, f := range sk.files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	sk.files = nil
	return errors.Join(errs...)
}

// cleanup removes the progress transcript and an empty error transcript, and
// returns the last line rsync wrote to stderr.
func (s *Impl) cleanup(paths logPaths, tail *circbuf.Buffer) string {
	if paths.progress != "" {
		if err := os.Remove(paths.progress); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", paths.progress).Msg("failed to remove progress file")
		}
	}

	if paths.errorLog != "" {
		info, err := os.Stat(paths.errorLog)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			s.logger.Warn().Err(err).Str("path", paths.errorLog).Msg("failed to inspect error file")
		case info.Size() == 0:
			if err := os.Remove(paths.errorLog); err != nil {
				s.logger.Warn().Err(err).Str("path", paths.errorLog).Msg("failed to remove empty error file")
			}
		default:
			s.logger.Warn().
				Str("path", paths.errorLog).
				Str("size", humanize.Bytes(uint64(info.Size()))).
				Msg("rsync reported errors")
		}
	}

	return rsync.LastLine(tail.String())
}
