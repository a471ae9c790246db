package rule

import "time"

var logFields = []FieldSpec{
	{Key: "success", Kind: KindString},
	{Key: "progress", Kind: KindString},
	{Key: "error", Kind: KindString},
}

// Log holds the time-templated paths of the transfer transcripts.
type Log struct {
	Success  string // rsync --log-file
	Progress string // stdout of the transfer
	Error    string // stderr of the transfer
}

// NewLog builds a Log node from raw.
func NewLog(raw map[string]any) (*Log, error) {
	f, err := resolve("log", raw, logFields)
	if err != nil {
		return nil, err
	}
	return &Log{
		Success:  f.str("success"),
		Progress: f.str("progress"),
		Error:    f.str("error"),
	}, nil
}

func buildLog(raw map[string]any) (Node, error) {
	l, err := NewLog(raw)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// OptionalArgs returns --progress when progress is recorded, and the
// itemized log file when a success path is set.
func (l *Log) OptionalArgs(at time.Time) ([]string, error) {
	var args []string
	if l.Progress != "" {
		args = append(args, "--progress")
	}
	if l.Success != "" {
		path, err := Expand(l.Success, at)
		if err != nil {
			return nil, err
		}
		args = append(args, "--itemize-changes", "--log-file="+path)
	}
	return args, nil
}

// PositionalArgs returns nothing.
func (l *Log) PositionalArgs(time.Time) ([]string, error) {
	return nil, nil
}

// SuccessPath returns the expanded success log path, or "" when unset.
func (l *Log) SuccessPath(at time.Time) (string, error) {
	if l == nil {
		return "", nil
	}
	return Expand(l.Success, at)
}

// ProgressPath returns the expanded progress file path, or "" when unset.
func (l *Log) ProgressPath(at time.Time) (string, error) {
	if l == nil {
		return "", nil
	}
	return Expand(l.Progress, at)
}

// ErrorPath returns the expanded error file path, or "" when unset.
func (l *Log) ErrorPath(at time.Time) (string, error) {
	if l == nil {
		return "", nil
	}
	return Expand(l.Error, at)
}
