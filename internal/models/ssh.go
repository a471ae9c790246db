package models

// ProbeResult holds the result of probing a remote rsync endpoint.
type ProbeResult struct {
	Connected    bool
	RsyncVersion string // first line of `rsync --version` on the remote
	Output       string
	Error        error
}
