package models

import "time"

// WakeConfig holds Wake-on-LAN configuration for the remote endpoint.
type WakeConfig struct {
	MACAddress    string
	BroadcastIP   string
	Host          string        // dialed until it accepts connections
	Port          int           // defaults to the endpoint's ssh port
	Timeout       time.Duration // max time to wait for the host
	PollInterval  time.Duration // how often to dial
	StabilizeWait time.Duration // wait after the host answers
}

// WakeResult holds the result of a Wake-on-LAN operation.
type WakeResult struct {
	PacketSent   bool
	HostReady    bool
	WaitDuration time.Duration
	Error        error
}
