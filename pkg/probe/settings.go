package probe

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultPort is filled in when an address has no explicit port.
const DefaultPort = "8080"

// ErrSelfProbe is returned by New when the probe target normalizes to the
// local node's own address and port. Probing ourselves can never produce a
// useful seed observation.
var ErrSelfProbe = errors.New("probe target is the local node")

// Settings holds the immutable parameters a Prober is constructed with.
type Settings struct {
	// ProbeInterval is the base delay between probe attempts.
	ProbeInterval time.Duration

	// JitterFactor randomizes each delay by up to ProbeInterval*JitterFactor,
	// staggering probers that run against shared endpoints. Must be in [0,1].
	JitterFactor float64

	// NoSeedsStableMargin is how long empty observations must persist before
	// the no-seeds hint becomes eligible.
	NoSeedsStableMargin time.Duration

	// ProbingFailureTimeout is how long continuous probe failure is tolerated
	// before the Prober gives up.
	ProbingFailureTimeout time.Duration

	// FormNewCluster permits this node to hint new-cluster formation once the
	// stable margin has passed.
	FormNewCluster bool

	// SelfAddr is the local node's own host:port, used to refuse probing
	// ourselves.
	SelfAddr string

	// Logger receives structured probe logs. Nil disables logging.
	Logger *zap.Logger
}

// Validate checks the parameter ranges before a Prober starts.
func (s Settings) Validate() error {
	if s.ProbeInterval <= 0 {
		return fmt.Errorf("probe interval must be positive, got %v", s.ProbeInterval)
	}
	if s.JitterFactor < 0 || s.JitterFactor > 1 {
		return fmt.Errorf("jitter factor must be in [0,1], got %v", s.JitterFactor)
	}
	if s.NoSeedsStableMargin <= 0 {
		return fmt.Errorf("no-seeds stable margin must be positive, got %v", s.NoSeedsStableMargin)
	}
	if s.ProbingFailureTimeout <= 0 {
		return fmt.Errorf("probing failure timeout must be positive, got %v", s.ProbingFailureTimeout)
	}
	if strings.TrimSpace(s.SelfAddr) == "" {
		return errors.New("self address cannot be empty")
	}
	return nil
}

// NormalizeHostPort cuts the http:// https:// prefixes from the input address
// and adds a default port when none is present.
func NormalizeHostPort(addr, defPort string) string {
	if rest, ok := strings.CutPrefix(addr, "http://"); ok {
		addr = rest
	} else if rest, ok := strings.CutPrefix(addr, "https://"); ok {
		addr = rest
	}

	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}

	return addr + ":" + defPort
}
