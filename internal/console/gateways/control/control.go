// Package control is the administrative command channel to the running
// unbound daemon. Commands are opaque to the rest of the console: only the
// combined output text and success/failure matter.
package control

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/haukened/ub-admin/internal/console/common/log"
	"github.com/haukened/ub-admin/internal/console/common/metrics"
)

const (
	defaultCommandTimeout = 5 * time.Second
	defaultCheckTimeout   = 10 * time.Second
)

// Options configures a Channel.
type Options struct {
	// ControlBin is the unbound-control binary name or path.
	ControlBin string
	// CheckconfBin is the unbound-checkconf binary name or path.
	CheckconfBin string
	// CommandTimeout bounds control commands; defaults to 5s.
	CommandTimeout time.Duration
	// CheckTimeout bounds syntax checks; defaults to 10s.
	CheckTimeout time.Duration
	Logger       log.Logger
}

// Channel executes unbound administration binaries with bounded timeouts.
// A timeout is reported the same way as any other command failure; once a
// command has been issued there is no way to cancel it early.
type Channel struct {
	controlBin   string
	checkconfBin string
	cmdTimeout   time.Duration
	checkTimeout time.Duration
	logger       log.Logger
}

// New constructs a Channel, applying defaults for unset options.
func New(opts Options) *Channel {
	c := &Channel{
		controlBin:   opts.ControlBin,
		checkconfBin: opts.CheckconfBin,
		cmdTimeout:   opts.CommandTimeout,
		checkTimeout: opts.CheckTimeout,
		logger:       opts.Logger,
	}
	if c.controlBin == "" {
		c.controlBin = "unbound-control"
	}
	if c.checkconfBin == "" {
		c.checkconfBin = "unbound-checkconf"
	}
	if c.cmdTimeout <= 0 {
		c.cmdTimeout = defaultCommandTimeout
	}
	if c.checkTimeout <= 0 {
		c.checkTimeout = defaultCheckTimeout
	}
	if c.logger == nil {
		c.logger = log.GetLogger()
	}
	return c
}

// Execute runs an unbound-control command and returns its combined output
// and whether it succeeded. Failures (bad exit, missing binary, timeout)
// never surface as errors; the output text carries the detail.
func (c *Channel) Execute(ctx context.Context, command string, args ...string) (string, bool) {
	output, ok := c.run(ctx, c.controlBin, c.cmdTimeout, append([]string{command}, args...)...)

	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	metrics.ControlCommands.WithLabelValues(command, outcome).Inc()
	c.logger.Debug(map[string]any{"command": command, "ok": ok}, "control_command")
	return output, ok
}

// CheckConf runs the daemon's own syntax checker against the given
// configuration file.
func (c *Channel) CheckConf(ctx context.Context, confPath string) (string, bool) {
	output, ok := c.run(ctx, c.checkconfBin, c.checkTimeout, confPath)
	c.logger.Debug(map[string]any{"path": confPath, "ok": ok}, "checkconf")
	return output, ok
}

// Reload tells the daemon to reload its configuration.
func (c *Channel) Reload(ctx context.Context) (string, bool) {
	return c.Execute(ctx, "reload")
}

// StatsNoReset fetches cumulative statistics without resetting counters.
func (c *Channel) StatsNoReset(ctx context.Context) (string, bool) {
	return c.Execute(ctx, "stats_noreset")
}

// FlushAll drops the entire cache by flushing the root zone.
func (c *Channel) FlushAll(ctx context.Context) (string, bool) {
	return c.Execute(ctx, "flush_zone", ".")
}

// FlushDomain drops a single name from the cache.
func (c *Channel) FlushDomain(ctx context.Context, domain string) (string, bool) {
	return c.Execute(ctx, "flush", domain)
}

func (c *Channel) run(ctx context.Context, bin string, timeout time.Duration, args ...string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, args...)
	raw, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(raw))
	if err != nil {
		if output == "" {
			output = err.Error()
		}
		return output, false
	}
	return output, true
}
