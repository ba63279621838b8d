package control

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/haukened/ub-admin/internal/console/common/log"
)

func TestExecute_Success(t *testing.T) {
	c := New(Options{ControlBin: "echo", Logger: log.NewNoopLogger()})

	out, ok := c.Execute(context.Background(), "reload")
	assert.True(t, ok)
	assert.Equal(t, "reload", out)
}

func TestExecute_PassesArgs(t *testing.T) {
	c := New(Options{ControlBin: "echo", Logger: log.NewNoopLogger()})

	out, ok := c.Execute(context.Background(), "flush", "ads.example.com")
	assert.True(t, ok)
	assert.Equal(t, "flush ads.example.com", out)
}

func TestExecute_MissingBinary(t *testing.T) {
	c := New(Options{ControlBin: "definitely-not-a-binary-xyz", Logger: log.NewNoopLogger()})

	out, ok := c.Execute(context.Background(), "reload")
	assert.False(t, ok)
	assert.NotEmpty(t, out, "failure detail must be reported")
}

func TestExecute_Timeout(t *testing.T) {
	c := New(Options{
		ControlBin:     "sleep",
		CommandTimeout: 50 * time.Millisecond,
		Logger:         log.NewNoopLogger(),
	})

	start := time.Now()
	_, ok := c.Execute(context.Background(), "5")
	assert.False(t, ok, "timeout is treated as failure")
	assert.Less(t, time.Since(start), 2*time.Second, "command must be killed at the deadline")
}

func TestCheckConf(t *testing.T) {
	good := New(Options{CheckconfBin: "true", Logger: log.NewNoopLogger()})
	_, ok := good.CheckConf(context.Background(), "/etc/unbound/unbound.conf")
	assert.True(t, ok)

	bad := New(Options{CheckconfBin: "false", Logger: log.NewNoopLogger()})
	out, ok := bad.CheckConf(context.Background(), "/etc/unbound/unbound.conf")
	assert.False(t, ok)
	assert.NotEmpty(t, out)
}

func TestConvenienceCommands(t *testing.T) {
	c := New(Options{ControlBin: "echo", Logger: log.NewNoopLogger()})

	out, ok := c.Reload(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "reload", out)

	out, ok = c.StatsNoReset(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "stats_noreset", out)

	out, ok = c.FlushAll(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "flush_zone .", out)

	out, ok = c.FlushDomain(context.Background(), "ads.example.com")
	assert.True(t, ok)
	assert.Equal(t, "flush ads.example.com", out)
}

func TestNew_Defaults(t *testing.T) {
	c := New(Options{})
	assert.Equal(t, "unbound-control", c.controlBin)
	assert.Equal(t, "unbound-checkconf", c.checkconfBin)
	assert.Equal(t, defaultCommandTimeout, c.cmdTimeout)
	assert.Equal(t, defaultCheckTimeout, c.checkTimeout)
}
