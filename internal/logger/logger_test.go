package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactsSensitiveKeys(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core))

	l.Info("connecting",
		"host", "db",
		"POSTGRES_PASSWORD", "hunter2",
		"aws_secret_access_key", "abc",
		"aws_access_key_id", "AKIA",
		"dsn", "postgres://u:p@h/db",
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	require.Equal(t, "db", ctx["host"])
	require.Equal(t, Redacted, ctx["POSTGRES_PASSWORD"])
	require.Equal(t, Redacted, ctx["aws_secret_access_key"])
	require.Equal(t, Redacted, ctx["aws_access_key_id"])
	require.Equal(t, Redacted, ctx["dsn"])
}

func TestWithCarriesFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core)).With("stage", "extract", "secret", "x")
	l.Warn("slow")

	ctx := logs.All()[0].ContextMap()
	require.Equal(t, "extract", ctx["stage"])
	require.Equal(t, Redacted, ctx["secret"])
}

func TestNop(t *testing.T) {
	t.Parallel()
	Nop().Error("ignored", "k", 1)
}
