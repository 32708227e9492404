package zkaa

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompactHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCompactHandler(&buf, nil))

	logger.Debug("hidden")
	logger.Info("Transaction sent", "nonce", 7, "state", StateSent)
	logger.Warn("slow", slog.Group("wait", slog.Int("secs", 3)))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Regexp(t, regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{3} INFO  Transaction sent nonce=7 state=sent$`), lines[0])
	require.Regexp(t, regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{3} WARN  slow wait\.secs=3$`), lines[1])
}

func TestCompactHandlerWithAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.With("account", "a1").WithGroup("tx").With("nonce", 1).WithGroup("fee").Debug("built", "cap", 2)

	require.True(t, strings.HasSuffix(buf.String(), " DEBUG built account=a1 tx.nonce=1 tx.fee.cap=2\n"), buf.String())
}
