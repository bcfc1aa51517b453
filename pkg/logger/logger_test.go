package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/context"
)

func TestNew_WritesRotatingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sos911.log")

	log, err := New(Config{Level: "info", OutputPaths: []string{filepath.Join(dir, "stdout.log")}, File: path})
	require.NoError(t, err)

	ctx := appctx.WithTrace(context.Background(), &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})
	log.WithContext(ctx).Infow("record created", "entity", "clientes")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"record created"`)
	assert.Contains(t, string(data), `"request_id":"r-1"`)
}

func TestFromContext_PrefersInjectedLogger(t *testing.T) {
	nop := Nop()
	ctx := WithLogger(context.Background(), nop)

	got := FromContext(ctx)

	assert.NotNil(t, got)
	assert.NotSame(t, Default(), got)
}
