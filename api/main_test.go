package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type syncCounter struct {
	bytes.Buffer
	syncs int
}

func (s *syncCounter) Sync() error {
	s.syncs++
	return nil
}

func newCountingLogger() (*zap.Logger, *syncCounter) {
	out := &syncCounter{}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), out, zapcore.DebugLevel)
	return zap.New(core), out
}

func TestExitCodeFlushesLogsOnFailure(t *testing.T) {
	logger, out := newCountingLogger()

	code := exitCode(logger, errors.New("listen tcp :4000: address already in use"))
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "address already in use")
	assert.Equal(t, 1, out.syncs)
}

func TestExitCodeOnCleanShutdown(t *testing.T) {
	logger, out := newCountingLogger()

	assert.Equal(t, 0, exitCode(logger, nil))
	assert.Empty(t, out.String())
	assert.Equal(t, 1, out.syncs)
}
