package main

import (
	"testing"

	"go-pos-terminal/internal/config"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestRun_RefusesToStartWithoutJWTSecret(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := config.Default()
	cfg.DBDriver = "sqlite"
	cfg.DBDSN = "file:run_refuses?mode=memory"

	assert.ErrorIs(t, run(cfg, log), config.ErrWeakJWTSecret)
}
