package database

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	got := dsn(Config{Path: "/data/app.db", BusyTimeout: 2 * time.Second})

	assert.True(t, strings.HasPrefix(got, "/data/app.db?"))
	assert.Contains(t, got, "_journal_mode=WAL")
	assert.Contains(t, got, "_foreign_keys=on")
	assert.Contains(t, got, "_busy_timeout=2000")
}

func TestDSN_DefaultBusyTimeout(t *testing.T) {
	got := dsn(Config{Path: "app.db"})

	assert.Contains(t, got, "_busy_timeout=5000")
}
