package database

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cristianml/tomevault/internal/config"
)

func TestDSNCarriesTimeHandling(t *testing.T) {
	cfg := config.Config{
		DBUser: "vault",
		DBPass: "s3cret",
		DBHost: "db.internal",
		DBPort: "3307",
		DBName: "tomevault",
	}
	mc := dsnFrom(cfg)

	assert.True(t, mc.ParseTime)
	assert.Equal(t, time.UTC, mc.Loc)

	dsn := mc.FormatDSN()
	assert.True(t, strings.HasPrefix(dsn, "vault:s3cret@tcp(db.internal:3307)/tomevault?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestDSNOmitsEmptyPassword(t *testing.T) {
	cfg := config.Config{
		DBUser: "vault",
		DBHost: "localhost",
		DBPort: "3306",
		DBName: "tomevault",
	}
	dsn := dsnFrom(cfg).FormatDSN()
	assert.True(t, strings.HasPrefix(dsn, "vault@tcp(localhost:3306)/tomevault?"), dsn)
}
