package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/bursary-match-api/pkg/config"
)

func TestDSNEscapesCredentials(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", Name: "bursary_match"})
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/bursary_match?sslmode=disable", dsn)
}

func TestDSNKeepsSSLMode(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 6432, User: "app", Name: "x", SSLMode: "require"})
	assert.Contains(t, dsn, "sslmode=require")
}
