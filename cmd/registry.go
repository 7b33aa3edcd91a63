package cmd

import (
	"fmt"
	"strconv"

	"github.com/zjrosen/mlagent/internal/config"
	"github.com/zjrosen/mlagent/internal/infrastructure/sqlite"
	"github.com/zjrosen/mlagent/internal/registry/application"
)

// openRegistry opens the configured registry database.
func openRegistry(c config.Config) (*sqlite.DB, error) {
	db, err := sqlite.NewDB(c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening registry: %w", err)
	}
	return db, nil
}

// newQueries builds the read side over db. Nothing publishes changes in a
// one-shot command, so reads go straight to the store.
func newQueries(db *sqlite.DB) *application.QueryService {
	return application.NewQueryService(application.QueryServiceConfig{
		Models:    db.Models(),
		Pipelines: db.Pipelines(),
		Resources: db.Resources(),
	})
}

func parseVersion(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid version %q: must be a positive integer", s)
	}
	return v, nil
}
