// Package tasks implements scheduled background tasks for Batuchat.
// It includes task definitions, dependencies, and registration mechanisms.
package tasks

import (
	"log/slog"

	"github.com/nmoralez/batuchat/internal/config"
	"github.com/nmoralez/batuchat/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
