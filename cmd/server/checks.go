package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/playperu/cuetimer/internal/handler/health"
	"github.com/playperu/cuetimer/internal/migrations"
)

// schemaChecker fails when the label schema has not been migrated.
func schemaChecker(db *sql.DB) health.Checker {
	return health.CheckerFunc(func(ctx context.Context) error {
		v, err := migrations.Version(ctx, db)
		if err != nil {
			return err
		}
		if v < 1 {
			return fmt.Errorf("schema version %d", v)
		}
		return nil
	})
}
