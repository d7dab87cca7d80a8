package health

import (
	"context"
	"fmt"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/catalog"
)

// CatalogSource supplies the active program catalog.
type CatalogSource interface {
	Snapshot() (*catalog.Catalog, error)
}

// CatalogCheck fails until a program catalog has been loaded. A failed
// reload keeps the previous catalog active, so it does not fail the check.
func CatalogCheck(source CatalogSource) CheckFunc {
	return func(ctx context.Context) error {
		c, err := source.Snapshot()
		if err != nil {
			return err
		}
		if len(c.Alternatives) == 0 {
			return fmt.Errorf("catalog %s has no alternatives ladder", c.Version)
		}
		return nil
	}
}

// probeCaseID is never assigned to a real case.
const probeCaseID = "readiness-probe"

// AuditStorageCheck fails when the audit backend cannot serve a read.
// Decisions are refused without a working audit trail, so this check
// gates readiness.
func AuditStorageCheck(storage audit.Storage) CheckFunc {
	return func(ctx context.Context) error {
		if _, err := storage.Last(ctx, probeCaseID); err != nil {
			return fmt.Errorf("audit storage: %w", err)
		}
		return nil
	}
}
