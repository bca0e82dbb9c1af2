package driving

import (
	"context"

	"github.com/custodia-labs/casetrack/internal/core/domain"
)

// Scanner enumerates all configured collection roots into a flat work
// item inventory. Failures on individual cycles or partitions degrade
// to partial results, never abort the scan.
type Scanner interface {
	Scan(ctx context.Context, progress ProgressFunc) ([]domain.WorkItem, error)
}
