package ports

import (
	"context"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/report"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/run"
)

// ResultRepository persists aggregated effect tables together with the
// manifest of the run that produced them.
type ResultRepository interface {
	// SaveManifest records the run manifest. Must be called before
	// SaveTable for the same run.
	SaveManifest(ctx context.Context, m *run.Manifest) error

	// SaveTable appends every record of an aggregated table under a run.
	SaveTable(ctx context.Context, m *run.Manifest, t *report.Table) error
}
