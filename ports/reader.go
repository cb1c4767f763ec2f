package ports

import (
	"context"

	"golifetime/domain/lifedata"
)

// ObservationReader loads lifetime observations from tabular sources
// (spreadsheets, CSV exports). Implementations validate rows strictly: a
// malformed row is an error, never a silently dropped record.
type ObservationReader interface {
	ReadObservations(ctx context.Context, path string) (lifedata.Sample, error)
}
