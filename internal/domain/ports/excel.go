package ports

import (
	"context"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
)

type ExcelGenerator interface {
	GenerateRidershipReport(ctx context.Context, content entities.ReportContent) ([]byte, error)
}
