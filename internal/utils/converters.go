package utils

import (
	"fmt"
	"time"

	"github.com/dorian5656/nhsa-crm-sync/internal/model"
)

func ConvertSummaryToItems(s model.RunSummary) map[string]int {
	return map[string]int{
		"records": s.Total,
		"success": s.SuccessCount,
		"failed":  s.FailCount,
	}
}

func ConvertSummaryToLine(s model.RunSummary) string {
	return fmt.Sprintf("total: %d, success: %d, failed: %d, elapsed: %s",
		s.Total, s.SuccessCount, s.FailCount, s.Elapsed.Round(time.Millisecond))
}
