package cleaning

import "stockmood/internal/domain/models"

// Rating bands for the data quality score.
const (
	RatingExcellent = "Excellent"
	RatingGood      = "Good"
	RatingFair      = "Fair"
	RatingPoor      = "Poor"
)

// Score is a pure function of a cleaning audit. The score starts at 100 and is
// penalized by the share of cells that needed repair and the share of rows
// that were removed:
//
//	score = 100 - missing_ratio*30 - duplicate_ratio*20 - outlier_ratio*25 - removed_ratio*25
//
// where missing_ratio is over numeric cells (rows_before x 5) and the other
// ratios are over rows_before. An empty or fully rejected table scores 0.
func Score(audit models.CleaningAudit) models.QualityReport {
	report := models.QualityReport{
		RowsBefore: audit.RowsBefore,
		RowsAfter:  audit.RowsAfter,
	}
	if audit.RowsBefore == 0 || audit.RowsAfter == 0 {
		report.Score = 0
		report.Rating = RatingPoor
		return report
	}

	before := float64(audit.RowsBefore)
	missingRatio := float64(audit.MissingFound) / (before * float64(numericFields))
	duplicateRatio := float64(audit.DuplicatesRemoved) / before
	outlierRatio := float64(audit.OutliersRemoved) / before
	removedRatio := float64(audit.Removed()) / before

	score := 100 - missingRatio*30 - duplicateRatio*20 - outlierRatio*25 - removedRatio*25
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	report.Score = score
	report.Rating = rating(score)
	return report
}

func rating(score float64) string {
	switch {
	case score >= 90:
		return RatingExcellent
	case score >= 75:
		return RatingGood
	case score >= 60:
		return RatingFair
	default:
		return RatingPoor
	}
}
