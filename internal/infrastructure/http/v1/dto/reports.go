package dto

import (
	"time"

	"tradebook/internal/domain/reports"
)

// PeriodRequest binds reporting period query parameters.
type PeriodRequest struct {
	From time.Time `form:"from" binding:"required" time_format:"2006-01-02"`
	To   time.Time `form:"to" binding:"required" time_format:"2006-01-02"`
}

// ToPeriod converts the request, treating To as inclusive by extending
// it to the start of the following day.
func (r *PeriodRequest) ToPeriod() reports.Period {
	return reports.Period{
		From: r.From,
		To:   r.To.AddDate(0, 0, 1),
	}
}
