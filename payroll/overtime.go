package payroll

import "github.com/shopspring/decimal"

// =============================================================================
// OVERTIME ACCRUAL - Pluggable extension point
// =============================================================================

// OvertimeAccrualPolicy decides how much of a day's residual ordinary time is
// payable as qualified overtime. The engine applies it per (date, project)
// after the ordinary residual has been derived, moving the returned portion
// from the ordinary row into an overtime row.
//
// Rolling weekly/4-weekly accrual windows and statutory thresholds are a
// known follow-on extension; no such policy ships here. The default keeps
// the single-day model: everything beyond premium categories stays ordinary.
type OvertimeAccrualPolicy interface {
	// Overtime returns the hours of ordinaryHours payable as qualified
	// overtime for the date. Must return a value in [0, ordinaryHours].
	Overtime(date Date, ordinaryHours decimal.Decimal) decimal.Decimal
}

// NoOvertimeAccrual is the default policy: no hours reclassify as overtime.
type NoOvertimeAccrual struct{}

func (NoOvertimeAccrual) Overtime(Date, decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

var _ OvertimeAccrualPolicy = NoOvertimeAccrual{}
