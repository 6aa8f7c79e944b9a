package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/microlend/loan-engine/internal/config"
	"github.com/microlend/loan-engine/internal/domain"
	customError "github.com/microlend/loan-engine/pkg/errors"
	"github.com/microlend/loan-engine/pkg/money"
)

// Calculator computes upfront costs and repayment terms from the policy
// tables. It is pure: same inputs, same outputs, no state.
type Calculator struct {
	interestTiers  []config.RateTier
	insuranceRates map[string]decimal.Decimal
	depositRate    decimal.Decimal
	serviceCharge  int64
}

// NewCalculator builds a Calculator from the business configuration.
func NewCalculator(cfg *config.Config) (*Calculator, error) {
	tiers, err := cfg.InterestRateTiers()
	if err != nil {
		return nil, err
	}

	rates, err := cfg.InsuranceRates()
	if err != nil {
		return nil, err
	}

	return &Calculator{
		interestTiers:  tiers,
		insuranceRates: rates,
		depositRate:    cfg.GetDepositRate(),
		serviceCharge:  cfg.Business.ServiceCharge,
	}, nil
}

// UpfrontCosts computes the costs collected before disbursement:
// refundable deposit, category-rated insurance fee, and the flat service
// charge. The total always equals the sum of the parts.
func (c *Calculator) UpfrontCosts(principal int64, category string) (domain.UpfrontCostBreakdown, error) {
	if principal <= 0 {
		return domain.UpfrontCostBreakdown{}, customError.WrapValidationf("principal must be positive, got %d", principal)
	}

	insuranceRate, ok := c.insuranceRates[category]
	if !ok {
		return domain.UpfrontCostBreakdown{}, customError.WrapValidationf("unknown loan category %q", category)
	}

	breakdown := domain.UpfrontCostBreakdown{
		Deposit:       money.ApplyRate(principal, c.depositRate),
		InsuranceFee:  money.ApplyRate(principal, insuranceRate),
		ServiceCharge: c.serviceCharge,
	}
	breakdown.Total = breakdown.Deposit + breakdown.InsuranceFee + breakdown.ServiceCharge

	return breakdown, nil
}

// RepaymentSchedule computes the repayment terms for a principal and
// term. The interest rate comes from the term-keyed tier table: the
// smallest tier whose term bound covers the requested term wins. The
// regular installment rounds down and the final installment absorbs the
// remainder, so installments always sum exactly to the total repayable.
func (c *Calculator) RepaymentSchedule(principal int64, termWeeks int) (domain.RepaymentTerms, error) {
	if principal <= 0 {
		return domain.RepaymentTerms{}, customError.WrapValidationf("principal must be positive, got %d", principal)
	}
	if termWeeks <= 0 {
		return domain.RepaymentTerms{}, customError.WrapValidationf("term must be positive, got %d weeks", termWeeks)
	}

	rate, ok := c.rateForTerm(termWeeks)
	if !ok {
		return domain.RepaymentTerms{}, customError.WrapValidationf("term of %d weeks exceeds the longest configured tier", termWeeks)
	}

	interest := money.ApplyRate(principal, rate)
	total := principal + interest
	installment := total / int64(termWeeks)
	final := total - installment*int64(termWeeks-1)

	return domain.RepaymentTerms{
		InterestRate:     rate,
		TotalRepayable:   total,
		Installment:      installment,
		FinalInstallment: final,
	}, nil
}

func (c *Calculator) rateForTerm(termWeeks int) (decimal.Decimal, bool) {
	for _, tier := range c.interestTiers {
		if termWeeks <= tier.MaxTermWeeks {
			return tier.Rate, true
		}
	}
	return decimal.Zero, false
}
