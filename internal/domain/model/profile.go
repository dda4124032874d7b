// Package model contains the domain values passed between layers: the
// customer profile that is scored and the prediction result returned for it.
package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Documented input domain of the numeric profile fields.
const (
	MinTenureMonths = 0
	MaxTenureMonths = 72
)

var (
	MinMonthlyCharges = decimal.NewFromInt(18)
	MaxMonthlyCharges = decimal.NewFromInt(120)
)

// CustomerProfile is a snapshot of a telecom customer's account, services
// and demographics. It is built fresh for each scoring call.
type CustomerProfile struct {
	// Demographics
	Gender        string // not used by scoring
	SeniorCitizen bool
	Partner       bool
	Dependents    bool

	// Account
	TenureMonths     int
	Contract         Contract
	PaymentMethod    PaymentMethod
	PaperlessBilling bool
	MonthlyCharges   decimal.Decimal
	TotalCharges     decimal.Decimal

	// Services
	InternetService InternetService
	TechSupport     bool
	OnlineSecurity  bool

	// Ancillary services, carried for shape only.
	PhoneService     bool
	MultipleLines    bool
	OnlineBackup     bool
	DeviceProtection bool
	StreamingTV      bool
	StreamingMovies  bool
}

// DeriveTotalCharges returns tenure * monthly rounded half-up to cents.
func DeriveTotalCharges(tenureMonths int, monthly decimal.Decimal) decimal.Decimal {
	return monthly.Mul(decimal.NewFromInt(int64(tenureMonths))).Round(2)
}

// WithDerivedTotal returns a copy of p whose TotalCharges is derived from
// tenure and monthly charges.
func (p CustomerProfile) WithDerivedTotal() CustomerProfile {
	p.TotalCharges = DeriveTotalCharges(p.TenureMonths, p.MonthlyCharges)
	return p
}

// Validate checks the profile against its documented input domain. Scoring
// itself accepts any value; callers at the system boundary use this.
func (p CustomerProfile) Validate() error {
	var errs []error
	if p.TenureMonths < MinTenureMonths || p.TenureMonths > MaxTenureMonths {
		errs = append(errs, fmt.Errorf("tenure must be within [%d,%d], got %d",
			MinTenureMonths, MaxTenureMonths, p.TenureMonths))
	}
	if p.MonthlyCharges.LessThan(MinMonthlyCharges) || p.MonthlyCharges.GreaterThan(MaxMonthlyCharges) {
		errs = append(errs, fmt.Errorf("MonthlyCharges must be within [%s,%s], got %s",
			MinMonthlyCharges, MaxMonthlyCharges, p.MonthlyCharges))
	}
	if p.TotalCharges.IsNegative() {
		errs = append(errs, fmt.Errorf("TotalCharges must not be negative, got %s", p.TotalCharges))
	}
	if !p.Contract.Valid() {
		errs = append(errs, fmt.Errorf("unknown contract %d", int(p.Contract)))
	}
	if !p.PaymentMethod.Valid() {
		errs = append(errs, fmt.Errorf("unknown payment method %d", int(p.PaymentMethod)))
	}
	if !p.InternetService.Valid() {
		errs = append(errs, fmt.Errorf("unknown internet service %d", int(p.InternetService)))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidProfile, errors.Join(errs...))
}

// FactorCode identifies a scoring rule that produced a factor.
type FactorCode string

const (
	FactorContractMonthly        FactorCode = "contract_monthly"
	FactorContractTwoYear        FactorCode = "contract_two_year"
	FactorInternetFiber          FactorCode = "internet_fiber"
	FactorTenureLow              FactorCode = "tenure_low"
	FactorPaymentElectronicCheck FactorCode = "payment_electronic_check"
)

// RiskFactor is one human-readable explanation of a rule that fired.
type RiskFactor struct {
	Code      FactorCode `json:"code"`
	Label     string     `json:"label"`
	Severity  Severity   `json:"severity"`
	Direction Direction  `json:"direction"`
	Magnitude Magnitude  `json:"magnitude"`
}

// PredictionResult is produced once per scoring request.
type PredictionResult struct {
	RequestID          uuid.UUID
	ProbabilityPercent int
	Tier               RiskTier
	// Factors are in detection order, not sorted by weight.
	Factors  []RiskFactor
	IsRemote bool
	// FallbackReason is empty unless a remote attempt was skipped or failed.
	FallbackReason string
}

// FactorCodes lists the codes of r's factors in order.
func (r PredictionResult) FactorCodes() []string {
	codes := make([]string, len(r.Factors))
	for i, f := range r.Factors {
		codes[i] = string(f.Code)
	}
	return codes
}

// Source returns "remote" or "local".
func (r PredictionResult) Source() string {
	if r.IsRemote {
		return "remote"
	}
	return "local"
}
