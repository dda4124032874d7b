// Package scoring computes churn risk from a customer profile with a fixed
// weight logit model and a sigmoid link.
package scoring

import (
	"math"

	"github.com/okian/telcoguard/internal/domain/model"
)

// Model weights. These are hand-picked, not trained.
const (
	bias                    = -1.5
	weightMonthToMonth      = 2.5
	weightTwoYear           = -1.5
	weightFiberOptic        = 1.2
	weightTenureSpan        = 2.0
	tenureSpanMonths        = 72.0
	weightElectronicCheck   = 0.8
	weightNoTechSupport     = 0.6
	weightNoOnlineSecurity  = 0.5
	weightPaperlessBilling  = 0.3
	weightSeniorCitizen     = 0.2
	lowTenureThresholdMonth = 6

	criticalAbove = 65
	mediumAbove   = 35
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLocale selects the factor label catalog. Unknown locales keep the default.
func WithLocale(locale string) Option {
	return func(e *Engine) {
		if c, ok := catalogs[locale]; ok {
			e.labels = c
			e.locale = locale
		}
	}
}

// Engine scores profiles. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	locale string
	labels map[model.FactorCode]string
}

// NewEngine creates an engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{locale: DefaultLocale, labels: catalogs[DefaultLocale]}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Locale returns the active label catalog name.
func (e *Engine) Locale() string { return e.locale }

// Score maps a profile to a probability percent, a tier and the factors
// that fired. It never fails.
func (e *Engine) Score(p model.CustomerProfile) model.PredictionResult {
	pct := Percent(Sigmoid(Logit(p)))
	return model.PredictionResult{
		ProbabilityPercent: pct,
		Tier:               TierFor(pct),
		Factors:            e.DetectFactors(p),
		IsRemote:           false,
	}
}

// Logit returns the pre-sigmoid score for p. TotalCharges is not an input.
func Logit(p model.CustomerProfile) float64 {
	logit := bias

	switch p.Contract {
	case model.ContractMonthToMonth:
		logit += weightMonthToMonth
	case model.ContractTwoYear:
		logit += weightTwoYear
	}

	if p.InternetService == model.InternetFiberOptic {
		logit += weightFiberOptic
	}

	logit -= float64(p.TenureMonths) / tenureSpanMonths * weightTenureSpan

	if p.PaymentMethod == model.PaymentElectronicCheck {
		logit += weightElectronicCheck
	}

	if p.InternetService != model.InternetNone {
		if !p.TechSupport {
			logit += weightNoTechSupport
		}
		if !p.OnlineSecurity {
			logit += weightNoOnlineSecurity
		}
	}

	if p.PaperlessBilling {
		logit += weightPaperlessBilling
	}
	if p.SeniorCitizen {
		logit += weightSeniorCitizen
	}
	return logit
}

// DetectFactors returns the explanation factors for p in detection order:
// contract, internet, tenure, payment. The list may be empty.
func (e *Engine) DetectFactors(p model.CustomerProfile) []model.RiskFactor {
	factors := make([]model.RiskFactor, 0, 4)

	switch p.Contract {
	case model.ContractMonthToMonth:
		factors = append(factors, e.factor(model.FactorContractMonthly, model.SeverityCritical, model.Increases, model.MagnitudeHigh))
	case model.ContractTwoYear:
		factors = append(factors, e.factor(model.FactorContractTwoYear, model.SeverityProtective, model.Decreases, model.MagnitudeHigh))
	}

	if p.InternetService == model.InternetFiberOptic {
		factors = append(factors, e.factor(model.FactorInternetFiber, model.SeverityHigh, model.Increases, model.MagnitudeMed))
	}

	// Threshold annotation only; the continuous tenure term is in Logit.
	if p.TenureMonths < lowTenureThresholdMonth {
		factors = append(factors, e.factor(model.FactorTenureLow, model.SeverityHigh, model.Increases, model.MagnitudeMed))
	}

	if p.PaymentMethod == model.PaymentElectronicCheck {
		factors = append(factors, e.factor(model.FactorPaymentElectronicCheck, model.SeverityMedium, model.Increases, model.MagnitudeLow))
	}
	return factors
}

func (e *Engine) factor(code model.FactorCode, sev model.Severity, dir model.Direction, mag model.Magnitude) model.RiskFactor {
	return model.RiskFactor{
		Code:      code,
		Label:     e.labels[code],
		Severity:  sev,
		Direction: dir,
		Magnitude: mag,
	}
}

// Sigmoid maps a logit to (0,1).
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Percent converts a probability to an integer percent in [0,100],
// rounding half away from zero.
func Percent(p float64) int {
	pct := int(math.Round(p * 100))
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// TierFor buckets a percent: above 65 is Critical, above 35 is Medium.
func TierFor(percent int) model.RiskTier {
	switch {
	case percent > criticalAbove:
		return model.TierCritical
	case percent > mediumAbove:
		return model.TierMedium
	default:
		return model.TierLow
	}
}
