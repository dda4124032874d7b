package model

import (
	"fmt"
	"strings"
)

// Contract is the customer's contract term.
type Contract int

const (
	ContractMonthToMonth Contract = iota
	ContractOneYear
	ContractTwoYear
)

var contractNames = [...]string{"Month-to-month", "One year", "Two year"}

func (c Contract) String() string {
	if c < 0 || int(c) >= len(contractNames) {
		return fmt.Sprintf("Contract(%d)", int(c))
	}
	return contractNames[c]
}

// Valid reports whether c is a known contract term.
func (c Contract) Valid() bool { return c >= ContractMonthToMonth && c <= ContractTwoYear }

// ParseContract parses the wire form of a contract term.
func ParseContract(s string) (Contract, error) {
	for i, name := range contractNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Contract(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown Contract %q", ErrInvalidProfile, s)
}

// PaymentMethod is how the customer pays.
type PaymentMethod int

const (
	PaymentElectronicCheck PaymentMethod = iota
	PaymentMailedCheck
	PaymentBankTransferAuto
	PaymentCreditCardAuto
)

var paymentNames = [...]string{
	"Electronic check",
	"Mailed check",
	"Bank transfer (automatic)",
	"Credit card (automatic)",
}

func (p PaymentMethod) String() string {
	if p < 0 || int(p) >= len(paymentNames) {
		return fmt.Sprintf("PaymentMethod(%d)", int(p))
	}
	return paymentNames[p]
}

// Valid reports whether p is a known payment method.
func (p PaymentMethod) Valid() bool {
	return p >= PaymentElectronicCheck && p <= PaymentCreditCardAuto
}

// ParsePaymentMethod parses the wire form of a payment method.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	for i, name := range paymentNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return PaymentMethod(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown PaymentMethod %q", ErrInvalidProfile, s)
}

// InternetService is the customer's internet access type.
type InternetService int

const (
	InternetNone InternetService = iota
	InternetDSL
	InternetFiberOptic
)

var internetNames = [...]string{"No", "DSL", "Fiber optic"}

func (i InternetService) String() string {
	if i < 0 || int(i) >= len(internetNames) {
		return fmt.Sprintf("InternetService(%d)", int(i))
	}
	return internetNames[i]
}

// Valid reports whether i is a known internet service.
func (i InternetService) Valid() bool { return i >= InternetNone && i <= InternetFiberOptic }

// ParseInternetService parses the wire form of an internet service.
func ParseInternetService(s string) (InternetService, error) {
	for i, name := range internetNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return InternetService(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown InternetService %q", ErrInvalidProfile, s)
}

// RiskTier buckets a churn probability.
type RiskTier int

const (
	TierLow RiskTier = iota
	TierMedium
	TierCritical
)

var (
	tierNames     = [...]string{"Low", "Medium", "Critical"}
	tierWireNames = [...]string{"Bajo", "Medio", "Crítico"}
)

func (t RiskTier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return fmt.Sprintf("RiskTier(%d)", int(t))
	}
	return tierNames[t]
}

// WireName returns the label used by the remote prediction contract.
func (t RiskTier) WireName() string {
	if t < 0 || int(t) >= len(tierWireNames) {
		return ""
	}
	return tierWireNames[t]
}

// MarshalText encodes the tier by its English name.
func (t RiskTier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// ParseRiskTier accepts both the English names and the remote contract's
// labels, including the unaccented "Critico".
func ParseRiskTier(s string) (RiskTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "bajo":
		return TierLow, nil
	case "medium", "medio":
		return TierMedium, nil
	case "critical", "crítico", "critico":
		return TierCritical, nil
	}
	return 0, fmt.Errorf("%w: unknown risk level %q", ErrInvalidTier, s)
}

// Severity grades how strongly a factor weighs on the outcome.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
	SeverityProtective
)

var severityNames = [...]string{"Low", "Medium", "High", "Critical", "Protective"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Direction says whether a factor pushes churn risk up or down.
type Direction int

const (
	Increases Direction = iota
	Decreases
)

func (d Direction) String() string {
	if d == Decreases {
		return "Decreases"
	}
	return "Increases"
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Magnitude is a coarse weight tag for display.
type Magnitude int

const (
	MagnitudeLow Magnitude = iota
	MagnitudeMed
	MagnitudeHigh
)

var magnitudeNames = [...]string{"Low", "Med", "High"}

func (m Magnitude) String() string {
	if m < 0 || int(m) >= len(magnitudeNames) {
		return fmt.Sprintf("Magnitude(%d)", int(m))
	}
	return magnitudeNames[m]
}

// MarshalText encodes the magnitude by name.
func (m Magnitude) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
