package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/telcoguard/internal/domain/model"
	"github.com/shopspring/decimal"
)

// RequiredFields are the keys every prediction request body must carry.
var RequiredFields = []string{
	"gender", "SeniorCitizen", "Partner", "Dependents", "tenure",
	"PhoneService", "MultipleLines", "InternetService", "OnlineSecurity",
	"OnlineBackup", "DeviceProtection", "TechSupport", "StreamingTV",
	"StreamingMovies", "Contract", "PaperlessBilling", "PaymentMethod",
	"MonthlyCharges", "TotalCharges",
}

// WireProfile is the JSON shape of a customer profile on the prediction
// contract. Field names follow the Telco churn dataset columns.
type WireProfile struct {
	Gender           string  `json:"gender" yaml:"gender"`
	SeniorCitizen    int     `json:"SeniorCitizen" yaml:"SeniorCitizen"`
	Partner          string  `json:"Partner" yaml:"Partner"`
	Dependents       string  `json:"Dependents" yaml:"Dependents"`
	PhoneService     string  `json:"PhoneService" yaml:"PhoneService"`
	MultipleLines    string  `json:"MultipleLines" yaml:"MultipleLines"`
	InternetService  string  `json:"InternetService" yaml:"InternetService"`
	OnlineSecurity   string  `json:"OnlineSecurity" yaml:"OnlineSecurity"`
	OnlineBackup     string  `json:"OnlineBackup" yaml:"OnlineBackup"`
	DeviceProtection string  `json:"DeviceProtection" yaml:"DeviceProtection"`
	TechSupport      string  `json:"TechSupport" yaml:"TechSupport"`
	StreamingTV      string  `json:"StreamingTV" yaml:"StreamingTV"`
	StreamingMovies  string  `json:"StreamingMovies" yaml:"StreamingMovies"`
	Tenure           int     `json:"tenure" yaml:"tenure"`
	Contract         string  `json:"Contract" yaml:"Contract"`
	PaperlessBilling string  `json:"PaperlessBilling" yaml:"PaperlessBilling"`
	PaymentMethod    string  `json:"PaymentMethod" yaml:"PaymentMethod"`
	MonthlyCharges   float64 `json:"MonthlyCharges" yaml:"MonthlyCharges"`
	TotalCharges     Charges `json:"TotalCharges" yaml:"TotalCharges"`
}

// Charges is a monetary amount that may arrive as a JSON number or string.
// A blank string means "not supplied".
type Charges struct {
	Amount decimal.Decimal
	Set    bool
}

// NewCharges returns a set Charges value.
func NewCharges(d decimal.Decimal) Charges { return Charges{Amount: d, Set: true} }

// MarshalJSON writes the amount as a string with two decimals.
func (c Charges) MarshalJSON() ([]byte, error) {
	if !c.Set {
		return []byte(`""`), nil
	}
	return json.Marshal(c.Amount.StringFixed(2))
}

// UnmarshalJSON accepts numbers, numeric strings and blank strings.
func (c *Charges) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = Charges{}
		return nil
	}
	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*c = Charges{}
			return nil
		}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("%w: TotalCharges %q is not a number", ErrInvalidWire, raw)
	}
	*c = NewCharges(d)
	return nil
}

// UnmarshalYAML accepts the same forms as UnmarshalJSON for fixture files.
func (c *Charges) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*c = Charges{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: TotalCharges %q is not a number", ErrInvalidWire, s)
	}
	*c = NewCharges(d)
	return nil
}

// MissingFields returns the required keys absent from a decoded body, sorted.
func MissingFields(body map[string]json.RawMessage) []string {
	var missing []string
	for _, f := range RequiredFields {
		if _, ok := body[f]; !ok {
			missing = append(missing, f)
		}
	}
	sort.Strings(missing)
	return missing
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func parseYesNo(field, s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return true, nil
	case "no", "no phone service", "no internet service":
		return false, nil
	}
	return false, fmt.Errorf("%w: %s must be Yes or No, got %q", ErrInvalidWire, field, s)
}

// EncodeProfile converts a profile to its wire form.
func EncodeProfile(p model.CustomerProfile) WireProfile {
	senior := 0
	if p.SeniorCitizen {
		senior = 1
	}
	return WireProfile{
		Gender:           p.Gender,
		SeniorCitizen:    senior,
		Partner:          yesNo(p.Partner),
		Dependents:       yesNo(p.Dependents),
		PhoneService:     yesNo(p.PhoneService),
		MultipleLines:    yesNo(p.MultipleLines),
		InternetService:  p.InternetService.String(),
		OnlineSecurity:   yesNo(p.OnlineSecurity),
		OnlineBackup:     yesNo(p.OnlineBackup),
		DeviceProtection: yesNo(p.DeviceProtection),
		TechSupport:      yesNo(p.TechSupport),
		StreamingTV:      yesNo(p.StreamingTV),
		StreamingMovies:  yesNo(p.StreamingMovies),
		Tenure:           p.TenureMonths,
		Contract:         p.Contract.String(),
		PaperlessBilling: yesNo(p.PaperlessBilling),
		PaymentMethod:    p.PaymentMethod.String(),
		MonthlyCharges:   p.MonthlyCharges.InexactFloat64(),
		TotalCharges:     NewCharges(p.TotalCharges),
	}
}

// DecodeProfile converts a wire profile to the domain value. TotalCharges
// is derived from tenure and monthly charges when not supplied.
func DecodeProfile(w WireProfile) (model.CustomerProfile, error) {
	var (
		p    model.CustomerProfile
		err  error
		errs []string
	)
	flag := func(field, v string) bool {
		b, e := parseYesNo(field, v)
		if e != nil {
			errs = append(errs, e.Error())
		}
		return b
	}

	p.Gender = w.Gender
	switch w.SeniorCitizen {
	case 0:
	case 1:
		p.SeniorCitizen = true
	default:
		errs = append(errs, fmt.Sprintf("SeniorCitizen must be 0 or 1, got %d", w.SeniorCitizen))
	}
	p.Partner = flag("Partner", w.Partner)
	p.Dependents = flag("Dependents", w.Dependents)
	p.PhoneService = flag("PhoneService", w.PhoneService)
	p.MultipleLines = flag("MultipleLines", w.MultipleLines)
	p.OnlineSecurity = flag("OnlineSecurity", w.OnlineSecurity)
	p.OnlineBackup = flag("OnlineBackup", w.OnlineBackup)
	p.DeviceProtection = flag("DeviceProtection", w.DeviceProtection)
	p.TechSupport = flag("TechSupport", w.TechSupport)
	p.StreamingTV = flag("StreamingTV", w.StreamingTV)
	p.StreamingMovies = flag("StreamingMovies", w.StreamingMovies)
	p.PaperlessBilling = flag("PaperlessBilling", w.PaperlessBilling)

	if p.InternetService, err = model.ParseInternetService(w.InternetService); err != nil {
		errs = append(errs, err.Error())
	}
	if p.Contract, err = model.ParseContract(w.Contract); err != nil {
		errs = append(errs, err.Error())
	}
	if p.PaymentMethod, err = model.ParsePaymentMethod(w.PaymentMethod); err != nil {
		errs = append(errs, err.Error())
	}
	if math.IsNaN(w.MonthlyCharges) || math.IsInf(w.MonthlyCharges, 0) {
		errs = append(errs, "MonthlyCharges must be a finite number")
	} else {
		p.MonthlyCharges = decimal.NewFromFloat(w.MonthlyCharges)
	}
	p.TenureMonths = w.Tenure

	if len(errs) > 0 {
		return model.CustomerProfile{}, fmt.Errorf("%w: %s", ErrInvalidWire, strings.Join(errs, "; "))
	}

	if w.TotalCharges.Set {
		p.TotalCharges = w.TotalCharges.Amount
	} else {
		p = p.WithDerivedTotal()
	}
	return p, nil
}

// ModelStatus is the liveness body served at GET /api/predict.
type ModelStatus struct {
	Status    string         `json:"status"`
	ModelInfo map[string]any `json:"model_info,omitempty"`
	Metrics   map[string]any `json:"metrics,omitempty"`
	NFeatures int            `json:"n_features,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// StatusOK is the only liveness status treated as available.
const StatusOK = "ok"

// Prediction is the prediction object inside a successful response.
type Prediction struct {
	Churn       bool     `json:"churn"`
	Probability float64  `json:"probability"`
	Score       *float64 `json:"score"`
	RiskLevel   string   `json:"risk_level"`
}

// PredictResponse is the body returned by POST /api/predict.
type PredictResponse struct {
	Success      bool        `json:"success"`
	Prediction   *Prediction `json:"prediction,omitempty"`
	ModelVersion string      `json:"model_version,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// NewPredictResponse builds a successful response for a scored result.
func NewPredictResponse(r model.PredictionResult, probability float64, version string) PredictResponse {
	score := float64(r.ProbabilityPercent)
	return PredictResponse{
		Success: true,
		Prediction: &Prediction{
			Churn:       probability >= 0.5,
			Probability: probability,
			Score:       &score,
			RiskLevel:   r.Tier.WireName(),
		},
		ModelVersion: version,
	}
}

// decodePrediction validates a response body and extracts percent and tier.
func decodePrediction(resp PredictResponse) (int, model.RiskTier, error) {
	if !resp.Success {
		return 0, 0, fmt.Errorf("%w: success flag not set", ErrMalformedRemoteResponse)
	}
	if resp.Prediction == nil {
		return 0, 0, fmt.Errorf("%w: missing prediction", ErrMalformedRemoteResponse)
	}
	if resp.Prediction.Score == nil {
		return 0, 0, fmt.Errorf("%w: missing score", ErrMalformedRemoteResponse)
	}
	score := *resp.Prediction.Score
	if score != math.Trunc(score) || score < 0 || score > 100 {
		return 0, 0, fmt.Errorf("%w: score %v is not an integer in [0,100]", ErrMalformedRemoteResponse, score)
	}
	tier, err := model.ParseRiskTier(resp.Prediction.RiskLevel)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrMalformedRemoteResponse, err)
	}
	return int(score), tier, nil
}
