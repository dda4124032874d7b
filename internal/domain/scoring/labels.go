package scoring

import "github.com/okian/telcoguard/internal/domain/model"

// DefaultLocale is the catalog used when none is configured.
const DefaultLocale = "es"

var catalogs = map[string]map[model.FactorCode]string{
	"es": {
		model.FactorContractMonthly:        "Contrato: Mensual",
		model.FactorContractTwoYear:        "Contrato: 2 Años",
		model.FactorInternetFiber:          "Servicio: Fibra Óptica",
		model.FactorTenureLow:              "Antigüedad: Baja",
		model.FactorPaymentElectronicCheck: "Pago: Cheque Electrónico",
	},
	"en": {
		model.FactorContractMonthly:        "Contract: Monthly",
		model.FactorContractTwoYear:        "Contract: 2 Years",
		model.FactorInternetFiber:          "Service: Fiber Optic",
		model.FactorTenureLow:              "Tenure: Low",
		model.FactorPaymentElectronicCheck: "Payment: Electronic Check",
	},
}

var emptySummaries = map[string]string{
	"es": "Sin factores de riesgo significativos",
	"en": "No significant risk factors",
}

var retentionAlerts = map[string]string{
	"es": "Alerta de Retención: usuario en alto riesgo. Se sugiere ofrecer contrato a 1 año con descuento.",
	"en": "Retention alert: high-risk customer. Offer a discounted one-year contract.",
}

// Locales lists the supported label catalogs.
func Locales() []string {
	return []string{"es", "en"}
}

// Recommendation returns the retention alert for Critical results and ""
// for every other tier.
func (e *Engine) Recommendation(tier model.RiskTier) string {
	if tier != model.TierCritical {
		return ""
	}
	return retentionAlerts[e.locale]
}

// Summary returns a one-line description of a factor list, used when the
// list is empty so it renders as a statement rather than nothing.
func (e *Engine) Summary(factors []model.RiskFactor) string {
	if len(factors) == 0 {
		return emptySummaries[e.locale]
	}
	s := factors[0].Label
	for _, f := range factors[1:] {
		s += "; " + f.Label
	}
	return s
}
