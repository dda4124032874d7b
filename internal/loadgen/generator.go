package loadgen

import (
	"context"
	"math/rand/v2"

	"github.com/okian/telcoguard/internal/domain/model"
	"github.com/okian/telcoguard/pkg/logger"
	"github.com/shopspring/decimal"
)

var genders = [...]string{"Female", "Male"}

// Generator produces reproducible random profiles within the documented
// input ranges.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (g *Generator) flag() bool { return g.rnd.IntN(2) == 1 }

// Profile returns the next random profile.
func (g *Generator) Profile() model.CustomerProfile {
	minCents := model.MinMonthlyCharges.Mul(decimal.NewFromInt(100)).IntPart()
	maxCents := model.MaxMonthlyCharges.Mul(decimal.NewFromInt(100)).IntPart()
	cents := minCents + g.rnd.Int64N(maxCents-minCents+1)

	p := model.CustomerProfile{
		Gender:           genders[g.rnd.IntN(len(genders))],
		SeniorCitizen:    g.rnd.IntN(6) == 0,
		Partner:          g.flag(),
		Dependents:       g.flag(),
		TenureMonths:     model.MinTenureMonths + g.rnd.IntN(model.MaxTenureMonths-model.MinTenureMonths+1),
		Contract:         model.Contract(g.rnd.IntN(int(model.ContractTwoYear) + 1)),
		PaymentMethod:    model.PaymentMethod(g.rnd.IntN(int(model.PaymentCreditCardAuto) + 1)),
		PaperlessBilling: g.flag(),
		MonthlyCharges:   decimal.New(cents, -2),
		InternetService:  model.InternetService(g.rnd.IntN(int(model.InternetFiberOptic) + 1)),
		PhoneService:     g.flag(),
	}
	if p.PhoneService {
		p.MultipleLines = g.flag()
	}
	if p.InternetService != model.InternetNone {
		p.TechSupport = g.flag()
		p.OnlineSecurity = g.flag()
		p.OnlineBackup = g.flag()
		p.DeviceProtection = g.flag()
		p.StreamingTV = g.flag()
		p.StreamingMovies = g.flag()
	}
	return p.WithDerivedTotal()
}

// generateProfiles creates n random profiles.
func generateProfiles(ctx context.Context, config *Config, stats *Stats) []model.CustomerProfile {
	logger.Get().Info(ctx, "generating profiles",
		logger.Int("count", config.NumProfiles), logger.Any("seed", config.Seed))

	g := NewGenerator(config.Seed)
	out := make([]model.CustomerProfile, config.NumProfiles)
	for i := range out {
		out[i] = g.Profile()
	}
	stats.Generated = len(out)
	return out
}
