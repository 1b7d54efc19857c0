package portfolio

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/tel9980/boduan/internal/models"
)

func position(code string, buy, current float64, qty int) models.Position {
	p := models.Position{
		StockCode: code,
		StockName: code,
		BuyPrice:  buy,
		Quantity:  qty,
		BuyDate:   time.Now().Add(-72 * time.Hour),
	}
	if current > 0 {
		c := current
		p.CurrentPrice = &c
	}
	return p
}

func TestCalculatePnL(t *testing.T) {
	tests := []struct {
		name        string
		buy         float64
		current     float64
		qty         int
		wantAmount  float64
		wantPercent float64
		wantStatus  models.PnLStatus
	}{
		{"profit", 10, 12, 100, 200, 20, models.PnLProfit},
		{"loss", 10, 8, 100, -200, -20, models.PnLLoss},
		{"flat", 10, 10, 100, 0, 0, models.PnLEven},
		{"no quote falls back to buy price", 10, 0, 100, 0, 0, models.PnLEven},
		{"tiny gain inside dead zone", 10000, 10000.5, 1, 0.5, 0.005, models.PnLEven},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pnl := CalculatePnL(position("600519", tt.buy, tt.current, tt.qty))
			if math.Abs(pnl.PnLAmount-tt.wantAmount) > 1e-9 {
				t.Errorf("PnLAmount = %v, want %v", pnl.PnLAmount, tt.wantAmount)
			}
			if math.Abs(pnl.PnLPercent-tt.wantPercent) > 1e-9 {
				t.Errorf("PnLPercent = %v, want %v", pnl.PnLPercent, tt.wantPercent)
			}
			if pnl.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", pnl.Status, tt.wantStatus)
			}
		})
	}
}

func TestComputeTotalPnLZeroSum(t *testing.T) {
	// One winner and one loser of equal size cancel out.
	positions := []models.Position{
		position("600519", 10, 12, 100),
		position("000001", 10, 8, 100),
	}

	total := ComputeTotalPnL(positions)
	if total.TotalCost != 2000 {
		t.Errorf("TotalCost = %v, want 2000", total.TotalCost)
	}
	if total.TotalValue != 2000 {
		t.Errorf("TotalValue = %v, want 2000", total.TotalValue)
	}
	if total.TotalPnL != 0 {
		t.Errorf("TotalPnL = %v, want 0", total.TotalPnL)
	}
	if total.TotalPnLPercent != 0 {
		t.Errorf("TotalPnLPercent = %v, want 0", total.TotalPnLPercent)
	}
	if total.ProfitCount != 1 || total.LossCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", total.ProfitCount, total.LossCount)
	}
}

func TestComputeTotalPnLEmpty(t *testing.T) {
	total := ComputeTotalPnL(nil)
	if total.TotalCost != 0 || total.TotalValue != 0 || total.TotalPnLPercent != 0 {
		t.Errorf("empty portfolio total = %+v, want zeros", total)
	}
}

func TestComputeStatistics(t *testing.T) {
	now := time.Date(2025, 9, 2, 10, 0, 0, 0, time.UTC)

	best := position("600519", 10, 15, 100) // +50%
	best.BuyDate = now.Add(-10 * 24 * time.Hour)
	worst := position("000001", 10, 5, 100) // -50%
	worst.BuyDate = now.Add(-2 * 24 * time.Hour)

	stats := ComputeStatistics([]models.Position{best, worst}, now)

	if stats.TotalPositions != 2 {
		t.Errorf("TotalPositions = %d, want 2", stats.TotalPositions)
	}
	if stats.AvgHoldDays != 6 {
		t.Errorf("AvgHoldDays = %d, want 6", stats.AvgHoldDays)
	}
	if stats.BestPosition == nil || stats.BestPosition.Code != "600519" {
		t.Errorf("BestPosition = %+v, want 600519", stats.BestPosition)
	}
	if stats.WorstPosition == nil || stats.WorstPosition.Code != "000001" {
		t.Errorf("WorstPosition = %+v, want 000001", stats.WorstPosition)
	}
}

func TestComputeStatisticsTiesFirstSeenWins(t *testing.T) {
	now := time.Now()
	a := position("600519", 10, 11, 100)
	b := position("000001", 10, 11, 100)

	stats := ComputeStatistics([]models.Position{a, b}, now)
	if stats.BestPosition.Code != "600519" {
		t.Errorf("tie best = %s, want first position", stats.BestPosition.Code)
	}
	if stats.WorstPosition.Code != "600519" {
		t.Errorf("tie worst = %s, want first position", stats.WorstPosition.Code)
	}
}

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := ComputeStatistics(nil, time.Now())
	if stats.BestPosition != nil || stats.WorstPosition != nil {
		t.Error("empty portfolio should have nil highlights")
	}
	if stats.AvgHoldDays != 0 {
		t.Errorf("AvgHoldDays = %d, want 0", stats.AvgHoldDays)
	}
}

func TestAssessRiskLevels(t *testing.T) {
	withLabels := func(p models.Position, board, industry string) models.Position {
		p.Board = board
		p.Industry = industry
		return p
	}

	t.Run("empty portfolio is low risk", func(t *testing.T) {
		risk := AssessRisk(nil)
		if risk.RiskLevel != models.RiskLow {
			t.Errorf("RiskLevel = %s, want low", risk.RiskLevel)
		}
		if len(risk.Suggestions) == 0 {
			t.Error("expected a suggestion for the empty portfolio")
		}
	})

	t.Run("concentration above half is high risk", func(t *testing.T) {
		positions := []models.Position{
			withLabels(position("600519", 10, 10, 1000), "main", "liquor"),
			withLabels(position("000001", 10, 10, 100), "gem", "banking"),
		}
		risk := AssessRisk(positions)
		if risk.RiskLevel != models.RiskHigh {
			t.Errorf("RiskLevel = %s, want high (concentration %.2f)", risk.RiskLevel, risk.Concentration)
		}
		if risk.Concentration <= 0.5 {
			t.Errorf("Concentration = %v, want > 0.5", risk.Concentration)
		}
	})

	t.Run("clustered industry is high risk", func(t *testing.T) {
		positions := []models.Position{
			withLabels(position("600519", 10, 10, 100), "main", "liquor"),
			withLabels(position("000858", 10, 10, 100), "gem", "liquor"),
			withLabels(position("000568", 10, 10, 100), "star", "liquor"),
		}
		risk := AssessRisk(positions)
		if risk.RiskLevel != models.RiskHigh {
			t.Errorf("RiskLevel = %s, want high (industry diversity %.2f)", risk.RiskLevel, risk.IndustryDiversity)
		}
	})

	t.Run("well spread portfolio is low risk", func(t *testing.T) {
		positions := []models.Position{
			withLabels(position("600519", 10, 10, 100), "main", "liquor"),
			withLabels(position("000001", 10, 10, 100), "gem", "banking"),
			withLabels(position("002594", 10, 10, 100), "star", "auto"),
			withLabels(position("300750", 10, 10, 100), "bse", "battery"),
		}
		risk := AssessRisk(positions)
		if risk.RiskLevel != models.RiskLow {
			t.Errorf("RiskLevel = %s, want low", risk.RiskLevel)
		}
	})

	t.Run("small portfolio suggests more names", func(t *testing.T) {
		positions := []models.Position{
			withLabels(position("600519", 10, 10, 100), "main", "liquor"),
			withLabels(position("000001", 10, 10, 100), "gem", "banking"),
		}
		risk := AssessRisk(positions)
		found := false
		for _, s := range risk.Suggestions {
			if s == "Few open positions, consider holding 3-5 names" {
				found = true
			}
		}
		if !found {
			t.Errorf("suggestions = %v, want small-portfolio hint", risk.Suggestions)
		}
	})
}

// Property: P&L percent is monotonic in the current price. A higher price
// never produces a lower P&L.
func TestProperty_PnLMonotonicInPrice(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("higher price means higher P&L", prop.ForAll(
		func(buy, priceA, priceB float64, qty int) bool {
			lo, hi := priceA, priceB
			if lo > hi {
				lo, hi = hi, lo
			}
			a := CalculatePnL(position("600519", buy, lo, qty))
			b := CalculatePnL(position("600519", buy, hi, qty))
			return b.PnLAmount >= a.PnLAmount && b.PnLPercent >= a.PnLPercent
		},
		gen.Float64Range(0.01, 1000),
		gen.Float64Range(0.01, 1000),
		gen.Float64Range(0.01, 1000),
		gen.IntRange(1, 100000),
	))

	properties.Property("portfolio total equals sum of parts", prop.ForAll(
		func(buys []float64) bool {
			var positions []models.Position
			var wantCost, wantValue float64
			for i, buy := range buys {
				current := buy * 1.1
				p := position("600519", buy, current, i+1)
				positions = append(positions, p)
				wantCost += buy * float64(i+1)
				wantValue += current * float64(i+1)
			}
			total := ComputeTotalPnL(positions)
			return math.Abs(total.TotalCost-wantCost) < 1e-6 &&
				math.Abs(total.TotalValue-wantValue) < 1e-6
		},
		gen.SliceOfN(5, gen.Float64Range(1, 500)),
	))

	properties.TestingRun(t)
}

// Property: a single position always assesses at full concentration and high
// risk.
func TestProperty_SinglePositionRisk(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("lone position concentrates all value", prop.ForAll(
		func(buy float64, qty int) bool {
			risk := AssessRisk([]models.Position{position("600519", buy, buy, qty)})
			return risk.Concentration == 1 && risk.RiskLevel == models.RiskHigh
		},
		gen.Float64Range(0.01, 1000),
		gen.IntRange(1, 100000),
	))

	properties.TestingRun(t)
}
