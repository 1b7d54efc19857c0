// Package portfolio tracks open positions and derives P&L, statistics and
// risk from them.
package portfolio

import (
	"math"
	"time"

	"github.com/tel9980/boduan/internal/models"
)

// Profit-state dead zone in percent. Within it a position counts as even.
const evenBandPercent = 0.01

// CalculatePnL computes the profit/loss breakdown of one position against its
// freshest known price.
func CalculatePnL(p models.Position) models.PnLResult {
	cost := p.BuyPrice * float64(p.Quantity)
	currentValue := p.MarketPrice() * float64(p.Quantity)
	pnlAmount := currentValue - cost

	var pnlPercent float64
	if cost > 0 {
		pnlPercent = pnlAmount / cost * 100
	}

	status := models.PnLEven
	if pnlPercent > evenBandPercent {
		status = models.PnLProfit
	} else if pnlPercent < -evenBandPercent {
		status = models.PnLLoss
	}

	return models.PnLResult{
		Cost:         cost,
		CurrentValue: currentValue,
		PnLAmount:    pnlAmount,
		PnLPercent:   pnlPercent,
		Status:       status,
	}
}

// ComputeTotalPnL aggregates profit/loss across all positions. An empty
// portfolio yields all zeros.
func ComputeTotalPnL(positions []models.Position) models.TotalPnL {
	var total models.TotalPnL
	for _, p := range positions {
		pnl := CalculatePnL(p)
		total.TotalCost += pnl.Cost
		total.TotalValue += pnl.CurrentValue

		switch pnl.Status {
		case models.PnLProfit:
			total.ProfitCount++
		case models.PnLLoss:
			total.LossCount++
		}
	}

	total.TotalPnL = total.TotalValue - total.TotalCost
	if total.TotalCost > 0 {
		total.TotalPnLPercent = total.TotalPnL / total.TotalCost * 100
	}
	return total
}

// ComputeStatistics summarises the portfolio at the given instant. Best and
// worst positions use strict comparison, so ties resolve to the earliest
// position.
func ComputeStatistics(positions []models.Position, now time.Time) models.PortfolioStatistics {
	total := ComputeTotalPnL(positions)

	totalDays := 0
	for _, p := range positions {
		totalDays += int(math.Floor(now.Sub(p.BuyDate).Hours() / 24))
	}
	avgHoldDays := 0
	if len(positions) > 0 {
		avgHoldDays = totalDays / len(positions)
	}

	var best, worst *models.PositionHighlight
	maxPnL := math.Inf(-1)
	minPnL := math.Inf(1)
	for _, p := range positions {
		pct := CalculatePnL(p).PnLPercent
		if pct > maxPnL {
			maxPnL = pct
			best = &models.PositionHighlight{Code: p.StockCode, Name: p.StockName, PnLPercent: pct}
		}
		if pct < minPnL {
			minPnL = pct
			worst = &models.PositionHighlight{Code: p.StockCode, Name: p.StockName, PnLPercent: pct}
		}
	}

	return models.PortfolioStatistics{
		TotalPositions:  len(positions),
		TotalValue:      total.TotalValue,
		TotalPnL:        total.TotalPnL,
		TotalPnLPercent: total.TotalPnLPercent,
		AvgHoldDays:     avgHoldDays,
		BestPosition:    best,
		WorstPosition:   worst,
	}
}

// AssessRisk grades the portfolio by concentration and diversity.
// Concentration is the largest position's share of total value; diversity is
// distinct boards (or industries) over position count. Missing board or
// industry labels collapse into one "unknown" bucket.
func AssessRisk(positions []models.Position) models.RiskAssessment {
	if len(positions) == 0 {
		return models.RiskAssessment{
			RiskLevel:   models.RiskLow,
			Suggestions: []string{"No open positions"},
		}
	}

	var totalValue, maxValue float64
	boards := make(map[string]bool)
	industries := make(map[string]bool)
	for _, p := range positions {
		value := CalculatePnL(p).CurrentValue
		totalValue += value
		if value > maxValue {
			maxValue = value
		}

		board := p.Board
		if board == "" {
			board = "unknown"
		}
		boards[board] = true

		industry := p.Industry
		if industry == "" {
			industry = "unknown"
		}
		industries[industry] = true
	}

	var concentration float64
	if totalValue > 0 {
		concentration = maxValue / totalValue
	}
	boardDiversity := float64(len(boards)) / float64(len(positions))
	industryDiversity := float64(len(industries)) / float64(len(positions))

	riskLevel := models.RiskLow
	switch {
	case concentration > 0.5 || boardDiversity < 0.5 || industryDiversity < 0.5:
		riskLevel = models.RiskHigh
	case concentration > 0.3 || boardDiversity < 0.7 || industryDiversity < 0.7:
		riskLevel = models.RiskMedium
	}

	var suggestions []string
	if concentration > 0.5 {
		suggestions = append(suggestions, "Single position dominates the portfolio, consider spreading capital")
	}
	if boardDiversity < 0.5 {
		suggestions = append(suggestions, "Positions cluster on one board, consider adding other boards")
	}
	if industryDiversity < 0.5 {
		suggestions = append(suggestions, "Positions cluster in one industry, consider adding other industries")
	}
	if len(positions) < 3 {
		suggestions = append(suggestions, "Few open positions, consider holding 3-5 names")
	}
	if len(positions) > 10 {
		suggestions = append(suggestions, "Many open positions, consider trimming to 5-10 names")
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions, "Portfolio risk is well spread, keep it up")
	}

	return models.RiskAssessment{
		RiskLevel:         riskLevel,
		Concentration:     concentration,
		BoardDiversity:    boardDiversity,
		IndustryDiversity: industryDiversity,
		Suggestions:       suggestions,
	}
}
