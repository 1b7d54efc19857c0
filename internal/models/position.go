package models

import "time"

// Position is an open holding tracked by the ledger.
type Position struct {
	ID           string    `json:"id"`
	StockCode    string    `json:"stock_code"`
	StockName    string    `json:"stock_name"`
	BuyPrice     float64   `json:"buy_price"`
	Quantity     int       `json:"quantity"`
	BuyDate      time.Time `json:"buy_date"`
	StopLoss     *float64  `json:"stop_loss,omitempty"`
	TakeProfit   *float64  `json:"take_profit,omitempty"`
	CurrentPrice *float64  `json:"current_price,omitempty"`
	Board        string    `json:"board,omitempty"`
	Industry     string    `json:"industry,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MarketPrice returns the freshest known price, falling back to the buy
// price when no quote has been recorded yet.
func (p *Position) MarketPrice() float64 {
	if p.CurrentPrice != nil {
		return *p.CurrentPrice
	}
	return p.BuyPrice
}

// PnLStatus classifies a position's profit state.
type PnLStatus string

const (
	PnLProfit PnLStatus = "profit"
	PnLLoss   PnLStatus = "loss"
	PnLEven   PnLStatus = "even"
)

// PnLResult holds the profit/loss breakdown of one position.
type PnLResult struct {
	Cost         float64   `json:"cost"`
	CurrentValue float64   `json:"current_value"`
	PnLAmount    float64   `json:"pnl_amount"`
	PnLPercent   float64   `json:"pnl_percent"`
	Status       PnLStatus `json:"status"`
}

// TotalPnL aggregates profit/loss across all positions.
type TotalPnL struct {
	TotalCost       float64 `json:"total_cost"`
	TotalValue      float64 `json:"total_value"`
	TotalPnL        float64 `json:"total_pnl"`
	TotalPnLPercent float64 `json:"total_pnl_percent"`
	ProfitCount     int     `json:"profit_count"`
	LossCount       int     `json:"loss_count"`
}

// PositionHighlight identifies the best or worst holding.
type PositionHighlight struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	PnLPercent float64 `json:"pnl_percent"`
}

// PortfolioStatistics summarises the portfolio for display.
type PortfolioStatistics struct {
	TotalPositions  int                `json:"total_positions"`
	TotalValue      float64            `json:"total_value"`
	TotalPnL        float64            `json:"total_pnl"`
	TotalPnLPercent float64            `json:"total_pnl_percent"`
	AvgHoldDays     int                `json:"avg_hold_days"`
	BestPosition    *PositionHighlight `json:"best_position"`
	WorstPosition   *PositionHighlight `json:"worst_position"`
}

// RiskLevel grades portfolio concentration risk.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskAssessment holds the portfolio risk breakdown and suggestions.
type RiskAssessment struct {
	RiskLevel         RiskLevel `json:"risk_level"`
	Concentration     float64   `json:"concentration"`
	BoardDiversity    float64   `json:"board_diversity"`
	IndustryDiversity float64   `json:"industry_diversity"`
	Suggestions       []string  `json:"suggestions"`
}
