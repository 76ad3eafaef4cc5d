// Package tools provides the built-in financial analysis tools: portfolio
// risk scoring, stock lookups against a demo quote table, and diversification
// analysis. All of them are deterministic, so they double as fixtures for
// exercising the agent loop.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/asim800/finchat"
)

// demo quote table; symbols outside it get a not-available message.
var stockDatabase = map[string]string{
	"AAPL":  "Apple Inc. - Current: $150.25, +2.5% today, Strong Buy rating. Tech giant with strong fundamentals",
	"MSFT":  "Microsoft Corp. - Current: $300.75, +1.2% today, Buy rating. Cloud computing and software leader",
	"TSLA":  "Tesla Inc. - Current: $200.50, -3.1% today, Hold rating. Electric vehicle and clean energy company",
	"SPY":   "S&P 500 ETF - Current: $400.80, +0.8% today. Diversified index fund tracking S&P 500",
	"GOOGL": "Alphabet Inc. - Current: $125.30, +1.8% today, Buy rating. Search and cloud computing giant",
	"AMZN":  "Amazon.com Inc. - Current: $135.60, -0.5% today, Buy rating. E-commerce and cloud services leader",
	"NVDA":  "NVIDIA Corp. - Current: $450.20, +4.2% today, Strong Buy rating. AI and semiconductor leader",
	"META":  "Meta Platforms Inc. - Current: $285.90, +2.1% today, Buy rating. Social media and VR company",
	"BTC":   "Bitcoin - Current: $45,200, +3.2% today. Leading cryptocurrency with high volatility",
	"ETH":   "Ethereum - Current: $2,850, +2.8% today. Smart contract blockchain platform",
}

// CalculateRisk scores a portfolio description 0-1 by asset class keywords.
func CalculateRisk() finchat.Tool {
	return finchat.NewTool("calculate_risk").
		WithDescription("Calculate portfolio risk score (0-1, where 1 is highest risk)").
		WithParameter("portfolio", finchat.String().Required().
			WithDescription("Description of the portfolio including asset types")).
		WithHandler(func(ctx context.Context, args map[string]any) (any, error) {
			portfolio, ok := args["portfolio"].(string)
			if !ok || portfolio == "" {
				return nil, fmt.Errorf("portfolio description is required")
			}
			return riskAssessment(portfolio), nil
		}).
		Build()
}

func riskAssessment(portfolio string) string {
	p := strings.ToLower(portfolio)
	switch {
	case containsAny(p, "crypto", "bitcoin", "ethereum"):
		return "0.8 (HIGH risk) - Cryptocurrency investments are highly volatile and can experience significant price swings"
	case containsAny(p, "bonds", "treasury", "government"):
		return "0.2 (LOW risk) - Government bonds and treasury securities are stable, low-risk investments"
	case containsAny(p, "stocks", "equity", "shares"):
		return "0.6 (MODERATE risk) - Stock investments have moderate volatility with potential for good returns"
	case containsAny(p, "mixed", "diversified"):
		return "0.4 (MODERATE risk) - Diversified portfolio with balanced risk across asset classes"
	default:
		return "0.4 (MODERATE risk) - Mixed portfolio with balanced risk profile"
	}
}

// GetStockInfo looks up a ticker in the demo quote table.
func GetStockInfo() finchat.Tool {
	return finchat.NewTool("get_stock_info").
		WithDescription("Get basic stock information including price, performance, and rating").
		WithParameter("symbol", finchat.String().Required().
			WithDescription("Stock ticker symbol (e.g., AAPL, MSFT, TSLA)")).
		WithHandler(func(ctx context.Context, args map[string]any) (any, error) {
			symbol, ok := args["symbol"].(string)
			if !ok || symbol == "" {
				return nil, fmt.Errorf("stock symbol is required")
			}
			upper := strings.ToUpper(strings.TrimSpace(symbol))
			if info, found := stockDatabase[upper]; found {
				return info, nil
			}
			return fmt.Sprintf("Stock data for %s not available in demo database. Try: AAPL, MSFT, TSLA, SPY, GOOGL, AMZN, NVDA, META", upper), nil
		}).
		Build()
}

// PortfolioAnalyzer assesses diversification across four asset categories
// and emits recommendations.
func PortfolioAnalyzer() finchat.Tool {
	return finchat.NewTool("portfolio_analyzer").
		WithDescription("Analyze portfolio diversification and provide investment recommendations").
		WithParameter("holdings", finchat.String().Required().
			WithDescription("Description of portfolio holdings, asset allocation, or investment list")).
		WithHandler(func(ctx context.Context, args map[string]any) (any, error) {
			holdings, ok := args["holdings"].(string)
			if !ok || holdings == "" {
				return nil, fmt.Errorf("holdings description is required")
			}
			return analyzePortfolio(holdings), nil
		}).
		Build()
}

func analyzePortfolio(holdings string) string {
	h := strings.ToLower(holdings)

	hasStocks := containsAny(h, "aapl", "msft", "googl", "stocks", "equity", "shares")
	hasBonds := containsAny(h, "bonds", "treasury", "government")
	hasCrypto := containsAny(h, "crypto", "bitcoin", "btc", "ethereum", "eth")
	hasIntl := containsAny(h, "international", "global", "foreign", "emerging")

	assetTypes := 0
	for _, present := range []bool{hasStocks, hasBonds, hasCrypto, hasIntl} {
		if present {
			assetTypes++
		}
	}

	var diversification, riskLevel, expectedReturn string
	switch {
	case assetTypes >= 3:
		diversification = "Excellent diversification across multiple asset classes"
		riskLevel = "Moderate (0.45/1.0)"
		expectedReturn = "8-12% annually"
	case assetTypes == 2:
		diversification = "Good diversification with room for improvement"
		riskLevel = "Moderate (0.55/1.0)"
		expectedReturn = "6-10% annually"
	case hasCrypto:
		diversification = "Poor diversification - concentrated in high-risk crypto"
		riskLevel = "High (0.85/1.0)"
		expectedReturn = "Highly volatile, -50% to +200% possible"
	case hasBonds:
		diversification = "Conservative but under-diversified"
		riskLevel = "Low (0.25/1.0)"
		expectedReturn = "3-5% annually"
	default:
		diversification = "Limited diversification"
		riskLevel = "Moderate (0.50/1.0)"
		expectedReturn = "5-8% annually"
	}

	var recommendations []string
	if !hasIntl {
		recommendations = append(recommendations, "Add 10-15% international exposure for global diversification")
	}
	if !hasBonds && !strings.Contains(h, "conservative") {
		recommendations = append(recommendations, "Consider 20-30% bonds for stability and income")
	}
	if hasCrypto && !hasStocks {
		recommendations = append(recommendations, "Reduce crypto concentration, add traditional assets")
	}
	if assetTypes < 2 {
		recommendations = append(recommendations, "Diversify across multiple asset classes to reduce risk")
	}
	recommendations = append(recommendations,
		"Maintain 6 months emergency fund in high-yield savings",
		"Rebalance quarterly to maintain target allocations")

	var b strings.Builder
	fmt.Fprintf(&b, "Portfolio Analysis for: %s\n\n", holdings)
	fmt.Fprintf(&b, "Diversification Assessment: %s\n", diversification)
	fmt.Fprintf(&b, "Risk Level: %s\n", riskLevel)
	fmt.Fprintf(&b, "Expected Return: %s\n", expectedReturn)
	fmt.Fprintf(&b, "Asset Types Identified: %d/4 major categories\n\n", assetTypes)
	b.WriteString("Recommendations:\n")
	for _, rec := range recommendations {
		fmt.Fprintf(&b, "- %s\n", rec)
	}
	b.WriteString("\nDisclaimer: This is a demo analysis. Consult licensed financial advisors for personalized advice.")
	return b.String()
}

// All returns the full financial tool set for agent configuration.
func All() []finchat.Tool {
	return []finchat.Tool{
		CalculateRisk(),
		GetStockInfo(),
		PortfolioAnalyzer(),
	}
}

func containsAny(s string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
