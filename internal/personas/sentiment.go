package personas

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quanta/internal/analysis"
)

// Sentiment weights: news carries more signal than insider filings.
const (
	sentimentInsiderWeight = 0.3
	sentimentNewsWeight    = 0.7
)

// Sentiment derives a signal from a year of insider trades and classified
// company news. Insider selling votes bearish, upstream news sentiment votes
// its own label, and the weighted majority wins.
type Sentiment struct {
	source DataSource
	logger arbor.ILogger
}

// NewSentiment creates the sentiment analyzer.
func NewSentiment(source DataSource, logger arbor.ILogger) *Sentiment {
	return &Sentiment{source: source, logger: logger}
}

func (s *Sentiment) Name() string { return "sentiment" }

func (s *Sentiment) Description() string {
	return "Performs stock analysis using Sentiment methods by ticker"
}

func (s *Sentiment) SystemPrompt() string {
	return `You are a market sentiment analyst AI agent. Explain trading signals built from
insider transaction patterns and classified news flow. Report the weighted bullish and
bearish counts that produced the signal, call out any divergence between insiders and
the press, and keep the explanation short and factual.`
}

// Analyze combines insider trade direction and news sentiment over the past
// year.
func (s *Sentiment) Analyze(ctx context.Context, ticker string) (*analysis.Bundle, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(-1, 0, 0)

	s.logger.Debug().Str("ticker", ticker).Msg("Fetching insider trades")
	trades, err := s.source.InsiderTrades(ctx, ticker, startDate, endDate, 1000)
	if err != nil {
		return nil, fmt.Errorf("sentiment analysis for %s: %w", ticker, err)
	}

	s.logger.Debug().Str("ticker", ticker).Msg("Fetching company news")
	news, err := s.source.CompanyNews(ctx, ticker, startDate, endDate, 100)
	if err != nil {
		return nil, fmt.Errorf("sentiment analysis for %s: %w", ticker, err)
	}

	var tally analysis.VoteTally
	insiderVotes := 0
	for _, trade := range trades {
		if trade.TransactionShares == nil {
			continue
		}
		insiderVotes++
		if *trade.TransactionShares < 0 {
			tally.Add(analysis.SignalBearish, sentimentInsiderWeight)
		} else {
			tally.Add(analysis.SignalBullish, sentimentInsiderWeight)
		}
	}

	for _, article := range news {
		switch article.Sentiment {
		case "negative":
			tally.Add(analysis.SignalBearish, sentimentNewsWeight)
		case "positive":
			tally.Add(analysis.SignalBullish, sentimentNewsWeight)
		default:
			tally.Add(analysis.SignalNeutral, sentimentNewsWeight)
		}
	}

	agg := tally.Aggregate()

	bundle := newBundle(s.Name(), ticker)
	bundle.Signal = agg.Signal
	bundle.Confidence = agg.Confidence
	bundle.Score = tally.Bullish - tally.Bearish
	bundle.MaxScore = tally.Total
	bundle.SubScores = []analysis.SubScore{
		{
			Name:     "insider_trades",
			Score:    float64(insiderVotes),
			MaxScore: float64(len(trades)),
			Details:  fmt.Sprintf("%d insider transactions with share counts out of %d filings", insiderVotes, len(trades)),
		},
		{
			Name:     "company_news",
			Score:    float64(len(news)),
			MaxScore: float64(len(news)),
			Details:  fmt.Sprintf("%d classified news articles", len(news)),
		},
	}
	bundle.Reasoning = agg.Details
	return bundle, nil
}
