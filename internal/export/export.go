// Package export writes scan results to JSON and CSV files under the
// output directory. Files are named after the scan id and are never
// overwritten.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/scanner"
)

// Exporter serializes scan results to disk.
type Exporter struct {
	dir string
	log zerolog.Logger
}

// New builds an exporter writing under dir.
func New(dir string, log zerolog.Logger) *Exporter {
	if dir == "" {
		dir = "data"
	}
	return &Exporter{dir: dir, log: log.With().Str("component", "export").Logger()}
}

// Write emits both formats and returns the written paths.
func (e *Exporter) Write(result *scanner.Result) (jsonPath, csvPath string, err error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", "", fmt.Errorf("export: create output dir: %w", err)
	}

	base := filepath.Join(e.dir, result.ScanID)
	jsonPath = base + ".json"
	csvPath = base + ".csv"

	if err := e.writeJSON(jsonPath, result); err != nil {
		return "", "", err
	}
	if err := e.writeCSV(csvPath, result); err != nil {
		return "", "", err
	}

	e.log.Info().
		Str("json", jsonPath).
		Str("csv", csvPath).
		Int("opportunities", len(result.Opportunities)).
		Msg("scan results written")
	return jsonPath, csvPath, nil
}

func (e *Exporter) writeJSON(path string, result *scanner.Result) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}

// Scan metadata is repeated on every row so a single row stays
// attributable after the file is split or merged downstream.
var csvHeader = []string{
	"scan_id", "completed_at", "duration_seconds", "universe_size", "symbols_scanned",
	"rank", "symbol", "underlying_price",
	"long_strike", "long_expiration", "long_dte", "long_delta", "long_ask",
	"short_strike", "short_expiration", "short_dte", "short_delta", "short_bid",
	"net_debit", "max_profit", "breakeven", "risk_reward",
	"total_score", "claude_score", "combined_score", "ai_recommendation",
}

func (e *Exporter) writeCSV(path string, result *scanner.Result) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("export: write csv: %w", err)
	}

	if len(result.Opportunities) == 0 {
		// Keep the file self-describing even when the scan found
		// nothing: one row of metadata with blank candidate columns.
		row := metaCols(result)
		row = append(row, make([]string, len(csvHeader)-len(row))...)
		if err := w.Write(row); err != nil {
			return fmt.Errorf("export: write csv: %w", err)
		}
		w.Flush()
		return w.Error()
	}

	for i := range result.Opportunities {
		if err := w.Write(csvRow(result, &result.Opportunities[i])); err != nil {
			return fmt.Errorf("export: write csv: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func metaCols(result *scanner.Result) []string {
	return []string{
		result.ScanID,
		result.CompletedAt.Format(time.RFC3339),
		strconv.FormatFloat(result.CompletedAt.Sub(result.StartedAt).Seconds(), 'f', 3, 64),
		strconv.Itoa(result.Universe),
		strconv.Itoa(result.Scanned),
	}
}

func csvRow(result *scanner.Result, c *models.PMCCCandidate) []string {
	return append(metaCols(result),
		strconv.Itoa(c.Rank),
		c.Symbol,
		money(c.UnderlyingPrice),
		money(c.LongCall.Strike),
		c.LongCall.Expiration.Format("2006-01-02"),
		strconv.Itoa(c.LongCall.DTE),
		num(c.LongCall.Delta),
		money(c.LongCall.Ask),
		money(c.ShortCall.Strike),
		c.ShortCall.Expiration.Format("2006-01-02"),
		strconv.Itoa(c.ShortCall.DTE),
		num(c.ShortCall.Delta),
		money(c.ShortCall.Bid),
		money(c.NetDebit),
		money(c.Risk.MaxProfit),
		money(c.Risk.Breakeven),
		num(c.Risk.RiskReward),
		num(c.TotalScore),
		optNum(c.ClaudeScore),
		optNum(c.CombinedScore),
		c.AIRecommendation,
	)
}

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
func num(v float64) string   { return strconv.FormatFloat(v, 'f', 4, 64) }

func optNum(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}
