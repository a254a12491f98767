package storage

// tracker.go — persistencia del tracker de calibración en SQLite.
//
// Estrategia:
//   - `flagged_bets`: una fila por (market_id, side) sin resolver. El log
//     es idempotente: re-flaggear un mercado ya trackeado no duplica.
//   - Las filas resueltas nunca se tocan ni se borran: son el histórico
//     sobre el que se mide la calibración.
//   - P&L por fila sobre el tamaño que pase el caller (paper: $100
//     hipotéticos; live: tamaño real de la orden).

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/mvaldesr/polyedge/internal/domain"
	"github.com/mvaldesr/polyedge/internal/ports"
	_ "modernc.org/sqlite"
)

const trackerSchema = `
CREATE TABLE IF NOT EXISTS flagged_bets (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    market_id       TEXT NOT NULL,
    question        TEXT,
    category        TEXT,
    side            TEXT,
    market_price    REAL,
    our_probability REAL,
    ev              REAL,
    kelly           REAL,
    confidence      TEXT,
    reasoning       TEXT,
    flagged_at      TEXT,
    end_date        TEXT,
    resolved        INTEGER NOT NULL DEFAULT 0,
    outcome         TEXT,
    profit_loss     REAL NOT NULL DEFAULT 0,
    resolved_at     TEXT
);

CREATE INDEX IF NOT EXISTS idx_bets_market   ON flagged_bets(market_id);
CREATE INDEX IF NOT EXISTS idx_bets_resolved ON flagged_bets(resolved);
`

// Tracker implementa ports.BetStore usando SQLite (pure Go, sin CGo).
type Tracker struct {
	db *sql.DB
}

// NewTracker abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewTracker(path string) (*Tracker, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewTracker: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(trackerSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewTracker: apply schema: %w", err)
	}
	return &Tracker{db: db}, nil
}

// LogBet registra una apuesta nueva y devuelve su id. Si ya existe una
// fila sin resolver para (market_id, side), devuelve el id existente.
func (t *Tracker) LogBet(ctx context.Context, bet domain.TrackedBet) (int64, error) {
	var existing int64
	err := t.db.QueryRowContext(ctx,
		`SELECT id FROM flagged_bets WHERE market_id = ? AND side = ? AND resolved = 0`,
		bet.MarketID, bet.Side,
	).Scan(&existing)
	if err == nil {
		slog.Debug("already tracking", "market_id", bet.MarketID, "side", bet.Side)
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("storage.LogBet: lookup: %w", err)
	}

	var endDate *string
	if !bet.EndDate.IsZero() {
		s := bet.EndDate.UTC().Format(time.RFC3339)
		endDate = &s
	}

	res, err := t.db.ExecContext(ctx, `
		INSERT INTO flagged_bets
			(market_id, question, category, side, market_price, our_probability,
			 ev, kelly, confidence, reasoning, flagged_at, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bet.MarketID, bet.Question, bet.Category, bet.Side,
		bet.MarketPrice, bet.OurProbability, bet.EV, bet.Kelly,
		bet.Confidence, bet.Reasoning,
		bet.FlaggedAt.UTC().Format(time.RFC3339), endDate,
	)
	if err != nil {
		return 0, fmt.Errorf("storage.LogBet: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage.LogBet: last id: %w", err)
	}

	slog.Info("logged bet",
		"side", bet.Side,
		"question", domain.TruncateQuestion(bet.Question, bet.MarketID, 50),
		"price", fmt.Sprintf("%.1f%%", bet.MarketPrice*100),
	)
	return id, nil
}

// OpenBets devuelve las apuestas sin resolver, más recientes primero.
func (t *Tracker) OpenBets(ctx context.Context) ([]domain.TrackedBet, error) {
	rows, err := t.db.QueryContext(ctx, openBetColumns+`
		FROM flagged_bets WHERE resolved = 0
		ORDER BY flagged_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage.OpenBets: query: %w", err)
	}
	defer rows.Close()

	var bets []domain.TrackedBet
	for rows.Next() {
		bet, err := scanOpenBet(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.OpenBets: %w", err)
		}
		bets = append(bets, bet)
	}
	return bets, rows.Err()
}

// ResolveMarket liquida todas las filas abiertas del mercado con el
// outcome dado. Devuelve las filas resueltas con su P&L.
func (t *Tracker) ResolveMarket(ctx context.Context, marketID, outcome string, betSizeUSD float64) ([]domain.ResolvedBet, error) {
	rows, err := t.db.QueryContext(ctx, openBetColumns+`
		FROM flagged_bets WHERE market_id = ? AND resolved = 0`, marketID)
	if err != nil {
		return nil, fmt.Errorf("storage.ResolveMarket: query: %w", err)
	}

	var open []domain.TrackedBet
	for rows.Next() {
		bet, err := scanOpenBet(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("storage.ResolveMarket: %w", err)
		}
		open = append(open, bet)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("storage.ResolveMarket: rows: %w", err)
	}
	rows.Close()

	if len(open) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("storage.ResolveMarket: begin tx: %w", err)
	}
	defer tx.Rollback()

	resolved := make([]domain.ResolvedBet, 0, len(open))
	for _, bet := range open {
		won := bet.Side == outcome
		pnl := -betSizeUSD
		if won {
			pnl = (1.0/bet.MarketPrice - 1.0) * betSizeUSD
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE flagged_bets
			SET resolved = 1, outcome = ?, profit_loss = ?, resolved_at = ?
			WHERE id = ?`,
			outcome, pnl, now.Format(time.RFC3339), bet.ID,
		); err != nil {
			return nil, fmt.Errorf("storage.ResolveMarket: update %d: %w", bet.ID, err)
		}

		bet.Resolved = true
		bet.Outcome = outcome
		bet.ProfitLoss = pnl
		bet.ResolvedAt = now
		resolved = append(resolved, domain.ResolvedBet{Bet: bet, Won: won, PnL: pnl})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("storage.ResolveMarket: commit: %w", err)
	}

	slog.Info("market resolved", "market_id", marketID, "outcome", outcome, "bets", len(resolved))
	return resolved, nil
}

// CalibrationReport mide qué tan calibradas están nuestras estimaciones:
// cuando decimos 70%, ¿resuelve YES ~70% de las veces?
func (t *Tracker) CalibrationReport(ctx context.Context) (domain.CalibrationReport, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT our_probability, side, outcome, kelly, profit_loss, confidence
		FROM flagged_bets WHERE resolved = 1`)
	if err != nil {
		return domain.CalibrationReport{}, fmt.Errorf("storage.CalibrationReport: query: %w", err)
	}
	defer rows.Close()

	type resolvedRow struct {
		prob, kelly, pnl          float64
		side, outcome, confidence string
	}
	var resolved []resolvedRow
	for rows.Next() {
		var r resolvedRow
		if err := rows.Scan(&r.prob, &r.side, &r.outcome, &r.kelly, &r.pnl, &r.confidence); err != nil {
			return domain.CalibrationReport{}, fmt.Errorf("storage.CalibrationReport: scan: %w", err)
		}
		resolved = append(resolved, r)
	}
	if err := rows.Err(); err != nil {
		return domain.CalibrationReport{}, fmt.Errorf("storage.CalibrationReport: rows: %w", err)
	}
	if len(resolved) == 0 {
		return domain.CalibrationReport{}, ports.ErrNoResolvedBets
	}

	report := domain.CalibrationReport{TotalResolved: len(resolved)}
	var kellySum float64
	var highWins int
	bucketN := make(map[float64]int)
	bucketWins := make(map[float64]int)

	for _, r := range resolved {
		won := r.outcome == r.side
		if won {
			report.Wins++
		} else {
			report.Losses++
		}
		report.TotalPnL += r.pnl
		kellySum += r.kelly

		// Bucket al 0.1 más cercano
		b := math.Round(r.prob*10) / 10
		bucketN[b]++
		if won {
			bucketWins[b]++
		}

		if r.confidence == domain.ConfidenceHigh {
			report.HighConfidenceCount++
			if won {
				highWins++
			}
		}
	}

	total := float64(report.TotalResolved)
	report.WinRate = float64(report.Wins) / total
	report.ROI = report.TotalPnL / (total * domain.HypotheticalBetUSD) * 100
	report.AvgKelly = kellySum / total
	if report.HighConfidenceCount > 0 {
		report.HighConfidenceWinRate = float64(highWins) / float64(report.HighConfidenceCount)
	}
	report.ReadyForLive = report.TotalResolved >= 50 && report.TotalPnL > 0

	keys := make([]float64, 0, len(bucketN))
	for b := range bucketN {
		keys = append(keys, b)
	}
	sort.Float64s(keys)
	for _, b := range keys {
		rate := float64(bucketWins[b]) / float64(bucketN[b])
		report.Buckets = append(report.Buckets, domain.BucketCalibration{
			Bucket:     b,
			Count:      bucketN[b],
			ActualRate: rate,
			AbsError:   math.Abs(rate - b),
		})
	}

	return report, nil
}

// Stats devuelve el resumen para la pantalla de status.
func (t *Tracker) Stats(ctx context.Context) (domain.TrackerStats, error) {
	stats := domain.TrackerStats{ByConfidence: make(map[string]int)}

	err := t.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN resolved = 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN resolved = 1 THEN 1 ELSE 0 END), 0)
		FROM flagged_bets`,
	).Scan(&stats.TotalLogged, &stats.OpenBets, &stats.TotalResolved)
	if err != nil {
		return domain.TrackerStats{}, fmt.Errorf("storage.Stats: totals: %w", err)
	}

	rows, err := t.db.QueryContext(ctx, `
		SELECT confidence, COUNT(*) FROM flagged_bets
		WHERE resolved = 0 GROUP BY confidence`)
	if err != nil {
		return domain.TrackerStats{}, fmt.Errorf("storage.Stats: by confidence: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var conf string
		var n int
		if err := rows.Scan(&conf, &n); err != nil {
			return domain.TrackerStats{}, fmt.Errorf("storage.Stats: scan: %w", err)
		}
		stats.ByConfidence[conf] = n
	}
	return stats, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (t *Tracker) Close() error {
	return t.db.Close()
}

// --- helpers internos ---

const openBetColumns = `
		SELECT id, market_id, question, category, side, market_price, our_probability,
		       ev, kelly, confidence, reasoning, flagged_at, end_date`

// scanOpenBet lee una fila sin resolver en un TrackedBet.
func scanOpenBet(rows *sql.Rows) (domain.TrackedBet, error) {
	var bet domain.TrackedBet
	var flaggedAt string
	var endDate sql.NullString

	if err := rows.Scan(
		&bet.ID,
		&bet.MarketID,
		&bet.Question,
		&bet.Category,
		&bet.Side,
		&bet.MarketPrice,
		&bet.OurProbability,
		&bet.EV,
		&bet.Kelly,
		&bet.Confidence,
		&bet.Reasoning,
		&flaggedAt,
		&endDate,
	); err != nil {
		return domain.TrackedBet{}, fmt.Errorf("scan row: %w", err)
	}

	bet.FlaggedAt, _ = time.Parse(time.RFC3339, flaggedAt)
	if endDate.Valid {
		bet.EndDate, _ = time.Parse(time.RFC3339, endDate.String)
	}
	return bet, nil
}
