package notify

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mvaldesr/polyedge/internal/domain"
)

const (
	maxRetries     = 3
	retryDelayBase = time.Second
	alertTopN      = 5
)

// Telegram implementa ports.Notifier mandando mensajes HTML a un chat.
type Telegram struct {
	bot       *tgbotapi.BotAPI
	chatID    int64
	minEV     float64
	scanEvery time.Duration
	live      bool
}

// NewTelegram crea el notificador de Telegram. El token y el chat ID
// vienen de TELEGRAM_BOT_TOKEN y TELEGRAM_CHAT_ID.
func NewTelegram(token, chatID string, minEV float64, scanEvery time.Duration, live bool) (*Telegram, error) {
	if token == "" || chatID == "" {
		return nil, fmt.Errorf("notify.NewTelegram: token and chat ID are required")
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("notify.NewTelegram: invalid chat ID %q: %w", chatID, err)
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify.NewTelegram: %w", err)
	}

	return &Telegram{bot: bot, chatID: id, minEV: minEV, scanEvery: scanEvery, live: live}, nil
}

// NotifyStartup manda el mensaje de arranque.
func (t *Telegram) NotifyStartup(_ context.Context, mode string, bankrollUSD float64) error {
	return t.send(fmt.Sprintf(
		"🚀 <b>Polymarket Bot Started</b>\n\n"+
			"Mode: %s\n"+
			"Bankroll: $%.2f\n"+
			"Min EV: %.0f%%\n"+
			"Scan interval: %dmin\n\n"+
			"Bot is now autonomous. Scanning for mispricings.",
		modeLabel(mode), bankrollUSD, t.minEV*100, int(t.scanEvery.Minutes())))
}

// NotifyShutdown manda el resumen de la sesión.
func (t *Telegram) NotifyShutdown(_ context.Context, scans, betsPlaced int, totalPnL float64) error {
	return t.send(fmt.Sprintf(
		"🛑 <b>Polymarket Bot Stopped</b>\n\n"+
			"Total scans: %d\n"+
			"Total bets: %d\n"+
			"Hypothetical P&L: $%+.2f",
		scans, betsPlaced, totalPnL))
}

// NotifyOpportunities manda el top de oportunidades del scan. Con la
// lista vacía no manda nada.
func (t *Telegram) NotifyOpportunities(_ context.Context, opportunities []domain.Opportunity) error {
	if len(opportunities) == 0 {
		return nil
	}

	now := time.Now().UTC().Format("02 Jan 2006 15:04 UTC")
	lines := []string{
		fmt.Sprintf("🎯 <b>POLYMARKET OPPORTUNITIES — %s</b>", now),
		fmt.Sprintf("Found <b>%d</b> mispricings\n", len(opportunities)),
	}

	for i, opp := range opportunities {
		if i >= alertTopN {
			break
		}
		m := opp.Market

		sideEmoji := "❌"
		if opp.RecommendedSide == domain.OutcomeYes {
			sideEmoji = "✅"
		}

		daysLeft := ""
		if d := m.DaysToEnd(time.Now()); d > 0 {
			daysLeft = fmt.Sprintf(" | %.0fd", d)
		}

		lines = append(lines, fmt.Sprintf(
			"%s <b>#%d %s CONFIDENCE</b>%s\n"+
				"%s\n"+
				"Market: YES=%.0f%% | Our est: %.0f%%\n"+
				"EV: %+.1f%% | Kelly: %.1f%%\n"+
				"%s <b>BET %s</b>\n"+
				"<i>%s</i>\n",
			confidenceIcon(opp.Confidence), i+1, opp.Confidence, daysLeft,
			html.EscapeString(cut(m.Question, 80)),
			m.YesPrice*100, opp.OurProbability*100,
			opp.BestEV()*100, opp.MaxKelly()*100,
			sideEmoji, opp.RecommendedSide,
			html.EscapeString(cut(opp.Reasoning, 100))))
	}

	if !t.live {
		lines = append(lines, "⚠️ Paper mode — track don't bet yet")
	}

	return t.send(strings.Join(lines, "\n"))
}

// NotifyBetPlaced manda la alerta de apuesta, paper o live.
func (t *Telegram) NotifyBetPlaced(_ context.Context, bet domain.TrackedBet, sizeUSD float64, live bool, orderID string) error {
	if live {
		return t.send(fmt.Sprintf(
			"🎯 <b>LIVE BET EXECUTED</b>\n\n"+
				"%s\n\n"+
				"Side: <b>%s</b> @ %.1f%%\n"+
				"Size: <b>$%.2f</b>\n"+
				"Order ID: %s\n"+
				"Our prob: %.1f%% | EV: %+.1f%%",
			html.EscapeString(cut(bet.Question, 80)),
			bet.Side, bet.MarketPrice*100,
			sizeUSD, orderID,
			bet.OurProbability*100, bet.EV*100))
	}

	return t.send(fmt.Sprintf(
		"📝 <b>PAPER BET PLACED</b>\n\n"+
			"%s\n\n"+
			"Side: <b>%s</b> @ %.1f%%\n"+
			"Size: <b>$%.2f</b>\n"+
			"Our prob: %.1f%% | EV: %+.1f%%\n"+
			"Confidence: %s\n"+
			"<i>%s</i>",
		html.EscapeString(cut(bet.Question, 80)),
		bet.Side, bet.MarketPrice*100,
		sizeUSD,
		bet.OurProbability*100, bet.EV*100,
		bet.Confidence,
		html.EscapeString(cut(bet.Reasoning, 120))))
}

// NotifyExecutionFailure manda la alerta de orden fallida.
func (t *Telegram) NotifyExecutionFailure(_ context.Context, reason string) error {
	return t.send("⚠️ <b>Execution failed</b>\n" + html.EscapeString(reason))
}

// NotifyResolution manda la alerta de posición resuelta.
func (t *Telegram) NotifyResolution(_ context.Context, bet domain.TrackedBet, outcome string, won bool, pnl float64) error {
	resultEmoji, result := "❌", "LOSS"
	if won {
		resultEmoji, result = "✅", "WIN"
	}

	return t.send(fmt.Sprintf(
		"%s <b>POLYMARKET RESOLVED</b>\n\n"+
			"%s\n\n"+
			"Our bet: <b>%s</b> @ %.1f%%\n"+
			"Outcome: <b>%s</b>\n"+
			"Result: <b>%s</b>\n"+
			"P&L: <b>$%+.2f</b>",
		resultEmoji,
		html.EscapeString(cut(bet.Question, 80)),
		bet.Side, bet.MarketPrice*100,
		outcome, result, pnl))
}

// NotifyCalibration manda el informe de calibración.
func (t *Telegram) NotifyCalibration(_ context.Context, report domain.CalibrationReport) error {
	ready := "❌ Need more data"
	if report.ReadyForLive {
		ready = "✅ READY FOR LIVE"
	}

	return t.send(fmt.Sprintf(
		"📊 <b>POLYMARKET CALIBRATION REPORT</b>\n\n"+
			"Resolved bets: %d\n"+
			"Win rate: %.1f%%\n"+
			"Total P&L: $%+.2f (hypothetical $100/bet)\n"+
			"ROI: %+.1f%%\n"+
			"High confidence WR: %.1f%%\n\n"+
			"%s",
		report.TotalResolved,
		report.WinRate*100,
		report.TotalPnL,
		report.ROI,
		report.HighConfidenceWinRate*100,
		ready))
}

// --- helpers internos ---

// send manda el mensaje con reintentos y backoff lineal.
func (t *Telegram) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		_, err := t.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(retryDelayBase * time.Duration(i+1))
	}

	return fmt.Errorf("notify.Telegram: send after %d retries: %w", maxRetries, lastErr)
}

func modeLabel(mode string) string {
	if mode == "LIVE" {
		return "🔴 LIVE"
	}
	return "📄 PAPER"
}

// cut trunca a n runas sin añadir puntos suspensivos.
func cut(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
