package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/probmarkets/kalshi-bot/pkg/types"
	"go.uber.org/zap"
)

// TradeAction distinguishes ledger lines.
type TradeAction string

const (
	ActionEntry TradeAction = "entry"
	ActionExit  TradeAction = "exit"
)

// TradeRecord is one parsed ledger line.
type TradeRecord struct {
	Ticker    string
	Side      types.Side
	Action    TradeAction
	Contracts int64
	Price     int // cents
	Timestamp time.Time
}

const lineTimeLayout = "2006-01-02 15:04:05"

// Ledger lines:
//
//	2026-02-15 12:07:05 | ENTRY | KXNCAAMBGAME-... | yes | x12 @ 71c | reason
//	2026-02-15 14:30:10 | EXIT | KXNCAAMBGAME-... | yes | x12 @ 76c | reason=profit_target | order=abc
var lineRe = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}) \| (ENTRY|EXIT) \| (\S+) \| (\w+) \| x(\d+) @ (\d+)c`)

// Ledger is the append-only trade log. It survives restarts so the daily
// summary can account for trades made by earlier sessions, and it is the
// system of record for realized P&L.
type Ledger struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

// New creates a ledger writing to path, creating parent directories as
// needed.
func New(path string, logger *zap.Logger) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}
	return &Ledger{path: path, logger: logger}, nil
}

// Path returns the ledger file path.
func (l *Ledger) Path() string {
	return l.path
}

// RecordEntry appends an entry line.
func (l *Ledger) RecordEntry(signal *types.TradeSignal) error {
	line := fmt.Sprintf("%s | ENTRY | %s | %s | x%d @ %dc | %s",
		time.Now().Format(lineTimeLayout),
		signal.Ticker, signal.Side, signal.Contracts, signal.EntryPrice, signal.Reason)
	return l.append(line)
}

// RecordExit appends an exit line.
func (l *Ledger) RecordExit(signal *types.ExitSignal, orderID string) error {
	line := fmt.Sprintf("%s | EXIT | %s | %s | x%d @ %dc | reason=%s | order=%s",
		time.Now().Format(lineTimeLayout),
		signal.Ticker, signal.Side, signal.Contracts, signal.ExitPrice, signal.Reason, orderID)
	return l.append(line)
}

func (l *Ledger) append(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, line); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}

// LoadToday parses today's lines from the ledger. A missing file means no
// prior trades, not an error; unparseable lines are skipped.
func (l *Ledger) LoadToday() ([]TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	today := time.Now().Format("2006-01-02")
	var records []TradeRecord

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, today) {
			continue
		}
		rec, ok := ParseLine(line)
		if !ok {
			l.logger.Debug("ledger-unparseable-line", zap.String("line", line))
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return records, nil
}

// ParseLine parses one ledger line into a trade record.
func ParseLine(line string) (TradeRecord, bool) {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return TradeRecord{}, false
	}

	ts, err := time.ParseInLocation(lineTimeLayout, m[1], time.Local)
	if err != nil {
		return TradeRecord{}, false
	}
	contracts, err := strconv.ParseInt(m[5], 10, 64)
	if err != nil {
		return TradeRecord{}, false
	}
	price, err := strconv.Atoi(m[6])
	if err != nil {
		return TradeRecord{}, false
	}

	action := ActionEntry
	if m[2] == "EXIT" {
		action = ActionExit
	}

	return TradeRecord{
		Ticker:    m[3],
		Side:      types.Side(m[4]),
		Action:    action,
		Contracts: contracts,
		Price:     price,
		Timestamp: ts,
	}, true
}
