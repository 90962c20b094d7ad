package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/probmarkets/kalshi-bot/pkg/types"
	"go.uber.org/zap"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := New(filepath.Join(t.TempDir(), "logs", "trades.log"), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestRecordAndLoadToday(t *testing.T) {
	l := newTestLedger(t)

	err := l.RecordEntry(&types.TradeSignal{
		Ticker: "KXAAA-26-X", Side: types.SideYes,
		Contracts: 12, EntryPrice: 71, Reason: "high probability 85.0%",
	})
	if err != nil {
		t.Fatal(err)
	}
	err = l.RecordExit(&types.ExitSignal{
		Ticker: "KXAAA-26-X", Side: types.SideYes,
		Contracts: 12, ExitPrice: 76, Reason: "profit_target",
	}, "ord-9")
	if err != nil {
		t.Fatal(err)
	}

	records, err := l.LoadToday()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	entry := records[0]
	if entry.Action != ActionEntry || entry.Ticker != "KXAAA-26-X" ||
		entry.Contracts != 12 || entry.Price != 71 || entry.Side != types.SideYes {
		t.Errorf("entry = %+v", entry)
	}
	exit := records[1]
	if exit.Action != ActionExit || exit.Price != 76 {
		t.Errorf("exit = %+v", exit)
	}
}

func TestLoadTodaySkipsOtherDaysAndGarbage(t *testing.T) {
	l := newTestLedger(t)

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02 15:04:05")
	today := time.Now().Format("2006-01-02 15:04:05")
	content := strings.Join([]string{
		yesterday + " | ENTRY | KXOLD-26-X | yes | x5 @ 80c | stale",
		"not a ledger line at all",
		today + " | ENTRY | KXNEW-26-Y | yes | x7 @ 82c | fresh",
	}, "\n") + "\n"
	if err := os.WriteFile(l.Path(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := l.LoadToday()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Ticker != "KXNEW-26-Y" {
		t.Fatalf("records = %+v, want only today's trade", records)
	}
}

func TestLoadTodayMissingFile(t *testing.T) {
	l := newTestLedger(t)
	records, err := l.LoadToday()
	if err != nil {
		t.Fatal(err)
	}
	if records != nil {
		t.Errorf("records = %v, want nil for missing file", records)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		ok   bool
	}{
		{"entry", "2026-02-15 12:07:05 | ENTRY | KXNCAAMBGAME-26FEB15-MIW | yes | x12 @ 71c | reason", true},
		{"exit with order", "2026-02-15 14:30:10 | EXIT | KXAAA-26-X | yes | x12 @ 76c | reason=profit_target | order=abc", true},
		{"garbage", "hello world", false},
		{"missing price", "2026-02-15 12:07:05 | ENTRY | KXAAA-26-X | yes | x12", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := ParseLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && rec.Ticker == "" {
				t.Error("parsed record missing ticker")
			}
		})
	}
}
