package normalize

import (
	"strings"
	"testing"

	"TradeMirror/internal/domain/models"
)

func TestFromCSVAliases(t *testing.T) {
	csvData := `Date,Symbol,Action,Shares,Price,PnL
2024-10-10 10:00:00,aapl,buy,10,150.5,
2024-10-11 09:30:00,AAPL,sell,10,155.0,45.0
not-a-date,AAPL,buy,1,1.0,
`
	res, err := FromCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Trades) != 2 {
		t.Fatalf("trades=%d, want 2", len(res.Trades))
	}
	if res.Dropped != 1 {
		t.Fatalf("dropped=%d, want 1", res.Dropped)
	}

	first := res.Trades[0]
	if first.Asset != "AAPL" || first.Side != models.SideBuy {
		t.Fatalf("unexpected first trade %+v", first)
	}
	// notional derived from qty*price
	if first.Notional == nil || *first.Notional != 1505.0 {
		t.Fatalf("notional=%v, want 1505", first.Notional)
	}

	second := res.Trades[1]
	if second.PL == nil || *second.PL != 45.0 {
		t.Fatalf("pl=%v, want 45", second.PL)
	}
}

func TestFromCSVUnrecognizedHeader(t *testing.T) {
	if _, err := FromCSV(strings.NewReader("foo,bar\n1,2\n")); err == nil {
		t.Fatalf("expected error for unknown header")
	}
}

func TestFromCSVOrdersByTS(t *testing.T) {
	csvData := `timestamp,symbol,side,qty
2024-10-12T10:00:00Z,AAPL,BUY,1
2024-10-10T10:00:00Z,AAPL,BUY,1
`
	res, err := FromCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Trades[0].TS.Before(res.Trades[1].TS) {
		t.Fatalf("trades not ordered by ts")
	}
}

func TestFromJSON(t *testing.T) {
	body := `[
		{"ts":"2024-10-10T10:00:00Z","side":"buy","asset":"MSFT","qty":2,"entryPrice":400,"notional":null,"pl":null},
		{"ts":"0001-01-01T00:00:00Z","side":"SELL","asset":"MSFT","qty":1,"notional":null,"pl":null,"entryPrice":null}
	]`
	res, err := FromJSON(strings.NewReader(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Trades) != 1 || res.Dropped != 1 {
		t.Fatalf("trades=%d dropped=%d, want 1 and 1", len(res.Trades), res.Dropped)
	}
	tr := res.Trades[0]
	if tr.Side != models.SideBuy {
		t.Fatalf("side=%q, want BUY", tr.Side)
	}
	if tr.Notional == nil || *tr.Notional != 800 {
		t.Fatalf("notional=%v, want 800", tr.Notional)
	}
}
