package normalize

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"TradeMirror/internal/domain/models"
	"TradeMirror/pkg/util"
)

// Result is a normalized trade batch plus what had to be discarded. Dropped
// rows are counted, not errors: a partial upload still analyzes.
type Result struct {
	Trades  []models.Trade
	Dropped int
}

// Column aliases seen across broker exports. All matching is done on
// lowercased, trimmed headers.
var headerAliases = map[string]string{
	"trade_id":     "trade_id",
	"tradeid":      "trade_id",
	"id":           "trade_id",
	"timestamp":    "ts",
	"ts":           "ts",
	"date":         "ts",
	"time":         "ts",
	"datetime":     "ts",
	"executed_at":  "ts",
	"side":         "side",
	"action":       "side",
	"type":         "side",
	"direction":    "side",
	"asset":        "asset",
	"symbol":       "asset",
	"ticker":       "asset",
	"instrument":   "asset",
	"quantity":     "qty",
	"qty":          "qty",
	"shares":       "qty",
	"units":        "qty",
	"notional":     "notional",
	"value":        "notional",
	"amount":       "notional",
	"trade_value":  "notional",
	"profit_loss":  "pl",
	"pl":           "pl",
	"pnl":          "pl",
	"realized_pnl": "pl",
	"p&l":          "pl",
	"entry_price":  "entryPrice",
	"price":        "entryPrice",
	"fill_price":   "entryPrice",
}

// extra layouts beyond RFC3339/unix that broker CSVs use
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// FromCSV reads a heterogeneous CSV export into canonical trades. Rows whose
// timestamp cannot be parsed are dropped and counted; every other field
// degrades to nil. The output is ordered by ts ascending.
func FromCSV(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[int]string, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if canonical, ok := headerAliases[key]; ok {
			cols[i] = canonical
		}
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no recognizable columns in header %v", header)
	}

	res := &Result{}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		row := make(map[string]string, len(cols))
		for i, name := range cols {
			if i < len(record) {
				row[name] = strings.TrimSpace(record[i])
			}
		}

		t, ok := tradeFromRow(row)
		if !ok {
			res.Dropped++
			continue
		}
		res.Trades = append(res.Trades, t)
	}

	sortTrades(res.Trades)
	return res, nil
}

// FromJSON decodes a canonical JSON trade array, dropping entries without a
// parseable timestamp. The output is ordered by ts ascending.
func FromJSON(r io.Reader) (*Result, error) {
	var trades []models.Trade
	if err := json.NewDecoder(r).Decode(&trades); err != nil {
		return nil, fmt.Errorf("decode trades json: %w", err)
	}

	res := &Result{Trades: make([]models.Trade, 0, len(trades))}
	for _, t := range trades {
		if !t.HasTS() {
			res.Dropped++
			continue
		}
		t.Side = models.Side(strings.ToUpper(string(t.Side)))
		fillNotional(&t)
		res.Trades = append(res.Trades, t)
	}
	sortTrades(res.Trades)
	return res, nil
}

func tradeFromRow(row map[string]string) (models.Trade, bool) {
	ts, ok := parseTS(row["ts"])
	if !ok {
		return models.Trade{}, false
	}

	t := models.Trade{
		TradeID:    row["trade_id"],
		TS:         ts,
		Asset:      strings.ToUpper(row["asset"]),
		Qty:        parseFloat(row["qty"]),
		Notional:   parseFloat(row["notional"]),
		PL:         parseFloat(row["pl"]),
		EntryPrice: parseFloat(row["entryPrice"]),
	}

	switch strings.ToUpper(row["side"]) {
	case "BUY", "B", "LONG":
		t.Side = models.SideBuy
	case "SELL", "S", "SHORT":
		t.Side = models.SideSell
	}

	fillNotional(&t)
	return t, true
}

// fillNotional derives the cash value as qty * entry_price when the source
// did not report one.
func fillNotional(t *models.Trade) {
	if t.Notional != nil {
		return
	}
	qty, ok := t.Quantity()
	if !ok || t.EntryPrice == nil {
		return
	}
	v := qty * *t.EntryPrice
	t.Notional = &v
}

func parseTS(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := util.ParseTime(s); ok {
		return t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func sortTrades(trades []models.Trade) {
	sort.SliceStable(trades, func(i, j int) bool { return trades[i].TS.Before(trades[j].TS) })
}
