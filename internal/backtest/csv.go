package backtest

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

var ledgerHeader = []string{
	"index",
	"period_start",
	"price",
	"demand",
	"action",
	"requested_energy",
	"action_energy",
	"soc_start",
	"soc_end",
	"pre_purchased_used",
	"battery_supply",
	"grid_supply",
	"unmet",
	"market_profit",
	"unmet_penalty",
	"profit",
	"cum_profit",
}

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteLedger(f, ledger); err != nil {
		return err
	}
	return f.Close()
}

// WriteLedger writes the ledger as CSV with a header row.
func WriteLedger(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)

	if err := w.Write(ledgerHeader); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.PeriodStart),
			fmtFloat(r.Price),
			fmtFloat(r.Demand),
			string(r.Action),
			fmtFloat(r.RequestedEnergy),
			fmtFloat(r.ActionEnergy),
			fmtFloat(r.SOCStart),
			fmtFloat(r.SOCEnd),
			fmtFloat(r.PrePurchasedUsed),
			fmtFloat(r.BatterySupply),
			fmtFloat(r.GridSupply),
			fmtFloat(r.Unmet),
			fmtFloat(r.MarketProfit),
			fmtFloat(r.UnmetPenalty),
			fmtFloat(r.Profit),
			fmtFloat(r.CumProfit),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
