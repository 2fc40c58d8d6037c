package valuation

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/folio/internal/models"
)

// Totals is the decoded totals payload of a snapshot. PnLDaily, PnLYTD and Cash
// are always zero or empty.
type Totals struct {
	NAV      decimal.Decimal
	PnLDaily decimal.Decimal
	PnLYTD   decimal.Decimal
	Cash     map[string]decimal.Decimal
}

// Payload documents use json.Number so decimals are written as JSON numbers
// with their exact digits.

type totalsPayload struct {
	NAV      json.Number            `json:"NAV"`
	PnLDaily json.Number            `json:"PnLDaily"`
	PnLYTD   json.Number            `json:"PnLYTD"`
	Cash     map[string]json.Number `json:"cash"`
}

type positionPayload struct {
	SymbolID      string      `json:"symbolId"`
	Qty           json.Number `json:"qty"`
	AvgCost       json.Number `json:"avgCost"`
	LastPrice     json.Number `json:"lastPrice"`
	Currency      string      `json:"currency"`
	FXToBase      json.Number `json:"fxToBase"`
	MtmBase       json.Number `json:"mtmBase"`
	CostBase      json.Number `json:"costBase"`
	UnrealizedPnL json.Number `json:"unrealizedPnL"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func fixed(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(valueScale))
}

// EncodeSnapshot renders a valuation result as the three snapshot payloads.
// Output is deterministic for a given result.
func EncodeSnapshot(res *models.ValuationResult) (totals, positions, fxUsed string, err error) {
	t := totalsPayload{
		NAV:      fixed(res.NAV),
		PnLDaily: json.Number("0"),
		PnLYTD:   json.Number("0"),
		Cash:     map[string]json.Number{},
	}

	ps := make([]positionPayload, 0, len(res.Positions))
	for _, p := range res.Positions {
		ps = append(ps, positionPayload{
			SymbolID:      p.SymbolID,
			Qty:           number(p.Quantity),
			AvgCost:       number(p.AvgCost),
			LastPrice:     number(p.LastPrice),
			Currency:      p.Currency,
			FXToBase:      number(p.FXToBase),
			MtmBase:       fixed(p.MarketValueBase),
			CostBase:      fixed(p.CostValueBase),
			UnrealizedPnL: fixed(p.UnrealizedPnL),
		})
	}

	fx := make(map[string]json.Number, len(res.FXUsed))
	for pair, rate := range res.FXUsed {
		fx[pair] = number(rate)
	}

	tb, err := json.Marshal(t)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode totals: %w", err)
	}
	pb, err := json.Marshal(ps)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode positions: %w", err)
	}
	fb, err := json.Marshal(fx)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode fx: %w", err)
	}

	return string(tb), string(pb), string(fb), nil
}

// DecodeTotals parses a snapshot totals payload.
func DecodeTotals(s string) (*Totals, error) {
	var t totalsPayload
	if err := json.Unmarshal([]byte(s), &t); err != nil {
		return nil, fmt.Errorf("failed to decode totals: %w", err)
	}

	out := &Totals{Cash: make(map[string]decimal.Decimal, len(t.Cash))}
	var err error
	if out.NAV, err = parseNumber("NAV", t.NAV); err != nil {
		return nil, err
	}
	if out.PnLDaily, err = parseNumber("PnLDaily", t.PnLDaily); err != nil {
		return nil, err
	}
	if out.PnLYTD, err = parseNumber("PnLYTD", t.PnLYTD); err != nil {
		return nil, err
	}
	for ccy, n := range t.Cash {
		if out.Cash[ccy], err = parseNumber("cash."+ccy, n); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DecodePositions parses a snapshot positions payload.
func DecodePositions(s string) ([]models.PositionValuation, error) {
	var ps []positionPayload
	if err := json.Unmarshal([]byte(s), &ps); err != nil {
		return nil, fmt.Errorf("failed to decode positions: %w", err)
	}

	out := make([]models.PositionValuation, 0, len(ps))
	for _, p := range ps {
		pv := models.PositionValuation{SymbolID: p.SymbolID, Currency: p.Currency}
		fields := []struct {
			name string
			src  json.Number
			dst  *decimal.Decimal
		}{
			{"qty", p.Qty, &pv.Quantity},
			{"avgCost", p.AvgCost, &pv.AvgCost},
			{"lastPrice", p.LastPrice, &pv.LastPrice},
			{"fxToBase", p.FXToBase, &pv.FXToBase},
			{"mtmBase", p.MtmBase, &pv.MarketValueBase},
			{"costBase", p.CostBase, &pv.CostValueBase},
			{"unrealizedPnL", p.UnrealizedPnL, &pv.UnrealizedPnL},
		}
		for _, f := range fields {
			d, err := parseNumber(p.SymbolID+"."+f.name, f.src)
			if err != nil {
				return nil, err
			}
			*f.dst = d
		}
		out = append(out, pv)
	}
	return out, nil
}

// DecodeFXUsed parses a snapshot fxUsed payload.
func DecodeFXUsed(s string) (map[string]decimal.Decimal, error) {
	var raw map[string]json.Number
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode fx: %w", err)
	}
	out := make(map[string]decimal.Decimal, len(raw))
	for pair, n := range raw {
		d, err := parseNumber(pair, n)
		if err != nil {
			return nil, err
		}
		out[pair] = d
	}
	return out, nil
}

func parseNumber(field string, n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number for %s: %w", field, err)
	}
	return d, nil
}
