// Package ofx parses OFX 2.x (XML) bank statements so users running without
// a linked aggregation item can import transaction history manually.
package ofx

import (
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// StatementTransaction is one imported statement entry.
type StatementTransaction struct {
	FitID  string
	Name   string
	Memo   string
	Amount decimal.Decimal
	Posted time.Time
}

// Parse extracts the statement transactions from an OFX 2.x document. Both
// bank (STMTRS) and credit-card (CCSTMTRS) statements are supported.
func Parse(data []byte) ([]StatementTransaction, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse OFX document: %w", err)
	}

	elements := doc.FindElements("//BANKTRANLIST/STMTTRN")
	if len(elements) == 0 {
		return nil, fmt.Errorf("no statement transactions found")
	}

	txns := make([]StatementTransaction, 0, len(elements))
	for _, el := range elements {
		txn, err := parseTransaction(el)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func parseTransaction(el *etree.Element) (StatementTransaction, error) {
	fitID := childText(el, "FITID")
	if fitID == "" {
		return StatementTransaction{}, fmt.Errorf("statement transaction missing FITID")
	}

	rawAmount := childText(el, "TRNAMT")
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return StatementTransaction{}, fmt.Errorf("invalid TRNAMT %q: %w", rawAmount, err)
	}

	posted, err := parseOFXDate(childText(el, "DTPOSTED"))
	if err != nil {
		return StatementTransaction{}, err
	}

	name := childText(el, "NAME")
	if name == "" {
		name = childText(el, "MEMO")
	}
	if name == "" {
		return StatementTransaction{}, fmt.Errorf("statement transaction %s missing NAME", fitID)
	}

	return StatementTransaction{
		FitID:  fitID,
		Name:   name,
		Memo:   childText(el, "MEMO"),
		Amount: amount,
		Posted: posted,
	}, nil
}

func childText(el *etree.Element, tag string) string {
	child := el.FindElement("./" + tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

// parseOFXDate handles the YYYYMMDD[HHMMSS] forms, ignoring any trailing
// timezone annotation like [-5:EST].
func parseOFXDate(raw string) (time.Time, error) {
	if idx := strings.IndexByte(raw, '['); idx >= 0 {
		raw = raw[:idx]
	}
	if len(raw) >= 14 {
		raw = raw[:14]
		t, err := time.Parse("20060102150405", raw)
		if err == nil {
			return t, nil
		}
	}
	if len(raw) >= 8 {
		t, err := time.Parse("20060102", raw[:8])
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid DTPOSTED %q", raw)
}
