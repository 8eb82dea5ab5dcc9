package ofx

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const sampleStatement = `<?xml version="1.0" encoding="UTF-8"?>
<OFX>
  <BANKMSGSRSV1>
    <STMTTRNRS>
      <STMTRS>
        <CURDEF>USD</CURDEF>
        <BANKTRANLIST>
          <DTSTART>20260701</DTSTART>
          <DTEND>20260731</DTEND>
          <STMTTRN>
            <TRNTYPE>DEBIT</TRNTYPE>
            <DTPOSTED>20260705120000[-5:EST]</DTPOSTED>
            <TRNAMT>-15.99</TRNAMT>
            <FITID>2026070501</FITID>
            <NAME>Netflix</NAME>
            <MEMO>Monthly subscription</MEMO>
          </STMTTRN>
          <STMTTRN>
            <TRNTYPE>CREDIT</TRNTYPE>
            <DTPOSTED>20260710</DTPOSTED>
            <TRNAMT>250.00</TRNAMT>
            <FITID>2026071002</FITID>
            <MEMO>Refund</MEMO>
          </STMTTRN>
        </BANKTRANLIST>
      </STMTRS>
    </STMTTRNRS>
  </BANKMSGSRSV1>
</OFX>`

func TestParseStatement(t *testing.T) {
	txns, err := Parse([]byte(sampleStatement))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txns))
	}

	first := txns[0]
	if first.FitID != "2026070501" {
		t.Errorf("FitID = %q", first.FitID)
	}
	if first.Name != "Netflix" {
		t.Errorf("Name = %q", first.Name)
	}
	if first.Memo != "Monthly subscription" {
		t.Errorf("Memo = %q", first.Memo)
	}
	if !first.Amount.Equal(decimal.RequireFromString("-15.99")) {
		t.Errorf("Amount = %s", first.Amount)
	}
	if !first.Posted.Equal(time.Date(2026, time.July, 5, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Posted = %s", first.Posted)
	}

	// NAME falls back to MEMO
	second := txns[1]
	if second.Name != "Refund" {
		t.Errorf("fallback Name = %q", second.Name)
	}
	if !second.Posted.Equal(time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date-only Posted = %s", second.Posted)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not xml", "this is not a statement"},
		{"no transactions", "<OFX><BANKTRANLIST></BANKTRANLIST></OFX>"},
		{"missing fitid", `<OFX><BANKTRANLIST><STMTTRN><TRNAMT>-1.00</TRNAMT><DTPOSTED>20260701</DTPOSTED><NAME>x</NAME></STMTTRN></BANKTRANLIST></OFX>`},
		{"bad amount", `<OFX><BANKTRANLIST><STMTTRN><FITID>1</FITID><TRNAMT>abc</TRNAMT><DTPOSTED>20260701</DTPOSTED><NAME>x</NAME></STMTTRN></BANKTRANLIST></OFX>`},
		{"bad date", `<OFX><BANKTRANLIST><STMTTRN><FITID>1</FITID><TRNAMT>-1.00</TRNAMT><DTPOSTED>julio</DTPOSTED><NAME>x</NAME></STMTTRN></BANKTRANLIST></OFX>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
