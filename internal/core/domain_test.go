package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-01-01", "2025-01-01", true},
		{"2024-02-29", "2024-02-29", true},
		{" 2025-12-31 ", "2025-12-31", true},
		{"2024-3-5", "2024-03-05", true},
		{"2024-03-5", "2024-03-05", true},
		{"2024-11-1", "2024-11-01", true},
		{"2025-02-30", "", false},
		{"2025/01/01", "", false},
		{"01-01-2025", "", false},
		{"25-3-5", "", false},
		{"2024-003-05", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDate(tc.in)
			if tc.ok {
				if err != nil || got.String() != tc.want {
					t.Fatalf("expected %s, got %s (err=%v)", tc.want, got, err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("expected ErrInvalidDate, got %v", err)
			}
		})
	}
}

func TestDateAnchors(t *testing.T) {
	d := NewDate(2025, time.August, 17)
	if got := d.MonthStart().String(); got != "2025-08-01" {
		t.Fatalf("MonthStart = %s", got)
	}
	if got := d.YearStart().String(); got != "2025-01-01" {
		t.Fatalf("YearStart = %s", got)
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D Date `json:"d"`
	}{NewDate(2025, time.March, 4)})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"d":"2025-03-04"}` {
		t.Fatalf("unexpected encoding %s", b)
	}

	var out struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if !out.D.Equal(NewDate(2025, time.March, 4).Time) {
		t.Fatalf("decoded %v", out.D)
	}
}

func TestParseTxTypeAndPeriod(t *testing.T) {
	if tt, err := ParseTxType("Income"); err != nil || tt != Income {
		t.Fatalf("got %q, %v", tt, err)
	}
	if _, err := ParseTxType("transfer"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	if p, err := ParsePeriod("yearly"); err != nil || p != Yearly {
		t.Fatalf("got %q, %v", p, err)
	}
	if _, err := ParsePeriod("weekly"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestBudgetSummaryOverspend(t *testing.T) {
	s := NewBudgetSummary(Budget{AmountCents: 10000}, 12550)
	if s.RemainingCents != -2550 {
		t.Fatalf("remaining = %d, want -2550", s.RemainingCents)
	}
	if s = NewBudgetSummary(Budget{AmountCents: 10000}, 0); s.RemainingCents != 10000 {
		t.Fatalf("remaining = %d, want 10000", s.RemainingCents)
	}
}

func TestExportRowOf(t *testing.T) {
	v := TransactionView{
		Transaction: Transaction{
			AmountCents: 5000,
			Type:        Expense,
			OccurredAt:  NewDate(2025, time.May, 2),
			Tags:        "TRIP",
		},
		CategoryName: "Food",
		AccountName:  "Cash",
		UserName:     "Ann",
	}
	got := ExportRowOf(v).Record()
	want := []string{"2025-05-02", "expense", "50.00", "Food", "Cash", "", "TRIP", "Ann"}
	if len(got) != len(ExportHeader) {
		t.Fatalf("record has %d columns, header %d", len(got), len(ExportHeader))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %s = %q, want %q", ExportHeader[i], got[i], want[i])
		}
	}
}

func TestExportFilename(t *testing.T) {
	day := time.Date(2025, time.July, 9, 15, 0, 0, 0, time.UTC)
	if got := ExportFilename(day, "csv"); got != "ledger_export_2025-07-09.csv" {
		t.Fatalf("ExportFilename = %q", got)
	}
}
