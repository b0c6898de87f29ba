package export

import (
	"strings"
	"testing"

	"github.com/evansmunsha/expense-guard/internal/core"
)

func TestMarshalCSV(t *testing.T) {
	records := []core.Record{
		{
			ID: "a", Amount: 1299, Category: "streaming", Note: "movies",
			Date: "2026-02-10", MonthKey: "2026-02",
			IsSubscription: true, RenewalDays: 30,
		},
		{
			ID: "b", Amount: 450, Category: "coffee",
			Date: "2026-02-11", MonthKey: "2026-02",
		},
	}
	out, err := MarshalCSV(records)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header plus 2 rows:\n%s", len(lines), out)
	}
	if lines[0] != "date,category,note,amount,is_subscription,renewal_days" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "2026-02-10,streaming,movies,1299,true,30" {
		t.Fatalf("row 1 = %q", lines[1])
	}
	if lines[2] != "2026-02-11,coffee,,450,false," {
		t.Fatalf("row 2 = %q", lines[2])
	}
}

func TestMarshalCSVQuotesDelimiters(t *testing.T) {
	records := []core.Record{
		{ID: "a", Amount: 100, Category: "food", Note: "a,b", Date: "2026-02-10", MonthKey: "2026-02"},
		{ID: "b", Amount: 100, Category: `say "hi"`, Date: "2026-02-11", MonthKey: "2026-02"},
		{ID: "c", Amount: 100, Category: "food", Note: "line\nbreak", Date: "2026-02-12", MonthKey: "2026-02"},
	}
	out, err := MarshalCSV(records)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(out)
	if !strings.Contains(got, `"a,b"`) {
		t.Fatalf("comma note not quoted:\n%s", got)
	}
	if !strings.Contains(got, `"say ""hi"""`) {
		t.Fatalf("quotes not escaped:\n%s", got)
	}
	if !strings.Contains(got, "\"line\nbreak\"") {
		t.Fatalf("newline not quoted:\n%s", got)
	}
}

func TestMarshalCSVEmpty(t *testing.T) {
	out, err := MarshalCSV(nil)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "date,category,note,amount,is_subscription,renewal_days\n" {
		t.Fatalf("empty export = %q", out)
	}
}
