package backup

import (
	"errors"
	"reflect"
	"testing"

	"github.com/evansmunsha/expense-guard/internal/core"
)

func TestDecodePayloadRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{nope"},
		{"expenses missing", `{"version":1,"settings":{}}`},
		{"expenses null", `{"version":1,"expenses":null}`},
		{"expenses mistyped", `{"version":1,"expenses":{"a":1}}`},
		{"top level array", `[1,2,3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePayload([]byte(tt.data))
			if !errors.Is(err, ErrInvalidBackup) {
				t.Fatalf("err = %v, want ErrInvalidBackup", err)
			}
		})
	}
}

func TestDecodePayloadAcceptsMinimalDocument(t *testing.T) {
	p, err := DecodePayload([]byte(`{"expenses":[]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(p.rawRecords()) != 0 {
		t.Fatalf("expenses = %+v, want empty", p.rawRecords())
	}
	if p.Settings != nil || p.Entitlement != nil {
		t.Fatal("absent sections must stay nil")
	}
}

func TestDecodePayloadToleratesUnknownFields(t *testing.T) {
	data := `{"version":1,"exportedBy":"some app 3.1","expenses":[{"amount":50,"date":"2026-02-10","mood":"fine"}]}`
	p, err := DecodePayload([]byte(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	recs := NormalizeRecords(p.rawRecords(), testNow)
	if len(recs) != 1 || recs[0].Amount != 50 {
		t.Fatalf("records = %+v", recs)
	}
}

func TestBackupRoundTrip(t *testing.T) {
	records := []core.Record{
		{
			ID: "a", Amount: 1299, Category: "streaming", Note: "movies",
			Date: "2026-02-10", MonthKey: "2026-02",
			IsSubscription: true, RenewalDays: 30, LastAlerted: "2026-03-12",
			CreatedAt: 1700000000000, UpdatedAt: 1700000000000,
		},
		{
			ID: "b", Amount: 450, Category: "coffee",
			Date: "2026-02-11", MonthKey: "2026-02",
			CreatedAt: 1700000000000, UpdatedAt: 1700000000000,
		},
	}
	settings := core.Settings{
		Currency:      "EUR",
		MonthlyBudget: 80000,
		WarnAtPercent: 75,
		BudgetNotice:  &core.BudgetNotice{Month: "2026-02", Level: 75},
		LastNudgeDate: "2026-02-11",
	}
	ent := core.Entitlement{IsPremium: true, UpdatedAt: 1700000000000}

	data, err := EncodeBackup(records, settings, ent)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	p, err := DecodePayload(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Version != FormatVersion {
		t.Fatalf("version = %d, want %d", p.Version, FormatVersion)
	}
	res := Merge(&p, testNow)

	if res.Skipped != 0 {
		t.Fatalf("skipped = %d, want 0", res.Skipped)
	}
	if len(res.Records) != len(records) {
		t.Fatalf("records = %d, want %d", len(res.Records), len(records))
	}
	for i, want := range records {
		got := res.Records[i]
		got.UpdatedAt = want.UpdatedAt // restamped on import
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("record %d = %+v, want %+v", i, got, want)
		}
	}
	if res.Settings.Currency != "EUR" || res.Settings.MonthlyBudget != 80000 || res.Settings.WarnAtPercent != 75 {
		t.Fatalf("settings = %+v", res.Settings)
	}
	if res.Settings.BudgetNotice != nil || res.Settings.LastNudgeDate != "" {
		t.Fatalf("transient state leaked through the round trip: %+v", res.Settings)
	}
	if !res.IsPremium {
		t.Fatal("entitlement lost in round trip")
	}
}
