package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/evansmunsha/expense-guard/internal/core"
)

// FormatVersion stamps every backup document this build writes.
const FormatVersion = 1

// ErrInvalidBackup rejects payloads whose expenses list is missing, null,
// or not a list. Nothing is imported from such a document.
var ErrInvalidBackup = errors.New("invalid backup: expenses list missing or not a list")

// Payload is a decoded backup document. Settings and Entitlement are
// optional; Expenses must be present and array-typed.
type Payload struct {
	Version     int             `json:"version"`
	Settings    *RawSettings    `json:"settings,omitempty"`
	Entitlement *RawEntitlement `json:"entitlement,omitempty"`
	Expenses    *[]RawRecord    `json:"expenses"`
}

func (p Payload) rawRecords() []RawRecord {
	if p.Expenses == nil {
		return nil
	}
	return *p.Expenses
}

// DecodePayload parses a backup document, hard-failing before any state is
// touched when the required expenses list is absent or mistyped.
func DecodePayload(data []byte) (Payload, error) {
	var p Payload
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if p.Expenses == nil {
		return Payload{}, ErrInvalidBackup
	}
	return p, nil
}

// document is the typed envelope the export side writes.
type document struct {
	Version     int              `json:"version"`
	Settings    core.Settings    `json:"settings"`
	Entitlement core.Entitlement `json:"entitlement"`
	Expenses    []core.Record    `json:"expenses"`
}

// EncodeBackup serializes the full state as a versioned document. The
// transient notice and nudge fields are stripped; they are reset on import
// anyway and carry no meaning outside the device that wrote them.
func EncodeBackup(records []core.Record, s core.Settings, ent core.Entitlement) ([]byte, error) {
	s.BudgetNotice = nil
	s.LastNudgeDate = ""
	if records == nil {
		records = []core.Record{}
	}
	doc := document{
		Version:     FormatVersion,
		Settings:    s,
		Entitlement: ent,
		Expenses:    records,
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return out, nil
}
