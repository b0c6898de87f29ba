// Package export renders record collections in interchange formats.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/evansmunsha/expense-guard/internal/core"
)

// CSVHeader is the fixed column set of a CSV export. Amounts are written in
// the smallest currency unit, exactly as stored.
var CSVHeader = []string{"date", "category", "note", "amount", "is_subscription", "renewal_days"}

// WriteCSV streams records as CSV in the given order, header first. Fields
// containing the delimiter, quotes, or newlines are quoted by the encoder.
func WriteCSV(w io.Writer, records []core.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		renewal := ""
		if r.IsSubscription {
			renewal = strconv.Itoa(r.RenewalDays)
		}
		row := []string{
			r.Date,
			r.Category,
			r.Note,
			strconv.FormatInt(r.Amount, 10),
			strconv.FormatBool(r.IsSubscription),
			renewal,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// MarshalCSV renders records to an in-memory CSV document.
func MarshalCSV(records []core.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
