package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"budgetbook/internal/core"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		if errors.Is(err, io.EOF) {
			return &core.ValidationError{Field: "body", Reason: "cannot be empty"}
		}
		return &core.ValidationError{Field: "body", Reason: err.Error()}
	}
	if dec.More() {
		return &core.ValidationError{Field: "body", Reason: "must contain a single JSON object"}
	}
	return nil
}

// amountField accepts "12,34", "12.34" or 12.34.
type amountField struct {
	set   bool
	value decimal.Decimal
}

func (a *amountField) UnmarshalJSON(b []byte) error {
	raw := string(bytes.TrimSpace(b))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	d, err := core.ParseAmount(raw)
	if err != nil {
		return err
	}
	a.set, a.value = true, d
	return nil
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// dateField accepts RFC 3339 timestamps or plain dates.
type dateField struct {
	set   bool
	value time.Time
}

func (d *dateField) UnmarshalJSON(b []byte) error {
	var raw *string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if raw == nil || *raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, *raw); err == nil {
			d.set, d.value = true, t
			return nil
		}
	}
	return &core.ValidationError{Field: "date", Reason: "unrecognised date " + *raw}
}
