package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"famledger/internal/core"
	"famledger/internal/storage"
)

// maxBodySize caps request bodies; ledger entries are small.
const maxBodySize = 1 << 20

var errMissingLedgerParam = errors.New("missing ledger_id parameter")

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodySize)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// pathID extracts the {id} path segment as a positive integer.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// queryLedgerID extracts the required ledger_id query parameter.
func queryLedgerID(query url.Values) (int64, error) {
	raw := strings.TrimSpace(query.Get("ledger_id"))
	if raw == "" {
		return 0, errMissingLedgerParam
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ledger_id %q", raw)
	}
	return id, nil
}

// parseRecordFilter builds a record filter from query parameters. Unknown or
// empty parameters are ignored; malformed values are errors.
func parseRecordFilter(query url.Values) (storage.RecordFilter, error) {
	var f storage.RecordFilter

	if raw := strings.TrimSpace(query.Get("start_date")); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			return f, fmt.Errorf("invalid start_date %q", raw)
		}
		f.StartDate = &d
	}
	if raw := strings.TrimSpace(query.Get("end_date")); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			return f, fmt.Errorf("invalid end_date %q", raw)
		}
		f.EndDate = &d
	}
	if raw := strings.TrimSpace(query.Get("direction")); raw != "" {
		dir := core.Direction(raw)
		if err := dir.Validate(); err != nil {
			return f, fmt.Errorf("invalid direction %q", raw)
		}
		f.Direction = dir
	}
	f.Category = strings.TrimSpace(query.Get("category"))

	if raw := strings.TrimSpace(query.Get("member_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return f, fmt.Errorf("invalid member_id %q", raw)
		}
		f.MemberID = &id
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid limit %q", raw)
		}
		f.Limit = n
	}
	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid offset %q", raw)
		}
		f.Offset = n
	}

	return f, nil
}

// parseBudgetFilter builds a budget filter from query parameters.
func parseBudgetFilter(query url.Values) (storage.BudgetFilter, error) {
	var f storage.BudgetFilter

	if raw := strings.TrimSpace(query.Get("direction")); raw != "" {
		dir := core.Direction(raw)
		if err := dir.Validate(); err != nil {
			return f, fmt.Errorf("invalid direction %q", raw)
		}
		f.Direction = dir
	}
	if raw := strings.TrimSpace(query.Get("period")); raw != "" {
		p := core.Period(raw)
		if err := p.Validate(); err != nil {
			return f, fmt.Errorf("invalid period %q", raw)
		}
		f.Period = p
	}
	if raw := strings.TrimSpace(query.Get("member_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return f, fmt.Errorf("invalid member_id %q", raw)
		}
		f.MemberID = &id
	}

	return f, nil
}

// queryYear extracts the year parameter, defaulting to the current year.
func queryYear(query url.Values) (int, error) {
	raw := strings.TrimSpace(query.Get("year"))
	if raw == "" {
		return time.Now().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return year, nil
}

// optionalID is a tri-state reference field in partial updates: absent means
// leave unchanged, null clears the reference, a number sets it.
type optionalID struct {
	set   bool
	value *int64
}

func (o *optionalID) UnmarshalJSON(data []byte) error {
	o.set = true
	if string(data) == "null" {
		o.value = nil
		return nil
	}
	id, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid member id %s", data)
	}
	o.value = &id
	return nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
