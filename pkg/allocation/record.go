package allocation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is a stored allocation row after alias resolution. Legacy rows mix
// Spanish and English field names; the ordered candidate lists below are the
// single place where that aliasing is resolved. Nothing downstream sees the
// raw field names.
type Record struct {
	RubroID        string
	Planned        *decimal.Decimal
	Forecast       *decimal.Decimal
	Actual         *decimal.Decimal
	CalendarKey    string
	MonthOrdinal   *int
	VarianceReason string
	Notes          string
	LastUpdated    time.Time
	UpdatedBy      string
}

// recordDoc mirrors every field name observed in stored rows, canonical and
// legacy alike.
type recordDoc struct {
	RubroID    string `json:"rubro_id"`
	LineItemID string `json:"line_item_id"`
	Rubro      string `json:"rubro"`

	Amount        *decimal.Decimal `json:"amount"`
	MontoPlaneado *decimal.Decimal `json:"monto_planeado"`
	Planned       *decimal.Decimal `json:"planned"`

	Forecast        *decimal.Decimal `json:"forecast"`
	MontoProyectado *decimal.Decimal `json:"monto_proyectado"`
	Actual          *decimal.Decimal `json:"actual"`
	MontoReal       *decimal.Decimal `json:"monto_real"`

	Month      json.RawMessage `json:"month"`
	Mes        json.RawMessage `json:"mes"`
	MonthIndex *int            `json:"month_index"`

	VarianceReason string `json:"variance_reason"`
	Razon          string `json:"razon"`
	Notes          string `json:"notes"`
	Notas          string `json:"notas"`

	LastUpdated string `json:"last_updated"`
	UpdatedAt   string `json:"updated_at"`
	UpdatedBy   string `json:"updated_by"`
	ActPor      string `json:"actualizado_por"`
}

// ParseRecord resolves one stored payload into a Record. It fails on rows
// that cannot be trusted at all (missing rubro, non-numeric amounts); the
// caller filters those out instead of failing the whole batch.
func ParseRecord(payload json.RawMessage) (Record, error) {
	var doc recordDoc
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Record{}, fmt.Errorf("malformed allocation row: %w", err)
	}

	record := Record{
		RubroID:        firstNonEmpty(doc.RubroID, doc.LineItemID, doc.Rubro),
		Planned:        firstDecimal(doc.Amount, doc.MontoPlaneado, doc.Planned),
		Forecast:       firstDecimal(doc.Forecast, doc.MontoProyectado),
		Actual:         firstDecimal(doc.Actual, doc.MontoReal),
		VarianceReason: firstNonEmpty(doc.VarianceReason, doc.Razon),
		Notes:          firstNonEmpty(doc.Notes, doc.Notas),
		UpdatedBy:      firstNonEmpty(doc.UpdatedBy, doc.ActPor),
	}
	if record.RubroID == "" {
		return Record{}, fmt.Errorf("allocation row has no rubro identifier")
	}

	key, ordinal, err := parseMonthField(doc.Month)
	if err != nil {
		return Record{}, err
	}
	if key == "" && ordinal == nil {
		key, ordinal, err = parseMonthField(doc.Mes)
		if err != nil {
			return Record{}, err
		}
	}
	if key == "" && ordinal == nil && doc.MonthIndex != nil {
		ordinal = doc.MonthIndex
	}
	record.CalendarKey = key
	record.MonthOrdinal = ordinal

	if ts := firstNonEmpty(doc.LastUpdated, doc.UpdatedAt); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			record.LastUpdated = parsed
		}
	}

	return record, nil
}

// parseMonthField accepts "YYYY-MM", "M<n>", a bare numeric string, or a
// JSON number.
func parseMonthField(raw json.RawMessage) (string, *int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if asString == "" {
			return "", nil, nil
		}
		if strings.Contains(asString, "-") {
			return asString, nil, nil
		}
		trimmed := strings.TrimPrefix(strings.TrimPrefix(asString, "M"), "m")
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return "", nil, fmt.Errorf("unrecognized month value %q", asString)
		}
		return "", &n, nil
	}

	var asNumber int
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return "", &asNumber, nil
	}

	return "", nil, fmt.Errorf("unrecognized month value %s", string(raw))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func firstDecimal(values ...*decimal.Decimal) *decimal.Decimal {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
