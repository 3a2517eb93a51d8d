package rubro

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/finzhq/finz/internal/rest"
	"github.com/finzhq/finz/pkg/baseline"
	"github.com/finzhq/finz/pkg/month"
	"github.com/shopspring/decimal"
)

// Input is one raw rubro of an attach request, before normalization. Pointer
// fields distinguish "absent" from zero values.
type Input struct {
	RubroID    string
	Quantity   *decimal.Decimal
	UnitCost   *decimal.Decimal
	Currency   string
	Recurring  *bool
	OneTime    *bool
	Type       string
	StartMonth *int
	EndMonth   *int
	// Duration is a free-text token of the form "M<a>-M<b>", used when no
	// explicit months are given.
	Duration string
}

var durationToken = regexp.MustCompile(`^[Mm](\d+)\s*-\s*[Mm](\d+)$`)

// normalizeInput applies the attachment defaults: quantity 1, unit cost 0,
// configured currency, one-time unless recurrence is asserted, month 1 when
// no span is given. Returns a ValidationError for inputs that cannot be
// defaulted (missing rubro id, contradictory flags).
func normalizeInput(input Input, defaultCurrency string) (Attachment, error) {
	rubroID := baseline.CanonicalRubroID(input.RubroID)
	if rubroID == "" {
		return Attachment{}, rest.Invalid("rubro identifier is required")
	}

	attachment := Attachment{
		RubroID:  rubroID,
		Quantity: decimal.NewFromInt(1),
		Currency: defaultCurrency,
	}
	if input.Quantity != nil {
		if input.Quantity.IsNegative() {
			return Attachment{}, rest.Invalid(fmt.Sprintf("rubro %s: quantity cannot be negative", rubroID))
		}
		attachment.Quantity = *input.Quantity
	}
	if input.UnitCost != nil {
		if input.UnitCost.IsNegative() {
			return Attachment{}, rest.Invalid(fmt.Sprintf("rubro %s: unit cost cannot be negative", rubroID))
		}
		attachment.UnitCost = *input.UnitCost
	}
	if input.Currency != "" {
		attachment.Currency = strings.ToUpper(strings.TrimSpace(input.Currency))
	}

	recurring, err := classifyRecurrence(input)
	if err != nil {
		return Attachment{}, err
	}
	attachment.Recurring = recurring

	start, end, err := resolveMonthSpan(input)
	if err != nil {
		return Attachment{}, err
	}
	attachment.StartMonth = start
	attachment.EndMonth = end

	attachment.TotalCost = attachment.MonthlyCost()
	if attachment.Recurring {
		attachment.TotalCost = attachment.MonthlyCost().Mul(decimal.NewFromInt(int64(attachment.MonthCount())))
	}

	return attachment, nil
}

// classifyRecurrence: explicit flags win, then the legacy type field, then
// the one-time default.
func classifyRecurrence(input Input) (bool, error) {
	if input.Recurring != nil && input.OneTime != nil && *input.Recurring && *input.OneTime {
		return false, rest.Invalid(fmt.Sprintf("rubro %s: recurring and one_time are mutually exclusive", input.RubroID))
	}
	if input.Recurring != nil {
		return *input.Recurring, nil
	}
	if input.OneTime != nil {
		return !*input.OneTime, nil
	}
	switch strings.ToLower(strings.TrimSpace(input.Type)) {
	case "recurring", "recurrente", "mensual":
		return true, nil
	case "one_time", "one-time", "unico", "único":
		return false, nil
	}
	return false, nil
}

// resolveMonthSpan: explicit fields win, else the "M<a>-M<b>" duration
// token, else month 1 only. Both ends clamp to [1,60] and end >= start.
func resolveMonthSpan(input Input) (int, int, error) {
	start, end := 0, 0

	switch {
	case input.StartMonth != nil:
		start = *input.StartMonth
		end = start
		if input.EndMonth != nil {
			end = *input.EndMonth
		}
	case input.Duration != "":
		matches := durationToken.FindStringSubmatch(strings.TrimSpace(input.Duration))
		if matches == nil {
			return 0, 0, rest.Invalid(fmt.Sprintf("rubro %s: unrecognized duration %q, expected M<a>-M<b>", input.RubroID, input.Duration))
		}
		start, _ = strconv.Atoi(matches[1])
		end, _ = strconv.Atoi(matches[2])
	default:
		start, end = 1, 1
	}

	start = clampMonth(start)
	end = clampMonth(end)
	if end < start {
		end = start
	}
	return start, end, nil
}

func clampMonth(n int) int {
	if n < month.MinIndex {
		return month.MinIndex
	}
	if n > month.MaxIndex {
		return month.MaxIndex
	}
	return n
}
