package usage

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// HumanTokens formats token counts with K/M suffixes for quick scanning.
func HumanTokens(n int) string {
	if n >= 1_000_000 {
		return formatScaled(float64(n)/1_000_000, "M")
	}
	if n >= 1_000 {
		return formatScaled(float64(n)/1_000, "K")
	}
	return strconv.Itoa(n)
}

// GroupedInt formats integers with comma separators.
func GroupedInt(n int) string {
	s := strconv.Itoa(n)
	if n < 1000 {
		return s
	}

	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

// Summary renders today's totals plus a per-model breakdown, the shape the
// usage command replies with.
func Summary(dayKey string, records []Record) string {
	agg := AggregateRecords(records)

	var b strings.Builder
	fmt.Fprintf(&b, "AI usage for %s\n", dayKey)
	fmt.Fprintf(&b, "Calls: %s | Tokens: %s (prompt %s, completion %s)",
		GroupedInt(agg.Calls),
		HumanTokens(agg.TotalTokens),
		HumanTokens(agg.PromptTokens),
		HumanTokens(agg.CompletionTokens),
	)

	byModel := ModelBreakdown(records)
	if len(byModel) > 1 {
		models := make([]string, 0, len(byModel))
		for m := range byModel {
			models = append(models, m)
		}
		sort.Strings(models)
		for _, m := range models {
			ma := byModel[m]
			fmt.Fprintf(&b, "\n  %s: %s calls, %s tokens", m, GroupedInt(ma.Calls), HumanTokens(ma.TotalTokens))
		}
	}
	return b.String()
}

func formatScaled(value float64, suffix string) string {
	s := fmt.Sprintf("%.1f", value)
	s = strings.TrimSuffix(s, ".0")
	return s + suffix
}
