// Package textsub resolves <itemvalue> and <date> directives embedded in
// mail subject/body and report query templates.
package textsub

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
)

var (
	itemValueRe = regexp.MustCompile(`(?s)<itemvalue([^>]*)>(.*?)</itemvalue>`)
	dateTagRe   = regexp.MustCompile(`<date([^>]*)\s*/>`)
	attrRe      = regexp.MustCompile(`(\w+)\s*=\s*"([^"]*)"`)
)

// Resolve expands every <itemvalue> and <date> directive in template
// against w. <date> tags are pre-expanded to a yyyyMMdd literal before
// <itemvalue> directives are processed.
func Resolve(template string, w *itemcollection.ItemCollection, now time.Time) string {
	out := expandDates(template, now)
	out = itemValueRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := itemValueRe.FindStringSubmatch(m)
		attrs := parseAttrs(sub[1])
		itemName := strings.TrimSpace(sub[2])
		return resolveItemValue(w, itemName, attrs)
	})
	return out
}

func parseAttrs(raw string) map[string]string {
	out := make(map[string]string)
	for _, m := range attrRe.FindAllStringSubmatch(raw, -1) {
		out[strings.ToLower(m[1])] = m[2]
	}
	return out
}

// resolveItemValue implements the formatting rules: a timestamp first value
// uses format as a date pattern; a format containing '#' is treated as a
// numeric decimal pattern; otherwise the plain string form is used. A
// separator joins every list value; without one, only the indexed position
// (default first) is emitted.
func resolveItemValue(w *itemcollection.ItemCollection, itemName string, attrs map[string]string) string {
	values := w.GetItemValue(itemName)
	if len(values) == 0 {
		return ""
	}

	format := attrs["format"]
	separator, hasSeparator := attrs["separator"]
	position := strings.ToLower(attrs["position"])

	render := func(v itemcollection.Value) string {
		if v.Kind == itemcollection.KindInstant {
			if format != "" {
				return formatGoDate(v.Instant, format)
			}
			return v.Instant.Format(time.RFC3339)
		}
		if strings.Contains(format, "#") {
			if f, ok := v.Float(); ok {
				return formatDecimal(f, format)
			}
		}
		return v.String()
	}

	if hasSeparator {
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = render(v)
		}
		return strings.Join(parts, separator)
	}

	idx := 0
	if position == "last" {
		idx = len(values) - 1
	}
	return render(values[idx])
}

// formatGoDate translates a small set of Java-style date-pattern tokens
// (yyyy, MM, dd, HH, mm, ss) into Go's reference-time layout, covering the
// patterns mail templates actually use.
func formatGoDate(t time.Time, pattern string) string {
	replacer := strings.NewReplacer(
		"yyyy", "2006",
		"MM", "01",
		"dd", "02",
		"HH", "15",
		"mm", "04",
		"ss", "05",
	)
	return t.Format(replacer.Replace(pattern))
}

// formatDecimal renders f using the digit/decimal-point count implied by a
// "#,##0.00"-style pattern: decimals after '.', none otherwise.
func formatDecimal(f float64, pattern string) string {
	decimals := 0
	if dot := strings.Index(pattern, "."); dot >= 0 {
		decimals = strings.Count(pattern[dot+1:], "0")
	}
	return strconv.FormatFloat(f, 'f', decimals, 64)
}

// expandDates pre-expands every <date .../> tag to a yyyyMMdd literal,
// before the surrounding template is otherwise processed.
func expandDates(template string, now time.Time) string {
	return dateTagRe.ReplaceAllStringFunc(template, func(m string) string {
		sub := dateTagRe.FindStringSubmatch(m)
		attrs := parseAttrs(sub[1])
		d := applyDateAdjustments(now, attrs)
		return d.Format("20060102")
	})
}

func applyDateAdjustments(now time.Time, attrs map[string]string) time.Time {
	d := now
	if y, ok := intAttr(attrs, "year"); ok {
		d = time.Date(y, d.Month(), d.Day(), d.Hour(), d.Minute(), d.Second(), 0, d.Location())
	}
	if m, ok := intAttr(attrs, "month"); ok {
		d = time.Date(d.Year(), time.Month(m), d.Day(), d.Hour(), d.Minute(), d.Second(), 0, d.Location())
	} else if strings.EqualFold(attrs["month"], "ACTUAL_MAXIMUM") {
		d = time.Date(d.Year(), d.Month()+1, 0, d.Hour(), d.Minute(), d.Second(), 0, d.Location())
	}
	if dom, ok := intAttr(attrs, "day_of_month"); ok {
		d = time.Date(d.Year(), d.Month(), dom, d.Hour(), d.Minute(), d.Second(), 0, d.Location())
	} else if strings.EqualFold(attrs["day_of_month"], "ACTUAL_MAXIMUM") {
		d = time.Date(d.Year(), d.Month()+1, 0, d.Hour(), d.Minute(), d.Second(), 0, d.Location())
	}
	if doy, ok := intAttr(attrs, "day_of_year"); ok {
		d = time.Date(d.Year(), time.January, doy, d.Hour(), d.Minute(), d.Second(), 0, d.Location())
	}
	if add, ok := attrs["add"]; ok {
		d = applyAdd(d, add)
	}
	return d
}

func intAttr(attrs map[string]string, key string) (int, bool) {
	raw, ok := attrs[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// applyAdd parses an ADD="FIELD,OFFSET" directive, e.g. "DAY_OF_MONTH,-7".
func applyAdd(d time.Time, spec string) time.Time {
	parts := strings.SplitN(spec, ",", 2)
	if len(parts) != 2 {
		return d
	}
	offset, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return d
	}
	switch strings.ToUpper(strings.TrimSpace(parts[0])) {
	case "DAY_OF_MONTH", "DAY_OF_YEAR":
		return d.AddDate(0, 0, offset)
	case "MONTH":
		return d.AddDate(0, offset, 0)
	case "YEAR":
		return d.AddDate(offset, 0, 0)
	default:
		return d
	}
}
