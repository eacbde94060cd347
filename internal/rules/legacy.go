package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Detection patterns for deprecated script dialects: presence of
// graalvm.languageId=nashorn, workitem.get(/event.get( calls, or bracket
// indexing on workitem/event.
var (
	nashornMarker = regexp.MustCompile(`graalvm\.languageId\s*=\s*nashorn`)
	getCallRe     = regexp.MustCompile(`\b(workitem|event)\.get\(\s*['"]([\w$.\-]+)['"]\s*\)`)
	bracketRe     = regexp.MustCompile(`\b(workitem|event)\[\s*['"]([\w$.\-]+)['"]\s*\](?:\[\s*0\s*\])?`)
	dotFieldRe    = regexp.MustCompile(`\b(workitem|event)\.([A-Za-z_$][\w$]*)\[\s*0\s*\]`)
	numericRe     = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// IsDeprecatedScript reports whether s uses any deprecated accessor dialect.
func IsDeprecatedScript(s string) bool {
	return nashornMarker.MatchString(s) ||
		getCallRe.MatchString(s) ||
		bracketRe.MatchString(s) ||
		dotFieldRe.MatchString(s)
}

// RewriteIfDeprecated rewrites s into canonical typed accessors when
// IsDeprecatedScript(s) is true; otherwise s is returned unchanged. Numeric
// item names are rewritten to the typed-double accessor, everything else to
// typed-string; existence checks become hasItem(...). The rewritten
// script never matches IsDeprecatedScript again and evaluates to the
// same boolean on the same inputs.
func RewriteIfDeprecated(s string) string {
	if !IsDeprecatedScript(s) {
		return s
	}

	out := s
	out = nashornMarker.ReplaceAllString(out, "")
	out = rewriteExistenceChecks(out)

	rewriteField := func(receiver, field string) string {
		accessor := "getItemValueString"
		if numericRe.MatchString(field) {
			// field itself looks numeric: read it with the typed-double
			// accessor, as looksNumericItem does for integer-like names.
			return fmt.Sprintf("%s.getItemValueDouble(%q)", receiver, field)
		}
		if looksNumericItem(field) {
			accessor = "getItemValueDouble"
		}
		return fmt.Sprintf("%s.%s(%q)", receiver, accessor, field)
	}

	out = getCallRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := getCallRe.FindStringSubmatch(m)
		return rewriteField(sub[1], sub[2])
	})
	out = bracketRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := bracketRe.FindStringSubmatch(m)
		return rewriteField(sub[1], sub[2])
	})
	out = dotFieldRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := dotFieldRe.FindStringSubmatch(m)
		return rewriteField(sub[1], sub[2])
	})

	return out
}

// looksNumericItem is a heuristic over well-known numeric workflow fields;
// anything not recognized defaults to the string accessor, matching the
// engine's "reject on loss" posture for ambiguous legacy scripts.
func looksNumericItem(field string) bool {
	switch strings.ToLower(field) {
	case "$taskid", "$eventid", "$processid", "$activityid", "numage", "numsequence", "amount", "total":
		return true
	}
	if _, err := strconv.Atoi(field); err == nil {
		return true
	}
	return false
}

var existsRe = regexp.MustCompile(`\b(workitem|event)\.get\(\s*['"]([\w$.\-]+)['"]\s*\)\s*!=\s*null`)

func rewriteExistenceChecks(s string) string {
	return existsRe.ReplaceAllString(s, `$1.hasItem("$2")`)
}
