package remote

import (
	"fmt"
	"net/url"
	"strings"
)

// The remote query language: where clauses compare fields against quoted
// literals, "|" joins alternatives and AND is written as the literal
// percent-encoded "%26". The AND spelling is a legacy escaping quirk of
// the remote API and must be emitted exactly as-is.

func escapeValue(v string) string {
	return url.QueryEscape(strings.ReplaceAll(v, "'", "''"))
}

func whereEq(field, value string) string {
	return fmt.Sprintf("%s='%s'", field, escapeValue(value))
}

func whereOr(clauses ...string) string {
	wrapped := make([]string, len(clauses))
	for i, c := range clauses {
		wrapped[i] = "(" + c + ")"
	}
	return "(" + strings.Join(wrapped, "|") + ")"
}

func whereAnd(clauses ...string) string {
	wrapped := make([]string, len(clauses))
	for i, c := range clauses {
		wrapped[i] = "(" + c + ")"
	}
	return "(" + strings.Join(wrapped, "%26") + ")"
}
