package bus

import (
	"strconv"
	"strings"

	"bus-tracker/internal/utils"
)

const (
	updatedToken  = "updated"
	positionToken = "position"
)

// UpdatedSubject is where a change to a bus's live state is announced.
func UpdatedSubject(prefix string, busID int64) string {
	return prefix + "." + strconv.FormatInt(busID, 10) + "." + updatedToken
}

// PositionSubject is where devices publish GPS fixes for a bus code.
func PositionSubject(prefix, code string) string {
	return prefix + "." + subjectToken(utils.NormalizeBusCode(code)) + "." + positionToken
}

func wildcard(prefix, kind string) string {
	return prefix + ".*." + kind
}

// middleToken returns the token between prefix and the trailing kind.
func middleToken(subject, prefix, kind string) (string, bool) {
	rest, ok := strings.CutPrefix(subject, prefix+".")
	if !ok {
		return "", false
	}
	token, ok := strings.CutSuffix(rest, "."+kind)
	if !ok || token == "" || strings.Contains(token, ".") {
		return "", false
	}
	return token, true
}

func busIDFromSubject(subject, prefix string) (int64, bool) {
	token, ok := middleToken(subject, prefix, updatedToken)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// NATS tokens cannot carry whitespace, wildcards or separators.
func subjectToken(s string) string {
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(strings.TrimSpace(s))
	if s == "" {
		s = "_"
	}
	return s
}
