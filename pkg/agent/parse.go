package agent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mirage-project/mirage/pkg/models"
)

var (
	voteRe       = regexp.MustCompile(`(?mi)^\s*VOTE:\s*(YES|NO)\s*$`)
	scoreLineRe  = regexp.MustCompile(`(?mi)^\s*(CONFIDENCE|ACCURACY|COMPLETENESS):\s*([0-9]*\.?[0-9]+)\s*$`)
	directiveRes = []*regexp.Regexp{
		regexp.MustCompile(`(?mi)^\s*VOTE:.*$`),
		regexp.MustCompile(`(?mi)^\s*(CONFIDENCE|ACCURACY|COMPLETENESS):.*$`),
	}
)

// parseVote extracts a strict YES/NO vote. A missing or malformed vote
// line maps to UNKNOWN, never to a guessed verdict.
func parseVote(text string) models.Vote {
	m := voteRe.FindStringSubmatch(text)
	if m == nil {
		return models.VoteUnknown
	}
	if strings.EqualFold(m[1], "YES") {
		return models.VoteYes
	}
	return models.VoteNo
}

// parseScores extracts the CONFIDENCE / ACCURACY / COMPLETENESS lines.
// Values outside [0,1] are discarded as malformed.
func parseScores(text string) map[string]float64 {
	out := make(map[string]float64)
	for _, m := range scoreLineRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil || v < 0 || v > 1 {
			continue
		}
		out[strings.ToUpper(m[1])] = v
	}
	return out
}

// stripDirectives removes the VOTE / score lines from the visible text.
func stripDirectives(text string) string {
	for _, re := range directiveRes {
		text = re.ReplaceAllString(text, "")
	}
	// Collapse the blank lines the removals leave behind.
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(text)
}
