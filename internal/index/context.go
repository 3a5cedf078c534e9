package index

import (
	"regexp"
	"strings"
	"unicode"
)

// Context levels describe the subject scope of a passage in a dataroom:
// terms of the fund itself, the portfolio as a whole, a single company,
// or none of those.
const (
	LevelFund      = "fund-level"
	LevelPortfolio = "portfolio-level"
	LevelCompany   = "company-level"
	LevelGeneral   = "general"
)

var fundKeywords = []string{
	"fund size", "management fee", "carried interest", "capital call",
	"limited partner", "general partner", "gp commitment", "vintage",
	"fund term", "irr", "dpi", "tvpi", "aum", "the fund",
}

var companyKeywords = []string{
	"revenue", "arr", "burn rate", "runway", "cap table", "founder",
	"valuation", "headcount", "churn", "gross margin", "the company",
}

// ClassifyContextLevel is a best-effort keyword vote. Whichever keyword set
// has strictly more hits wins; "portfolio" breaks ties toward
// portfolio-level; everything else is general.
func ClassifyContextLevel(text string) string {
	lower := strings.ToLower(text)
	fund := countMatches(lower, fundKeywords)
	company := countMatches(lower, companyKeywords)
	switch {
	case fund > company:
		return LevelFund
	case company > fund:
		return LevelCompany
	case strings.Contains(lower, "portfolio"):
		return LevelPortfolio
	default:
		return LevelGeneral
	}
}

func countMatches(lower string, keywords []string) int {
	total := 0
	for _, kw := range keywords {
		total += strings.Count(lower, kw)
	}
	return total
}

const maxHeadingLen = 50

// ExtractHeading scans the first three lines of a chunk for something that
// looks like a section heading: a markdown-style marker, or a short line
// written fully in upper case. Returns "" when nothing qualifies.
func ExtractHeading(text string) string {
	lines := strings.SplitN(text, "\n", 4)
	if len(lines) > 3 {
		lines = lines[:3]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "# "))
		}
		if len(line) < maxHeadingLen && isUpperCaseLine(line) {
			return line
		}
	}
	return ""
}

func isUpperCaseLine(line string) bool {
	hasLetter := false
	for _, r := range line {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

const (
	maxEntities  = 5
	minEntityLen = 4
	maxEntityLen = 29
)

// A sentence terminator ends the phrase, so adjacent entities in
// consecutive sentences stay separate matches.
var entityPattern = regexp.MustCompile(`[A-Z][A-Za-z0-9&'-]*(?: [A-Z][A-Za-z0-9&'-]*)+`)

// ExtractEntities pulls up to five multi-word capitalized phrases from the
// text, preserving first-occurrence order and dropping duplicates. Purely
// heuristic; a chunk with no such phrases yields nil.
func ExtractEntities(text string) []string {
	matches := entityPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, maxEntities)
	var entities []string
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if len(m) < minEntityLen || len(m) > maxEntityLen {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		entities = append(entities, m)
		if len(entities) == maxEntities {
			break
		}
	}
	return entities
}
