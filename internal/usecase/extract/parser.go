// Package extract pulls structured search criteria out of free chat text
// with regular expressions. It is the fallback path when the LLM-backed
// extractor is disabled or unavailable, so it favors precision: a phrase
// it cannot confidently read is left unset rather than guessed.
package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/nivaas-cloud/propdex/internal/domain/criteria"
)

var (
	bhkRe = regexp.MustCompile(`(?i)\b(\d)\s*(?:bhk|bed(?:room)?s?)\b`)

	amount = `(\d+(?:\.\d+)?)\s*(cr|crore|crores|lakh|lakhs|lacs|lac|l)\b`

	betweenRe = regexp.MustCompile(`(?i)\bbetween\s+₹?\s*` + amount + `\s+(?:and|to)\s+₹?\s*` + amount)
	rangeRe   = regexp.MustCompile(`(?i)₹?\s*` + amount + `\s*(?:-|to)\s*₹?\s*` + amount)
	underRe   = regexp.MustCompile(`(?i)\b(?:under|below|within|upto|up to|less than|max(?:imum)?(?:\s+of)?)\s+₹?\s*` + amount)
	aroundRe  = regexp.MustCompile(`(?i)\b(?:around|about|approx(?:imately)?|budget(?:\s+of)?)\s+₹?\s*` + amount)
	bareRe    = regexp.MustCompile(`(?i)₹?\s*` + amount)

	zoneRe = regexp.MustCompile(`(?i)\b(north|south|east|west|central)(?:\s+(?:bangalore|bengaluru))?\b`)

	yearRe    = regexp.MustCompile(`(?i)\b(?:by|before|possession(?:\s+(?:in|by))?)\s+(?:q[1-4]\s+)?(20\d{2})\b`)
	quarterRe = regexp.MustCompile(`(?i)\bq([1-4])\b`)
)

// Parser is the regex criteria extractor. Locality detection matches the
// text against the known locality names it was constructed with.
type Parser struct {
	localities []string
}

// NewParser creates a parser. localities is the catalog's known locality
// vocabulary; it may be empty.
func NewParser(localities []string) *Parser {
	return &Parser{localities: localities}
}

// Extract parses the text. It never fails: an unreadable message yields
// empty criteria. The context parameter keeps the signature interchangeable
// with the LLM extractor.
func (p *Parser) Extract(_ context.Context, text string) (criteria.Criteria, error) {
	var c criteria.Criteria

	for _, m := range bhkRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > 9 {
			continue
		}
		if !c.WantsBedroom(n) {
			c.Bedrooms = append(c.Bedrooms, n)
		}
	}

	p.parseBudget(text, &c)

	if m := zoneRe.FindStringSubmatch(text); m != nil {
		zone := strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
		c.Zone = &zone
	}

	if m := yearRe.FindStringSubmatch(text); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			c.PossessionYear = &y
			if qm := quarterRe.FindStringSubmatch(text); qm != nil {
				if q, err := strconv.Atoi(qm[1]); err == nil {
					c.PossessionQuarter = &q
				}
			}
		}
	}

	for _, loc := range p.localities {
		if loc != "" && containsFold(text, loc) {
			l := loc
			c.Locality = &l
			break
		}
	}

	return c, nil
}

func (p *Parser) parseBudget(text string, c *criteria.Criteria) {
	if m := betweenRe.FindStringSubmatch(text); m != nil {
		lo, hi := toLakhs(m[1], m[2]), toLakhs(m[3], m[4])
		c.MinPrice, c.MaxPrice = &lo, &hi
		return
	}
	if m := underRe.FindStringSubmatch(text); m != nil {
		v := toLakhs(m[1], m[2])
		c.MaxPrice = &v
		return
	}
	if m := rangeRe.FindStringSubmatch(text); m != nil {
		lo, hi := toLakhs(m[1], m[2]), toLakhs(m[3], m[4])
		c.MinPrice, c.MaxPrice = &lo, &hi
		return
	}
	if m := aroundRe.FindStringSubmatch(text); m != nil {
		v := toLakhs(m[1], m[2])
		c.BudgetExact = &v
		return
	}
	if m := bareRe.FindStringSubmatch(text); m != nil {
		v := toLakhs(m[1], m[2])
		c.BudgetExact = &v
	}
}

func toLakhs(num, unit string) float64 {
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(unit) {
	case "cr", "crore", "crores":
		return v * 100
	default:
		return v
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
