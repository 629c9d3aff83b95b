package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// Unit configuration strings arrive from ingestion in a semi-structured
// form, e.g. "{2BHK, 1200-1400, 1.2Cr}; {3BHK, 1650-1800, 1.8Cr}" or
// "2BHK@85L". They are parsed exactly once, when an item is loaded;
// queries only ever see the typed UnitConfiguration list.
var (
	entrySplitRe = regexp.MustCompile(`[}|;]`)
	bhkRe        = regexp.MustCompile(`(?i)(\d+)\s*BHK`)
	priceRe      = regexp.MustCompile(`(?i)[@₹]?\s*(\d+(?:\.\d+)?)\s*(cr|crore|crores|l|lac|lacs|lakh|lakhs)\b`)
	sizeRangeRe  = regexp.MustCompile(`(\d{3,5})\s*(?:-|–|to)\s*(\d{3,5})`)
	sizeSingleRe = regexp.MustCompile(`(?i)(\d{3,5})\s*sq`)
)

// ParseUnitConfigurations parses a raw configuration string into typed
// unit configurations. Entries missing a bedroom count or a priced unit
// are dropped; the second return value counts them so the loader can log
// the data-quality loss.
func ParseUnitConfigurations(raw string) ([]UnitConfiguration, int) {
	if strings.TrimSpace(raw) == "" {
		return nil, 0
	}

	var units []UnitConfiguration
	skipped := 0

	for _, chunk := range entrySplitRe.Split(raw, -1) {
		chunk = strings.TrimSpace(strings.Trim(chunk, "{} \t"))
		if chunk == "" {
			continue
		}

		bhk := bhkRe.FindStringSubmatch(chunk)
		price := priceRe.FindStringSubmatch(chunk)
		if bhk == nil || price == nil {
			skipped++
			continue
		}

		bedrooms, err := strconv.Atoi(bhk[1])
		if err != nil || bedrooms <= 0 {
			skipped++
			continue
		}

		value, err := strconv.ParseFloat(price[1], 64)
		if err != nil {
			skipped++
			continue
		}
		unit := UnitConfiguration{Bedrooms: bedrooms, PriceLakhs: toLakhs(value, price[2])}

		if m := sizeRangeRe.FindStringSubmatch(chunk); m != nil {
			unit.SizeMinSqft, _ = strconv.ParseFloat(m[1], 64)
			unit.SizeMaxSqft, _ = strconv.ParseFloat(m[2], 64)
		} else if m := sizeSingleRe.FindStringSubmatch(chunk); m != nil {
			unit.SizeMinSqft, _ = strconv.ParseFloat(m[1], 64)
			unit.SizeMaxSqft = unit.SizeMinSqft
		}

		units = append(units, unit)
	}

	return units, skipped
}

// toLakhs converts a price value with its unit suffix to lakhs.
// 1 crore = 100 lakhs.
func toLakhs(value float64, unit string) float64 {
	switch strings.ToLower(unit) {
	case "cr", "crore", "crores":
		return value * 100
	default:
		return value
	}
}
