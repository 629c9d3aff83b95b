package criteria

// Correction describes a local repair applied during a merge, e.g. a
// swapped min/max price. The caller decides how to log it.
type Correction struct {
	Field  Field  `json:"field"`
	Detail string `json:"detail"`
}

// Merge folds incoming into state per field: any non-nil incoming value
// overwrites, except that a field previously set from the UI is never
// silently overwritten by an NLP update. Setting BudgetExact derives a
// ±10% min/max band and clears any explicit min/max set in the same call.
// An inverted price range after the merge is clamped by swapping, reported
// as a Correction rather than an error.
func Merge(state State, incoming Criteria, src Source) (State, []Correction) {
	if state.Sources == nil {
		state.Sources = make(map[Field]Source)
	}

	set := func(f Field, apply func()) {
		if state.Sources[f] == SourceUI && src == SourceNLP {
			return
		}
		apply()
		state.Sources[f] = src
	}

	c := &state.Criteria

	if len(incoming.Bedrooms) > 0 {
		set(FieldBedrooms, func() { c.Bedrooms = append([]int(nil), incoming.Bedrooms...) })
	}
	if incoming.MinPrice != nil {
		set(FieldMinPrice, func() { c.MinPrice = cloneFloat(incoming.MinPrice) })
	}
	if incoming.MaxPrice != nil {
		set(FieldMaxPrice, func() { c.MaxPrice = cloneFloat(incoming.MaxPrice) })
	}
	if incoming.BudgetExact != nil {
		// The approximate budget always wins over explicit bounds supplied
		// in the same turn: derive the band last.
		set(FieldBudgetExact, func() {
			c.BudgetExact = cloneFloat(incoming.BudgetExact)
			lo := *incoming.BudgetExact * (1 - BudgetBandPct)
			hi := *incoming.BudgetExact * (1 + BudgetBandPct)
			c.MinPrice = &lo
			c.MaxPrice = &hi
			state.Sources[FieldMinPrice] = src
			state.Sources[FieldMaxPrice] = src
		})
	}
	if incoming.City != nil {
		set(FieldCity, func() { c.City = cloneString(incoming.City) })
	}
	if incoming.Locality != nil {
		set(FieldLocality, func() { c.Locality = cloneString(incoming.Locality) })
	}
	if incoming.Zone != nil {
		set(FieldZone, func() { c.Zone = cloneString(incoming.Zone) })
	}
	if incoming.PossessionYear != nil || incoming.PossessionQuarter != nil {
		set(FieldPossession, func() {
			if incoming.PossessionYear != nil {
				c.PossessionYear = cloneInt(incoming.PossessionYear)
			}
			if incoming.PossessionQuarter != nil {
				c.PossessionQuarter = cloneInt(incoming.PossessionQuarter)
			}
		})
	}
	if incoming.AreaSqftMin != nil || incoming.AreaSqftMax != nil {
		set(FieldArea, func() {
			if incoming.AreaSqftMin != nil {
				c.AreaSqftMin = cloneFloat(incoming.AreaSqftMin)
			}
			if incoming.AreaSqftMax != nil {
				c.AreaSqftMax = cloneFloat(incoming.AreaSqftMax)
			}
		})
	}
	if len(incoming.Statuses) > 0 {
		set(FieldStatuses, func() { c.Statuses = append([]string(nil), incoming.Statuses...) })
	}
	if incoming.Developer != nil {
		set(FieldDeveloper, func() { c.Developer = cloneString(incoming.Developer) })
	}
	if len(incoming.PropertyTypes) > 0 {
		set(FieldPropertyTypes, func() { c.PropertyTypes = append([]string(nil), incoming.PropertyTypes...) })
	}
	if incoming.CenterLat != nil && incoming.CenterLon != nil {
		set(FieldCenter, func() {
			c.CenterLat = cloneFloat(incoming.CenterLat)
			c.CenterLon = cloneFloat(incoming.CenterLon)
			if incoming.RadiusKm != nil {
				c.RadiusKm = cloneFloat(incoming.RadiusKm)
			}
		})
	}

	var corrections []Correction
	if c.MinPrice != nil && c.MaxPrice != nil && *c.MinPrice > *c.MaxPrice {
		c.MinPrice, c.MaxPrice = c.MaxPrice, c.MinPrice
		corrections = append(corrections, Correction{
			Field:  FieldMinPrice,
			Detail: "min price exceeded max price after merge; bounds swapped",
		})
	}

	return state, corrections
}

func cloneFloat(v *float64) *float64 {
	f := *v
	return &f
}

func cloneInt(v *int) *int {
	i := *v
	return &i
}

func cloneString(v *string) *string {
	s := *v
	return &s
}
