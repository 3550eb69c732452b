package rdc

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/clinical"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/indicators"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/residents"
)

// SubtypeFor maps an indicator to the incident subtype it counts.
var SubtypeFor = map[string]string{
	indicators.Mortality:     clinical.IncidentDeath,
	indicators.AcuteDiarrhea: clinical.IncidentAcuteDiarrhea,
	indicators.Scabies:       clinical.IncidentScabies,
	indicators.Dehydration:   clinical.IncidentDehydration,
	indicators.PressureUlcer: clinical.IncidentPressureUlcer,
	indicators.Malnutrition:  clinical.IncidentMalnutrition,
}

type IndicatorValue struct {
	Type        string      `json:"indicator_type"`
	Numerator   int         `json:"numerator"`
	Denominator int         `json:"denominator"`
	Rate        float64     `json:"rate"`
	IncidentIDs []uuid.UUID `json:"incident_ids"`
}

// Denominator counts residents housed on the census date.
func Denominator(census string, rs []residents.Resident) int {
	n := 0
	for i := range rs {
		if rs[i].PresentOn(census) {
			n++
		}
	}
	return n
}

// ComputeIndicators derives all six indicators from the month's incident
// records. Mortality counts cases; the others count distinct residents.
func ComputeIndicators(incidents []clinical.DailyRecord, denominator int) []IndicatorValue {
	out := make([]IndicatorValue, 0, len(indicators.Types))
	for _, typ := range indicators.Types {
		subtype := SubtypeFor[typ]
		v := IndicatorValue{Type: typ, Denominator: denominator, IncidentIDs: []uuid.UUID{}}
		seen := map[uuid.UUID]bool{}
		for i := range incidents {
			rec := &incidents[i]
			if rec.Type != clinical.RecordIncident || rec.IncidentSubtype == nil || *rec.IncidentSubtype != subtype {
				continue
			}
			v.IncidentIDs = append(v.IncidentIDs, rec.ID)
			if typ == indicators.Mortality {
				v.Numerator++
				continue
			}
			if !seen[rec.ResidentID] {
				seen[rec.ResidentID] = true
				v.Numerator++
			}
		}
		sort.Slice(v.IncidentIDs, func(a, b int) bool { return v.IncidentIDs[a].String() < v.IncidentIDs[b].String() })
		v.Rate = Rate(v.Numerator, denominator)
		out = append(out, v)
	}
	return out
}

// Rate is num/den as a percentage rounded to 2 decimals; 0 when den is 0.
func Rate(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	r := float64(num) / float64(den) * 100
	return math.Round(r*100) / 100
}
