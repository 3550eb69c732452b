// Package rdc implements the RDC 502/2021 arithmetic: minimum caregiver
// staffing per shift and the six monthly health indicators.
package rdc

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/residents"
)

// Residents per caregiver, by dependency level and shift length.
var ratios = map[int][3]int{
	8:  {20, 10, 6},
	12: {10, 10, 6},
}

const (
	CoverageCompliant    = "compliant"
	CoverageAttention    = "attention"
	CoverageNonCompliant = "non_compliant"
)

type DependencyCount struct {
	GrauI   int `json:"grau_i"`
	GrauII  int `json:"grau_ii"`
	GrauIII int `json:"grau_iii"`
}

func (d DependencyCount) Total() int { return d.GrauI + d.GrauII + d.GrauIII }

type StaffingResult struct {
	Date                  string          `json:"date"`
	Residents             DependencyCount `json:"residents"`
	TotalResidents        int             `json:"total_residents"`
	Unclassified          int             `json:"unclassified"`
	MinimumCaregivers8h   int             `json:"minimum_caregivers_8h"`
	MinimumCaregivers12h  int             `json:"minimum_caregivers_12h"`
	Warnings              []string        `json:"warnings"`
	UnclassifiedResidents []uuid.UUID     `json:"unclassified_residents,omitempty"`
}

func ceilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}

// MinimumCaregivers returns the caregiver floor for a shift of the given length.
// Unknown lengths use the 8h ratios.
func MinimumCaregivers(c DependencyCount, durationHours int) int {
	r, ok := ratios[durationHours]
	if !ok {
		r = ratios[8]
	}
	return ceilDiv(c.GrauI, r[0]) + ceilDiv(c.GrauII, r[1]) + ceilDiv(c.GrauIII, r[2])
}

// CalculateStaffing classifies the residents present on date and derives
// both shift minimums. Residents without a dependency level are left out.
func CalculateStaffing(date string, rs []residents.Resident) StaffingResult {
	out := StaffingResult{Date: date, Warnings: []string{}}
	for i := range rs {
		r := &rs[i]
		if r.Status != residents.StatusActive || !r.PresentOn(date) {
			continue
		}
		switch r.DependencyLevel {
		case residents.DependencyGrauI:
			out.Residents.GrauI++
		case residents.DependencyGrauII:
			out.Residents.GrauII++
		case residents.DependencyGrauIII:
			out.Residents.GrauIII++
		default:
			out.Unclassified++
			out.UnclassifiedResidents = append(out.UnclassifiedResidents, r.ID)
		}
	}
	out.TotalResidents = out.Residents.Total()
	out.MinimumCaregivers8h = MinimumCaregivers(out.Residents, 8)
	out.MinimumCaregivers12h = MinimumCaregivers(out.Residents, 12)
	if out.Unclassified > 0 {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("%d resident(s) without dependency level were excluded from the calculation", out.Unclassified))
	}
	if out.TotalResidents == 0 {
		out.Warnings = append(out.Warnings, "no classified residents present on this date")
	}
	return out
}

// CoverageStatus compares assigned caregivers against the minimum.
func CoverageStatus(assigned, minimum int) string {
	switch {
	case assigned == 0:
		return CoverageNonCompliant
	case assigned < minimum:
		return CoverageAttention
	default:
		return CoverageCompliant
	}
}
