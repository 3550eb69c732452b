package rdc

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/residents"
)

func resident(level, admission string, discharge *string) residents.Resident {
	return residents.Resident{
		ID:              uuid.New(),
		Status:          residents.StatusActive,
		DependencyLevel: level,
		AdmissionDate:   admission,
		DischargeDate:   discharge,
	}
}

func TestMinimumCaregivers(t *testing.T) {
	cases := []struct {
		name  string
		count DependencyCount
		hours int
		want  int
	}{
		{"empty", DependencyCount{}, 8, 0},
		{"grau I 8h", DependencyCount{GrauI: 21}, 8, 2},
		{"grau I 12h", DependencyCount{GrauI: 21}, 12, 3},
		{"mixed 8h", DependencyCount{GrauI: 20, GrauII: 11, GrauIII: 7}, 8, 1 + 2 + 2},
		{"mixed 12h", DependencyCount{GrauI: 20, GrauII: 11, GrauIII: 7}, 12, 2 + 2 + 2},
		{"unknown length", DependencyCount{GrauIII: 6}, 6, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MinimumCaregivers(tc.count, tc.hours); got != tc.want {
				t.Fatalf("MinimumCaregivers = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCalculateStaffing(t *testing.T) {
	discharged := "2025-03-01"
	rs := []residents.Resident{
		resident(residents.DependencyGrauI, "2024-01-01", nil),
		resident(residents.DependencyGrauII, "2024-01-01", nil),
		resident(residents.DependencyGrauIII, "2024-01-01", nil),
		resident("", "2024-01-01", nil),
		resident(residents.DependencyGrauIII, "2025-04-01", nil),
		resident(residents.DependencyGrauIII, "2024-01-01", &discharged),
	}
	inactive := resident(residents.DependencyGrauI, "2024-01-01", nil)
	inactive.Status = residents.StatusInactive
	rs = append(rs, inactive)

	got := CalculateStaffing("2025-03-15", rs)
	assert.Equal(t, DependencyCount{GrauI: 1, GrauII: 1, GrauIII: 1}, got.Residents)
	assert.Equal(t, 3, got.TotalResidents)
	assert.Equal(t, 1, got.Unclassified)
	assert.Equal(t, []uuid.UUID{rs[3].ID}, got.UnclassifiedResidents)
	assert.Equal(t, 3, got.MinimumCaregivers8h)
	assert.Equal(t, 3, got.MinimumCaregivers12h)
	assert.Len(t, got.Warnings, 1)
}

func TestCalculateStaffingEmpty(t *testing.T) {
	got := CalculateStaffing("2025-03-15", nil)
	assert.Zero(t, got.MinimumCaregivers8h)
	assert.Len(t, got.Warnings, 1)
}

func TestCoverageStatus(t *testing.T) {
	assert.Equal(t, CoverageNonCompliant, CoverageStatus(0, 0))
	assert.Equal(t, CoverageNonCompliant, CoverageStatus(0, 3))
	assert.Equal(t, CoverageAttention, CoverageStatus(2, 3))
	assert.Equal(t, CoverageCompliant, CoverageStatus(3, 3))
	assert.Equal(t, CoverageCompliant, CoverageStatus(4, 3))
}
