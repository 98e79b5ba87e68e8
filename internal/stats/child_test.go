package stats

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Yamojr001/lip-sub002/internal/domain/child"
	"github.com/Yamojr001/lip-sub002/internal/domain/immunization"
)

func newChildRecord(dobDaysAgo int, sex string, vaccines ...string) *child.Record {
	c := &child.Record{ID: uuid.New(), Name: "Baby", DOB: daysFromNow(-dobDaysAgo), Vaccines: immunization.Doses{}}
	if sex != "" {
		c.Sex = ptr(sex)
	}
	for _, v := range vaccines {
		c.Vaccines[v] = immunization.Dose{Received: true}
	}
	return c
}

func basicDoses() []string {
	var out []string
	for _, v := range immunization.Schedule {
		if v.Basic {
			out = append(out, v.Code)
		}
	}
	return out
}

func TestChildDashboard(t *testing.T) {
	full := newChildRecord(400, "Female", basicDoses()...)
	partial := newChildRecord(90, "Male", "bcg", "opv0")
	unseen := newChildRecord(800, "")

	sam, normal := child.StatusSAM, child.StatusNormal
	latest := map[uuid.UUID]*child.NutritionLogEntry{
		full.ID:    {Status: &normal, VitaminA: true, Deworming: true},
		partial.ID: {Status: &sam, Referred: true, MicronutrientPowder: true},
	}

	d := ChildDashboard([]*child.Record{full, partial, unseen}, latest, now, 1)

	assert.Equal(t, 3, d.TotalChildren)
	assert.Equal(t, 1, d.FullyImmunized)
	assert.Equal(t, 33.3, d.FullyImmunizedRate)
	assert.Equal(t, Coverage{Count: 2, Rate: 66.7}, d.Immunization["bcg"])
	assert.Equal(t, map[string]int{"Normal": 1, "MAM": 0, "SAM": 1, "Not Assessed": 1}, d.NutritionStatus)
	assert.Equal(t, map[string]int{"vitaminA": 1, "deworming": 1, "micronutrientPowder": 1}, d.Supplements)
	assert.Equal(t, 1, d.Referred)
	assert.Equal(t, map[string]int{"Male": 1, "Female": 1, "Unknown": 1}, d.SexDistribution)
	assert.Equal(t, map[string]int{"0-11 months": 1, "12-23 months": 1, "24-59 months": 1, "60+ months": 0, "Unknown": 0}, d.AgeGroups)
}

func TestChildDashboard_Empty(t *testing.T) {
	d := ChildDashboard(nil, nil, now, 1)
	assert.Equal(t, 0, d.TotalChildren)
	assert.Len(t, d.Immunization, 21)
	assert.Len(t, d.NutritionStatus, 4)
	assert.Len(t, d.Supplements, 3)
	assert.Len(t, d.AgeGroups, 5)
	assert.Len(t, d.Charts["immunization"], 21)
}

func TestAgeInMonths(t *testing.T) {
	dob := time.Date(2023, 6, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 11, ageInMonths(dob, now))
	assert.Equal(t, 12, ageInMonths(dob, time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)))
}

func TestChildTally_Merge(t *testing.T) {
	kids := []*child.Record{newChildRecord(10, "Male", "bcg"), newChildRecord(20, "Female"), newChildRecord(30, "")}
	whole := FoldChildren(kids, nil, now)
	a, b := FoldChildren(kids[:1], nil, now), FoldChildren(kids[1:], nil, now)
	a.Merge(b)
	assert.Equal(t, whole, a)
}

func TestChildDashboard_MissingDOBIsUnknownAge(t *testing.T) {
	noDOB := newChildRecord(0, "Male")
	noDOB.DOB = nil
	kids := []*child.Record{newChildRecord(100, "Female"), noDOB}

	d := ChildDashboard(kids, nil, now, 1)
	assert.Equal(t, 1, d.AgeGroups["Unknown"])
	sum := 0
	for _, n := range d.AgeGroups {
		sum += n
	}
	assert.Equal(t, d.TotalChildren, sum)
}

func TestFoldChildrenParallel_EqualsSequentialFold(t *testing.T) {
	kids := make([]*child.Record, parallelThreshold+37)
	for i := range kids {
		sex := []string{"Male", "Female", ""}[i%3]
		kids[i] = newChildRecord(i%2000, sex, basicDoses()[:i%5]...)
		if i%11 == 0 {
			kids[i].DOB = nil
		}
	}
	sam := child.StatusSAM
	latest := map[uuid.UUID]*child.NutritionLogEntry{
		kids[3].ID:   {Status: &sam, Referred: true},
		kids[900].ID: {VitaminA: true},
	}

	assert.Equal(t, FoldChildren(kids, latest, now), FoldChildrenParallel(kids, latest, now, 4))
}
