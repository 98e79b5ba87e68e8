package stats

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
)

func TestHasCompletedVisit_OutOfRange(t *testing.T) {
	r := rec(withVisits(1))
	assert.True(t, HasCompletedVisit(r, 1))
	assert.False(t, HasCompletedVisit(r, 0))
	assert.False(t, HasCompletedVisit(r, 9))
	assert.False(t, HasService(r, 9, Urinalysis))
}

func TestClassifyANC_LaterVisitDominates(t *testing.T) {
	c := ClassifyANC([]*patient.Record{rec(withVisits(3, 5))})
	assert.Equal(t, 1, c.ANC5Only)
	assert.Equal(t, 0, c.ANC3Only)
}

func TestClassifyANC_OnlyEighthVisit(t *testing.T) {
	c := ClassifyANC([]*patient.Record{rec(withVisits(8))})
	assert.Equal(t, 1, c.ANC8Completed)
}

func TestClassifyANC_NoVisits(t *testing.T) {
	c := ClassifyANC([]*patient.Record{rec()})
	assert.Equal(t, 1, c.NoANC)
}

func TestClassifyANC_Partitions(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var records []*patient.Record
	for i := 0; i < 500; i++ {
		var visits []int
		for n := 1; n <= patient.NumANCVisits; n++ {
			if rng.Intn(3) == 0 {
				visits = append(visits, n)
			}
		}
		records = append(records, rec(withVisits(visits...)))
	}
	c := ClassifyANC(records)
	assert.Equal(t, len(records), c.Total())
}
