package stats

import "github.com/Yamojr001/lip-sub002/internal/domain/patient"

// HighestVisit returns the highest dated ANC visit (1..8), or 0 when none is.
// Later visits dominate: gaps below the highest dated visit are ignored.
func HighestVisit(r *patient.Record) int {
	for n := patient.NumANCVisits; n >= 1; n-- {
		if HasCompletedVisit(r, n) {
			return n
		}
	}
	return 0
}

// ANCCompletion partitions records by the highest ANC visit reached.
type ANCCompletion struct {
	NoANC         int `json:"noAnc"`
	ANC1Only      int `json:"anc1Only"`
	ANC2Only      int `json:"anc2Only"`
	ANC3Only      int `json:"anc3Only"`
	ANC4Only      int `json:"anc4Only"`
	ANC5Only      int `json:"anc5Only"`
	ANC6Only      int `json:"anc6Only"`
	ANC7Only      int `json:"anc7Only"`
	ANC8Completed int `json:"anc8Completed"`
}

// ancCompletionKeys matches the JSON keys, indexed by highest visit.
var ancCompletionKeys = [patient.NumANCVisits + 1]string{
	"noAnc", "anc1Only", "anc2Only", "anc3Only", "anc4Only", "anc5Only", "anc6Only", "anc7Only", "anc8Completed",
}

// completionFrom builds the bucket struct from counts indexed by highest visit.
func completionFrom(b [patient.NumANCVisits + 1]int) ANCCompletion {
	return ANCCompletion{
		NoANC: b[0], ANC1Only: b[1], ANC2Only: b[2], ANC3Only: b[3], ANC4Only: b[4],
		ANC5Only: b[5], ANC6Only: b[6], ANC7Only: b[7], ANC8Completed: b[8],
	}
}

// Buckets returns the counts indexed by highest visit reached.
func (c ANCCompletion) Buckets() [patient.NumANCVisits + 1]int {
	return [patient.NumANCVisits + 1]int{
		c.NoANC, c.ANC1Only, c.ANC2Only, c.ANC3Only, c.ANC4Only, c.ANC5Only, c.ANC6Only, c.ANC7Only, c.ANC8Completed,
	}
}

// Total is the number of records classified.
func (c ANCCompletion) Total() int {
	n := 0
	for _, v := range c.Buckets() {
		n += v
	}
	return n
}

// ClassifyANC counts records per completion stage.
func ClassifyANC(records []*patient.Record) ANCCompletion {
	var b [patient.NumANCVisits + 1]int
	for _, r := range records {
		b[HighestVisit(r)]++
	}
	return completionFrom(b)
}
