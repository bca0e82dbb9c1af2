package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCycleName(t *testing.T) {
	assert.True(t, IsCycleName("20260815"))
	assert.True(t, IsCycleName("00000000"))

	assert.False(t, IsCycleName("2026081"))   // too short
	assert.False(t, IsCycleName("202608155")) // too long
	assert.False(t, IsCycleName("2026081a"))
	assert.False(t, IsCycleName("archive"))
	assert.False(t, IsCycleName(""))
}

func TestSelectLatest(t *testing.T) {
	names := []string{"20260101", "archive", "20260103", "20260102", "notes.txt"}

	got := CycleSelector{Latest: 2}.Select(names)
	assert.Equal(t, []string{"20260103", "20260102"}, got)
}

func TestSelectLatestFewerThanLimit(t *testing.T) {
	got := CycleSelector{Latest: 5}.Select([]string{"20260101", "20260102"})
	assert.Equal(t, []string{"20260102", "20260101"}, got)
}

func TestSelectRange(t *testing.T) {
	names := []string{"20260101", "20260102", "20260103", "20260104"}

	got := CycleSelector{From: "20260102", To: "20260103"}.Select(names)
	assert.Equal(t, []string{"20260103", "20260102"}, got)
}

func TestSelectOpenEndedRange(t *testing.T) {
	names := []string{"20260101", "20260102", "20260103"}

	assert.Equal(t, []string{"20260103", "20260102"},
		CycleSelector{From: "20260102"}.Select(names))
	assert.Equal(t, []string{"20260102", "20260101"},
		CycleSelector{To: "20260102"}.Select(names))
}

func TestSelectRangeIgnoresLatest(t *testing.T) {
	names := []string{"20260101", "20260102", "20260103"}

	// A range selector returns everything in range regardless of Latest.
	got := CycleSelector{Latest: 1, From: "20260101"}.Select(names)
	assert.Len(t, got, 3)
}

func TestSelectEmpty(t *testing.T) {
	assert.Empty(t, CycleSelector{Latest: 2}.Select(nil))
	assert.Empty(t, CycleSelector{Latest: 2}.Select([]string{"archive"}))
}
