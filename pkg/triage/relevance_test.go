package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRelevance() *Relevance {
	return NewRelevance(
		[]string{"usa", "congress", "washington", "kardashian"},
		[]string{"kardashian", "gossip", "horoscope"},
	)
}

func TestIsRelevant(t *testing.T) {
	r := testRelevance()

	assert.True(t, r.IsRelevant("Rumor has it Congress may pass a bill"))
	assert.True(t, r.IsRelevant("WASHINGTON briefing"))
	assert.False(t, r.IsRelevant("Paris fashion week opens"))
}

func TestIsExcluded(t *testing.T) {
	r := testRelevance()

	assert.True(t, r.IsExcluded("Kardashian exclusive gossip update"))
	assert.False(t, r.IsExcluded("Senate passes budget"))
}

func TestFlagsAreIndependent(t *testing.T) {
	r := testRelevance()

	// Both lists contain "kardashian": both flags may be true at once.
	text := "Kardashian visits the usa"
	assert.True(t, r.IsRelevant(text))
	assert.True(t, r.IsExcluded(text))
}
