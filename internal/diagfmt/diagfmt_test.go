package diagfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/tokamak/callsite"
)

func TestMismatch_IncludesGotSiteAndFullRemainingListing(t *testing.T) {
	got := callsite.CallSite{File: "a.go", Line: 10, Unit: "pkg", Operation: "Foo"}
	remaining := []callsite.CallSite{
		{File: "a.go", Line: 12, Unit: "pkg", Operation: "Bar"},
		{File: "a.go", Line: 20, Unit: "pkg", Operation: "Baz"},
		{File: "a.go", Line: 12, Unit: "pkg", Operation: "Bar"},
	}

	body := Mismatch(3, got, remaining)
	assert.Contains(t, body, "step 3")
	assert.Contains(t, body, got.String())
	for _, site := range remaining {
		assert.Contains(t, body, site.String())
	}
}

func TestEarlyReturn_ListsRemainingSites(t *testing.T) {
	remaining := []callsite.CallSite{
		{File: "a.go", Line: 5, Unit: "pkg", Operation: "Foo"},
		{File: "a.go", Line: 6, Unit: "pkg", Operation: "Baz"},
	}
	body := EarlyReturn(2, 4, remaining)
	assert.Contains(t, body, "2 of 4")
	for _, site := range remaining {
		assert.Contains(t, body, site.String())
	}
}

func TestUnitOperation_NormalizesCombiningForms(t *testing.T) {
	// "e" + combining acute (NFD) should render identically to precomposed "é" (NFC).
	nfd := "café.lookup"
	got := UnitOperation("café", "lookup")
	assert.NotEqual(t, nfd, got, "sanity: raw concatenation keeps the decomposed form")
	assert.Equal(t, "café.lookup", got)
}
