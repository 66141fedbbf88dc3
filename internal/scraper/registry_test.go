package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"courtscrape/internal/site"
)

func TestRegistry(t *testing.T) {
	Register(Definition{Config: site.Config{CourtID: "zz_test_b"}})
	Register(Definition{Config: site.Config{CourtID: "ZZ_TEST_A", URL: "first"}})
	Register(Definition{Config: site.Config{CourtID: "zz_test_a", URL: "second"}})

	d, ok := Get("Zz_Test_A")
	assert.True(t, ok)
	assert.Equal(t, "second", d.Config.URL)

	_, ok = Get("zz_missing")
	assert.False(t, ok)

	names := Names()
	assert.IsNonDecreasing(t, names)
	assert.Contains(t, names, "zz_test_a")
	assert.Contains(t, names, "zz_test_b")
}
