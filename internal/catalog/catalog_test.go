package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageByID(t *testing.T) {
	pkg, ok := PackageByID("premium")
	require.True(t, ok)
	assert.Equal(t, "Premium Package", pkg.Name)
	assert.Equal(t, 149, pkg.Price)
	assert.True(t, pkg.Popular)

	_, ok = PackageByID("basic")
	assert.False(t, ok)
}

func TestAddonByID(t *testing.T) {
	addon, ok := AddonByID("engine_bay")
	require.True(t, ok)
	assert.Equal(t, 35, addon.Price)

	_, ok = AddonByID("nonexistent")
	assert.False(t, ok)
}

func TestTotal(t *testing.T) {
	tests := []struct {
		name      string
		packageID string
		addonIDs  []string
		expected  int
	}{
		{
			name:      "package only",
			packageID: "premium",
			addonIDs:  nil,
			expected:  149,
		},
		{
			name:      "package with two addons",
			packageID: "premium",
			addonIDs:  []string{"pet_hair_removal", "odor_elimination"},
			expected:  214,
		},
		{
			name:      "deselecting one addon",
			packageID: "premium",
			addonIDs:  []string{"odor_elimination"},
			expected:  189,
		},
		{
			name:      "diamond with all addons",
			packageID: "diamond",
			addonIDs:  []string{"engine_bay", "headlight_restoration", "pet_hair_removal", "odor_elimination", "fabric_protection", "tire_dressing"},
			expected:  249 + 35 + 45 + 25 + 40 + 30 + 20,
		},
		{
			name:      "unknown package prices as zero",
			packageID: "gone_from_catalog",
			addonIDs:  []string{"engine_bay"},
			expected:  35,
		},
		{
			name:      "unknown addon prices as zero",
			packageID: "premium",
			addonIDs:  []string{"engine_bay", "retired_addon"},
			expected:  184,
		},
		{
			name:      "empty selection",
			packageID: "",
			addonIDs:  nil,
			expected:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Total(tt.packageID, tt.addonIDs))
		})
	}
}

func TestTotalIsRecomputedNotAccumulated(t *testing.T) {
	// Toggling the same addon on then off restores the exact prior total.
	base := Total("premium", nil)
	with := Total("premium", []string{"fabric_protection"})
	without := Total("premium", nil)

	assert.Equal(t, base+30, with)
	assert.Equal(t, base, without)
}

func TestCatalogAccessorsReturnCopies(t *testing.T) {
	pkgs := Packages()
	pkgs[0].Price = 1

	again := Packages()
	assert.Equal(t, 149, again[0].Price)

	as := Addons()
	as[0].Price = 1
	assert.Equal(t, 35, Addons()[0].Price)
}
