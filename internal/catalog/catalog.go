// Package catalog holds the static service package and add-on pricing
// table. The catalog is defined at process start and never mutated.
package catalog

// ServicePackage is a bookable detailing package
type ServicePackage struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       int      `json:"price"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Popular     bool     `json:"popular,omitempty"`
}

// Addon is an optional extra, valid only alongside a selected package
type Addon struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       int    `json:"price"`
	Description string `json:"description"`
}

var servicePackages = []ServicePackage{
	{
		ID:          "premium",
		Name:        "Premium Package",
		Price:       149,
		Description: "Our most popular package",
		Features: []string{
			"Clay bar treatment",
			"Paint polishing",
			"Leather conditioning",
			"Tire shine application",
			"Interior deep clean",
		},
		Popular: true,
	},
	{
		ID:          "diamond",
		Name:        "Diamond Package",
		Price:       249,
		Description: "The ultimate detailing experience",
		Features: []string{
			"Everything in Premium",
			"Paint correction",
			"Ceramic coating application",
			"Engine bay cleaning",
			"Headlight restoration",
			"Paint protection warranty",
		},
	},
}

var addons = []Addon{
	{
		ID:          "engine_bay",
		Name:        "Engine Bay Cleaning",
		Price:       35,
		Description: "Thorough cleaning and dressing of engine compartment",
	},
	{
		ID:          "headlight_restoration",
		Name:        "Headlight Restoration",
		Price:       45,
		Description: "Restore clarity to foggy or yellowed headlights",
	},
	{
		ID:          "pet_hair_removal",
		Name:        "Pet Hair Removal",
		Price:       25,
		Description: "Specialized removal of pet hair from upholstery",
	},
	{
		ID:          "odor_elimination",
		Name:        "Odor Elimination",
		Price:       40,
		Description: "Professional treatment to eliminate persistent odors",
	},
	{
		ID:          "fabric_protection",
		Name:        "Fabric Protection",
		Price:       30,
		Description: "Protective coating for interior fabrics and carpets",
	},
	{
		ID:          "tire_dressing",
		Name:        "Premium Tire Dressing",
		Price:       20,
		Description: "High-quality tire shine and protection",
	},
}

// Packages returns the service package catalog
func Packages() []ServicePackage {
	out := make([]ServicePackage, len(servicePackages))
	copy(out, servicePackages)
	return out
}

// Addons returns the add-on catalog
func Addons() []Addon {
	out := make([]Addon, len(addons))
	copy(out, addons)
	return out
}

// PackageByID returns the package with the given id, if any
func PackageByID(id string) (ServicePackage, bool) {
	for _, p := range servicePackages {
		if p.ID == id {
			return p, true
		}
	}
	return ServicePackage{}, false
}

// AddonByID returns the addon with the given id, if any
func AddonByID(id string) (Addon, bool) {
	for _, a := range addons {
		if a.ID == id {
			return a, true
		}
	}
	return Addon{}, false
}

// Total computes the price of a selection as the package base price plus
// the sum of the selected addon prices. The total is always derived from
// the full selection set, never by incremental add/subtract bookkeeping.
// Unknown package or addon ids price as zero to tolerate catalog drift.
func Total(packageID string, addonIDs []string) int {
	total := 0
	if pkg, ok := PackageByID(packageID); ok {
		total += pkg.Price
	}
	for _, id := range addonIDs {
		if addon, ok := AddonByID(id); ok {
			total += addon.Price
		}
	}
	return total
}
