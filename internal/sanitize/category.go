// Category normalization: free-text and foreign labels are folded onto a
// closed enum so downstream filtering and stats never see ad-hoc strings.
package sanitize

import (
	"strings"

	"github.com/zandoapp/zando-backend/internal/normalize"
)

// The closed category set. CategoryOther is the default for anything the
// mapping cannot place.
const (
	CategoryFood        = "Alimentation"
	CategoryDrinks      = "Boissons"
	CategoryHygiene     = "Hygiène"
	CategoryHousehold   = "Ménage"
	CategoryBaby        = "Bébé"
	CategoryHealth      = "Santé"
	CategoryElectronics = "Électronique"
	CategoryOther       = "Autres"
)

// ValidCategories lists every accepted category value.
var ValidCategories = []string{
	CategoryFood, CategoryDrinks, CategoryHygiene, CategoryHousehold,
	CategoryBaby, CategoryHealth, CategoryElectronics, CategoryOther,
}

// categoryAliases maps normalized label keys (exact matches) to categories.
// Keys must be normalize.Key output.
var categoryAliases = map[string]string{
	"alimentation": CategoryFood,
	"aliments":     CategoryFood,
	"food":         CategoryFood,
	"epicerie":     CategoryFood,
	"grocery":      CategoryFood,
	"nourriture":   CategoryFood,
	"boissons":     CategoryDrinks,
	"boisson":      CategoryDrinks,
	"drinks":       CategoryDrinks,
	"beverages":    CategoryDrinks,
	"beverage":     CategoryDrinks,
	"hygiene":      CategoryHygiene,
	"toiletries":   CategoryHygiene,
	"cosmetique":   CategoryHygiene,
	"cosmetics":    CategoryHygiene,
	"menage":       CategoryHousehold,
	"household":    CategoryHousehold,
	"cleaning":     CategoryHousehold,
	"entretien":    CategoryHousehold,
	"bebe":         CategoryBaby,
	"baby":         CategoryBaby,
	"sante":        CategoryHealth,
	"health":       CategoryHealth,
	"pharmacie":    CategoryHealth,
	"pharmacy":     CategoryHealth,
	"electronique": CategoryElectronics,
	"electronics":  CategoryElectronics,
	"autres":       CategoryOther,
	"autre":        CategoryOther,
	"other":        CategoryOther,
	"divers":       CategoryOther,
}

// categorySubstrings is the fuzzy fallback: if a normalized label contains
// one of these fragments, it maps to the paired category. Checked in order.
var categorySubstrings = []struct {
	frag string
	cat  string
}{
	{"aliment", CategoryFood},
	{"food", CategoryFood},
	{"boisson", CategoryDrinks},
	{"drink", CategoryDrinks},
	{"bever", CategoryDrinks},
	{"hygi", CategoryHygiene},
	{"cosm", CategoryHygiene},
	{"savon", CategoryHygiene},
	{"soap", CategoryHygiene},
	{"menag", CategoryHousehold},
	{"clean", CategoryHousehold},
	{"house", CategoryHousehold},
	{"beb", CategoryBaby},
	{"baby", CategoryBaby},
	{"sant", CategoryHealth},
	{"health", CategoryHealth},
	{"pharma", CategoryHealth},
	{"electro", CategoryElectronics},
}

// normalizeCategory maps a free-text label onto the closed category enum,
// defaulting to CategoryOther.
func normalizeCategory(label string) string {
	key := normalize.Key(label)
	if key == "" {
		return CategoryOther
	}
	if cat, ok := categoryAliases[key]; ok {
		return cat
	}
	compact := strings.ReplaceAll(key, " ", "")
	for _, cs := range categorySubstrings {
		if strings.Contains(compact, cs.frag) {
			return cs.cat
		}
	}
	return CategoryOther
}

// IsValidCategory reports whether c belongs to the closed category set.
func IsValidCategory(c string) bool {
	for _, v := range ValidCategories {
		if v == c {
			return true
		}
	}
	return false
}
