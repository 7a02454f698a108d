// Regional-language translation. Shoppers in Kinshasa and the east of the
// country write product names in Lingala or Swahili as often as in French;
// the price index pivots on French so that "pondu" scanned in one store and
// "feuilles de manioc" in another land on the same canonical product.
//
// A static dictionary is deliberate: the vocabulary of receipt items is
// small and stable, and a lookup table is predictable where a translation
// API would not be.
package sanitize

import (
	"strings"

	"github.com/zandoapp/zando-backend/internal/normalize"
)

// lingalaToFrench maps Lingala food/household terms to their French pivot.
var lingalaToFrench = map[string]string{
	"pondu":     "Feuilles de manioc",
	"makemba":   "Banane plantain",
	"loso":      "Riz",
	"madesu":    "Haricots",
	"mbisi":     "Poisson",
	"nyama":     "Viande",
	"masanga":   "Boisson",
	"mungwa":    "Sel",
	"sukali":    "Sucre",
	"mafuta":    "Huile",
	"makayabu":  "Poisson sale",
	"fufu":      "Farine de manioc",
	"mikate":    "Beignets",
	"matembele": "Feuilles de patate douce",
	"mwamba":    "Sauce arachide",
	"ntaba":     "Viande de chevre",
	"soso":      "Poulet",
	"mbika":     "Courge",
	"ndunda":    "Legumes",
	"lipa":      "Pain",
}

// swahiliToFrench maps Swahili terms to the same French pivot.
var swahiliToFrench = map[string]string{
	"maji":      "Eau",
	"mchele":    "Riz",
	"sukari":    "Sucre",
	"chumvi":    "Sel",
	"samaki":    "Poisson",
	"maharagwe": "Haricots",
	"unga":      "Farine",
	"ndizi":     "Banane",
	"mkate":     "Pain",
	"maziwa":    "Lait",
	"mayai":     "Oeufs",
	"kuku":      "Poulet",
	"nyanya":    "Tomates",
	"vitunguu":  "Oignons",
	"viazi":     "Pommes de terre",
	"mboga":     "Legumes",
}

// maxPhraseWords caps how many leading words a dictionary phrase may span.
const maxPhraseWords = 3

// translateRegional substitutes a leading Lingala/Swahili term with its
// French pivot, preserving the rest of the string ("pondu ya mboka" →
// "Feuilles de manioc ya mboka"). Longest prefix wins; exact whole-name
// matches are just the degenerate case. Returns the input unchanged when no
// dictionary entry applies.
func translateRegional(name string) (string, bool) {
	key := normalize.Key(name)
	if key == "" {
		return name, false
	}
	words := strings.Split(key, " ")

	limit := len(words)
	if limit > maxPhraseWords {
		limit = maxPhraseWords
	}
	for n := limit; n >= 1; n-- {
		phrase := strings.Join(words[:n], " ")
		repl, ok := lingalaToFrench[phrase]
		if !ok {
			repl, ok = swahiliToFrench[phrase]
		}
		if !ok {
			continue
		}
		rest := strings.Join(words[n:], " ")
		if rest == "" {
			return repl, true
		}
		return repl + " " + rest, true
	}
	return name, false
}
