package search

import "strings"

// DefaultGenericKeywords are fresh or unbranded staples, stored in
// normalized form. Queries made of these are resolved locally or
// generatively; the external catalog mostly returns irrelevant branded
// hits for them.
var DefaultGenericKeywords = []string{
	"lechuga", "tomate", "cebolla", "ajo", "zanahoria",
	"patata", "papa", "pimiento", "pepino", "calabacin",
	"berenjena", "brocoli", "coliflor", "espinaca", "apio",
	"manzana", "platano", "banana", "naranja", "limon",
	"pera", "uva", "fresa", "melon", "sandia",
	"melocoton", "kiwi", "mango", "aguacate", "pina",
	"pollo", "ternera", "cerdo", "cordero", "pavo",
	"pescado", "merluza", "salmon", "atun", "bacalao",
	"huevo", "leche", "pan", "arroz", "pasta",
	"harina", "azucar", "sal", "aceite", "vinagre",
	"queso", "yogur", "mantequilla",
	"lettuce", "tomato", "onion", "garlic", "carrot",
	"potato", "apple", "orange", "chicken", "beef",
	"fish", "egg", "milk", "bread", "rice",
	"cheese", "butter", "sugar", "salt", "oil",
}

// DefaultBrandIndicators are substrings that strongly suggest a branded
// product query, which keeps the external catalog tier in play. Entries
// are matched verbatim against the normalized query, so "dia " carries a
// trailing space to avoid firing inside words like "sandia".
var DefaultBrandIndicators = []string{
	"coca", "pepsi", "nestle", "danone", "hacendado", "mercadona",
	"carrefour", "lidl", "dia ", "eroski", "kellogg", "bimbo",
	"pascual", "puleva", "gallo", "campofrio", "nocilla", "nutella",
	"oreo", "fanta", "sprite", "aquarius", "redbull", "monster",
	"heineken", "mahou", "estrella", "activia", "actimel",
}

// Classifier decides whether a query names a generic staple or carries a
// brand fragment. The keyword lists are injected so deployments can swap
// in their own vocabularies.
type Classifier struct {
	generic map[string]struct{}
	brands  []string
}

// NewClassifier builds a classifier from the given lists. Passing nil for
// either list selects the built-in defaults. Generic keywords are
// normalized on the way in; brand indicators are kept verbatim because
// some rely on exact spacing.
func NewClassifier(genericKeywords, brandIndicators []string) *Classifier {
	if genericKeywords == nil {
		genericKeywords = DefaultGenericKeywords
	}
	if brandIndicators == nil {
		brandIndicators = DefaultBrandIndicators
	}
	generic := make(map[string]struct{}, len(genericKeywords))
	for _, keyword := range genericKeywords {
		if normalized := Normalize(keyword); normalized != "" {
			generic[normalized] = struct{}{}
		}
	}
	return &Classifier{generic: generic, brands: brandIndicators}
}

// LooksGenericOrFresh reports whether every token of the query names a
// generic staple. Single-token exact hits are the common case; multi-token
// queries count only when all tokens are generic ("pollo fresco" is not,
// "pollo" is).
func (c *Classifier) LooksGenericOrFresh(query string) bool {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return false
	}
	for _, tok := range tokens {
		if _, ok := c.generic[tok]; !ok {
			return false
		}
	}
	return true
}

// HasBrandIndicators reports whether the normalized query contains a known
// brand fragment.
func (c *Classifier) HasBrandIndicators(query string) bool {
	normalized := Normalize(query)
	for _, brand := range c.brands {
		if strings.Contains(normalized, brand) {
			return true
		}
	}
	return false
}
