package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"freshkeeper/internal/models"
)

// rawRecord mirrors the subset of an Open Food Facts product document the
// normalizer reads. Field presence is wildly inconsistent upstream, so
// everything small stays a plain string. Nutriments mix numbers with
// string fields like "proteins_unit": "g" in the same object, so they
// stay raw JSON here and get coerced per value during extraction.
type rawRecord struct {
	Code            string                     `json:"code"`
	ID              string                     `json:"_id"`
	ProductName     string                     `json:"product_name"`
	ProductNameES   string                     `json:"product_name_es"`
	ProductNameEN   string                     `json:"product_name_en"`
	GenericName     string                     `json:"generic_name"`
	GenericNameES   string                     `json:"generic_name_es"`
	GenericNameEN   string                     `json:"generic_name_en"`
	Brands          string                     `json:"brands"`
	Categories      string                     `json:"categories"`
	IngredientsText string                     `json:"ingredients_text"`
	Allergens       string                     `json:"allergens"`
	ImageURL        string                     `json:"image_url"`
	ImageFrontURL   string                     `json:"image_front_url"`
	Nutriments      map[string]json.RawMessage `json:"nutriments"`
}

func (r rawRecord) bestCode() string {
	if r.Code != "" {
		return r.Code
	}
	return r.ID
}

// categoryRules maps free-text category declarations onto the fixed
// taxonomy by substring match, first hit wins.
var categoryRules = []struct {
	needles  []string
	category string
}{
	{[]string{"bebidas", "beverages"}, "Bebidas"},
	{[]string{"lácteos", "dairy"}, "Lácteos"},
	{[]string{"carne", "meat"}, "Carnes"},
	{[]string{"pescado", "fish"}, "Pescados"},
	{[]string{"verduras", "vegetables"}, "Verduras"},
	{[]string{"frutas", "fruits"}, "Frutas"},
	{[]string{"cereales", "cereals"}, "Cereales"},
	{[]string{"panadería", "bakery"}, "Panadería"},
	{[]string{"dulces", "sweets"}, "Dulces"},
	{[]string{"aperitivos", "snacks"}, "Aperitivos"},
	{[]string{"condimentos", "condiments"}, "Condimentos"},
	{[]string{"conservas", "canned"}, "Conservas"},
}

// allergenKeywords maps upstream allergen tag fragments to the fixed
// allergen vocabulary.
var allergenKeywords = []struct {
	needle string
	tag    string
}{
	{"milk", "leche"},
	{"eggs", "huevos"},
	{"fish", "pescado"},
	{"crustaceans", "crustáceos"},
	{"molluscs", "moluscos"},
	{"tree-nuts", "frutos secos"},
	{"peanuts", "cacahuetes"},
	{"sesame-seeds", "sésamo"},
	{"soybeans", "soja"},
	{"celery", "apio"},
	{"mustard", "mostaza"},
	{"lupin", "altramuz"},
	{"sulphur-dioxide-and-sulphites", "sulfitos"},
	{"gluten", "gluten"},
}

// nutrientKeys lists, in preference order, the upstream keys feeding each
// canonical nutrition field. Per-100g values win over unscoped ones.
var nutrientKeys = map[string][]string{
	"calories":      {"energy-kcal_100g", "energy-kcal"},
	"protein":       {"proteins_100g", "proteins"},
	"carbohydrates": {"carbohydrates_100g", "carbohydrates"},
	"fat":           {"fat_100g", "fat"},
	"fiber":         {"fiber_100g", "fiber"},
	"sugar":         {"sugars_100g", "sugars"},
	"sodium":        {"sodium_100g", "sodium"},
	"saturatedFat":  {"saturated-fat_100g", "saturated-fat"},
	"transFat":      {"trans-fat_100g", "trans-fat"},
	"cholesterol":   {"cholesterol_100g", "cholesterol"},
	"calcium":       {"calcium_100g", "calcium"},
	"iron":          {"iron_100g", "iron"},
	"vitaminC":      {"vitamin-c_100g", "vitamin-c"},
	"vitaminA":      {"vitamin-a_100g", "vitamin-a"},
}

// normalizeRecord converts an upstream document into the canonical product
// shape. Records from the catalog are considered verified.
func normalizeRecord(record rawRecord) *models.Product {
	now := time.Now()
	product := &models.Product{
		ID:              uuid.New(),
		Name:            pickName(record),
		Brand:           optional(record.Brands),
		Category:        optional(mapCategory(record.Categories)),
		Description:     pickDescription(record),
		Ingredients:     optional(strings.TrimSpace(record.IngredientsText)),
		NutritionalInfo: extractNutrition(record.Nutriments),
		Allergens:       extractAllergens(record.Allergens),
		ImageURL:        pickImage(record),
		Source:          models.SourceExternalCatalog,
		IsVerified:      true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return product
}

// pickName follows the localized fallback chain: default name, then
// Spanish, then English.
func pickName(record rawRecord) string {
	for _, candidate := range []string{record.ProductName, record.ProductNameES, record.ProductNameEN} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func pickDescription(record rawRecord) *string {
	for _, candidate := range []string{record.GenericName, record.GenericNameES, record.GenericNameEN} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return &trimmed
		}
	}
	return nil
}

func pickImage(record rawRecord) *string {
	if record.ImageURL != "" {
		return &record.ImageURL
	}
	if record.ImageFrontURL != "" {
		return &record.ImageFrontURL
	}
	return nil
}

func mapCategory(categories string) string {
	if strings.TrimSpace(categories) == "" {
		return ""
	}
	lowered := strings.ToLower(categories)
	for _, rule := range categoryRules {
		for _, needle := range rule.needles {
			if strings.Contains(lowered, needle) {
				return rule.category
			}
		}
	}
	// No taxonomy hit, keep the first declared category verbatim.
	first := strings.TrimSpace(strings.Split(categories, ",")[0])
	return first
}

func extractAllergens(declared string) []string {
	tags := []string{}
	if declared == "" {
		return tags
	}
	lowered := strings.ToLower(declared)
	for _, entry := range allergenKeywords {
		if strings.Contains(lowered, entry.needle) {
			tags = append(tags, entry.tag)
		}
	}
	return tags
}

func extractNutrition(nutriments map[string]json.RawMessage) *models.NutritionalInfo {
	if len(nutriments) == 0 {
		return nil
	}
	lookup := func(field string) *float64 {
		for _, key := range nutrientKeys[field] {
			if raw, ok := nutriments[key]; ok {
				if value, ok := numericValue(raw); ok {
					return &value
				}
			}
		}
		return nil
	}
	info := &models.NutritionalInfo{
		Calories:      lookup("calories"),
		Protein:       lookup("protein"),
		Carbohydrates: lookup("carbohydrates"),
		Fat:           lookup("fat"),
		Fiber:         lookup("fiber"),
		Sugar:         lookup("sugar"),
		Sodium:        lookup("sodium"),
		SaturatedFat:  lookup("saturatedFat"),
		TransFat:      lookup("transFat"),
		Cholesterol:   lookup("cholesterol"),
		Calcium:       lookup("calcium"),
		Iron:          lookup("iron"),
		VitaminC:      lookup("vitaminC"),
		VitaminA:      lookup("vitaminA"),
	}
	return info
}

// numericValue coerces one nutriment value. Upstream stores numbers,
// numeric strings ("3.5"), and plain unit strings ("g", "kcal") under
// sibling keys; only the first two are values.
func numericValue(raw json.RawMessage) (float64, bool) {
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number, true
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func optional(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
