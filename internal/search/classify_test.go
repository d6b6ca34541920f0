package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifierLooksGenericOrFresh(t *testing.T) {
	classifier := NewClassifier(nil, nil)

	assert.True(t, classifier.LooksGenericOrFresh("lechuga"))
	assert.True(t, classifier.LooksGenericOrFresh("Plátanos"))
	assert.True(t, classifier.LooksGenericOrFresh("pollo"))
	assert.False(t, classifier.LooksGenericOrFresh("leche de vaca"))
	assert.False(t, classifier.LooksGenericOrFresh("Coca Cola 500ml"))
	assert.False(t, classifier.LooksGenericOrFresh("pollo empanado marca x"))
	assert.False(t, classifier.LooksGenericOrFresh(""))
}

func TestClassifierLooksGenericOrFresh_AccentedQueries(t *testing.T) {
	classifier := NewClassifier(nil, nil)

	// Tokenize strips accents, so "piña" must land on the stored "pina".
	assert.True(t, classifier.LooksGenericOrFresh("piña"))
	assert.True(t, classifier.LooksGenericOrFresh("Piñas"))
	assert.True(t, classifier.LooksGenericOrFresh("melocotón"))
	assert.True(t, classifier.LooksGenericOrFresh("azúcar"))
}

func TestClassifierHasBrandIndicators(t *testing.T) {
	classifier := NewClassifier(nil, nil)

	assert.True(t, classifier.HasBrandIndicators("Coca Cola 500ml"))
	assert.True(t, classifier.HasBrandIndicators("galletas OREO"))
	assert.True(t, classifier.HasBrandIndicators("yogur Danone natural"))
	assert.False(t, classifier.HasBrandIndicators("lechuga iceberg"))
	assert.False(t, classifier.HasBrandIndicators("arroz integral"))
	// "dia " carries a trailing space so it never fires inside "sandia".
	assert.False(t, classifier.HasBrandIndicators("sandia"))
	assert.True(t, classifier.HasBrandIndicators("leche dia entera"))
}

func TestClassifierCustomLists(t *testing.T) {
	classifier := NewClassifier([]string{"Tofú"}, []string{"acme"})

	// Injected keywords are normalized on the way in.
	assert.True(t, classifier.LooksGenericOrFresh("tofu"))
	assert.False(t, classifier.LooksGenericOrFresh("lechuga"))
	assert.True(t, classifier.HasBrandIndicators("galletas ACME chocolate"))
	assert.False(t, classifier.HasBrandIndicators("galletas OREO"))
}
