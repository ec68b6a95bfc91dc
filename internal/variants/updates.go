package variants

import "cedra_variant_editor/internal/models"

// CombinationUpdate est un champ modifiable d'une combinaison.
// Seuls les types de ce fichier l'implémentent.
type CombinationUpdate interface {
	apply(c *models.VariantCombination)
}

type (
	SetSku           string
	SetPrice         float64
	SetOriginalPrice float64
	SetStock         int
	SetImages        []string
	AddImage         string
)

func (u SetSku) apply(c *models.VariantCombination)           { c.SKU = string(u) }
func (u SetPrice) apply(c *models.VariantCombination)         { c.Price = float64(u) }
func (u SetOriginalPrice) apply(c *models.VariantCombination) { c.OriginalPrice = float64(u) }
func (u SetStock) apply(c *models.VariantCombination)         { c.Stock = int(u) }
func (u SetImages) apply(c *models.VariantCombination)        { c.Images = append([]string{}, u...) }
func (u AddImage) apply(c *models.VariantCombination)         { c.Images = append(c.Images, string(u)) }

// UpdateCombination modifie une combinaison sans régénérer : la signature ne change pas.
// Renvoie false si l'ID est inconnu.
func (m *Matrix) UpdateCombination(id string, updates ...CombinationUpdate) bool {
	for i := range m.combinations {
		if m.combinations[i].ID != id {
			continue
		}
		for _, u := range updates {
			u.apply(&m.combinations[i])
		}
		return true
	}
	return false
}
