package models

import (
	"time"

	"github.com/gocql/gocql"
)

// ProductVariant est la ligne persistée d'une combinaison dans ks_products.product_variants
type ProductVariant struct {
	ID            gocql.UUID        `json:"id"`
	ProductID     gocql.UUID        `json:"product_id"`
	SKU           string            `json:"sku"`
	Price         float64           `json:"price"`
	OriginalPrice float64           `json:"original_price"`
	Stock         int               `json:"stock"`
	Attributes    map[string]string `json:"attributes"` // {"Size": "L", "Color": "Red"}
	ImageURLs     []string          `json:"image_urls"`
	Signature     string            `json:"signature"`
	IsActive      bool              `json:"is_active"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Attributes transforme les options d'une combinaison en map nom de dimension → valeur
func (c VariantCombination) Attributes() map[string]string {
	attrs := make(map[string]string, len(c.Options))
	for _, o := range c.Options {
		attrs[o.TypeName] = o.Value
	}
	return attrs
}
