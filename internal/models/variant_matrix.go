package models

// VariantDimension est un axe de variation d'un produit (Couleur, Taille, Matière...)
type VariantDimension struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsColor bool   `json:"isColor"`
}

// VariantOption est la valeur retenue pour une dimension dans une combinaison
type VariantOption struct {
	TypeID    string `json:"typeId"`
	TypeName  string `json:"typeName"`
	Value     string `json:"value"`
	ColorCode string `json:"colorCode,omitempty"`
}

// VariantCombination est une cellule du produit cartésien des options
type VariantCombination struct {
	ID            string          `json:"id"`
	Options       []VariantOption `json:"options"`
	SKU           string          `json:"sku"`
	Price         float64         `json:"price"`
	OriginalPrice float64         `json:"originalPrice"`
	Stock         int             `json:"stock"`
	Images        []string        `json:"images"`
}

// LegacySize est une ligne taille de l'ancien format couleur → tailles
type LegacySize struct {
	Size          string  `json:"size"`
	Stock         int     `json:"stock"`
	SKU           string  `json:"sku"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"originalPrice"`
}

// LegacyVariant est l'ancien format : une couleur et ses tailles
type LegacyVariant struct {
	ColorName     string       `json:"colorName"`
	ColorCode     string       `json:"colorCode"`
	Sizes         []LegacySize `json:"sizes"`
	Images        []string     `json:"images"`
	Price         float64      `json:"price,omitempty"`
	OriginalPrice float64      `json:"originalPrice,omitempty"`
}
