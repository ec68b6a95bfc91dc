package variants

import (
	"strings"

	"github.com/google/uuid"

	"cedra_variant_editor/internal/models"
)

const (
	// ColorDimensionID et SizeDimensionID sont les IDs fixes des dimensions issues de l'ancien format
	ColorDimensionID = "type-color"
	SizeDimensionID  = "type-size"

	OneSize          = "One Size"
	DefaultColorName = "Default"
	DefaultColorCode = "#000000"
)

func findColorDimension(dimensions []models.VariantDimension) (models.VariantDimension, bool) {
	for _, d := range dimensions {
		if d.IsColor {
			return d, true
		}
	}
	for _, d := range dimensions {
		if strings.EqualFold(strings.TrimSpace(d.Name), "color") {
			return d, true
		}
	}
	return models.VariantDimension{}, false
}

func findSizeDimension(dimensions []models.VariantDimension, exclude string) (models.VariantDimension, bool) {
	for _, d := range dimensions {
		if d.ID != exclude && strings.EqualFold(strings.TrimSpace(d.Name), "size") {
			return d, true
		}
	}
	return models.VariantDimension{}, false
}

func optionFor(c models.VariantCombination, typeID string) (models.VariantOption, bool) {
	for _, o := range c.Options {
		if o.TypeID == typeID {
			return o, true
		}
	}
	return models.VariantOption{}, false
}

func sizeRow(c models.VariantCombination, sizeDim models.VariantDimension, hasSize bool) models.LegacySize {
	size := OneSize
	if hasSize {
		if o, ok := optionFor(c, sizeDim.ID); ok && o.Value != "" {
			size = o.Value
		}
	}
	return models.LegacySize{
		Size:          size,
		Stock:         c.Stock,
		SKU:           c.SKU,
		Price:         c.Price,
		OriginalPrice: c.OriginalPrice,
	}
}

// CombinationsToLegacyVariants regroupe les combinaisons au format couleur → tailles.
// L'ordre suit la première apparition de chaque couleur, puis l'ordre des combinaisons.
func CombinationsToLegacyVariants(combinations []models.VariantCombination, dimensions []models.VariantDimension) []models.LegacyVariant {
	colorDim, hasColor := findColorDimension(dimensions)
	sizeDim, hasSize := findSizeDimension(dimensions, colorDim.ID)

	out := make([]models.LegacyVariant, 0, len(combinations))

	if !hasColor {
		for _, c := range combinations {
			names := make([]string, 0, len(c.Options))
			for _, o := range c.Options {
				if hasSize && o.TypeID == sizeDim.ID {
					continue
				}
				names = append(names, o.Value)
			}
			name := strings.Join(names, " / ")
			if name == "" {
				name = DefaultColorName
			}
			out = append(out, models.LegacyVariant{
				ColorName:     name,
				ColorCode:     DefaultColorCode,
				Sizes:         []models.LegacySize{sizeRow(c, sizeDim, hasSize)},
				Images:        append([]string{}, c.Images...),
				Price:         c.Price,
				OriginalPrice: c.OriginalPrice,
			})
		}
		return out
	}

	groups := make(map[string]int)
	for _, c := range combinations {
		colorName := DefaultColorName
		colorCode := ""
		if o, ok := optionFor(c, colorDim.ID); ok {
			colorName = o.Value
			colorCode = o.ColorCode
		}
		idx, seen := groups[colorName]
		if !seen {
			idx = len(out)
			groups[colorName] = idx
			out = append(out, models.LegacyVariant{
				ColorName:     colorName,
				ColorCode:     colorCode,
				Sizes:         []models.LegacySize{},
				Images:        append([]string{}, c.Images...),
				Price:         c.Price,
				OriginalPrice: c.OriginalPrice,
			})
		}
		out[idx].Sizes = append(out[idx].Sizes, sizeRow(c, sizeDim, hasSize))
	}
	return out
}

func legacyRows(v models.LegacyVariant) []models.LegacySize {
	if len(v.Sizes) == 0 {
		return []models.LegacySize{{Size: OneSize}}
	}
	rows := make([]models.LegacySize, len(v.Sizes))
	for i, r := range v.Sizes {
		if strings.TrimSpace(r.Size) == "" {
			r.Size = OneSize
		}
		rows[i] = r
	}
	return rows
}

func legacyColorName(v models.LegacyVariant) string {
	if name := strings.TrimSpace(v.ColorName); name != "" {
		return name
	}
	return DefaultColorName
}

func appendUnique(values []string, seen map[string]bool, v string) []string {
	if seen[v] {
		return values
	}
	seen[v] = true
	return append(values, v)
}

func firstNonZero(primary, fallback float64) float64 {
	if primary != 0 {
		return primary
	}
	return fallback
}

// LegacyVariantsToShopifyFormat déplie l'ancien format en dimensions, options et combinaisons.
// Les IDs de combinaisons sont toujours neufs ; seules les valeurs font l'aller-retour.
func LegacyVariantsToShopifyFormat(variants []models.LegacyVariant, opts ...MatrixOption) MatrixState {
	gen := &Matrix{newID: uuid.NewString}
	for _, opt := range opts {
		opt(gen)
	}

	hasColor, hasSize := false, false
	for _, v := range variants {
		if strings.TrimSpace(v.ColorName) != "" {
			hasColor = true
		}
		if len(v.Sizes) > 0 {
			hasSize = true
		}
	}

	state := MatrixState{
		Dimensions:   []models.VariantDimension{},
		Options:      make(map[string][]string),
		ColorCodes:   make(map[string]map[string]string),
		Combinations: []models.VariantCombination{},
	}

	colorCodes := make(map[string]string)
	if hasColor {
		state.Dimensions = append(state.Dimensions, models.VariantDimension{ID: ColorDimensionID, Name: "Color", IsColor: true})
		seen := make(map[string]bool)
		values := []string{}
		for _, v := range variants {
			name := legacyColorName(v)
			values = appendUnique(values, seen, name)
			if _, set := colorCodes[name]; !set && v.ColorCode != "" {
				colorCodes[name] = v.ColorCode
			}
		}
		state.Options[ColorDimensionID] = values
		state.ColorCodes[ColorDimensionID] = colorCodes
	}
	if hasSize {
		state.Dimensions = append(state.Dimensions, models.VariantDimension{ID: SizeDimensionID, Name: "Size"})
		seen := make(map[string]bool)
		values := []string{}
		for _, v := range variants {
			for _, r := range legacyRows(v) {
				values = appendUnique(values, seen, r.Size)
			}
		}
		state.Options[SizeDimensionID] = values
	}

	for _, v := range variants {
		colorName := legacyColorName(v)
		for _, r := range legacyRows(v) {
			options := make([]models.VariantOption, 0, 2)
			if hasColor {
				options = append(options, models.VariantOption{
					TypeID:    ColorDimensionID,
					TypeName:  "Color",
					Value:     colorName,
					ColorCode: colorCodes[colorName],
				})
			}
			if hasSize {
				options = append(options, models.VariantOption{
					TypeID:   SizeDimensionID,
					TypeName: "Size",
					Value:    r.Size,
				})
			}
			state.Combinations = append(state.Combinations, models.VariantCombination{
				ID:            gen.newID(),
				Options:       options,
				SKU:           r.SKU,
				Price:         firstNonZero(r.Price, v.Price),
				OriginalPrice: firstNonZero(r.OriginalPrice, v.OriginalPrice),
				Stock:         r.Stock,
				Images:        append([]string{}, v.Images...),
			})
		}
	}
	return state
}

// AssignMissingSkus dérive un SKU unique pour chaque combinaison importée sans SKU.
// Renvoie le nombre de SKU attribués.
func AssignMissingSkus(state *MatrixState, skuBase string) int {
	dedup := NewSkuDeduper(MaxSkuLength)
	for _, c := range state.Combinations {
		dedup.Reserve(c.SKU)
	}
	colorDims := make(map[string]bool)
	for _, d := range state.Dimensions {
		colorDims[d.ID] = d.IsColor
	}
	assigned := 0
	for i := range state.Combinations {
		c := &state.Combinations[i]
		if c.SKU != "" {
			continue
		}
		c.SKU = dedup.Unique(DeriveSku(skuBase, skuParts(c.Options, colorDims), MaxSkuLength))
		assigned++
	}
	return assigned
}
