package variants

import (
	"strings"

	"github.com/google/uuid"

	"cedra_variant_editor/internal/models"
)

// Defaults sont les valeurs appliquées aux nouvelles combinaisons
type Defaults struct {
	BasePrice         float64 `json:"basePrice"`
	BaseOriginalPrice float64 `json:"baseOriginalPrice"`
	SkuBase           string  `json:"skuBase"`
}

// MatrixState est l'instantané sérialisable d'une matrice.
// Options et ColorCodes sont indexés par ID de dimension.
type MatrixState struct {
	Defaults     Defaults                     `json:"defaults"`
	Dimensions   []models.VariantDimension    `json:"dimensions"`
	Options      map[string][]string          `json:"options"`
	ColorCodes   map[string]map[string]string `json:"colorCodes"`
	Combinations []models.VariantCombination  `json:"combinations"`
}

// IDGenerator fournit les identifiants des dimensions et combinaisons
type IDGenerator func() string

// MatrixOption configure une Matrix
type MatrixOption func(*Matrix)

// WithIDGenerator remplace la génération d'UUID (utile pour les tests)
func WithIDGenerator(gen IDGenerator) MatrixOption {
	return func(m *Matrix) {
		if gen != nil {
			m.newID = gen
		}
	}
}

// Matrix porte l'état d'édition des variantes d'un seul produit.
// Les appels ne sont pas réentrants : une session applique une opération à la fois.
type Matrix struct {
	defaults     Defaults
	dimensions   []models.VariantDimension
	options      map[string][]string
	colorCodes   map[string]map[string]string
	combinations []models.VariantCombination
	newID        IDGenerator
}

func NewMatrix(defaults Defaults, opts ...MatrixOption) *Matrix {
	m := &Matrix{
		defaults:   defaults,
		options:    make(map[string][]string),
		colorCodes: make(map[string]map[string]string),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadMatrix reconstruit une matrice depuis un instantané, sans régénérer
func LoadMatrix(state MatrixState, opts ...MatrixOption) *Matrix {
	m := NewMatrix(state.Defaults, opts...)
	m.dimensions = append(m.dimensions, state.Dimensions...)
	for id, values := range state.Options {
		m.options[id] = append([]string(nil), values...)
	}
	for id, codes := range state.ColorCodes {
		copied := make(map[string]string, len(codes))
		for v, c := range codes {
			copied[v] = c
		}
		m.colorCodes[id] = copied
	}
	m.combinations = cloneCombinations(state.Combinations)
	return m
}

// State renvoie une copie indépendante de l'état courant
func (m *Matrix) State() MatrixState {
	state := MatrixState{
		Defaults:     m.defaults,
		Dimensions:   append([]models.VariantDimension{}, m.dimensions...),
		Options:      make(map[string][]string, len(m.options)),
		ColorCodes:   make(map[string]map[string]string, len(m.colorCodes)),
		Combinations: cloneCombinations(m.combinations),
	}
	for id, values := range m.options {
		state.Options[id] = append([]string{}, values...)
	}
	for id, codes := range m.colorCodes {
		copied := make(map[string]string, len(codes))
		for v, c := range codes {
			copied[v] = c
		}
		state.ColorCodes[id] = copied
	}
	return state
}

func (m *Matrix) Defaults() Defaults { return m.defaults }

func (m *Matrix) Dimensions() []models.VariantDimension {
	return append([]models.VariantDimension{}, m.dimensions...)
}

func (m *Matrix) Options(dimensionID string) []string {
	return append([]string{}, m.options[dimensionID]...)
}

func (m *Matrix) Combinations() []models.VariantCombination {
	return cloneCombinations(m.combinations)
}

func (m *Matrix) dimensionIndex(id string) int {
	for i, d := range m.dimensions {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// AddDimension ajoute un axe vide. Les combinaisons ne changent pas tant qu'il n'a pas d'option.
func (m *Matrix) AddDimension(name string, isColor bool) models.VariantDimension {
	dim := models.VariantDimension{ID: m.newID(), Name: strings.TrimSpace(name), IsColor: isColor}
	m.dimensions = append(m.dimensions, dim)
	m.options[dim.ID] = []string{}
	return dim
}

// RemoveDimension supprime l'axe, ses options et ses couleurs, puis régénère
func (m *Matrix) RemoveDimension(id string) bool {
	idx := m.dimensionIndex(id)
	if idx < 0 {
		return false
	}
	m.dimensions = append(m.dimensions[:idx:idx], m.dimensions[idx+1:]...)
	delete(m.options, id)
	delete(m.colorCodes, id)
	m.regenerate()
	return true
}

// AddOption ajoute une valeur à une dimension. Une valeur vide ou déjà présente est ignorée,
// seul son code couleur est alors mis à jour. Renvoie true si l'état a changé.
func (m *Matrix) AddOption(dimensionID, value, colorCode string) bool {
	value = strings.TrimSpace(value)
	if value == "" || m.dimensionIndex(dimensionID) < 0 {
		return false
	}
	colorChanged := false
	if colorCode != "" {
		codes, ok := m.colorCodes[dimensionID]
		if !ok {
			codes = make(map[string]string)
			m.colorCodes[dimensionID] = codes
		}
		colorChanged = codes[value] != colorCode
		codes[value] = colorCode
	}
	for _, existing := range m.options[dimensionID] {
		if existing == value {
			return colorChanged
		}
	}
	m.options[dimensionID] = append(m.options[dimensionID], value)
	m.regenerate()
	return true
}

// RemoveOption retire la valeur et son code couleur, puis régénère
func (m *Matrix) RemoveOption(dimensionID, value string) bool {
	values := m.options[dimensionID]
	for i, existing := range values {
		if existing != value {
			continue
		}
		m.options[dimensionID] = append(values[:i:i], values[i+1:]...)
		if codes, ok := m.colorCodes[dimensionID]; ok {
			delete(codes, value)
		}
		m.regenerate()
		return true
	}
	return false
}

// Regenerate enregistre les valeurs par défaut puis recalcule les combinaisons
func (m *Matrix) Regenerate(defaults Defaults) {
	m.defaults = defaults
	m.regenerate()
}

func (m *Matrix) regenerate() {
	m.combinations = buildCombinations(m.dimensions, m.options, m.colorCodes, m.combinations, m.defaults, m.newID)
}

func buildCombinations(
	dimensions []models.VariantDimension,
	options map[string][]string,
	colorCodes map[string]map[string]string,
	previous []models.VariantCombination,
	defaults Defaults,
	newID IDGenerator,
) []models.VariantCombination {
	if len(dimensions) == 0 {
		return []models.VariantCombination{}
	}

	axes := make([][]models.VariantOption, 0, len(dimensions))
	for _, dim := range dimensions {
		values := options[dim.ID]
		if len(values) == 0 {
			return []models.VariantCombination{}
		}
		axis := make([]models.VariantOption, 0, len(values))
		for _, v := range values {
			axis = append(axis, models.VariantOption{
				TypeID:    dim.ID,
				TypeName:  dim.Name,
				Value:     v,
				ColorCode: colorCodes[dim.ID][v],
			})
		}
		axes = append(axes, axis)
	}

	bySignature := make(map[string]models.VariantCombination, len(previous))
	for _, c := range previous {
		bySignature[Signature(c.Options)] = c
	}
	colorDims := make(map[string]bool)
	for _, dim := range dimensions {
		colorDims[dim.ID] = dim.IsColor
	}

	result := make([]models.VariantCombination, 0, cartesianSize(axes))
	for _, opts := range cartesian(axes) {
		if kept, ok := bySignature[Signature(opts)]; ok {
			result = append(result, kept)
			continue
		}
		result = append(result, models.VariantCombination{
			ID:            newID(),
			Options:       opts,
			SKU:           DeriveSku(defaults.SkuBase, skuParts(opts, colorDims), MaxSkuLength),
			Price:         defaults.BasePrice,
			OriginalPrice: defaults.BaseOriginalPrice,
			Stock:         0,
			Images:        []string{},
		})
	}
	return result
}

// cartesian parcourt les axes en boucles imbriquées : le premier axe varie le plus lentement
func cartesian(axes [][]models.VariantOption) [][]models.VariantOption {
	out := [][]models.VariantOption{{}}
	for _, axis := range axes {
		next := make([][]models.VariantOption, 0, len(out)*len(axis))
		for _, prefix := range out {
			for _, opt := range axis {
				row := make([]models.VariantOption, len(prefix), len(prefix)+1)
				copy(row, prefix)
				next = append(next, append(row, opt))
			}
		}
		out = next
	}
	return out
}

func cartesianSize(axes [][]models.VariantOption) int {
	n := 1
	for _, axis := range axes {
		n *= len(axis)
	}
	return n
}

var signatureEscaper = strings.NewReplacer(`\`, `\\`, ":", `\:`, "|", `\|`)

// Signature identifie une combinaison d'une régénération à l'autre.
// ":" et "|" sont échappés dans les ID et valeurs.
func Signature(options []models.VariantOption) string {
	pairs := make([]string, len(options))
	for i, o := range options {
		pairs[i] = signatureEscaper.Replace(o.TypeID) + ":" + signatureEscaper.Replace(o.Value)
	}
	return strings.Join(pairs, "|")
}

func skuParts(options []models.VariantOption, colorDims map[string]bool) []SkuPart {
	parts := make([]SkuPart, len(options))
	for i, o := range options {
		fallback := UnknownFallback
		if colorDims[o.TypeID] {
			fallback = ColorFallback
		}
		parts[i] = SkuPart{Value: o.Value, Fallback: fallback}
	}
	return parts
}

// RegenerateAllSkus redérive le SKU de chaque combinaison existante, sans dédoublonnage
func (m *Matrix) RegenerateAllSkus(skuBase string) {
	m.defaults.SkuBase = skuBase
	colorDims := make(map[string]bool)
	for _, dim := range m.dimensions {
		colorDims[dim.ID] = dim.IsColor
	}
	for i := range m.combinations {
		m.combinations[i].SKU = DeriveSku(skuBase, skuParts(m.combinations[i].Options, colorDims), MaxSkuLength)
	}
}

func cloneCombinations(in []models.VariantCombination) []models.VariantCombination {
	out := make([]models.VariantCombination, len(in))
	for i, c := range in {
		c.Options = append([]models.VariantOption{}, c.Options...)
		c.Images = append([]string{}, c.Images...)
		out[i] = c
	}
	return out
}
