package variants

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cedra_variant_editor/internal/models"
)

// WriteCombinationsCSV exporte une ligne par combinaison, une colonne par dimension
func WriteCombinationsCSV(w io.Writer, dimensions []models.VariantDimension, combinations []models.VariantCombination) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(dimensions)+5)
	header = append(header, "sku")
	for _, d := range dimensions {
		header = append(header, d.Name)
	}
	header = append(header, "price", "originalPrice", "stock", "images")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("écriture en-tête CSV: %w", err)
	}

	for _, c := range combinations {
		row := make([]string, 0, len(header))
		row = append(row, c.SKU)
		for _, d := range dimensions {
			value := ""
			if o, ok := optionFor(c, d.ID); ok {
				value = o.Value
			}
			row = append(row, value)
		}
		row = append(row,
			strconv.FormatFloat(c.Price, 'f', 2, 64),
			strconv.FormatFloat(c.OriginalPrice, 'f', 2, 64),
			strconv.Itoa(c.Stock),
			strings.Join(c.Images, "|"),
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("écriture ligne CSV %s: %w", c.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
