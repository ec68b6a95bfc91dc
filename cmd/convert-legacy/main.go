package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"cedra_variant_editor/internal/models"
	"cedra_variant_editor/internal/variants"
)

func main() {
	skuBase := flag.String("sku-base", "", "Base des SKU attribués aux tailles qui n'en ont pas")
	asCSV := flag.Bool("csv", false, "Écrire les combinaisons en CSV au lieu de la matrice JSON")
	toLegacy := flag.Bool("reverse", false, "Lire une matrice JSON et écrire l'ancien format")
	flag.Parse()

	in := io.Reader(os.Stdin)
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Ouverture %s : %v\n", flag.Arg(0), err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	if *toLegacy {
		var state variants.MatrixState
		if err := json.NewDecoder(in).Decode(&state); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Matrice JSON invalide : %v\n", err)
			os.Exit(1)
		}
		writeJSON(variants.CombinationsToLegacyVariants(state.Combinations, state.Dimensions))
		return
	}

	var legacy []models.LegacyVariant
	if err := json.NewDecoder(in).Decode(&legacy); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Variantes JSON invalides : %v\n", err)
		os.Exit(1)
	}

	state := variants.LegacyVariantsToShopifyFormat(legacy)
	state.Defaults.SkuBase = variants.SanitizeSkuBase(*skuBase)
	assigned := variants.AssignMissingSkus(&state, state.Defaults.SkuBase)
	fmt.Fprintf(os.Stderr, "✅ %d variantes → %d combinaisons (%d SKU attribués)\n",
		len(legacy), len(state.Combinations), assigned)

	if *asCSV {
		if err := variants.WriteCombinationsCSV(os.Stdout, state.Dimensions, state.Combinations); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Export CSV : %v\n", err)
			os.Exit(1)
		}
		return
	}
	writeJSON(state)
}

func writeJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Encodage JSON : %v\n", err)
		os.Exit(1)
	}
}
