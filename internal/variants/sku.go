package variants

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"
)

const (
	// MaxSkuLength est la longueur maximale d'un SKU dérivé
	MaxSkuLength = 48

	// ColorFallback remplace un token couleur vide après nettoyage
	ColorFallback = "DEF"
	// UnknownFallback remplace tout autre token vide
	UnknownFallback = "UNK"

	skuTokenLength   = 4
	skuBaseMaxLength = 16
)

// SkuPart est une valeur d'option à transformer en token de SKU
type SkuPart struct {
	Value    string
	Fallback string
}

// SkuToken met en majuscules, garde [A-Z0-9] et coupe à 4 caractères
func SkuToken(value, fallback string) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.ToUpper(value) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			n++
			if n == skuTokenLength {
				break
			}
		}
	}
	if b.Len() == 0 {
		if fallback == "" {
			return UnknownFallback
		}
		return fallback
	}
	return b.String()
}

// DeriveSku construit BASE-TOK1-TOK2-..., coupé net à maxLength caractères.
// maxLength <= 0 vaut MaxSkuLength.
func DeriveSku(base string, parts []SkuPart, maxLength int) string {
	segments := make([]string, 0, len(parts)+1)
	if base != "" {
		segments = append(segments, strings.ToUpper(base))
	}
	for _, p := range parts {
		segments = append(segments, SkuToken(p.Value, p.Fallback))
	}
	if maxLength <= 0 {
		maxLength = MaxSkuLength
	}
	return cutRunes(strings.Join(segments, "-"), maxLength)
}

func cutRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// SkuDeduper évite les doublons de SKU au sein d'un même lot de génération
type SkuDeduper struct {
	seen      map[string]struct{}
	maxLength int
}

func NewSkuDeduper(maxLength int) *SkuDeduper {
	return &SkuDeduper{seen: make(map[string]struct{}), maxLength: maxLength}
}

// Reserve marque un SKU existant comme pris sans le modifier
func (d *SkuDeduper) Reserve(sku string) {
	if sku != "" {
		d.seen[sku] = struct{}{}
	}
}

// Unique renvoie sku, ou sku-1, sku-2... jusqu'à trouver une valeur libre
func (d *SkuDeduper) Unique(sku string) string {
	limit := d.maxLength
	if limit <= 0 {
		limit = MaxSkuLength
	}
	candidate := cutRunes(sku, limit)
	for counter := 1; ; counter++ {
		if _, taken := d.seen[candidate]; !taken {
			d.seen[candidate] = struct{}{}
			return candidate
		}
		// le suffixe doit survivre à la coupe, sinon la boucle ne termine pas
		suffix := "-" + strconv.Itoa(counter)
		candidate = cutRunes(sku, limit-len(suffix)) + suffix
	}
}

// SanitizeSkuBase ne garde que [A-Z0-9-] et fusionne les tirets
func SanitizeSkuBase(raw string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToUpper(strings.TrimSpace(raw)) {
		switch {
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		case r == '-' || r == ' ' || r == '_':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// SuggestSkuBase propose une base de SKU à partir du nom du produit ("Tee-shirt Été" → "TEE-SHIRT-ETE")
func SuggestSkuBase(productName string) string {
	base := SanitizeSkuBase(slug.Make(productName))
	base = cutRunes(base, skuBaseMaxLength)
	return strings.TrimRight(base, "-")
}
