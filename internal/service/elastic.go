package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cedra_variant_editor/internal/models"
)

// ElasticSkuIndex indexe un document par combinaison pour la recherche de SKU
type ElasticSkuIndex struct {
	client *elasticsearch.Client
	index  string
	logger *zap.Logger
}

func NewElasticSkuIndex(client *elasticsearch.Client, index string, logger *zap.Logger) *ElasticSkuIndex {
	return &ElasticSkuIndex{client: client, index: index, logger: logger}
}

type skuDocument struct {
	SKU            string            `json:"sku"`
	ProductID      string            `json:"product_id"`
	CombinationID  string            `json:"combination_id"`
	Attributes     map[string]string `json:"attributes"`
	AttributesText string            `json:"attributes_text"`
	Price          float64           `json:"price"`
	Stock          int               `json:"stock"`
}

const skuIndexMapping = `{
  "mappings": {
    "properties": {
      "sku":             {"type": "keyword"},
      "product_id":      {"type": "keyword"},
      "combination_id":  {"type": "keyword"},
      "attributes":      {"type": "object", "enabled": false},
      "attributes_text": {"type": "text"},
      "price":           {"type": "double"},
      "stock":           {"type": "integer"}
    }
  }
}`

// EnsureIndex crée l'index avec son mapping s'il n'existe pas
func (x *ElasticSkuIndex) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{x.index}}.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("vérification index %s: %w", x.index, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{Index: x.index, Body: strings.NewReader(skuIndexMapping)}.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("création index %s: %w", x.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("création index %s: %s", x.index, res.String())
	}
	x.logger.Info("✅ Index Elasticsearch créé", zap.String("index", x.index))
	return nil
}

func attributesText(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+attrs[k])
	}
	return strings.Join(parts, " ")
}

// IndexVariants remplace les documents du produit par ses combinaisons actuelles
func (x *ElasticSkuIndex) IndexVariants(ctx context.Context, productID uuid.UUID, combinations []models.VariantCombination) error {
	ids := make([]string, 0, len(combinations))

	if len(combinations) > 0 {
		var body bytes.Buffer
		enc := json.NewEncoder(&body)
		for _, c := range combinations {
			ids = append(ids, c.ID)
			attrs := c.Attributes()
			meta := map[string]any{"index": map[string]any{"_index": x.index, "_id": c.ID}}
			doc := skuDocument{
				SKU:            c.SKU,
				ProductID:      productID.String(),
				CombinationID:  c.ID,
				Attributes:     attrs,
				AttributesText: attributesText(attrs),
				Price:          c.Price,
				Stock:          c.Stock,
			}
			if err := enc.Encode(meta); err != nil {
				return fmt.Errorf("encodage bulk: %w", err)
			}
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("encodage bulk: %w", err)
			}
		}

		res, err := esapi.BulkRequest{Index: x.index, Body: &body, Refresh: "true"}.Do(ctx, x.client)
		if err != nil {
			return fmt.Errorf("requête bulk: %w", err)
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("bulk refusé: %s", res.String())
		}

		var bulk struct {
			Errors bool `json:"errors"`
		}
		if err := json.NewDecoder(res.Body).Decode(&bulk); err != nil {
			return fmt.Errorf("décodage réponse bulk: %w", err)
		}
		if bulk.Errors {
			return fmt.Errorf("bulk partiellement en échec pour %s", productID)
		}
	}

	// supprime les combinaisons qui n'existent plus
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter":   []any{map[string]any{"term": map[string]any{"product_id": productID.String()}}},
				"must_not": []any{map[string]any{"ids": map[string]any{"values": ids}}},
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return fmt.Errorf("encodage requête: %w", err)
	}
	refresh := true
	res, err := esapi.DeleteByQueryRequest{Index: []string{x.index}, Body: &buf, Refresh: &refresh}.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("nettoyage index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("nettoyage index: %s", res.String())
	}

	x.logger.Info("✅ SKU indexés", zap.String("product_id", productID.String()), zap.Int("count", len(combinations)))
	return nil
}

// Search cherche par préfixe de SKU ou par valeur d'option
func (x *ElasticSkuIndex) Search(ctx context.Context, query string, limit int) ([]SkuHit, error) {
	q := map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"should": []any{
					map[string]any{"prefix": map[string]any{"sku": map[string]any{"value": strings.ToUpper(query), "boost": 2}}},
					map[string]any{"match": map[string]any{"attributes_text": query}},
				},
				"minimum_should_match": 1,
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("encodage requête: %w", err)
	}

	res, err := esapi.SearchRequest{Index: []string{x.index}, Body: &buf}.Do(ctx, x.client)
	if err != nil {
		return nil, fmt.Errorf("requête Elastic: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("recherche refusée: %s", res.String())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source skuDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("décodage JSON: %w", err)
	}

	hits := make([]SkuHit, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		hits = append(hits, SkuHit{
			SKU:           h.Source.SKU,
			ProductID:     h.Source.ProductID,
			CombinationID: h.Source.CombinationID,
			Attributes:    h.Source.Attributes,
			Price:         h.Source.Price,
			Stock:         h.Source.Stock,
		})
	}
	return hits, nil
}
