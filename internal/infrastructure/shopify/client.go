// Package shopify implementa el adaptador de la tienda sobre el Admin API
// GraphQL: consulta de inventario por SKU, escritura absoluta de cantidades
// y manejo del límite de peticiones.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/Inventario-sync/internal/application/ports"
	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
	"github.com/jhoicas/Inventario-sync/pkg/config"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
	"github.com/jhoicas/Inventario-sync/pkg/retry"
)

// Verificar en tiempo de compilación que Client implementa StorefrontService.
var _ ports.StorefrontService = (*Client)(nil)

const (
	gidLocationPrefix = "gid://shopify/Location/"
	gidOrderPrefix    = "gid://shopify/Order/"

	maxResponseBytes = 4 * 1024 * 1024
)

// ── Operaciones GraphQL ───────────────────────────────────────────────────────

const queryInventoryBySKU = `
query getInventoryBySKU($sku: String!) {
  productVariants(first: 1, query: $sku) {
    edges {
      node {
        id
        sku
        inventoryItem {
          id
          inventoryLevels(first: 5) {
            edges {
              node {
                location {
                  id
                }
                quantities(names: ["available"]) {
                  name
                  quantity
                }
              }
            }
          }
        }
      }
    }
  }
}`

const mutationSetQuantities = `
mutation inventorySetQuantities($input: InventorySetQuantitiesInput!) {
  inventorySetQuantities(input: $input) {
    userErrors {
      field
      message
    }
    inventoryAdjustmentGroup {
      id
    }
  }
}`

const queryOrder = `
query getOrder($id: ID!) {
  order(id: $id) {
    id
    name
    lineItems(first: 50) {
      edges {
        node {
          sku
          quantity
        }
      }
    }
  }
}`

// ── Estructuras del protocolo ─────────────────────────────────────────────────

type gqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type inventoryBySKUData struct {
	ProductVariants struct {
		Edges []struct {
			Node struct {
				ID            string `json:"id"`
				SKU           string `json:"sku"`
				InventoryItem struct {
					ID              string `json:"id"`
					InventoryLevels struct {
						Edges []struct {
							Node struct {
								Location struct {
									ID string `json:"id"`
								} `json:"location"`
								Quantities []struct {
									Name     string `json:"name"`
									Quantity int64  `json:"quantity"`
								} `json:"quantities"`
							} `json:"node"`
						} `json:"edges"`
					} `json:"inventoryLevels"`
				} `json:"inventoryItem"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"productVariants"`
}

type setQuantitiesData struct {
	InventorySetQuantities struct {
		UserErrors []struct {
			Field   []string `json:"field"`
			Message string   `json:"message"`
		} `json:"userErrors"`
		InventoryAdjustmentGroup *struct {
			ID string `json:"id"`
		} `json:"inventoryAdjustmentGroup"`
	} `json:"inventorySetQuantities"`
}

type orderData struct {
	Order *struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		LineItems struct {
			Edges []struct {
				Node struct {
					SKU      string `json:"sku"`
					Quantity int64  `json:"quantity"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"lineItems"`
	} `json:"order"`
}

// inventoryRef es la referencia SKU→variante que sí se puede cachear.
// Las cantidades nunca se cachean: siempre se leen frescas.
type inventoryRef struct {
	variantID       string
	inventoryItemID string
}

// ── Cliente ───────────────────────────────────────────────────────────────────

// Client es el adaptador del Shopify Admin GraphQL API.
type Client struct {
	baseURL        string
	accessToken    string
	apiVersion     string
	locationGID    string
	rateLimitDelay time.Duration
	httpClient     *http.Client
	retryPol       retry.Policy
	log            *logger.Logger

	mu       sync.Mutex
	refCache map[string]inventoryRef

	// pausa entre llamadas; inyectable en tests para no dormir de verdad
	sleep func(ctx context.Context, d time.Duration)
}

// NewClient construye el adaptador. LocationID acepta el número plano o el
// GID completo; internamente siempre se usa el GID.
func NewClient(cfg config.ShopifyConfig, api config.APIConfig, log *logger.Logger) *Client {
	locationGID := cfg.LocationID
	if !strings.HasPrefix(locationGID, gidLocationPrefix) {
		locationGID = gidLocationPrefix + locationGID
	}

	return &Client{
		baseURL:        cfg.BaseURL(),
		accessToken:    cfg.AccessToken,
		apiVersion:     cfg.APIVersion,
		locationGID:    locationGID,
		rateLimitDelay: cfg.RateLimitDelay,
		httpClient: &http.Client{
			Timeout: api.Timeout,
		},
		retryPol: retry.Policy{
			MaxAttempts: api.MaxRetries,
			BaseDelay:   api.RetryDelay,
			Exponential: true,
		},
		log:      log.Componente("shopify"),
		refCache: make(map[string]inventoryRef),
		sleep:    sleepWithContext,
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// ── Límite de peticiones ──────────────────────────────────────────────────────

// handleRateLimit inspecciona los headers de Shopify. Al acercarse al 90% del
// límite espera el doble de la pausa configurada; ante un HTTP 429 espera lo
// que indique Retry-After y devuelve RateLimitError.
func (c *Client) handleRateLimit(ctx context.Context, resp *http.Response) error {
	if header := resp.Header.Get("X-Shopify-Shop-Api-Call-Limit"); header != "" {
		if current, limit, ok := parseCallLimit(header); ok && limit > 0 && float64(current) >= float64(limit)*0.9 {
			c.log.Warn().
				Int("actual", current).
				Int("limite", limit).
				Msg("cerca del límite de peticiones de Shopify, esperando")
			c.sleep(ctx, 2*c.rateLimitDelay)
		}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 2 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		c.log.Warn().Dur("espera", retryAfter).Msg("Shopify limitó la petición (HTTP 429)")
		c.sleep(ctx, retryAfter)
		return &domain.RateLimitError{RetryAfter: retryAfter}
	}
	return nil
}

// parseCallLimit interpreta el header "actual/límite" (por ejemplo "32/40").
func parseCallLimit(header string) (current, limit int, ok bool) {
	parts := strings.SplitN(header, "/", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	current, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	limit, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return current, limit, true
}

// ── Helper GraphQL ────────────────────────────────────────────────────────────

// graphql ejecuta una operación y deserializa el objeto data en out.
// Tras cada llamada exitosa espera rateLimitDelay para marcar el ritmo.
func (c *Client) graphql(ctx context.Context, op, query string, variables map[string]any, out any) error {
	payload := map[string]any{"query": query}
	if len(variables) > 0 {
		payload["variables"] = variables
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("shopify %s: serializar petición: %w", op, err)
	}

	var resp *http.Response
	err = c.retryPol.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/admin/api/"+c.apiVersion+"/graphql.json", bytes.NewReader(bodyBytes))
		if err != nil {
			return err
		}
		req.Header.Set("X-Shopify-Access-Token", c.accessToken)
		req.Header.Set("Content-Type", "application/json")

		r, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return fmt.Errorf("shopify %s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("shopify %s: leer respuesta: %w", op, err)
	}

	if err := c.handleRateLimit(ctx, resp); err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return &domain.StorefrontError{Op: op, StatusCode: resp.StatusCode, Message: string(raw)}
	}

	var env gqlEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("shopify %s: deserializar respuesta: %w", op, err)
	}
	if len(env.Errors) > 0 {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			msgs = append(msgs, e.Message)
		}
		return &domain.StorefrontError{Op: op, Message: strings.Join(msgs, "; ")}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("shopify %s: deserializar data: %w", op, err)
		}
	}

	c.sleep(ctx, c.rateLimitDelay)
	return nil
}

// ── Operaciones del puerto ────────────────────────────────────────────────────

// GetInventoryBySKU resuelve la variante por SKU y devuelve la cantidad
// disponible en la ubicación configurada. Si la variante existe pero no tiene
// nivel en esa ubicación, la cantidad es 0.
func (c *Client) GetInventoryBySKU(ctx context.Context, sku string) (*entity.InventoryLevel, error) {
	var data inventoryBySKUData
	variables := map[string]any{"sku": "sku:" + sku}

	if err := c.graphql(ctx, "getInventoryBySKU", queryInventoryBySKU, variables, &data); err != nil {
		return nil, err
	}

	edges := data.ProductVariants.Edges
	if len(edges) == 0 {
		c.log.Warn().Str("sku", sku).Msg("SKU no encontrado en Shopify")
		return nil, fmt.Errorf("sku %s: %w", sku, domain.ErrNotFound)
	}

	variant := edges[0].Node
	item := variant.InventoryItem

	var available int64
	for _, level := range item.InventoryLevels.Edges {
		if level.Node.Location.ID != c.locationGID {
			continue
		}
		for _, q := range level.Node.Quantities {
			if q.Name == "available" {
				available = q.Quantity
				break
			}
		}
		break
	}

	c.cacheRef(sku, inventoryRef{variantID: variant.ID, inventoryItemID: item.ID})

	return &entity.InventoryLevel{
		SKU:             sku,
		VariantID:       variant.ID,
		InventoryItemID: item.ID,
		LocationID:      c.locationGID,
		Available:       available,
	}, nil
}

// SetQuantity fija la cantidad disponible de un SKU (escritura absoluta con
// razón "correction"). Resuelve el inventoryItemId desde la caché de
// referencias o, si no está, con una consulta previa.
func (c *Client) SetQuantity(ctx context.Context, sku string, quantity int64) error {
	ref, ok := c.cachedRef(sku)
	if !ok {
		level, err := c.GetInventoryBySKU(ctx, sku)
		if err != nil {
			return err
		}
		ref = inventoryRef{variantID: level.VariantID, inventoryItemID: level.InventoryItemID}
	}
	if ref.inventoryItemID == "" {
		return &domain.StorefrontError{Op: "inventorySetQuantities", Message: fmt.Sprintf("la variante del SKU %s no tiene inventory item", sku)}
	}

	variables := map[string]any{
		"input": map[string]any{
			"reason": "correction",
			"name":   "available",
			"quantities": []map[string]any{
				{
					"inventoryItemId": ref.inventoryItemID,
					"locationId":      c.locationGID,
					"quantity":        quantity,
				},
			},
		},
	}

	var data setQuantitiesData
	if err := c.graphql(ctx, "inventorySetQuantities", mutationSetQuantities, variables, &data); err != nil {
		return err
	}

	if userErrors := data.InventorySetQuantities.UserErrors; len(userErrors) > 0 {
		msgs := make([]string, 0, len(userErrors))
		var fields []string
		for _, ue := range userErrors {
			msgs = append(msgs, ue.Message)
			if len(ue.Field) > 0 {
				fields = append(fields, strings.Join(ue.Field, "."))
			}
		}
		return &domain.StorefrontError{
			Op:      "inventorySetQuantities",
			Message: fmt.Sprintf("Shopify rechazó la actualización de %s: %s", sku, strings.Join(msgs, "; ")),
			Fields:  fields,
		}
	}

	c.log.Info().Str("sku", sku).Int64("cantidad", quantity).Msg("inventario actualizado en Shopify")
	return nil
}

// BulkSet aplica cada actualización de forma aislada: los fallos se acumulan
// y los demás ítems se siguen procesando.
func (c *Client) BulkSet(ctx context.Context, updates []ports.QuantityUpdate) ports.BulkSetOutcome {
	var outcome ports.BulkSetOutcome

	for _, update := range updates {
		if err := c.SetQuantity(ctx, update.SKU, update.Quantity); err != nil {
			outcome.ErrorCount++
			outcome.Errors = append(outcome.Errors, entity.SyncError{SKU: update.SKU, Message: err.Error()})
			c.log.Error().Str("sku", update.SKU).Err(err).Msg("fallo al actualizar inventario")
			continue
		}
		outcome.SuccessCount++
	}

	return outcome
}

// GetOrder recupera un pedido por su ID numérico (se convierte al GID).
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*entity.Order, error) {
	var data orderData
	variables := map[string]any{"id": fmt.Sprintf("%s%d", gidOrderPrefix, orderID)}

	if err := c.graphql(ctx, "getOrder", queryOrder, variables, &data); err != nil {
		return nil, err
	}
	if data.Order == nil {
		return nil, fmt.Errorf("pedido %d: %w", orderID, domain.ErrNotFound)
	}

	order := &entity.Order{
		ID:   orderID,
		Name: data.Order.Name,
	}
	for _, edge := range data.Order.LineItems.Edges {
		order.LineItems = append(order.LineItems, entity.LineItem{
			SKU:      edge.Node.SKU,
			Quantity: edge.Node.Quantity,
		})
	}
	return order, nil
}

// InvalidateCache descarta todas las referencias SKU→variante.
func (c *Client) InvalidateCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refCache = make(map[string]inventoryRef)
}

func (c *Client) cacheRef(sku string, ref inventoryRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refCache[sku] = ref
}

func (c *Client) cachedRef(sku string) (inventoryRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ref, ok := c.refCache[sku]
	return ref, ok
}
