// Package filemaker implementa el adaptador del inventario maestro sobre el
// FileMaker Data API: sesiones con token cacheado, búsquedas paginadas,
// creación de movimientos y ejecución del script de recálculo.
package filemaker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jhoicas/Inventario-sync/internal/application/ports"
	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
	"github.com/jhoicas/Inventario-sync/pkg/config"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
	"github.com/jhoicas/Inventario-sync/pkg/retry"
	"github.com/shopspring/decimal"
)

// Verificar en tiempo de compilación que Client implementa LedgerService.
var _ ports.LedgerService = (*Client)(nil)

// ── Constantes del Data API ───────────────────────────────────────────────────

const (
	layoutStock     = "StockInventario_dapi"
	layoutMovements = "MovimientoStock_dapi"
	scriptRecalc    = "ActualizarStock_dapi"

	fieldSKU            = "Conceptos Cobro_pk"
	fieldName           = "Nombre"
	fieldQuantity       = "Inventario"
	fieldPrice          = "Valor"
	fieldClassification = "Clasificación"

	fieldMovementSKU = "Concepto Cobro_fk"
	fieldMovementOut = "Inv_Cant_Salida"
	fieldMovementIn  = "Inv_Cant_Entrada"

	// Clasificación que marca un producto como publicable en la tienda.
	classificationWeb = "8"

	// Códigos de mensaje de FileMaker. Ojo: el "401" de FileMaker significa
	// "no hay registros", no tiene relación con el HTTP 401.
	fmCodeOK        = "0"
	fmCodeNoRecords = "401"

	// El Data API devuelve como máximo 100 registros por petición.
	findPageSize = 100

	maxResponseBytes = 4 * 1024 * 1024
)

// ── Estructuras del protocolo ─────────────────────────────────────────────────

type fmMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type fmRecord struct {
	FieldData map[string]any `json:"fieldData"`
	RecordID  string         `json:"recordId"`
	ModID     string         `json:"modId"`
}

type fmEnvelope struct {
	Response struct {
		Token       string     `json:"token"`
		ScriptError string     `json:"scriptError"`
		Data        []fmRecord `json:"data"`
		RecordID    string     `json:"recordId"`
	} `json:"response"`
	Messages []fmMessage `json:"messages"`
}

// code devuelve el código y texto del primer mensaje de la respuesta.
func (e *fmEnvelope) code() (string, string) {
	if len(e.Messages) == 0 {
		return "", "sin mensajes en la respuesta"
	}
	return e.Messages[0].Code, e.Messages[0].Message
}

type findPayload struct {
	Query  []map[string]string `json:"query"`
	Limit  string              `json:"limit,omitempty"`
	Offset string              `json:"offset,omitempty"`
}

// ── Cliente ───────────────────────────────────────────────────────────────────

// Client es el adaptador del FileMaker Data API.
type Client struct {
	baseURL    string
	database   string
	username   string
	password   string
	httpClient *http.Client
	retryPol   retry.Policy
	tokens     *TokenCache
	log        *logger.Logger
}

// NewClient construye el adaptador con su caché de tokens propia.
func NewClient(cfg config.FileMakerConfig, api config.APIConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:  cfg.BaseURL(),
		database: cfg.Database,
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: api.Timeout,
		},
		retryPol: retry.Policy{
			MaxAttempts: api.MaxRetries,
			BaseDelay:   api.RetryDelay,
			Exponential: true,
		},
		tokens: NewTokenCache(cfg.SessionTTL),
		log:    log.Componente("filemaker"),
	}
}

func (c *Client) databasePath() string {
	return "/fmi/data/v1/databases/" + url.PathEscape(c.database)
}

func (c *Client) layoutPath(layout string) string {
	return c.databasePath() + "/layouts/" + url.PathEscape(layout)
}

// ── Autenticación ─────────────────────────────────────────────────────────────

// Authenticate garantiza una sesión válida. Sin forceRefresh reutiliza el
// token en caché mientras no haya expirado; con forceRefresh abre siempre
// una sesión nueva.
func (c *Client) Authenticate(ctx context.Context, forceRefresh bool) (string, error) {
	if !forceRefresh {
		if cached := c.tokens.Get(); cached != "" {
			c.log.Debug().Msg("usando token de FileMaker en caché")
			return cached, nil
		}
	} else {
		c.tokens.Invalidate()
	}

	c.log.Info().Msg("autenticando contra FileMaker (sesión nueva)")

	var resp *http.Response
	err := c.retryPol.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.databasePath()+"/sessions", strings.NewReader("{}"))
		if err != nil {
			return err
		}
		req.SetBasicAuth(c.username, c.password)
		req.Header.Set("Content-Type", "application/json")

		r, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("filemaker: abrir sesión: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("filemaker: leer respuesta de sesión: %w", err)
	}

	var env fmEnvelope
	if resp.StatusCode != http.StatusOK {
		msg := string(raw)
		if jsonErr := json.Unmarshal(raw, &env); jsonErr == nil {
			_, msg = env.code()
		}
		return "", &domain.AuthenticationError{System: "filemaker", StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("filemaker: deserializar respuesta de sesión: %w", err)
	}
	if env.Response.Token == "" {
		return "", &domain.AuthenticationError{System: "filemaker", StatusCode: resp.StatusCode, Message: "respuesta sin token de sesión"}
	}

	c.tokens.Set(env.Response.Token)
	c.log.Info().Msg("autenticación con FileMaker exitosa (token cacheado)")
	return env.Response.Token, nil
}

// ── Petición autenticada (renovación automática ante HTTP 401) ────────────────

// fmRequest ejecuta una petición autenticada. Si el servidor responde HTTP 401
// (sesión expirada o revocada) invalida la caché, renueva la sesión y
// reintenta exactamente una vez. Todas las operaciones salvo /sessions pasan
// por aquí.
func (c *Client) fmRequest(ctx context.Context, op, method, path string, payload any) (*fmEnvelope, int, error) {
	return c.fmRequestWithReauth(ctx, op, method, path, payload, true)
}

func (c *Client) fmRequestWithReauth(ctx context.Context, op, method, path string, payload any, allowReauth bool) (*fmEnvelope, int, error) {
	token, err := c.Authenticate(ctx, false)
	if err != nil {
		return nil, 0, err
	}

	var bodyBytes []byte
	if payload != nil {
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("filemaker %s: serializar petición: %w", op, err)
		}
	}

	var resp *http.Response
	err = c.retryPol.Do(ctx, func() error {
		var body io.Reader
		if bodyBytes != nil {
			body = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		r, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("filemaker %s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("filemaker %s: leer respuesta: %w", op, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && allowReauth {
		c.log.Warn().Str("operacion", op).Msg("sesión de FileMaker expirada (HTTP 401), renovando")
		c.tokens.Invalidate()
		if _, err := c.Authenticate(ctx, true); err != nil {
			return nil, resp.StatusCode, err
		}
		return c.fmRequestWithReauth(ctx, op, method, path, payload, false)
	}

	var env fmEnvelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, resp.StatusCode, &domain.LedgerError{
				Op:      op,
				Code:    strconv.Itoa(resp.StatusCode),
				Message: "respuesta no interpretable del servidor",
			}
		}
	}

	if resp.StatusCode != http.StatusOK {
		code, msg := env.code()
		if code == "" {
			code = strconv.Itoa(resp.StatusCode)
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, resp.StatusCode, &domain.LedgerError{Op: op, Code: code, Message: msg}
	}

	return &env, resp.StatusCode, nil
}

// ── Operaciones del puerto ────────────────────────────────────────────────────

// ListEligibleProducts devuelve todos los productos con Clasificación = 8,
// paginando de a 100 registros (offsets 1-based del Data API).
func (c *Client) ListEligibleProducts(ctx context.Context) ([]entity.ProductRef, error) {
	c.log.Info().Msg("listando productos elegibles en FileMaker (paginado)")

	path := c.layoutPath(layoutStock) + "/_find"
	offset := 1
	var products []entity.ProductRef

	for {
		payload := findPayload{
			Query:  []map[string]string{{fieldClassification: classificationWeb}},
			Limit:  strconv.Itoa(findPageSize),
			Offset: strconv.Itoa(offset),
		}

		env, _, err := c.fmRequest(ctx, "find", http.MethodPost, path, payload)
		if err != nil {
			// Código FM 401 = "no hay registros": fin normal de la paginación.
			if noRecords(err) {
				break
			}
			return nil, err
		}

		code, msg := env.code()
		if code == fmCodeNoRecords {
			break
		}
		if code != fmCodeOK {
			return nil, &domain.LedgerError{Op: "find", Code: code, Message: msg}
		}

		records := env.Response.Data
		if len(records) == 0 {
			break
		}

		for _, rec := range records {
			products = append(products, entity.ProductRef{
				SKU:  fieldString(rec.FieldData[fieldSKU]),
				Name: fieldString(rec.FieldData[fieldName]),
			})
		}

		c.log.Info().
			Int("pagina", (offset-1)/findPageSize+1).
			Int("registros", len(records)).
			Int("acumulado", len(products)).
			Msg("página de productos recibida")

		if len(records) < findPageSize {
			break
		}
		offset += findPageSize
	}

	if len(products) == 0 {
		c.log.Warn().Msg("ningún producto con Clasificación=8 en FileMaker")
	}
	c.log.Info().Int("total", len(products)).Msg("productos elegibles listados")
	return products, nil
}

// GetStockRecord busca un producto por SKU con coincidencia exacta (==).
func (c *Client) GetStockRecord(ctx context.Context, sku string) (*entity.StockRecord, error) {
	c.log.Debug().Str("sku", sku).Msg("consultando existencias en FileMaker")

	path := c.layoutPath(layoutStock) + "/_find"
	payload := findPayload{
		Query: []map[string]string{{fieldSKU: "==" + sku}},
		Limit: "1",
	}

	env, _, err := c.fmRequest(ctx, "find", http.MethodPost, path, payload)
	if err != nil {
		if noRecords(err) {
			return nil, fmt.Errorf("sku %s: %w", sku, domain.ErrNotFound)
		}
		return nil, err
	}

	code, msg := env.code()
	if code == fmCodeNoRecords {
		return nil, fmt.Errorf("sku %s: %w", sku, domain.ErrNotFound)
	}
	if code != fmCodeOK {
		return nil, &domain.LedgerError{Op: "find", Code: code, Message: msg}
	}
	if len(env.Response.Data) == 0 {
		return nil, fmt.Errorf("sku %s: %w", sku, domain.ErrNotFound)
	}

	rec := env.Response.Data[0]
	fields := rec.FieldData

	price := decimal.Zero
	if raw := fieldString(fields[fieldPrice]); raw != "" {
		if parsed, err := decimal.NewFromString(raw); err == nil {
			price = parsed
		}
	}

	return &entity.StockRecord{
		SKU:            fieldString(fields[fieldSKU]),
		Name:           fieldString(fields[fieldName]),
		Quantity:       entity.NormalizeQuantity(fields[fieldQuantity]),
		Price:          price,
		Classification: fieldString(fields[fieldClassification]),
		RecordID:       rec.RecordID,
	}, nil
}

// GetQuantity devuelve la existencia normalizada de un SKU.
func (c *Client) GetQuantity(ctx context.Context, sku string) (int64, error) {
	rec, err := c.GetStockRecord(ctx, sku)
	if err != nil {
		return 0, err
	}
	return rec.Quantity, nil
}

// AppendMovement crea un registro de movimiento. El campo de enlace es
// numérico en FileMaker, por lo que el SKU debe ser convertible a entero.
func (c *Client) AppendMovement(ctx context.Context, movement entity.StockMovement) error {
	skuNum, err := strconv.ParseInt(strings.TrimSpace(movement.SKU), 10, 64)
	if err != nil {
		return fmt.Errorf("sku %q no es numérico: %w", movement.SKU, domain.ErrInvalidInput)
	}

	c.log.Info().
		Str("sku", movement.SKU).
		Int64("salida", movement.QuantityOut).
		Int64("entrada", movement.QuantityIn).
		Msg("creando movimiento de inventario")

	path := c.layoutPath(layoutMovements) + "/records"
	payload := map[string]map[string]any{
		"fieldData": {
			fieldMovementSKU: skuNum,
			fieldMovementOut: movement.QuantityOut,
			fieldMovementIn:  movement.QuantityIn,
		},
	}

	env, _, err := c.fmRequest(ctx, "create_record", http.MethodPost, path, payload)
	if err != nil {
		return err
	}

	if code, msg := env.code(); code != fmCodeOK {
		return &domain.LedgerError{Op: "create_record", Code: code, Message: msg}
	}

	c.log.Debug().Str("sku", movement.SKU).Msg("movimiento registrado")
	return nil
}

// Recalculate ejecuta el script de recálculo de existencias para un SKU.
// Un scriptError distinto de "0" es un fallo aunque el HTTP sea 200.
func (c *Client) Recalculate(ctx context.Context, sku string) error {
	c.log.Info().Str("sku", sku).Str("script", scriptRecalc).Msg("ejecutando script de recálculo")

	path := c.layoutPath(layoutMovements) + "/script/" + url.PathEscape(scriptRecalc) +
		"?script.param=" + url.QueryEscape(sku)

	env, _, err := c.fmRequest(ctx, "script", http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	if code, msg := env.code(); code != fmCodeOK {
		return &domain.LedgerError{Op: "script", Code: code, Message: msg}
	}
	if env.Response.ScriptError != "0" {
		return &domain.LedgerError{
			Op:      "script",
			Code:    env.Response.ScriptError,
			Message: fmt.Sprintf("script %s falló para SKU %s", scriptRecalc, sku),
		}
	}

	c.log.Debug().Str("sku", sku).Msg("recálculo completado")
	return nil
}

// Logout cierra la sesión activa e invalida la caché. Best-effort: un fallo
// aquí solo se registra, la sesión expirará sola a los 15 minutos.
func (c *Client) Logout(ctx context.Context) error {
	token := c.tokens.Get()
	if token == "" {
		return nil
	}

	c.log.Info().Msg("cerrando sesión de FileMaker")

	path := c.databasePath() + "/sessions/" + url.PathEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		c.tokens.Invalidate()
		return nil
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("logout de FileMaker falló (la sesión pudo haber expirado)")
	} else {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		resp.Body.Close()
		c.log.Info().Msg("sesión de FileMaker cerrada")
	}

	c.tokens.Invalidate()
	return nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// fieldString normaliza un valor de fieldData a string. Los campos numéricos
// de FileMaker llegan como float64 por JSON; los enteros se formatean sin
// parte decimal para que un SKU numérico no aparezca como "705.000000".
func fieldString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// noRecords reporta si el error es el código FM "no hay registros", que
// algunos servidores devuelven con HTTP 500 en lugar de 200.
func noRecords(err error) bool {
	var ledgerErr *domain.LedgerError
	return errors.As(err, &ledgerErr) && ledgerErr.Code == fmCodeNoRecords
}
