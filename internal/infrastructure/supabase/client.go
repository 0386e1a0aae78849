// Package supabase implementa los puertos de persistencia del dominio contra
// la API de tablas REST de Supabase (PostgREST). Es el backend alternativo a
// PostgreSQL directo: mismas entidades, sin SQL local.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jhoicas/Almacen-api/pkg/config"
)

// Client es el cliente HTTP hacia la API de tablas (PostgREST).
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient construye el cliente con la configuración de Supabase.
func NewClient(cfg config.SupabaseConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/") + "/rest/v1",
		apiKey:  cfg.ServiceKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// apiError error devuelto por PostgREST.
type apiError struct {
	Status  int
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("supabase: HTTP %d %s (%s)", e.Status, e.Message, e.Code)
}

// isUniqueViolation verifica si el error de la API corresponde al código
// PostgreSQL 23505 (unique_violation).
func isUniqueViolation(err error) bool {
	var apiErr *apiError
	if ok := asAPIError(err, &apiErr); ok {
		return apiErr.Code == "23505"
	}
	return false
}

func asAPIError(err error, target **apiError) bool {
	for err != nil {
		if e, ok := err.(*apiError); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// do ejecuta una petición contra /rest/v1/<table>?<query> y decodifica la
// respuesta JSON en out (si out != nil). body se serializa como JSON.
func (c *Client) do(ctx context.Context, method, table string, query url.Values, body, out any) error {
	endpoint := c.baseURL + "/" + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, table, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.Unmarshal(raw, apiErr)
		return apiErr
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// selectRows hace GET sobre la tabla y decodifica las filas en out.
func (c *Client) selectRows(ctx context.Context, table string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, table, query, nil, out)
}

// insertRow hace POST con una fila y devuelve la representación persistida.
func (c *Client) insertRow(ctx context.Context, table string, row, out any) error {
	return c.do(ctx, http.MethodPost, table, nil, row, out)
}

// updateRows hace PATCH sobre las filas que matchean el filtro.
func (c *Client) updateRows(ctx context.Context, table string, query url.Values, patch any) error {
	return c.do(ctx, http.MethodPatch, table, query, patch, nil)
}

// deleteRows hace DELETE sobre las filas que matchean el filtro.
func (c *Client) deleteRows(ctx context.Context, table string, query url.Values) error {
	return c.do(ctx, http.MethodDelete, table, query, nil, nil)
}

// eq construye el filtro de igualdad de PostgREST (col=eq.valor).
func eq(q url.Values, col, val string) url.Values {
	if q == nil {
		q = url.Values{}
	}
	q.Set(col, "eq."+val)
	return q
}
