package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Tier is the credential tier a RESTStore authenticates with.
type Tier string

const (
	// TierService uses the service-role key and bypasses row level security.
	TierService Tier = "service"
	// TierAnon uses the public anon key, like the storefront.
	TierAnon Tier = "anon"
)

type RESTOpts struct {
	BaseURL  string // project URL, e.g. https://xyz.supabase.co
	Key      string
	Tier     Tier
	PageSize int // rows per request for unlimited selects, default 1000
}

// RESTStore implements Store on top of a PostgREST endpoint.
type RESTStore struct {
	httpClient *resty.Client
	baseURL    string
	tier       Tier
	pageSize   int
}

func NewRESTStore(opts RESTOpts) *RESTStore {
	s := RESTStore{
		baseURL:  strings.TrimRight(opts.BaseURL, "/") + "/rest/v1",
		tier:     opts.Tier,
		pageSize: opts.PageSize,
	}
	if s.pageSize <= 0 {
		s.pageSize = 1000
	}
	s.httpClient = resty.New().
		SetDebug(false).
		SetBaseURL(s.baseURL).
		SetHeaders(
			map[string]string{
				"Accept":        "application/json",
				"apikey":        opts.Key,
				"Authorization": "Bearer " + opts.Key,
			},
		)

	return &s
}

// NewServiceStore returns a store using the elevated service-role key.
func NewServiceStore(baseURL, key string) *RESTStore {
	return NewRESTStore(RESTOpts{BaseURL: baseURL, Key: key, Tier: TierService})
}

// NewAnonStore returns a store subject to row level security.
func NewAnonStore(baseURL, key string) *RESTStore {
	return NewRESTStore(RESTOpts{BaseURL: baseURL, Key: key, Tier: TierAnon})
}

// Tier returns the credential tier of the store.
func (s *RESTStore) Tier() Tier {
	return s.tier
}

func (s *RESTStore) req(ctx context.Context) *resty.Request {
	return s.httpClient.NewRequest().SetContext(ctx)
}

func (s *RESTStore) Select(ctx context.Context, table string, dest any, q Query) error {
	if err := checkQuery(table, q); err != nil {
		return err
	}

	params := filterParams(q.Filters)
	if len(q.Columns) > 0 {
		params.Set("select", strings.Join(q.Columns, ","))
	} else {
		params.Set("select", "*")
	}
	order := orderParam(q.Order, false)
	if order != "" {
		params.Set("order", order)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
		body, err := s.get(ctx, table, params)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("failed to decode %s rows: %w", table, err)
		}
		return nil
	}

	// Without a limit, read every page; PostgREST caps a single response.
	// Offsets are only stable over a unique order, so id breaks ties.
	params.Set("order", orderParam(q.Order, true))
	var all []json.RawMessage
	for offset := 0; ; offset += s.pageSize {
		params.Set("limit", strconv.Itoa(s.pageSize))
		params.Set("offset", strconv.Itoa(offset))
		body, err := s.get(ctx, table, params)
		if err != nil {
			return err
		}
		var page []json.RawMessage
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("failed to decode %s rows: %w", table, err)
		}
		all = append(all, page...)
		if len(page) < s.pageSize {
			break
		}
	}

	data, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("failed to encode %s rows: %w", table, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode %s rows: %w", table, err)
	}
	return nil
}

func orderParam(order []Order, unique bool) string {
	var parts []string
	hasID := false
	for _, o := range order {
		dir := "asc"
		if o.Desc {
			dir = "desc"
		}
		parts = append(parts, o.Column+"."+dir)
		hasID = hasID || o.Column == "id"
	}
	if unique && !hasID {
		parts = append(parts, "id.asc")
	}
	return strings.Join(parts, ",")
}

func (s *RESTStore) get(ctx context.Context, table string, params url.Values) ([]byte, error) {
	res, err := handleError(s.req(ctx).
		SetQueryParamsFromValues(params).
		Get("/" + table))
	if err != nil {
		return nil, err
	}
	return res.Body(), nil
}

func (s *RESTStore) Count(ctx context.Context, table string, filters ...Filter) (int, error) {
	if err := checkQuery(table, Query{Filters: filters}); err != nil {
		return 0, err
	}

	params := filterParams(filters)
	params.Set("select", "*")

	res, err := handleError(s.req(ctx).
		SetHeader("Prefer", "count=exact").
		SetQueryParamsFromValues(params).
		Head("/" + table))
	if err != nil {
		return 0, err
	}

	return parseContentRange(res.Header().Get("Content-Range"))
}

func (s *RESTStore) Insert(ctx context.Context, table string, rows any) error {
	if err := checkIdent("table", table); err != nil {
		return err
	}

	_, err := handleError(s.req(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=minimal").
		SetBody(rows).
		Post("/" + table))
	return err
}

func (s *RESTStore) Update(ctx context.Context, table string, patch map[string]any, filters ...Filter) error {
	if len(filters) == 0 {
		return ErrNoFilter
	}
	if err := checkQuery(table, Query{Filters: filters}); err != nil {
		return err
	}

	_, err := handleError(s.req(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=minimal").
		SetQueryParamsFromValues(filterParams(filters)).
		SetBody(patch).
		Patch("/" + table))
	return err
}

func (s *RESTStore) Delete(ctx context.Context, table string, filters ...Filter) error {
	if len(filters) == 0 {
		return ErrNoFilter
	}
	if err := checkQuery(table, Query{Filters: filters}); err != nil {
		return err
	}

	_, err := handleError(s.req(ctx).
		SetQueryParamsFromValues(filterParams(filters)).
		Delete("/" + table))
	return err
}

// filterParams renders filters in PostgREST's column=op.value form.
func filterParams(filters []Filter) url.Values {
	params := url.Values{}
	for _, f := range filters {
		var value string
		if f.Op == OpIs {
			value = "is.null"
		} else {
			value = string(f.Op) + "." + formatValue(f.Value)
		}
		params.Add(f.Column, value)
	}
	return params
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case *string:
		if t == nil {
			return "null"
		}
		return *t
	default:
		return fmt.Sprint(t)
	}
}

// parseContentRange extracts the total from "0-24/3573" or "*/0".
func parseContentRange(header string) (int, error) {
	i := strings.LastIndex(header, "/")
	if i == -1 {
		return 0, fmt.Errorf("missing count in Content-Range %q", header)
	}
	total := header[i+1:]
	if total == "*" {
		return 0, fmt.Errorf("server did not return an exact count")
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("invalid Content-Range %q: %w", header, err)
	}
	return n, nil
}

// handleError turns failing responses (>399 status code) into errors.
// Without this, failing responses would have nil error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		body := strings.TrimSpace(string(res.Body()))
		if len(body) > 300 {
			body = body[:300] + "..."
		}
		return res, fmt.Errorf("request failed: %s %s (status: %d) %s", res.Request.Method, res.Request.URL, res.StatusCode(), body)
	}
	return res, nil
}
