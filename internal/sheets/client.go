package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"cubedraft/internal/config"

	"github.com/valyala/fasthttp"
)

// RenderMode selects how the values API renders cells on read.
type RenderMode string

const (
	RenderFormatted   RenderMode = "FORMATTED_VALUE"
	RenderUnformatted RenderMode = "UNFORMATTED_VALUE"
)

// RowAPI is the narrow surface the repositories consume. Read returns the
// non-empty rows of the range; Append adds rows after the last row of the
// table; Overwrite replaces the cells of the range in place.
type RowAPI interface {
	Read(ctx context.Context, spreadsheetID, readRange string, mode RenderMode) ([][]string, error)
	Append(ctx context.Context, spreadsheetID, writeRange string, rows [][]string) error
	Overwrite(ctx context.Context, spreadsheetID, writeRange string, rows [][]string) error
}

// Client talks to the Google Sheets values API. It carries no retry policy of
// its own; wrap it with NewRetrying.
type Client struct {
	token  string
	client *fasthttp.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		token: cfg.SheetsToken,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

type valueRange struct {
	Values [][]json.RawMessage `json:"values"`
}

type writeBody struct {
	Values [][]string `json:"values"`
}

func (c *Client) Read(ctx context.Context, spreadsheetID, readRange string, mode RenderMode) ([][]string, error) {
	uri := fmt.Sprintf("https://sheets.googleapis.com/v4/spreadsheets/%s/values/%s?valueRenderOption=%s",
		spreadsheetID, url.PathEscape(readRange), mode)

	body, err := c.do(ctx, fasthttp.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}

	var vr valueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("decoding values response: %w", err)
	}

	rows := make([][]string, 0, len(vr.Values))
	for _, raw := range vr.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			// Cells come back as strings under FORMATTED_VALUE but can be
			// bare numbers under other render modes.
			var s string
			if err := json.Unmarshal(cell, &s); err != nil {
				s = string(cell)
			}
			row[i] = s
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (c *Client) Append(ctx context.Context, spreadsheetID, writeRange string, rows [][]string) error {
	uri := fmt.Sprintf("https://sheets.googleapis.com/v4/spreadsheets/%s/values/%s:append?valueInputOption=RAW&insertDataOption=INSERT_ROWS",
		spreadsheetID, url.PathEscape(writeRange))

	payload, err := json.Marshal(writeBody{Values: rows})
	if err != nil {
		return fmt.Errorf("encoding append body: %w", err)
	}

	_, err = c.do(ctx, fasthttp.MethodPost, uri, payload)
	return err
}

func (c *Client) Overwrite(ctx context.Context, spreadsheetID, writeRange string, rows [][]string) error {
	uri := fmt.Sprintf("https://sheets.googleapis.com/v4/spreadsheets/%s/values/%s?valueInputOption=RAW",
		spreadsheetID, url.PathEscape(writeRange))

	payload, err := json.Marshal(writeBody{Values: rows})
	if err != nil {
		return fmt.Errorf("encoding overwrite body: %w", err)
	}

	_, err = c.do(ctx, fasthttp.MethodPut, uri, payload)
	return err
}

func (c *Client) do(ctx context.Context, method, uri string, payload []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.Do(req, resp)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransient, method, uri, err)
	}

	if err := classifyStatus(resp.StatusCode()); err != nil {
		return nil, fmt.Errorf("%w: %s returned %d", err, uri, resp.StatusCode())
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}
