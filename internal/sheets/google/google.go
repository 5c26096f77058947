// Package google implements the ledger mirror writer on the Google
// Sheets API, authenticated with an OAuth client and stored token.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	ports "finboard/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
}

var _ ports.LedgerWriter = (*Client)(nil)

// Config carries the spreadsheet target and OAuth material. Client and
// token can come from files or inline JSON.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	OAuthClientFile string
	OAuthTokenFile  string
	OAuthClientJSON string
	OAuthTokenJSON  string
}

// NewFromEnv creates a ledger writer from environment variables:
// GOOGLE_SPREADSHEET_ID, GOOGLE_SHEET_NAME, and the OAuth pair
// GOOGLE_OAUTH_CLIENT_{FILE,JSON} + GOOGLE_OAUTH_TOKEN_{FILE,JSON}.
func NewFromEnv(ctx context.Context) (*Client, error) {
	return New(ctx, Config{
		SpreadsheetID:   strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID")),
		SheetName:       strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME")),
		OAuthClientFile: strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_FILE")),
		OAuthTokenFile:  strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_TOKEN_FILE")),
		OAuthClientJSON: strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_JSON")),
		OAuthTokenJSON:  strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_TOKEN_JSON")),
	})
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = "Ledger"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		ledgerSheet:   sheetName,
	}, nil
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	clientJSON, err := readMaterial(cfg.OAuthClientJSON, cfg.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("oauth client: %w", err)
	}
	tokenJSON, err := readMaterial(cfg.OAuthTokenJSON, cfg.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	if clientJSON == nil || tokenJSON == nil {
		return nil, errors.New("missing OAuth client or token (run oauth-init first)")
	}

	oauthCfg, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	baseCtx := context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	httpClient := oauthCfg.Client(baseCtx, &token)

	service, err := gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func readMaterial(inline, file string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		return data, nil
	}
	return nil, nil
}

// newHTTPClientWithPooling creates an HTTP client with connection
// pooling and keep-alive tuned for the Sheets API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		DisableKeepAlives: false,
		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// AppendEntries appends the batch below the last ledger row in one
// call. USER_ENTERED keeps dates and amounts typed in the sheet.
func (c *Client) AppendEntries(ctx context.Context, entries []ports.LedgerEntry) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if len(entries) == 0 {
		return nil
	}

	vr := &gsheet.ValueRange{Values: entriesToValues(entries)}
	rng := fmt.Sprintf("%s!A:F", c.ledgerSheet)

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append %d rows to sheet %s: %w", len(entries), c.ledgerSheet, err)
	}
	return nil
}

// entriesToValues lays a batch out in ledger column order: date,
// amount, details, purpose, category, account. A zero category renders
// blank rather than 0 so uncategorized rows are visibly uncategorized.
func entriesToValues(entries []ports.LedgerEntry) [][]any {
	values := make([][]any, len(entries))
	for i, e := range entries {
		var category any
		if e.Category != 0 {
			category = e.Category
		} else {
			category = ""
		}
		values[i] = []any{e.Date, e.Amount, e.Details, e.Purpose, category, e.Account}
	}
	return values
}
