package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	"fintrack/internal/log"
	ports "fintrack/internal/sheets"
)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// Ensure interface conformance
var (
	_ ports.TransactionExporter = (*Client)(nil)
	_ ports.TransactionLister   = (*Client)(nil)
)

// New creates a Sheets client authenticated with service account
// credentials. Extra options are appended after the credentials, which lets
// callers point the client at another endpoint.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Transactions"
	}
	if logger == nil {
		logger = log.Discard()
	}

	clientOpts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	if creds != nil {
		clientOpts = append(clientOpts, goption.WithCredentialsJSON(creds))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

// credentials returns the service account JSON, or nil when none is
// configured and the caller supplies authentication through options.
func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, nil
	}
}

func (c *Client) column(col string) string {
	return fmt.Sprintf("%s!%s", c.sheetName, col)
}

// AppendTransaction adds tx as a new row. If a row with the same id already
// exists its reference is returned and nothing is written.
func (c *Client) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	ids, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.column("A:A")).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read ids from %s: %w", c.sheetName, err)
	}
	if idx := findRow(ids.Values, tx.ID); idx >= 0 {
		return fmt.Sprintf("%s!A%d:F%d", c.sheetName, idx+1, idx+1), nil
	}

	var rows [][]interface{}
	if len(ids.Values) == 0 {
		rows = append(rows, toRow(ports.Header))
	}
	rows = append(rows, toRow(ports.Row(tx)))

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.column("A:F"), &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", c.sheetName, err)
	}

	ref := c.column("A:F")
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.InfoContext(ctx, "Exported transaction",
		log.FieldOperation, log.OpExport,
		log.FieldTxID, tx.ID,
		log.FieldExportRef, ref)
	return ref, nil
}

// DeleteTransaction removes the row carrying id. ErrRowNotFound is returned
// when no such row exists.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	ids, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.column("A:A")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read ids from %s: %w", c.sheetName, err)
	}
	idx := findRow(ids.Values, id)
	if idx < 0 {
		return fmt.Errorf("%s: %w", id, ports.ErrRowNotFound)
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(idx),
					EndIndex:   int64(idx + 1),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in %s: %w", idx+1, c.sheetName, err)
	}

	c.logger.InfoContext(ctx, "Deleted exported transaction",
		log.FieldOperation, log.OpRemove,
		log.FieldTxID, id,
		"row", idx+1)
	return nil
}

// ListTransactions reads every exported row. Rows that do not parse are skipped.
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.column("A:F")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.sheetName, err)
	}
	txs, skipped := parseRows(resp.Values)
	if len(skipped) > 0 {
		c.logger.WarnContext(ctx, "Skipped unparseable rows", "rows", skipped)
	}
	return txs, nil
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}

func toRow(cols []string) []interface{} {
	out := make([]interface{}, len(cols))
	for i, v := range cols {
		out[i] = v
	}
	return out
}
