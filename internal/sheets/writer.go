package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ledgerline/lockbox-lens/internal/common"
	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/ledgerline/lockbox-lens/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer exports reconciliation reports to a Google spreadsheet.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	svc, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: svc,
		logger:  logger,
	}, nil
}

// Write exports every file's payment tree plus the aggregate summary.
func (w *Writer) Write(ctx context.Context, files []model.File, summary *service.ReportSummary) error {
	w.logger.Info("starting report export",
		"files", len(files),
		"payments", summary.PaymentCount)

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := w.clearSheet(ctx, spreadsheetID); clearErr != nil {
		return fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values := w.prepareReportData(files, summary)

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	err = common.WithRetry(ctx, func() error {
		return w.writeData(ctx, spreadsheetID, values)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID)
		}, retryOpts)
		if err != nil {
			// Formatting is cosmetic; the data is already exported.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("report export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = oauthConfig.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet gets an existing spreadsheet or creates a new one.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		_, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{
					Title: "Reconciliation",
				},
			},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, nil
}

// clearSheet clears all data from the sheet.
func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, "A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// prepareReportData flattens the file trees into spreadsheet rows.
func (w *Writer) prepareReportData(files []model.File, summary *service.ReportSummary) [][]any {
	postable := "No"
	if summary.Postable {
		postable = "Yes"
	}

	values := [][]any{
		{"Lockbox Reconciliation", summary.GeneratedAt.Format("Jan 2, 2006 15:04")},
		{},
		{"Summary"},
		{"Total Amount", summary.TotalAmount.StringFixed(2)},
		{"Files", summary.FileCount},
		{"Payments", summary.PaymentCount},
		{"Reconciled", summary.Reconciled},
		{"Needs Review", summary.NeedsReview},
		{"Postable", postable},
		{},
		{"Payments"},
		{"File", "Payment Date", "Counterparty", "Reference", "Amount", "Status", "Invoice", "Allocated"},
	}

	for i := range files {
		file := &files[i]
		for j := range file.Payments {
			p := &file.Payments[j]
			if len(p.Invoices) == 0 {
				values = append(values, []any{
					file.Name,
					p.Date.Format("2006-01-02"),
					p.Counterparty,
					p.Reference,
					p.Amount.StringFixed(2),
					string(p.Status),
					"",
					"",
				})
				continue
			}
			for k := range p.Invoices {
				inv := &p.Invoices[k]
				values = append(values, []any{
					file.Name,
					p.Date.Format("2006-01-02"),
					p.Counterparty,
					p.Reference,
					p.Amount.StringFixed(2),
					string(p.Status),
					inv.Number,
					inv.ProposedAmount.StringFixed(2),
				})
			}
			if remainder := p.UnallocatedAmount(); remainder.IsPositive() {
				values = append(values, []any{
					file.Name,
					p.Date.Format("2006-01-02"),
					p.Counterparty,
					p.Reference,
					p.Amount.StringFixed(2),
					string(p.Status),
					"UNALLOCATED",
					remainder.StringFixed(2),
				})
			}
		}
	}

	return values
}

// writeData writes the values starting at A1.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	valueRange := &sheets.ValueRange{Values: values}
	_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, "A1", valueRange).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

// applyFormatting bolds the title and the payment table header.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string) error {
	bold := &sheets.CellFormat{TextFormat: &sheets.TextFormat{Bold: true}}
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range:  &sheets.GridRange{StartRowIndex: 0, EndRowIndex: 1},
				Cell:   &sheets.CellData{UserEnteredFormat: bold},
				Fields: "userEnteredFormat.textFormat.bold",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range:  &sheets.GridRange{StartRowIndex: 11, EndRowIndex: 12},
				Cell:   &sheets.CellData{UserEnteredFormat: bold},
				Fields: "userEnteredFormat.textFormat.bold",
			},
		},
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}
