package sheetsclient

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/jakechorley/residency-scheduler/internal/config"
	"github.com/jakechorley/residency-scheduler/pkg/utils"
)

// spreadsheetAPI is the subset of the Sheets API used by the client
type spreadsheetAPI interface {
	sheetTitles(ctx context.Context, spreadsheetID string) ([]string, error)
	addSheet(ctx context.Context, spreadsheetID, title string) error
	clearValues(ctx context.Context, spreadsheetID, sheetRange string) error
	updateValues(ctx context.Context, spreadsheetID, sheetRange string, values [][]interface{}) error
}

type sheetsService struct {
	service *sheets.Service
}

func (s sheetsService) sheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	spreadsheet, err := s.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		titles = append(titles, sheet.Properties.Title)
	}
	return titles, nil
}

func (s sheetsService) addSheet(ctx context.Context, spreadsheetID, title string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}
	resp, err := s.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return err
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return fmt.Errorf("unexpected response from create sheet")
	}
	return nil
}

func (s sheetsService) clearValues(ctx context.Context, spreadsheetID, sheetRange string) error {
	_, err := s.service.Spreadsheets.Values.Clear(spreadsheetID, sheetRange, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (s sheetsService) updateValues(ctx context.Context, spreadsheetID, sheetRange string, values [][]interface{}) error {
	_, err := s.service.Spreadsheets.Values.Update(spreadsheetID, sheetRange, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// Client publishes schedule reports to Google Sheets
type Client struct {
	api spreadsheetAPI
}

// NewClient creates a Sheets client from an OAuth token holding the spreadsheets scope.
// The token is shared with the Gmail client.
func NewClient(ctx context.Context, oauthCfg *config.OAuthClientConfig, token *oauth2.Token) (*Client, error) {
	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithHTTPClient(oauthConfig.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{api: sheetsService{service: service}}, nil
}
