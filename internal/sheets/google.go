package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Credentials identify the service account and spreadsheet to use.
type Credentials struct {
	ServiceAccountJSON []byte
	SpreadsheetID      string
}

// LoadCredentials reads the service account JSON from json if set, otherwise from path.
func LoadCredentials(json, path, spreadsheetID string) (Credentials, error) {
	creds := Credentials{SpreadsheetID: spreadsheetID}
	switch {
	case json != "":
		creds.ServiceAccountJSON = []byte(json)
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to read service account file: %w", err)
		}
		creds.ServiceAccountJSON = data
	default:
		return Credentials{}, fmt.Errorf("service account credentials are required")
	}
	if spreadsheetID == "" {
		return Credentials{}, fmt.Errorf("spreadsheet id is required")
	}
	return creds, nil
}

// New connects to the Sheets API. The returned backend holds one client for the
// life of the process.
func New(ctx context.Context, creds Credentials) (*Backend, error) {
	svc, err := gsheets.NewService(ctx,
		option.WithCredentialsJSON(creds.ServiceAccountJSON),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return newBackend(&googleClient{svc: svc, spreadsheetID: creds.SpreadsheetID}), nil
}

type googleClient struct {
	svc           *gsheets.Service
	spreadsheetID string
}

// a1Range quotes a worksheet title for use in A1 notation.
func a1Range(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!A:E"
}

func (g *googleClient) SheetID(ctx context.Context, title string) (int64, bool, error) {
	ss, err := g.svc.Spreadsheets.Get(g.spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return 0, false, err
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh.Properties.SheetId, true, nil
		}
	}
	return 0, false, nil
}

func (g *googleClient) AddSheet(ctx context.Context, title string) (int64, error) {
	resp, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{
					Title: title,
					GridProperties: &gsheets.GridProperties{
						RowCount:    1000,
						ColumnCount: int64(len(Header)),
					},
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("add sheet reply is empty")
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

func (g *googleClient) Values(ctx context.Context, title string) ([][]string, error) {
	vr, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, a1Range(title)).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(vr.Values))
	for _, raw := range vr.Values {
		row := make([]string, len(raw))
		for i, v := range raw {
			row[i] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (g *googleClient) AppendRows(ctx context.Context, title string, rows [][]string) error {
	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		r := make([]interface{}, len(row))
		for i, v := range row {
			r[i] = v
		}
		values = append(values, r)
	}
	_, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, a1Range(title), &gsheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (g *googleClient) DeleteRow(ctx context.Context, sheetID int64, row int) error {
	_, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			DeleteDimension: &gsheets.DeleteDimensionRequest{
				Range: &gsheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row),
					EndIndex:   int64(row + 1),
				},
			},
		}},
	}).Context(ctx).Do()
	return err
}

func (g *googleClient) DeleteSheet(ctx context.Context, sheetID int64) error {
	_, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			DeleteSheet: &gsheets.DeleteSheetRequest{SheetId: sheetID},
		}},
	}).Context(ctx).Do()
	return err
}
