package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"github.com/yuktifest/yukti-backend/internal/domain/registration"
)

const sheetName = "Registrations"

const (
	SoloFile  = "solo_registrations.xlsx"
	GroupFile = "group_registrations.xlsx"
)

var soloHeader = []string{
	"Event", "Name", "USN", "College", "Department", "Year", "Email",
	"Phone", "Transaction_ID", "Amount", "Payment_Method", "Unique_ID", "Date",
}

var groupHeader = []string{
	"Event", "Group_Name", "Member_Name", "Member_USN", "College", "Department",
	"Year", "Email", "Phone", "Transaction_ID", "Amount", "Payment_Method",
	"Unique_ID", "Date",
}

// Exporter appends accepted registrations to the solo/group workbooks.
// The store stays the source of truth; these files are hand-outs for
// the organizing desk.
type Exporter struct {
	dir string
	// the whole workbook is rewritten on save, so appends serialize
	mu sync.Mutex
}

func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// Append writes one row for a solo registration or one row per member
// for a group registration, creating the workbook with a frozen header
// row on first use.
func (e *Exporter) Append(ctx context.Context, reg registration.Registration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	if reg.IsGroup {
		rows := make([][]any, 0, len(reg.Members))

		for _, m := range reg.Members {
			rows = append(rows, groupRow(reg, m))
		}

		return e.appendRows(filepath.Join(e.dir, GroupFile), groupHeader, rows)
	}

	return e.appendRows(filepath.Join(e.dir, SoloFile), soloHeader, [][]any{soloRow(reg)})
}

func (e *Exporter) appendRows(path string, header []string, rows [][]any) error {
	f, nextRow, err := openWorkbook(path, header)

	if err != nil {
		return err
	}

	defer func() {
		_ = f.Close()
	}()

	for i, row := range rows {
		cell := "A" + strconv.Itoa(nextRow+i)

		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	return nil
}

// openWorkbook returns the workbook and the first free row index.
// A missing file gets the header row synthesized and frozen.
func openWorkbook(path string, header []string) (*excelize.File, int, error) {
	f, err := excelize.OpenFile(path)

	if err == nil {
		rows, rerr := f.GetRows(sheetName)

		if rerr != nil {
			_ = f.Close()
			return nil, 0, fmt.Errorf("read sheet: %w", rerr)
		}

		return f, len(rows) + 1, nil
	}

	if !os.IsNotExist(err) {
		return nil, 0, fmt.Errorf("open workbook: %w", err)
	}

	f = excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		_ = f.Close()
		return nil, 0, err
	}

	headerRow := make([]any, len(header))

	for i, h := range header {
		headerRow[i] = h
	}

	if err := f.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
		_ = f.Close()
		return nil, 0, err
	}

	err = f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}

	return f, 2, nil
}

func soloRow(reg registration.Registration) []any {
	return []any{
		reg.Event, reg.Name, reg.USN, reg.College, reg.Department, reg.Year,
		reg.Email, reg.Phone, reg.Payment.TransactionID, reg.Payment.Amount,
		reg.Payment.Method, reg.UniqueID, formatDate(reg.CreatedAt),
	}
}

func groupRow(reg registration.Registration, m registration.Member) []any {
	return []any{
		reg.Event, reg.Name, m.Name, m.USN, reg.College, reg.Department,
		reg.Year, reg.Email, reg.Phone, reg.Payment.TransactionID,
		reg.Payment.Amount, reg.Payment.Method, reg.UniqueID,
		formatDate(reg.CreatedAt),
	}
}

func formatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
