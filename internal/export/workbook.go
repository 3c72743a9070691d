package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Leanito/Leadsrecptives/internal/models"
)

// ErrEmptySheetName is returned when no sheet name is given for the workbook.
var ErrEmptySheetName = errors.New("sheet name is empty")

// defaultSheet is the sheet every new excelize file starts with.
const defaultSheet = "Sheet1"

// WriteWorkbook writes the filtered leads to a single-sheet .xlsx workbook.
func WriteWorkbook(w io.Writer, sheet string, columns []string, leads []models.Lead, label Labeler) (err error) {
	if sheet == "" {
		return ErrEmptySheetName
	}

	f := excelize.NewFile()

	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close workbook: %w", closeErr)
		}
	}()

	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return fmt.Errorf("failed to name sheet %q: %w", sheet, err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	header, rows := DetailRows(columns, leads, label)

	if err := setRow(sw, 1, header); err != nil {
		return err
	}

	for i, row := range rows {
		if err := setRow(sw, i+2, row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}

func setRow(sw *excelize.StreamWriter, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}

	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}

	if err := sw.SetRow(cell, cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}

	return nil
}
