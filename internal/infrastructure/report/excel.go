package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
)

// WriteBatchReport renders a batch result as a spreadsheet for case staff:
// a summary sheet, one row per processed file with its extracted metadata,
// and one row per failure.
func WriteBatchReport(path string, result *domain.BatchResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, result); err != nil {
		return err
	}
	if err := writeFilesSheet(f, result); err != nil {
		return err
	}
	if err := writeErrorsSheet(f, result); err != nil {
		return err
	}

	// excelize creates a default sheet; the summary replaces it.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save batch report: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, result *domain.BatchResult) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	rows := [][]any{
		{"Total files", result.Summary.TotalFiles},
		{"Successfully processed", result.Summary.SuccessfullyProcessed},
		{"Failed", result.Summary.Failed},
		{"Vectors created", result.Summary.TotalVectorsCreated},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	return nil
}

func writeFilesSheet(f *excelize.File, result *domain.BatchResult) error {
	const sheet = "Files"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create files sheet: %w", err)
	}

	header := []any{"File", "Expert", "Document Type", "Date", "Case", "Key Findings", "Credentials"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write files header: %w", err)
	}

	row := 2
	for _, file := range result.ProcessedFiles {
		meta := result.ExtractedVariables[baseName(file)]
		values := []any{
			file,
			meta.ExpertName,
			string(meta.DocumentType),
			meta.DocumentDate,
			meta.CaseName,
			strings.Join(meta.KeyFindings, "; "),
			strings.Join(meta.ExpertCredentials, "; "),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write file row: %w", err)
		}
		row++
	}
	return nil
}

func writeErrorsSheet(f *excelize.File, result *domain.BatchResult) error {
	const sheet = "Errors"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create errors sheet: %w", err)
	}

	header := []any{"File", "Error"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write errors header: %w", err)
	}
	for i, fileErr := range result.Errors {
		values := []any{fileErr.File, fileErr.Error}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write error row: %w", err)
		}
	}
	return nil
}

func baseName(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
