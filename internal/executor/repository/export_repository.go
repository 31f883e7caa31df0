package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/screening"
	"golang-stock-indicator/internal/snapshot"
	"golang-stock-indicator/pkg/utils"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"
)

const (
	latestSnapshotFile = "latest" + parquetExt

	sheetResults   = "Results"
	sheetPerfect   = "Perfect"
	sheetExcellent = "Excellent"
	sheetTop       = "AtLeast10"
	sheetAnalysis  = "ConditionAnalysis"

	topSatisfied = 10
)

// ExportRepository writes the run's file artifacts.
type ExportRepository interface {
	// WriteSnapshot writes rows to latest.parquet and snapshot_<asOf>.parquet and returns both paths.
	WriteSnapshot(ctx context.Context, rows []snapshot.Row, asOf string) ([]string, error)
	// WriteScreeningReport writes the screening workbook for date and returns its path.
	WriteScreeningReport(ctx context.Context, results []screening.Result, date string) (string, error)
}

// NewExportRepository writes snapshots under snapshotDir and reports under reportDir.
func NewExportRepository(snapshotDir, reportDir string) ExportRepository {
	return &exportRepository{snapshotDir: snapshotDir, reportDir: reportDir}
}

type exportRepository struct {
	snapshotDir string
	reportDir   string
}

func (r *exportRepository) WriteSnapshot(_ context.Context, rows []snapshot.Row, asOf string) ([]string, error) {
	records := make([]snapshotRecord, len(rows))
	for i, row := range rows {
		records[i] = snapshotRecord{
			Symbol: row.Symbol, Name: row.Name, IsIndex: row.IsIndex, Stale: row.Stale,
			Date: utils.FormatDate(row.Date), Close: row.Close, Volume: row.Volume, Amount: row.Amount,
			PctChange: row.PctChange,
		}
		records[i].setValues(row.IndicatorValues)
	}

	paths := []string{
		filepath.Join(r.snapshotDir, latestSnapshotFile),
		filepath.Join(r.snapshotDir, "snapshot_"+asOf+parquetExt),
	}
	for _, p := range paths {
		if err := writeParquetAtomic(p, records); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// ReadSnapshot loads a snapshot file written by WriteSnapshot.
func ReadSnapshot(path string) ([]snapshot.Row, error) {
	records, err := parquet.ReadFile[snapshotRecord](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	rows := make([]snapshot.Row, len(records))
	for i, rec := range records {
		d, err := utils.ParseDate(rec.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
		}
		rows[i] = snapshot.Row{
			IndicatorRow: entity.IndicatorRow{
				Symbol: rec.Symbol, Date: d, Close: rec.Close, Volume: rec.Volume, Amount: rec.Amount,
				PctChange: rec.PctChange, IndicatorValues: rec.values(),
			},
			Name: rec.Name, IsIndex: rec.IsIndex, Stale: rec.Stale,
		}
	}
	return rows, nil
}

func (r *exportRepository) WriteScreeningReport(_ context.Context, results []screening.Result, date string) (string, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName("Sheet1", sheetResults); err != nil {
		return "", fmt.Errorf("failed to create report workbook: %w", err)
	}
	sheets := []struct {
		name    string
		results []screening.Result
	}{
		{sheetResults, results},
		{sheetPerfect, screening.WithTier(results, screening.TierPerfect)},
		{sheetExcellent, screening.WithTier(results, screening.TierExcellent)},
		{sheetTop, screening.AtLeast(results, topSatisfied)},
	}
	for _, s := range sheets {
		if s.name != sheetResults {
			if _, err := wb.NewSheet(s.name); err != nil {
				return "", fmt.Errorf("failed to create sheet %s: %w", s.name, err)
			}
		}
		if err := writeResultSheet(wb, s.name, s.results); err != nil {
			return "", err
		}
	}

	if _, err := wb.NewSheet(sheetAnalysis); err != nil {
		return "", fmt.Errorf("failed to create sheet %s: %w", sheetAnalysis, err)
	}
	if err := writeAnalysisSheet(wb, results); err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.reportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", r.reportDir, err)
	}
	path := filepath.Join(r.reportDir, "canslim_"+date+".xlsx")
	if err := wb.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save report %s: %w", path, err)
	}
	return path, nil
}

func writeResultSheet(wb *excelize.File, sheet string, results []screening.Result) error {
	header := []interface{}{"Symbol", "Name", "Date", "Close", "RS Rating", "Market Cap (100M)", "Satisfied", "Tier"}
	for _, c := range screening.Conditions {
		header = append(header, c.Code)
	}
	if err := setRow(wb, sheet, 1, header); err != nil {
		return err
	}

	for i, res := range results {
		row := []interface{}{
			res.Symbol, res.Name, utils.FormatDate(res.Date), res.Close,
			cellValue(res.RSRating), cellValue(res.MarketCap), res.Satisfied, string(res.Tier),
		}
		for _, passed := range res.Passed {
			mark := ""
			if passed {
				mark = "Y"
			}
			row = append(row, mark)
		}
		if err := setRow(wb, sheet, i+2, row); err != nil {
			return err
		}
	}
	return wb.SetColWidth(sheet, "A", "H", 14)
}

func writeAnalysisSheet(wb *excelize.File, results []screening.Result) error {
	if err := setRow(wb, sheetAnalysis, 1, []interface{}{"Condition", "Description", "Satisfied", "Percent"}); err != nil {
		return err
	}
	for i, st := range screening.Analyze(results) {
		if err := setRow(wb, sheetAnalysis, i+2, []interface{}{st.Code, st.Name, st.Satisfied, st.Percent}); err != nil {
			return err
		}
	}
	return wb.SetColWidth(sheetAnalysis, "B", "B", 44)
}

func setRow(wb *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := wb.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// cellValue renders a nullable number as an empty cell.
func cellValue(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
