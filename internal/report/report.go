// Package report renders a student's grade summary as an XLSX workbook,
// ready to download from the HTTP API.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/edubot-ec/edubot/internal/academic"
	"github.com/edubot-ec/edubot/internal/advisor"
)

const sheetName = "Calificaciones"

var headers = []string{"Materia", "Aula", "Paralelo", "Calificación", "Valoración"}

// WriteGrades writes one row per enrollment plus an average footer to w.
// Ungraded subjects show a dash instead of a number so the sheet stays
// honest about what has actually been published.
func WriteGrades(w io.Writer, studentID string, enrollments []academic.Enrollment) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	setCell := func(col, row int, value any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheetName, cell, value)
	}

	if err := setCell(1, 1, fmt.Sprintf("Reporte de calificaciones (estudiante %s)", studentID)); err != nil {
		return fmt.Errorf("write title: %w", err)
	}
	for col, header := range headers {
		if err := setCell(col+1, 2, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := f.SetCellStyle(sheetName, "A1", "E2", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	row := 3
	for _, e := range enrollments {
		grade := "—"
		band := "Sin calificación"
		if e.Graded() {
			grade = fmt.Sprintf("%.2f", *e.Grade)
			band = advisor.BandOf(*e.Grade).Label()
		}
		for col, value := range []any{e.SubjectName, e.Classroom, e.SectionNumber, grade, band} {
			if err := setCell(col+1, row, value); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
		row++
	}

	if avg, ok := advisor.Average(enrollments); ok {
		if err := setCell(1, row, "Promedio"); err != nil {
			return fmt.Errorf("write footer: %w", err)
		}
		if err := setCell(4, row, fmt.Sprintf("%.2f", avg)); err != nil {
			return fmt.Errorf("write footer: %w", err)
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		end, _ := excelize.CoordinatesToCellName(5, row)
		if err := f.SetCellStyle(sheetName, start, end, bold); err != nil {
			return fmt.Errorf("style footer: %w", err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 36); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(sheetName, "B", "E", 16); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
