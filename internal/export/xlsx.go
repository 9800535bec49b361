// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package export writes the filtered event list as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/olegiv/cardwatch/internal/model"
)

// SheetName is the name of the single worksheet.
const SheetName = "이벤트"

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Headers are the worksheet column titles.
var Headers = []string{"카드사", "제목", "혜택", "조건", "기간", "위협도", "카테고리", "인사이트 요약", "URL"}

// FileName returns the download name for a workbook generated at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("경쟁사이벤트_%s.xlsx", now.Format(time.DateOnly))
}

// Row returns the worksheet cells for one event.
func Row(e model.Event) []string {
	return []string{
		e.Company,
		e.Title,
		e.BenefitValue,
		e.Conditions,
		e.Period,
		e.ThreatLevel,
		e.Category,
		e.ParsedInsights().Summary(),
		e.URL,
	}
}

// WriteXLSX writes events, in order, as a workbook to w.
func WriteXLSX(w io.Writer, events []model.Event) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(SheetName)
	if err != nil {
		return fmt.Errorf("adding sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range Headers {
		header.AddCell().SetString(h)
	}

	for _, e := range events {
		row := sheet.AddRow()
		for _, v := range Row(e) {
			row.AddCell().SetString(v)
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
