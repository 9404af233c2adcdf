package finance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"drivercommission/internal/logging"
	"drivercommission/internal/utils"
)

const (
	sheetSummary = "Сводка"
	sheetDays    = "По дням"
)

// ExportMonthlyReportExcel выгружает месячный отчёт в xlsx: лист сводки
// и лист с разбивкой по дням.
func (s *Service) ExportMonthlyReportExcel(ctx context.Context, year, month int) ([]byte, error) {
	report, err := s.GetMonthlyReport(ctx, year, month)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetSummary)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания листа: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	summary := [][]interface{}{
		{"Период", fmt.Sprintf("%04d-%02d", report.Year, report.Month)},
		{"Месяц", fmt.Sprintf("%s %d", utils.GetRussianMonthName(time.Month(report.Month)), report.Year)},
		{"Сумма заказов", report.Revenue.Orders},
		{"Оценка комиссии", report.Revenue.Commission},
		{"Выручка", report.Revenue.Total},
		{"Количество заказов", report.Revenue.OrderCount},
		{"Расходы", report.Expenses.Total},
		{"Прибыль", report.Profit},
	}
	categories := make([]string, 0, len(report.Expenses.ByCategory))
	for category := range report.Expenses.ByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		summary = append(summary, []interface{}{"Расходы: " + category, report.Expenses.ByCategory[category]})
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return nil, fmt.Errorf("ошибка записи сводки: %w", err)
		}
	}

	if _, err := f.NewSheet(sheetDays); err != nil {
		return nil, fmt.Errorf("ошибка создания листа: %w", err)
	}
	headers := []string{"Дата", "Заказов", "Сумма заказов", "Выручка", "Расходы", "Прибыль"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetDays, cell, header)
	}
	for i, day := range report.Days {
		row := []interface{}{day.Date, day.Revenue.OrderCount, day.Revenue.Orders, day.Revenue.Total, day.Expenses.Total, day.Profit}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetDays, cell, &row); err != nil {
			return nil, fmt.Errorf("ошибка записи строки отчёта: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		logging.Logger.Error("Ошибка формирования Excel отчёта", zap.Int("year", year), zap.Int("month", month), zap.Error(err))
		return nil, fmt.Errorf("ошибка формирования Excel: %w", err)
	}
	return buf.Bytes(), nil
}
