package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"storefront/internal/models"
	"storefront/internal/repository"
)

const (
	monthLayout = "2006-01"

	// Ventana del resumen cuando no se indican fechas
	defaultSummaryDays = 30
)

type SalesService struct {
	sales    SaleStore
	products ProductStore
	now      func() time.Time
	log      *logrus.Logger
}

func NewSalesService(sales SaleStore, products ProductStore, logger *logrus.Logger) *SalesService {
	return &SalesService{
		sales:    sales,
		products: products,
		now:      time.Now,
		log:      logger,
	}
}

// Record registra una venta con el precio del producto en ese momento
func (s *SalesService) Record(ctx context.Context, rawUserID, rawProductID string, quantity int) (*models.Sale, error) {
	userID, err := parseID("user_id", rawUserID)
	if err != nil {
		return nil, err
	}
	productID, err := parseID("product_id", rawProductID)
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, invalid("quantity", "quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("product")
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	sale := &models.Sale{
		ProductID:   product.ID,
		ProductName: product.Name,
		UserID:      userID,
		Quantity:    quantity,
		UnitPrice:   product.Price,
		Total:       product.Price * float64(quantity),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.sales.Create(ctx, sale); err != nil {
		s.log.Errorf("Sales: failed to record sale of %s: %v", rawProductID, err)
		return nil, fmt.Errorf("record sale: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"sale_id":  sale.ID.Hex(),
		"product":  rawProductID,
		"quantity": quantity,
		"total":    sale.Total,
	}).Info("Sales: sale recorded")
	return sale, nil
}

// Monthly devuelve los doce meses del año, con cero en los meses sin ventas
func (s *SalesService) Monthly(ctx context.Context, year int) ([]models.MonthlyTotal, error) {
	from, to, err := yearBounds(year)
	if err != nil {
		return nil, err
	}

	totals, err := s.sales.MonthlyTotals(ctx, from, to)
	if err != nil {
		s.log.Errorf("Sales: monthly totals for %d failed: %v", year, err)
		return nil, fmt.Errorf("monthly totals: %w", err)
	}

	byMonth := make(map[string]float64, len(totals))
	for _, t := range totals {
		byMonth[t.Month] = t.Total
	}

	months := make([]models.MonthlyTotal, 0, 12)
	for m := time.January; m <= time.December; m++ {
		key := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC).Format(monthLayout)
		months = append(months, models.MonthlyTotal{Month: key, Total: byMonth[key]})
	}
	return months, nil
}

// Range devuelve el total de cada día con ventas entre start y end, ambos incluidos
func (s *SalesService) Range(ctx context.Context, start, end string) ([]models.DailyTotal, error) {
	from, to, err := dateBounds(start, end)
	if err != nil {
		return nil, err
	}

	totals, err := s.sales.DailyTotals(ctx, from, to)
	if err != nil {
		s.log.Errorf("Sales: daily totals %s..%s failed: %v", start, end, err)
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	return totals, nil
}

// Summary calcula cantidad, ingresos, media, mediana y máximo de las ventas
// del rango. Sin fechas usa los últimos 30 días.
func (s *SalesService) Summary(ctx context.Context, start, end string) (*models.SalesSummary, error) {
	if start == "" && end == "" {
		today := s.now().UTC()
		end = today.Format(models.DateLayout)
		start = today.AddDate(0, 0, -(defaultSummaryDays - 1)).Format(models.DateLayout)
	}

	from, to, err := dateBounds(start, end)
	if err != nil {
		return nil, err
	}

	amounts, err := s.sales.Amounts(ctx, from, to)
	if err != nil {
		s.log.Errorf("Sales: summary %s..%s failed: %v", start, end, err)
		return nil, fmt.Errorf("sale amounts: %w", err)
	}

	summary := &models.SalesSummary{From: start, To: end, Count: len(amounts)}
	if len(amounts) == 0 {
		return summary, nil
	}

	data := stats.Float64Data(amounts)
	if summary.Revenue, err = data.Sum(); err != nil {
		return nil, fmt.Errorf("sum: %w", err)
	}
	if summary.Mean, err = data.Mean(); err != nil {
		return nil, fmt.Errorf("mean: %w", err)
	}
	if summary.Median, err = data.Median(); err != nil {
		return nil, fmt.Errorf("median: %w", err)
	}
	if summary.Max, err = data.Max(); err != nil {
		return nil, fmt.Errorf("max: %w", err)
	}
	if summary.Mean, err = stats.Round(summary.Mean, 2); err != nil {
		return nil, fmt.Errorf("round: %w", err)
	}
	return summary, nil
}

// Export arma un libro con una hoja "Monthly" y otra "Daily" para el año
func (s *SalesService) Export(ctx context.Context, year int) ([]byte, error) {
	months, err := s.Monthly(ctx, year)
	if err != nil {
		return nil, err
	}

	from, to, _ := yearBounds(year)
	days, err := s.sales.DailyTotals(ctx, from, to)
	if err != nil {
		s.log.Errorf("Sales: export daily totals for %d failed: %v", year, err)
		return nil, fmt.Errorf("daily totals: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), "Monthly"); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet("Daily"); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	monthRows := make([][]interface{}, 0, len(months))
	for _, m := range months {
		monthRows = append(monthRows, []interface{}{m.Month, m.Total})
	}
	if err := writeSheet(f, "Monthly", []string{"Month", "Total"}, monthRows, header); err != nil {
		return nil, err
	}

	dayRows := make([][]interface{}, 0, len(days))
	for _, d := range days {
		dayRows = append(dayRows, []interface{}{d.Date, d.Total})
	}
	if err := writeSheet(f, "Daily", []string{"Date", "Total"}, dayRows, header); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.log.Infof("Sales: exported %d days of sales for %d", len(days), year)
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}, headerStyle int) error {
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write %s header: %w", strings.ToLower(sheet), err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", strings.ToLower(sheet), err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row: %w", strings.ToLower(sheet), err)
		}
	}
	return f.SetColWidth(sheet, "A", "B", 14)
}

func yearBounds(year int) (time.Time, time.Time, error) {
	if year < 1 || year > 9999 {
		return time.Time{}, time.Time{}, invalid("year", "invalid year")
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0), nil
}

// dateBounds convierte [start, end] en el rango semiabierto [start, end+1d)
func dateBounds(start, end string) (time.Time, time.Time, error) {
	from, err := time.Parse(models.DateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("start", "start must be a date in YYYY-MM-DD format")
	}
	until, err := time.Parse(models.DateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("end", "end must be a date in YYYY-MM-DD format")
	}
	if until.Before(from) {
		return time.Time{}, time.Time{}, invalid("end", "end date must not be before start date")
	}
	return from, until.AddDate(0, 0, 1), nil
}
