package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/chrisdamba/opsboard/internal/cloudwriter"
	"github.com/chrisdamba/opsboard/internal/kpi"
	"github.com/chrisdamba/opsboard/internal/models"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// Writer persists a KPI snapshot as csv, json, or parquet, locally or to
// cloud storage.
type Writer struct {
	basePath           string
	folder             string
	format             string
	cloudWriterFactory cloudwriter.CloudWriterFactory
	cloudBucketName    string
}

func NewWriter(cfg *models.Config) (*Writer, error) {
	w := &Writer{
		basePath: cfg.OutputPath,
		folder:   cfg.OutputFolder,
		format:   cfg.OutputFormat,
	}

	if cfg.OutputDestination != "local" {
		var factory cloudwriter.CloudWriterFactory
		var err error

		switch cfg.CloudStorage.Provider {
		case "s3":
			factory, err = cloudwriter.NewS3WriterFactory(cfg.CloudStorage.Region)
		default:
			return nil, fmt.Errorf("unsupported cloud storage provider: %s", cfg.CloudStorage.Provider)
		}

		if err != nil {
			return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
		}

		w.cloudWriterFactory = factory
		w.cloudBucketName = cfg.CloudStorage.BucketName
	}

	return w, nil
}

// Export writes the snapshot's tables in the configured format under a
// timestamped folder (or object prefix).
func (w *Writer) Export(snapshot kpi.Snapshot) error {
	prefix := filepath.Join(w.folder, snapshot.ComputedAt.Format("2006-01-02T150405Z"))

	switch w.format {
	case "json":
		return w.exportJSON(snapshot, prefix)
	case "csv":
		return w.exportCSV(snapshot, prefix)
	case "parquet":
		return w.exportParquet(snapshot, prefix)
	default:
		return fmt.Errorf("unsupported output format: %s", w.format)
	}
}

func (w *Writer) exportJSON(snapshot kpi.Snapshot, prefix string) error {
	out, err := w.openTarget(filepath.Join(prefix, "snapshot.json"))
	if err != nil {
		return err
	}

	// JSON cannot carry NaN; the no-data sentinel becomes null.
	doc := map[string]interface{}{
		"total_orders":            snapshot.TotalOrders,
		"total_revenue":           snapshot.TotalRevenue,
		"avg_delivery_days":       nanToNil(snapshot.AvgDeliveryDays),
		"late_percentage":         nanToNil(snapshot.LatePercentage),
		"monthly_trend":           snapshot.MonthlyTrend,
		"revenue_by_payment_type": snapshot.RevenueByPaymentType,
		"sla_breakdown":           snapshot.SLABreakdown,
		"computed_at":             snapshot.ComputedAt,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		out.Close()
		return fmt.Errorf("marshalling snapshot: %w", err)
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (w *Writer) exportCSV(snapshot kpi.Snapshot, prefix string) error {
	tables := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{
			name:   "kpis.csv",
			header: []string{"total_orders", "total_revenue", "avg_delivery_days", "late_percentage"},
			rows: [][]string{{
				strconv.Itoa(snapshot.TotalOrders),
				formatFloat(snapshot.TotalRevenue),
				formatFloat(snapshot.AvgDeliveryDays),
				formatFloat(snapshot.LatePercentage),
			}},
		},
		{
			name:   "monthly_trend.csv",
			header: []string{"month", "orders"},
			rows:   trendRows(snapshot.MonthlyTrend),
		},
		{
			name:   "revenue_by_payment_type.csv",
			header: []string{"payment_type", "revenue"},
			rows:   paymentRevenueRows(snapshot.RevenueByPaymentType),
		},
		{
			name:   "sla_breakdown.csv",
			header: []string{"status", "count"},
			rows:   slaRows(snapshot.SLABreakdown),
		},
	}

	for _, table := range tables {
		out, err := w.openTarget(filepath.Join(prefix, table.name))
		if err != nil {
			return err
		}
		csvWriter := csv.NewWriter(out)
		if err := csvWriter.Write(table.header); err != nil {
			out.Close()
			return err
		}
		if err := csvWriter.WriteAll(table.rows); err != nil {
			out.Close()
			return err
		}
		csvWriter.Flush()
		if err := csvWriter.Error(); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
	}
	return nil
}

type trendParquetRow struct {
	Month  string `parquet:"name=month, type=BYTE_ARRAY, convertedtype=UTF8"`
	Orders int32  `parquet:"name=orders, type=INT32"`
}

type paymentRevenueParquetRow struct {
	PaymentType string  `parquet:"name=payment_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	Revenue     float64 `parquet:"name=revenue, type=DOUBLE"`
}

type slaParquetRow struct {
	Status string `parquet:"name=status, type=BYTE_ARRAY, convertedtype=UTF8"`
	Count  int32  `parquet:"name=count, type=INT32"`
}

func (w *Writer) exportParquet(snapshot kpi.Snapshot, prefix string) error {
	if err := writeParquet(w, filepath.Join(prefix, "monthly_trend.parquet"), new(trendParquetRow), func(pw *writer.ParquetWriter) error {
		for _, point := range snapshot.MonthlyTrend {
			if err := pw.Write(trendParquetRow{Month: point.Month, Orders: int32(point.Orders)}); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := writeParquet(w, filepath.Join(prefix, "revenue_by_payment_type.parquet"), new(paymentRevenueParquetRow), func(pw *writer.ParquetWriter) error {
		for _, paymentType := range sortedPaymentTypes(snapshot.RevenueByPaymentType) {
			row := paymentRevenueParquetRow{PaymentType: paymentType, Revenue: snapshot.RevenueByPaymentType[paymentType]}
			if err := pw.Write(row); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	return writeParquet(w, filepath.Join(prefix, "sla_breakdown.parquet"), new(slaParquetRow), func(pw *writer.ParquetWriter) error {
		for _, status := range snapshot.SLABreakdown {
			if err := pw.Write(slaParquetRow{Status: status.Status, Count: int32(status.Count)}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeParquet(w *Writer, name string, schema interface{}, fill func(*writer.ParquetWriter) error) error {
	fw, err := w.openParquetTarget(name)
	if err != nil {
		return err
	}

	pw, err := writer.NewParquetWriter(fw, schema, 4)
	if err != nil {
		fw.Close()
		return fmt.Errorf("failed to create ParquetWriter: %w", err)
	}

	if err := fill(pw); err != nil {
		fw.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return err
	}
	return fw.Close()
}

// openTarget opens a local file or a cloud object for one export table.
func (w *Writer) openTarget(name string) (io.WriteCloser, error) {
	if w.cloudWriterFactory != nil {
		return w.cloudWriterFactory.NewWriter(w.cloudBucketName, filepath.ToSlash(name))
	}

	fullPath := filepath.Join(w.basePath, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), os.ModePerm); err != nil {
		return nil, err
	}
	return os.Create(fullPath)
}

func (w *Writer) openParquetTarget(name string) (source.ParquetFile, error) {
	if w.cloudWriterFactory != nil {
		cw, err := w.cloudWriterFactory.NewWriter(w.cloudBucketName, filepath.ToSlash(name))
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud file writer: %w", err)
		}
		return NewCloudParquetFile(cw), nil
	}

	fullPath := filepath.Join(w.basePath, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), os.ModePerm); err != nil {
		return nil, err
	}
	fw, err := local.NewLocalFileWriter(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create local file writer: %w", err)
	}
	return fw, nil
}

func trendRows(trend []kpi.TrendPoint) [][]string {
	rows := make([][]string, 0, len(trend))
	for _, point := range trend {
		rows = append(rows, []string{point.Month, strconv.Itoa(point.Orders)})
	}
	return rows
}

// sortedPaymentTypes fixes the category order so repeated exports of the
// same snapshot are byte-identical.
func sortedPaymentTypes(revenue map[string]float64) []string {
	types := make([]string, 0, len(revenue))
	for paymentType := range revenue {
		types = append(types, paymentType)
	}
	sort.Strings(types)
	return types
}

func paymentRevenueRows(revenue map[string]float64) [][]string {
	types := sortedPaymentTypes(revenue)
	rows := make([][]string, 0, len(types))
	for _, paymentType := range types {
		rows = append(rows, []string{paymentType, formatFloat(revenue[paymentType])})
	}
	return rows
}

func slaRows(breakdown []kpi.StatusCount) [][]string {
	rows := make([][]string, 0, len(breakdown))
	for _, status := range breakdown {
		rows = append(rows, []string{status.Status, strconv.Itoa(status.Count)})
	}
	return rows
}

func formatFloat(v float64) string {
	if v != v { // NaN: the no-data sentinel
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nanToNil(v float64) interface{} {
	if v != v {
		return nil
	}
	return v
}
