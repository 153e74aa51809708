package generator

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/chrisdamba/opsboard/internal/models"
	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"
	"github.com/schollz/progressbar/v3"
)

// Generator writes demo orders and payments CSVs shaped like the cleaned
// exports, so the dashboard runs without access to the real data drop.
type Generator struct {
	cfg  *models.Config
	fake faker.Faker
	rng  *rand.Rand
}

func New(cfg *models.Config) *Generator {
	seed := rand.NewSource(int64(cfg.Seed))
	return &Generator{
		cfg:  cfg,
		fake: faker.NewWithSeed(seed),
		rng:  rand.New(rand.NewSource(int64(cfg.Seed))),
	}
}

// Run generates both CSVs at the configured orders/payments paths.
func (g *Generator) Run() error {
	ordersFile, err := createFile(g.cfg.OrdersFile)
	if err != nil {
		return err
	}
	defer ordersFile.Close()
	paymentsFile, err := createFile(g.cfg.PaymentsFile)
	if err != nil {
		return err
	}
	defer paymentsFile.Close()

	ordersWriter := csv.NewWriter(ordersFile)
	paymentsWriter := csv.NewWriter(paymentsFile)

	if err := ordersWriter.Write([]string{
		models.ColumnOrderID,
		models.ColumnPurchaseTimestamp,
		models.ColumnDeliveredTimestamp,
	}); err != nil {
		return err
	}
	if err := paymentsWriter.Write([]string{
		models.ColumnOrderID,
		models.ColumnPaymentType,
		models.ColumnPaymentValue,
	}); err != nil {
		return err
	}

	bar := progressbar.Default(int64(g.cfg.SeedOrders), "generating orders")
	for i := 0; i < g.cfg.SeedOrders; i++ {
		order := g.makeOrder()

		delivered := ""
		if order.DeliveredAt != nil {
			delivered = order.DeliveredAt.Format("2006-01-02 15:04:05")
		}
		if err := ordersWriter.Write([]string{
			order.ID,
			order.PurchasedAt.Format("2006-01-02 15:04:05"),
			delivered,
		}); err != nil {
			return err
		}

		for _, payment := range g.makePayments(order.ID) {
			if err := paymentsWriter.Write([]string{
				payment.OrderID,
				payment.Type,
				strconv.FormatFloat(payment.Value, 'f', 2, 64),
			}); err != nil {
				return err
			}
		}
		bar.Add(1)
	}

	ordersWriter.Flush()
	if err := ordersWriter.Error(); err != nil {
		return err
	}
	paymentsWriter.Flush()
	return paymentsWriter.Error()
}

func (g *Generator) makeOrder() models.Order {
	purchased := g.fake.Time().TimeBetween(g.cfg.StartDate, g.cfg.EndDate).UTC().Truncate(time.Second)

	order := models.Order{
		ID:          cuid.New(),
		PurchasedAt: purchased,
	}

	// a small fraction of orders never get a delivery scan
	if g.rng.Float64() >= g.cfg.UndeliveredFraction {
		transit := time.Duration(g.fake.IntBetween(18, 15*24)) * time.Hour
		delivered := purchased.Add(transit)
		order.DeliveredAt = &delivered
	}
	return order
}

func (g *Generator) makePayments(orderID string) []models.Payment {
	count := g.fake.IntBetween(1, 3)
	payments := make([]models.Payment, 0, count)
	for i := 0; i < count; i++ {
		payments = append(payments, models.Payment{
			OrderID: orderID,
			Type:    g.paymentType(),
			Value:   g.fake.Float64(2, 10, 900),
		})
	}
	return payments
}

func (g *Generator) paymentType() string {
	r := g.rng.Float64()
	switch {
	case r < 0.60:
		return models.PaymentTypeCreditCard
	case r < 0.75:
		return models.PaymentTypeDebitCard
	case r < 0.90:
		return models.PaymentTypeVoucher
	default:
		return models.PaymentTypeBoleto
	}
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return file, nil
}
