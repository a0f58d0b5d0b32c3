package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Loader reads and joins the order tables from a directory of CSVs.
type Loader struct {
	filenames map[string]string
}

// NewLoader creates a Loader. overrides replaces default filenames per
// logical table; pass nil to use the conventional names.
func NewLoader(overrides map[string]string) *Loader {
	filenames := make(map[string]string, len(DefaultFilenames))
	for table, name := range DefaultFilenames {
		filenames[table] = name
	}
	for table, name := range overrides {
		filenames[table] = name
	}
	return &Loader{filenames: filenames}
}

type orderRec struct {
	customerID  string
	purchasedAt time.Time
	deliveredAt time.Time
	estimatedAt time.Time
}

type customerRec struct {
	city  string
	state string
}

type itemRec struct {
	orderID      string
	orderItemID  int
	productID    string
	sellerID     string
	price        float64
	freightValue float64
}

// Load reads orders, order_items, and customers concurrently, then
// inner-joins them into one OrderLine per order item. Order rows without a
// parseable purchase timestamp are dropped (counted and logged), mirroring
// the coerce-then-filter behavior of the upstream cleaning step.
func (l *Loader) Load(ctx context.Context, dir string) ([]OrderLine, error) {
	var (
		orders    map[string]orderRec
		customers map[string]customerRec
		items     []itemRec
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = l.loadOrders(gCtx, dir)
		return err
	})
	g.Go(func() error {
		var err error
		customers, err = l.loadCustomers(gCtx, dir)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = l.loadItems(gCtx, dir)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lines := make([]OrderLine, 0, len(items))
	var orphaned int
	for _, it := range items {
		ord, ok := orders[it.orderID]
		if !ok || ord.purchasedAt.IsZero() {
			orphaned++
			continue
		}
		cust, ok := customers[ord.customerID]
		if !ok {
			orphaned++
			continue
		}

		line := OrderLine{
			OrderID:       it.orderID,
			OrderItemID:   it.orderItemID,
			ProductID:     it.productID,
			SellerID:      it.sellerID,
			Price:         it.price,
			FreightValue:  it.freightValue,
			CustomerID:    ord.customerID,
			CustomerCity:  cust.city,
			CustomerState: cust.state,
			PurchasedAt:   ord.purchasedAt,
			DeliveredAt:   ord.deliveredAt,
			EstimatedAt:   ord.estimatedAt,
		}
		if !ord.deliveredAt.IsZero() {
			line.DeliveryDays = ord.deliveredAt.Sub(ord.purchasedAt).Hours() / 24
			if !ord.estimatedAt.IsZero() {
				line.DeliveryDiffDays = ord.estimatedAt.Sub(ord.deliveredAt).Hours() / 24
			}
		}
		lines = append(lines, line)
	}

	zap.L().Info("dataset: loaded",
		zap.String("dir", dir),
		zap.Int("orders", len(orders)),
		zap.Int("customers", len(customers)),
		zap.Int("order_items", len(items)),
		zap.Int("lines", len(lines)),
		zap.Int("dropped", orphaned),
	)

	return lines, nil
}

func (l *Loader) loadOrders(ctx context.Context, dir string) (map[string]orderRec, error) {
	orders := make(map[string]orderRec)
	err := l.readTable(ctx, dir, TableOrders,
		[]string{"order_id", "customer_id", "order_purchase_timestamp", "order_delivered_customer_date", "order_estimated_delivery_date"},
		func(row []string) error {
			orders[row[0]] = orderRec{
				customerID:  row[1],
				purchasedAt: parseTimestamp(row[2]),
				deliveredAt: parseTimestamp(row[3]),
				estimatedAt: parseTimestamp(row[4]),
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (l *Loader) loadCustomers(ctx context.Context, dir string) (map[string]customerRec, error) {
	customers := make(map[string]customerRec)
	err := l.readTable(ctx, dir, TableCustomers,
		[]string{"customer_id", "customer_city", "customer_state"},
		func(row []string) error {
			customers[row[0]] = customerRec{city: row[1], state: row[2]}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (l *Loader) loadItems(ctx context.Context, dir string) ([]itemRec, error) {
	var items []itemRec
	err := l.readTable(ctx, dir, TableOrderItems,
		[]string{"order_id", "order_item_id", "product_id", "seller_id", "price", "freight_value"},
		func(row []string) error {
			itemID, err := strconv.Atoi(row[1])
			if err != nil {
				return eris.Wrapf(err, "dataset: order %s: bad order_item_id %q", row[0], row[1])
			}
			price, err := strconv.ParseFloat(row[4], 64)
			if err != nil {
				return eris.Wrapf(err, "dataset: order %s: bad price %q", row[0], row[4])
			}
			freight, err := strconv.ParseFloat(row[5], 64)
			if err != nil {
				return eris.Wrapf(err, "dataset: order %s: bad freight_value %q", row[0], row[5])
			}
			items = append(items, itemRec{
				orderID:      row[0],
				orderItemID:  itemID,
				productID:    row[2],
				sellerID:     row[3],
				price:        price,
				freightValue: freight,
			})
			return nil
		})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// readTable streams one CSV table, projecting each record onto the wanted
// columns (located by header name) before handing it to fn.
func (l *Loader) readTable(ctx context.Context, dir, table string, columns []string, fn func(row []string) error) error {
	path := filepath.Join(dir, l.filenames[table])
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "dataset: open %s table", table)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return eris.Wrapf(err, "dataset: read %s header", table)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	cols := make([]int, len(columns))
	for i, name := range columns {
		pos, ok := index[name]
		if !ok {
			return eris.Errorf("dataset: %s table missing column %s", table, name)
		}
		cols[i] = pos
	}

	row := make([]string, len(cols))
	for {
		if err := ctx.Err(); err != nil {
			return eris.Wrapf(err, "dataset: read %s cancelled", table)
		}
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return eris.Wrapf(err, "dataset: read %s row", table)
		}
		for i, pos := range cols {
			if pos < len(record) {
				row[i] = record[pos]
			} else {
				row[i] = ""
			}
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}

// parseTimestamp coerces an order timestamp, returning the zero time for
// empty or malformed values.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
