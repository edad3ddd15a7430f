package salesorders_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-sales-orders/internal/postgres"
	"github.com/ariefcatur/go-sales-orders/internal/salesorders"
)

// openRepo connects to the database named by SALESORDERS_TEST_POSTGRES_DSN,
// applies the schema and empties every table. Tests are skipped without it.
func openRepo(t *testing.T) (*salesorders.Repo, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("SALESORDERS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SALESORDERS_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, dsn, postgres.PoolOptions{MaxConns: 16})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE sales_order_lines, sales_orders, items, clients RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	require.NoError(t, postgres.Seed(ctx, pool))
	return &salesorders.Repo{DB: pool}, pool
}

func seededIDs(t *testing.T, repo *salesorders.Repo) (clientID int64, item salesorders.Item) {
	t.Helper()
	ctx := context.Background()
	clients, err := repo.ListClients(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, clients)
	items, err := repo.ListItems(ctx)
	require.NoError(t, err)
	for _, it := range items {
		if it.Code == "ITM-004" {
			return clients[0].ID, it
		}
	}
	t.Fatal("seed item ITM-004 missing")
	return 0, salesorders.Item{}
}

func TestRepoRoundTripPreservesAmounts(t *testing.T) {
	repo, _ := openRepo(t)
	clientID, item := seededIDs(t, repo)
	svc := salesorders.NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, salesorders.CreateInput{
		ClientID:        clientID,
		DeliveryAddress: "1 Dock Road",
		Lines: []salesorders.LineInput{
			{ItemID: item.ID, Quantity: 2, TaxRate: d("15")},
			{ItemID: item.ID, Quantity: 1, TaxRate: d("15.50"), Note: "spare"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "SO000001", created.OrderNumber)
	require.Len(t, created.Lines, 2)
	assert.True(t, created.Lines[0].Amounts.Incl.Equal(d("230")))
	assert.True(t, created.Lines[1].Amounts.Tax.Equal(d("15.5")))
	assert.True(t, created.Totals.Incl.Equal(d("345.5")), "incl = %s", created.Totals.Incl)
	assertTotalsMatchLines(t, created)

	read, err := repo.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, read.Totals.Tax.Equal(created.Totals.Tax))
	assert.Equal(t, created.OrderDate, read.OrderDate)
	assert.Equal(t, "ITM-004", read.Lines[1].ItemCode)
}

func TestRepoUnknownClientIsValidationError(t *testing.T) {
	repo, _ := openRepo(t)
	svc := salesorders.NewService(repo, nil)

	_, err := svc.CreateOrder(context.Background(), salesorders.CreateInput{ClientID: 424242})
	var ve *salesorders.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "client_does_not_exist", ve.Violations["clientId"])
}

func TestRepoReplaceOrderSwapsLines(t *testing.T) {
	repo, pool := openRepo(t)
	clientID, item := seededIDs(t, repo)
	svc := salesorders.NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, salesorders.CreateInput{
		ClientID: clientID,
		Lines: []salesorders.LineInput{
			{ItemID: item.ID, Quantity: 1, TaxRate: d("15")},
			{ItemID: item.ID, Quantity: 2, TaxRate: d("15")},
		},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateOrder(ctx, salesorders.UpdateInput{
		SalesOrderID: created.ID,
		ClientID:     clientID,
		Lines:        []salesorders.LineInput{{ItemID: item.ID, Quantity: 3, TaxRate: d("0")}},
	})
	require.NoError(t, err)
	assert.Equal(t, created.OrderNumber, updated.OrderNumber)
	require.Len(t, updated.Lines, 1)
	assert.True(t, updated.Totals.Incl.Equal(d("300")))

	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM sales_order_lines`).Scan(&n))
	assert.Equal(t, 1, n)

	ok, err := svc.DeleteOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM sales_order_lines`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestRepoReplaceOrderRollsBackWhenALineFails(t *testing.T) {
	repo, pool := openRepo(t)
	clientID, item := seededIDs(t, repo)
	svc := salesorders.NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, salesorders.CreateInput{
		ClientID:        clientID,
		DeliveryAddress: "1 Dock Road",
		Lines: []salesorders.LineInput{
			{ItemID: item.ID, Quantity: 1, TaxRate: d("15")},
			{ItemID: item.ID, Quantity: 2, TaxRate: d("15")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), created.Version)

	// The second line references an item that does not exist, so its insert
	// fails after the header update and the old lines' delete already ran.
	replacement := created
	replacement.Delivery = salesorders.Delivery{Address: "9 Other Road"}
	replacement.Lines = []salesorders.SalesOrderLine{
		{ItemID: item.ID, Quantity: 5, UnitPrice: d("100"), TaxRate: d("0"),
			Amounts: salesorders.LineAmounts{Excl: d("500"), Tax: d("0"), Incl: d("500")}},
		{ItemID: 999999, Quantity: 1, UnitPrice: d("1"), TaxRate: d("0"),
			Amounts: salesorders.LineAmounts{Excl: d("1"), Tax: d("0"), Incl: d("1")}},
	}
	replacement.Totals = salesorders.Totals{Excl: d("501"), Tax: d("0"), Incl: d("501")}

	err = repo.ReplaceOrder(ctx, &replacement)
	var ve *salesorders.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "item_does_not_exist", ve.Violations["orderDetails"])

	read, err := repo.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), read.Version)
	assert.Equal(t, "1 Dock Road", read.Delivery.Address)
	assert.True(t, read.Totals.Incl.Equal(created.Totals.Incl), "incl = %s", read.Totals.Incl)
	require.Len(t, read.Lines, 2)
	assert.Equal(t, created.Lines[0].ID, read.Lines[0].ID)
	assert.Equal(t, created.Lines[1].ID, read.Lines[1].ID)
	assertTotalsMatchLines(t, read)

	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM sales_order_lines WHERE sales_order_id = $1`, created.ID).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestRepoReplaceMissingOrder(t *testing.T) {
	repo, _ := openRepo(t)
	err := repo.ReplaceOrder(context.Background(), &salesorders.SalesOrder{ID: 999})
	require.ErrorIs(t, err, salesorders.ErrNotFound)
}

func TestRepoConcurrentCreatesGetDistinctNumbers(t *testing.T) {
	repo, _ := openRepo(t)
	clientID, item := seededIDs(t, repo)
	svc := salesorders.NewService(repo, nil)

	const n = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = map[string]int{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := svc.CreateOrder(context.Background(), salesorders.CreateInput{
				ClientID: clientID,
				Lines:    []salesorders.LineInput{{ItemID: item.ID, Quantity: 1, TaxRate: d("15")}},
			})
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			numbers[o.OrderNumber]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, numbers, n)
	for num, count := range numbers {
		assert.Equal(t, 1, count, "order number %s issued %d times", num, count)
	}
}
