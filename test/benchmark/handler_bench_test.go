package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apihttp "github.com/jsamuelsen/quote-engine/internal/adapters/http"
	"github.com/jsamuelsen/quote-engine/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-engine/internal/adapters/identity"
	"github.com/jsamuelsen/quote-engine/internal/adapters/persistence/memory"
	"github.com/jsamuelsen/quote-engine/internal/adapters/persistence/seed"
	"github.com/jsamuelsen/quote-engine/internal/app"
	"github.com/jsamuelsen/quote-engine/internal/domain"
	"github.com/jsamuelsen/quote-engine/internal/domain/serializer"
	"github.com/jsamuelsen/quote-engine/internal/platform/config"
	"github.com/jsamuelsen/quote-engine/internal/ports"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// quoteWithLines builds a quote with lines spread over a taxed and an
// untaxed section.
func quoteWithLines(n int) *domain.Quote {
	taxed := &domain.QuoteLineSection{ID: "s-spots"}
	untaxed := &domain.QuoteLineSection{ID: "s-prizes", ExcludeFromVAT: true}

	for i := range n {
		line := domain.NewQuoteLine(fmt.Sprintf("l-%d", i))
		line.Quantity = decimal.NewFromInt(int64(i%7 + 1))
		line.BookRate = decimal.RequireFromString("1250.50")
		line.Discount = decimal.RequireFromString("0.125")

		if i%4 == 0 {
			untaxed.Lines = append(untaxed.Lines, line)
		} else {
			taxed.Lines = append(taxed.Lines, line)
		}
	}

	return &domain.Quote{ID: "q-bench", Sections: []*domain.QuoteLineSection{taxed, untaxed}}
}

func BenchmarkQuoteTotals(b *testing.B) {
	vat := decimal.RequireFromString("0.16")

	for _, n := range []int{10, 100, 1000} {
		q := quoteWithLines(n)

		b.Run(fmt.Sprintf("lines=%d", n), func(b *testing.B) {
			b.ReportAllocs()

			for b.Loop() {
				_ = q.Totals(vat)
			}
		})
	}
}

// newEngine serves the API over a seeded memory store and returns the id
// of one created quote.
func newEngine(b *testing.B) (*gin.Engine, string) {
	b.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()

	if err := seed.Load(context.Background(), store, store, seed.Demo()); err != nil {
		b.Fatal(err)
	}

	health := ports.NewHealthRegistry()
	if err := health.Register(store); err != nil {
		b.Fatal(err)
	}

	registry := serializer.NewRegistry()
	quotes := app.NewQuoteService(app.QuoteServiceConfig{
		Quotes:      store,
		Catalog:     store,
		Identity:    identity.Static{User: domain.UserAccount{ID: "bench"}},
		Serializers: registry,
		Accounts:    store,
		Logger:      logger,
	})

	q, err := quotes.CreateQuote(context.Background(), app.CreateQuoteInput{OutletID: seed.OutletID, TypeID: seed.QuoteTypeID})
	if err != nil {
		b.Fatal(err)
	}

	engine := gin.New()
	apihttp.SetupRouter(engine, apihttp.NewDefaultRouterConfig(
		logger,
		&config.AppConfig{Name: "quote-engine", Version: "bench", Environment: "test"},
		&config.AuthConfig{},
		handlers.NewHealthHandler(health, handlers.NewBuildInfo("bench", "", "")),
		handlers.NewQuoteHandler(quotes),
		handlers.NewCatalogHandler(app.NewCatalogService(app.CatalogServiceConfig{Catalog: store, Serializers: registry})),
	))

	return engine, q.ID
}

func BenchmarkRoutes(b *testing.B) {
	engine, quoteID := newEngine(b)

	routes := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{name: "liveness", method: http.MethodGet, path: "/-/live"},
		{name: "readiness", method: http.MethodGet, path: "/-/ready"},
		{name: "get quote", method: http.MethodGet, path: "/api/v1/quotes/" + quoteID},
		{name: "list quotes", method: http.MethodGet, path: "/api/v1/quotes?limit=20"},
		{name: "create quote", method: http.MethodPost, path: "/api/v1/quotes", body: `{"outletId":"o-ntv","typeId":"qt-airtime"}`},
	}

	for _, r := range routes {
		b.Run(r.name, func(b *testing.B) {
			b.ReportAllocs()

			for b.Loop() {
				req := httptest.NewRequest(r.method, r.path, strings.NewReader(r.body))
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("X-User-ID", "bench")

				w := httptest.NewRecorder()
				engine.ServeHTTP(w, req)

				if w.Code >= http.StatusBadRequest {
					b.Fatalf("%s %s: status %d", r.method, r.path, w.Code)
				}
			}
		})
	}
}
