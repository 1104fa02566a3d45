package router_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/appleboy/gofight/v2"
	"github.com/deppfellow/go-items/internal/config"
	"github.com/deppfellow/go-items/internal/errs"
	"github.com/deppfellow/go-items/internal/handler"
	"github.com/deppfellow/go-items/internal/model"
	"github.com/deppfellow/go-items/internal/router"
	"github.com/deppfellow/go-items/internal/server"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore mimics the items table: serial ids that are never reused and
// a unique name.
type memoryStore struct {
	mu     sync.Mutex
	seq    int64
	items  map[int64]model.Item
	failed error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: map[int64]model.Item{}}
}

func (s *memoryStore) List(ctx context.Context) ([]model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed != nil {
		return nil, s.failed
	}

	items := []model.Item{}
	for id := int64(1); id <= s.seq; id++ {
		if item, ok := s.items[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *memoryStore) GetByID(ctx context.Context, id int64) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed != nil {
		return nil, s.failed
	}

	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *memoryStore) Create(ctx context.Context, name string, description *string) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed != nil {
		return nil, s.failed
	}

	for _, item := range s.items {
		if item.Name == name {
			return nil, errors.Wrap(&pgconn.PgError{
				Code:           "23505",
				TableName:      "items",
				ConstraintName: "items_name_key",
				Message:        `duplicate key value violates unique constraint "items_name_key"`,
			}, "create item")
		}
	}

	s.seq++
	now := time.Now().UTC()
	item := model.Item{ID: s.seq, Name: name, Description: description, CreatedAt: now, UpdatedAt: now}
	s.items[item.ID] = item
	return &item, nil
}

func (s *memoryStore) Update(ctx context.Context, id int64, patch model.ItemPatch) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed != nil {
		return nil, s.failed
	}

	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	if patch.Name.Set {
		item.Name = patch.Name.Value
	}
	if patch.Description.Set {
		item.Description = patch.Description.Ptr()
	}
	s.items[id] = item
	return &item, nil
}

func (s *memoryStore) Delete(ctx context.Context, id int64) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed != nil {
		return nil, s.failed
	}

	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	delete(s.items, id)
	return &item, nil
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func setup(t *testing.T, rps float64, db handler.Pinger) (*echo.Echo, *memoryStore) {
	t.Helper()

	cfg := config.Default()
	cfg.Server.RateLimitRPS = rps

	logger := zerolog.Nop()
	s := &server.Server{
		Config: cfg,
		Logger: &logger,
	}

	store := newMemoryStore()
	return router.NewRouter(s, handler.NewHandlers(s, store, db)), store
}

func decode[T any](t *testing.T, r gofight.HTTPResponse) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(r.Body.Bytes(), &v), r.Body.String())
	return v
}

func TestHello(t *testing.T) {
	engine, _ := setup(t, 0, stubPinger{})

	gofight.New().GET("/").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.JSONEq(t, `{"message":"Hello World!"}`, r.Body.String())
		assert.NotEmpty(t, r.Header().Get("X-Request-ID"))
	})
}

func TestStatus(t *testing.T) {
	engine, _ := setup(t, 0, stubPinger{})

	gofight.New().GET("/status").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		body := decode[map[string]any](t, r)
		assert.Equal(t, "healthy", body["status"])
		assert.Contains(t, body["checks"], "database")
	})

	engine, _ = setup(t, 0, stubPinger{err: errors.New("dial tcp 10.0.0.1:5432: connect: refused")})

	gofight.New().GET("/status").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusServiceUnavailable, r.Code)
		assert.NotContains(t, r.Body.String(), "10.0.0.1")

		body := decode[map[string]any](t, r)
		assert.Equal(t, "unhealthy", body["status"])
	})
}

func TestItemLifecycle(t *testing.T) {
	engine, _ := setup(t, 0, stubPinger{})

	gofight.New().POST("/api/items").
		SetJSON(gofight.D{"name": "Widget", "description": "A widget"}).
		Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusCreated, r.Code)

			item := decode[model.Item](t, r)
			assert.Equal(t, int64(1), item.ID)
			assert.Equal(t, "Widget", item.Name)
			require.NotNil(t, item.Description)
			assert.Equal(t, "A widget", *item.Description)
			assert.False(t, item.CreatedAt.IsZero())
		})

	gofight.New().GET("/api/items/1").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		item := decode[model.Item](t, r)
		assert.Equal(t, "Widget", item.Name)
		assert.Equal(t, "A widget", *item.Description)
	})

	gofight.New().PATCH("/api/items/1").
		SetJSON(gofight.D{"description": "Updated"}).
		Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusOK, r.Code)

			item := decode[model.Item](t, r)
			assert.Equal(t, "Widget", item.Name)
			assert.Equal(t, "Updated", *item.Description)
		})

	gofight.New().GET("/api/items").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.Len(t, decode[[]model.Item](t, r), 1)
	})

	gofight.New().DELETE("/api/items/1").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		body := decode[handler.DeleteItemResponse](t, r)
		assert.Equal(t, "Item 1 deleted successfully", body.Message)
		require.NotNil(t, body.Item)
		assert.Equal(t, "Widget", body.Item.Name)
	})

	gofight.New().GET("/api/items/1").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
		assert.Equal(t, "Item not found", decode[errs.HTTPError](t, r).Message)
	})

	gofight.New().DELETE("/api/items/1").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})
}

func TestListEmpty(t *testing.T) {
	engine, _ := setup(t, 0, stubPinger{})

	gofight.New().GET("/api/items").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.JSONEq(t, `[]`, r.Body.String())
	})
}

func TestCreateValidation(t *testing.T) {
	engine, store := setup(t, 0, stubPinger{})

	cases := map[string]gofight.D{
		"missing name": {"description": "no name"},
		"empty name":   {"name": ""},
		"null name":    {"name": nil},
		"nul in name":  {"name": "Wid\x00get"},
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			gofight.New().POST("/api/items").SetJSON(body).
				Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
					assert.Equal(t, http.StatusBadRequest, r.Code)

					httpErr := decode[errs.HTTPError](t, r)
					assert.Equal(t, "BAD_REQUEST", httpErr.Code)
					require.Len(t, httpErr.Errors, 1)
					assert.Equal(t, "name", httpErr.Errors[0].Field)
				})
		})
	}

	items, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCreateMalformedJSON(t *testing.T) {
	engine, _ := setup(t, 0, stubPinger{})

	gofight.New().POST("/api/items").
		SetHeader(gofight.H{"Content-Type": "application/json"}).
		SetBody(`{"name":`).
		Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusBadRequest, r.Code)
		})
}

func TestCreateDuplicateName(t *testing.T) {
	engine, _ := setup(t, 0, stubPinger{})

	gofight.New().POST("/api/items").SetJSON(gofight.D{"name": "Widget"}).
		Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusCreated, r.Code)
		})

	gofight.New().POST("/api/items").SetJSON(gofight.D{"name": "Widget"}).
		Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusBadRequest, r.Code)

			httpErr := decode[errs.HTTPError](t, r)
			assert.Equal(t, "ITEM_ALREADY_EXISTS", httpErr.Code)
			assert.Equal(t, "An Item with this Name already exists", httpErr.Message)
			assert.NotContains(t, r.Body.String(), "items_name_key")
		})
}

func TestInvalidIDs(t *testing.T) {
	engine, _ := setup(t, 0, stubPinger{})

	for _, id := range []string{"abc", "0", "-3", "1.5", "99999999999999999999"} {
		gofight.New().GET("/api/items/"+id).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusBadRequest, r.Code, id)

			httpErr := decode[errs.HTTPError](t, r)
			require.Len(t, httpErr.Errors, 1)
			assert.Equal(t, "id", httpErr.Errors[0].Field)
		})

		gofight.New().DELETE("/api/items/"+id).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusBadRequest, r.Code, id)
		})

		gofight.New().PATCH("/api/items/"+id).SetJSON(gofight.D{"name": "x"}).
			Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
				assert.Equal(t, http.StatusBadRequest, r.Code, id)
			})
	}
}

func TestUpdate(t *testing.T) {
	engine, store := setup(t, 0, stubPinger{})

	description := "A widget"
	_, err := store.Create(context.Background(), "Widget", &description)
	require.NoError(t, err)

	gofight.New().PATCH("/api/items/1").SetJSON(gofight.D{}).
		Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusBadRequest, r.Code)
			assert.Equal(t, "No update data provided", decode[errs.HTTPError](t, r).Message)
		})

	gofight.New().PATCH("/api/items/1").SetJSON(gofight.D{"name": ""}).
		Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusBadRequest, r.Code)
		})

	gofight.New().PATCH("/api/items/1").SetJSON(gofight.D{"name": "Gadget"}).
		Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusOK, r.Code)

			item := decode[model.Item](t, r)
			assert.Equal(t, "Gadget", item.Name)
			require.NotNil(t, item.Description)
			assert.Equal(t, "A widget", *item.Description)
		})

	gofight.New().PATCH("/api/items/1").SetJSON(gofight.D{"description": nil}).
		Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusOK, r.Code)

			item := decode[model.Item](t, r)
			assert.Equal(t, "Gadget", item.Name)
			assert.Nil(t, item.Description)
		})

	gofight.New().PATCH("/api/items/42").SetJSON(gofight.D{"name": "Nope"}).
		Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusNotFound, r.Code)
		})
}

func TestStoreFailureIsGeneric(t *testing.T) {
	engine, store := setup(t, 0, stubPinger{})
	store.failed = errors.Wrap(errors.New("dial tcp: password authentication failed"), "list items")

	for _, call := range []func() *gofight.RequestConfig{
		func() *gofight.RequestConfig { return gofight.New().GET("/api/items") },
		func() *gofight.RequestConfig { return gofight.New().GET("/api/items/1") },
		func() *gofight.RequestConfig { return gofight.New().DELETE("/api/items/1") },
		func() *gofight.RequestConfig {
			return gofight.New().POST("/api/items").SetJSON(gofight.D{"name": "Widget"})
		},
		func() *gofight.RequestConfig {
			return gofight.New().PATCH("/api/items/1").SetJSON(gofight.D{"name": "Widget"})
		},
	} {
		call().Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusInternalServerError, r.Code)

			httpErr := decode[errs.HTTPError](t, r)
			assert.Equal(t, "Internal Server Error", httpErr.Message)
			assert.NotContains(t, r.Body.String(), "password")
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	engine, _ := setup(t, 0, stubPinger{})

	gofight.New().GET("/api/widgets").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
		assert.Equal(t, "Route not found", decode[errs.HTTPError](t, r).Message)
	})
}

func TestRateLimit(t *testing.T) {
	engine, _ := setup(t, 1, stubPinger{})

	gofight.New().GET("/").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
	})

	gofight.New().GET("/").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusTooManyRequests, r.Code)
		assert.Equal(t, "Rate limit exceeded", decode[errs.HTTPError](t, r).Message)
	})
}

func TestRateLimitIgnoresForwardedHeaders(t *testing.T) {
	engine, _ := setup(t, 1, stubPinger{})

	gofight.New().GET("/").
		SetHeader(gofight.H{"X-Forwarded-For": "10.0.0.0"}).
		Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusOK, r.Code)
		})

	for i := 1; i < 5; i++ {
		gofight.New().GET("/").
			SetHeader(gofight.H{
				"X-Forwarded-For": fmt.Sprintf("10.0.0.%d", i),
				"X-Real-Ip":       fmt.Sprintf("10.0.1.%d", i),
			}).
			Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
				assert.Equal(t, http.StatusTooManyRequests, r.Code)
			})
	}
}
