package application

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/internal/identity"
	"github.com/dmehra2102/storefront/internal/store/memory"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/logging"
)

type memImages struct {
	mu      sync.Mutex
	objects map[string]string
	failOn  int
	calls   int
}

func (m *memImages) Upload(_ context.Context, key, _ string, body io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failOn == m.calls {
		return "", errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.objects[key] = string(data)
	return "https://cdn.test/" + key, nil
}

func (m *memImages) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

var admin = identity.Principal{UserID: uuid.New(), Role: identity.RoleAdmin}

func input(name string, price string, stock int) domain.NewProductInput {
	return domain.NewProductInput{Name: name, Price: decimal.RequireFromString(price), Stock: stock}
}

func image(name string) *Image {
	return &Image{Filename: name, ContentType: "image/png", Body: strings.NewReader("png:" + name)}
}

func TestInsertProductsWithImages(t *testing.T) {
	st := memory.New()
	imgs := &memImages{objects: map[string]string{}}
	svc := NewService(logging.Discard(), st, imgs)

	got, err := svc.InsertProducts(context.Background(), admin,
		[]domain.NewProductInput{input("Mug", "4.50", 3), input("Pen", "1", 10)},
		[]*Image{image("mug.PNG")})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Len(t, got[0].Images, 1)
	require.True(t, strings.HasPrefix(got[0].Images[0], "https://cdn.test/products/"))
	require.True(t, strings.HasSuffix(got[0].Images[0], ".png"))
	require.Empty(t, got[1].Images)
	require.Len(t, imgs.objects, 1)

	stored, ok := st.Product(got[0].ID)
	require.True(t, ok)
	require.Equal(t, 3, stored.Stock)
}

func TestInsertProductsRequiresAdmin(t *testing.T) {
	svc := NewService(logging.Discard(), memory.New(), &memImages{objects: map[string]string{}})
	_, err := svc.InsertProducts(context.Background(), identity.Principal{UserID: uuid.New(), Role: "user"},
		[]domain.NewProductInput{input("Mug", "1", 1)}, nil)
	require.ErrorIs(t, err, identity.ErrNotAdmin)
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestInsertProductsValidation(t *testing.T) {
	svc := NewService(logging.Discard(), memory.New(), &memImages{objects: map[string]string{}})
	ctx := context.Background()

	_, err := svc.InsertProducts(ctx, admin, nil, nil)
	require.ErrorIs(t, err, ErrNoProducts)

	_, err = svc.InsertProducts(ctx, admin, []domain.NewProductInput{input("Mug", "1", 1), {Name: "Pen"}}, nil)
	require.ErrorIs(t, err, domain.ErrProductPrice)
	require.Contains(t, err.Error(), "index 1")
}

func TestInsertProductsUploadFailureCleansUp(t *testing.T) {
	st := memory.New()
	imgs := &memImages{objects: map[string]string{}, failOn: 2}
	svc := NewService(logging.Discard(), st, imgs)

	_, err := svc.InsertProducts(context.Background(), admin,
		[]domain.NewProductInput{input("Mug", "1", 1), input("Pen", "1", 1)},
		[]*Image{image("a.png"), image("b.png")})
	require.Error(t, err)
	require.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	require.Empty(t, imgs.objects)

	products, err := svc.ListProducts(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Empty(t, products)
}

func TestListProductsPaging(t *testing.T) {
	st := memory.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		st.SeedProduct(domain.Product{ID: uuid.New(), Name: "p", Price: decimal.NewFromInt(1), CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	svc := NewService(logging.Discard(), st, &memImages{objects: map[string]string{}})
	ctx := context.Background()

	first, err := svc.ListProducts(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, first, DefaultLimit)

	third, err := svc.ListProducts(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, third, 5)
	require.True(t, third[0].CreatedAt.Equal(base.Add(20*time.Minute)))

	all, err := svc.ListProducts(ctx, 1, 1000)
	require.NoError(t, err)
	require.Len(t, all, 25)

	none, err := svc.ListProducts(ctx, 9, 10)
	require.NoError(t, err)
	require.Empty(t, none)
}
