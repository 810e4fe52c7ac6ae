package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/tj/assert"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/testutil"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormUserRepository(testutil.NewDB(t))

	u := &domain.User{Email: "bob@example.com", Name: "Bob", PasswordHash: "h"}
	assert.NoError(t, repo.Create(ctx, u))
	assert.NotEqual(t, int64(0), u.ID)
	assert.Equal(t, domain.RoleBuyer, u.Role)

	err := repo.Create(ctx, &domain.User{Email: "bob@example.com", Name: "Other", PasswordHash: "h"})
	assert.True(t, errors.Is(err, ErrEmailExists))

	got, err := repo.GetByEmail(ctx, "bob@example.com")
	assert.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "h", got.PasswordHash)

	_, err = repo.GetByID(ctx, 999)
	assert.True(t, errors.Is(err, ErrUserNotFound))
}

func TestListSellers(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewGormUserRepository(db)

	empty, err := repo.ListSellers(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Equal(t, 0, len(empty))

	bob := testutil.SeedUser(t, db, "bob@example.com", "Bob", domain.RoleSeller)
	testutil.SeedUser(t, db, "amy@example.com", "Amy", domain.RoleSeller)
	testutil.SeedUser(t, db, "carl@example.com", "Carl", domain.RoleBuyer)
	testutil.SeedProduct(t, db, bob, "Foo", "tools", 10)
	testutil.SeedProduct(t, db, bob, "Bar", "tools", 20)

	sellers, err := repo.ListSellers(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(sellers))
	assert.Equal(t, "Bob", sellers[0].Name)
	assert.Equal(t, int64(2), sellers[0].ProductCount)
	assert.Equal(t, "Amy", sellers[1].Name)
	assert.Equal(t, int64(0), sellers[1].ProductCount)
}

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewGormProductRepository(db)
	bob := testutil.SeedUser(t, db, "bob@example.com", "Bob", domain.RoleSeller)

	p := &domain.Product{
		SellerID:    bob,
		Name:        "Foo Editor",
		Description: "edits foo",
		Price:       9.5,
		Category:    "tools",
		Screenshots: []string{"a.png", "b.png"},
	}
	assert.NoError(t, repo.Create(ctx, p))
	assert.Equal(t, domain.ProductStatusActive, p.Status)

	got, err := repo.GetByID(ctx, p.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Bob", got.SellerName)
	assert.Equal(t, []string{"a.png", "b.png"}, got.Screenshots)

	_, err = repo.GetByID(ctx, 999)
	assert.True(t, errors.Is(err, ErrProductNotFound))

	testutil.SeedProduct(t, db, bob, "Bar Game", "games", 5)

	all, err := repo.List(ctx, domain.ProductFilter{})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(all))

	games, err := repo.List(ctx, domain.ProductFilter{Category: "games"})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(games))
	assert.Equal(t, "Bar Game", games[0].Name)

	found, err := repo.List(ctx, domain.ProductFilter{Query: "foo"})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(found))
	assert.Equal(t, p.ID, found[0].ID)

	assert.NoError(t, repo.IncrementViews(ctx, p.ID))
	assert.NoError(t, repo.IncrementViews(ctx, p.ID))
	assert.NoError(t, repo.IncrementClicks(ctx, p.ID))
	assert.True(t, errors.Is(repo.IncrementViews(ctx, 999), ErrProductNotFound))

	assert.NoError(t, repo.UpdateFileURL(ctx, p.ID, "products/1/foo.zip"))

	got, err = repo.GetByID(ctx, p.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)
	assert.Equal(t, int64(1), got.Clicks)
	assert.Equal(t, "products/1/foo.zip", got.FileURL)

	stats, err := repo.CatalogueStats(ctx, bob)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalProducts)
	assert.Equal(t, int64(2), stats.TotalViews)
	assert.Equal(t, int64(1), stats.TotalClicks)
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewGormOrderRepository(db)

	bob := testutil.SeedUser(t, db, "bob@example.com", "Bob", domain.RoleSeller)
	carl := testutil.SeedUser(t, db, "carl@example.com", "Carl", domain.RoleBuyer)
	foo := testutil.SeedProduct(t, db, bob, "Foo", "tools", 10)
	bar := testutil.SeedProduct(t, db, bob, "Bar", "tools", 20)

	assert.NoError(t, repo.Create(ctx, &domain.Order{BuyerID: carl, ProductID: foo, Amount: 10}))
	assert.NoError(t, repo.Create(ctx, &domain.Order{BuyerID: carl, ProductID: bar, Amount: 20}))

	orders, err := repo.ListByBuyer(ctx, carl)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(orders))
	assert.Equal(t, "Bar", orders[0].ProductName)
	assert.Equal(t, domain.OrderStatusCompleted, orders[0].Status)

	ok, err := repo.HasPurchased(ctx, carl, foo)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.HasPurchased(ctx, bob, foo)
	assert.NoError(t, err)
	assert.False(t, ok)

	stats, err := repo.SalesStats(ctx, bob)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalSales)
	assert.Equal(t, 30.0, stats.TotalRevenue)
}

func TestMessageRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewGormMessageRepository(db)

	amy := testutil.SeedUser(t, db, "amy@example.com", "Amy", domain.RoleBuyer)
	bob := testutil.SeedUser(t, db, "bob@example.com", "Bob", domain.RoleSeller)
	carl := testutil.SeedUser(t, db, "carl@example.com", "Carl", domain.RoleBuyer)

	for _, m := range []*domain.ChatMessage{
		{SenderID: amy, ReceiverID: bob, Content: "hi"},
		{SenderID: carl, ReceiverID: bob, Content: "other"},
		{SenderID: bob, ReceiverID: amy, Content: "hello"},
		{SenderID: amy, ReceiverID: bob, Content: "price?"},
	} {
		assert.NoError(t, repo.Create(ctx, m))
		assert.NotEqual(t, int64(0), m.ID)
		assert.False(t, m.CreatedAt.IsZero())
	}

	msgs, err := repo.ListBetween(ctx, bob, amy, 0)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(msgs))
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, "Amy", msgs[0].SenderName)
	assert.Equal(t, "hello", msgs[1].Content)
	assert.Equal(t, "Bob", msgs[1].SenderName)
	assert.Equal(t, "price?", msgs[2].Content)

	latest, err := repo.ListBetween(ctx, amy, bob, 2)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(latest))
	assert.Equal(t, "hello", latest[0].Content)
	assert.Equal(t, "price?", latest[1].Content)
}

func TestReviewRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewGormReviewRepository(db)

	bob := testutil.SeedUser(t, db, "bob@example.com", "Bob", domain.RoleSeller)
	carl := testutil.SeedUser(t, db, "carl@example.com", "Carl", domain.RoleBuyer)
	foo := testutil.SeedProduct(t, db, bob, "Foo", "tools", 10)

	assert.NoError(t, repo.Create(ctx, &domain.Review{ProductID: foo, UserID: carl, Rating: 5, Comment: "great"}))

	reviews, err := repo.ListByProduct(ctx, foo)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(reviews))
	assert.Equal(t, "Carl", reviews[0].UserName)
	assert.Equal(t, 5, reviews[0].Rating)

	none, err := repo.ListByProduct(ctx, 999)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(none))
}
