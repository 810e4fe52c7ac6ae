// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"gorm.io/gorm"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/database"
)

// NewDB opens a migrated in-memory SQLite database closed with the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.New(&database.Config{
		Driver:   "sqlite",
		FilePath: ":memory:",
		LogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.AutoMigrate(db, domain.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	return db
}

// SeedUser inserts a user row directly.
func SeedUser(t *testing.T, db *gorm.DB, email, name, role string) int64 {
	t.Helper()

	m := &domain.UserModel{Email: email, Name: name, Role: role, PasswordHash: "x"}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return m.ID
}

// SeedProduct inserts an active product row directly.
func SeedProduct(t *testing.T, db *gorm.DB, sellerID int64, name, category string, price float64) int64 {
	t.Helper()

	m := &domain.ProductModel{
		SellerID: sellerID,
		Name:     name,
		Category: category,
		Price:    price,
		Status:   domain.ProductStatusActive,
	}
	if err := db.Omit("Seller").Create(m).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return m.ID
}
