package domain

import (
	"time"

	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/database"
)

// UserModel is the GORM model for users table.
type UserModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Name         string    `gorm:"type:varchar(100)"`
	Role         string    `gorm:"type:varchar(20);default:buyer;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		Role:         m.Role,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

// UserToModel converts domain User to UserModel.
func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
	}
}

// ProductModel is the GORM model for products table.
type ProductModel struct {
	ID            int64               `gorm:"primaryKey;autoIncrement"`
	SellerID      int64               `gorm:"index;not null"`
	Name          string              `gorm:"type:varchar(200);not null"`
	Description   string              `gorm:"type:text"`
	Price         float64             `gorm:"not null;default:0"`
	Category      string              `gorm:"type:varchar(100);index"`
	Version       string              `gorm:"type:varchar(50)"`
	Screenshots   database.StringList `gorm:"type:text"`
	FileURL       string              `gorm:"type:varchar(500)"`
	ContactNumber string              `gorm:"type:varchar(50)"`
	Views         int64               `gorm:"not null;default:0"`
	Clicks        int64               `gorm:"not null;default:0"`
	Status        string              `gorm:"type:varchar(20);default:active;index"`
	CreatedAt     time.Time           `gorm:"autoCreateTime;index"`

	Seller     *UserModel `gorm:"foreignKey:SellerID"`
	SellerName string     `gorm:"->;-:migration"`
}

// TableName specifies the table name for ProductModel.
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts ProductModel to domain Product.
func (m *ProductModel) ToDomain() *Product {
	screenshots := []string(m.Screenshots)
	if screenshots == nil {
		screenshots = []string{}
	}
	return &Product{
		ID:            m.ID,
		SellerID:      m.SellerID,
		Name:          m.Name,
		Description:   m.Description,
		Price:         m.Price,
		Category:      m.Category,
		Version:       m.Version,
		Screenshots:   screenshots,
		FileURL:       m.FileURL,
		ContactNumber: m.ContactNumber,
		Views:         m.Views,
		Clicks:        m.Clicks,
		Status:        m.Status,
		CreatedAt:     m.CreatedAt,
		SellerName:    m.SellerName,
	}
}

// ProductToModel converts domain Product to ProductModel.
func ProductToModel(p *Product) *ProductModel {
	return &ProductModel{
		ID:            p.ID,
		SellerID:      p.SellerID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Category:      p.Category,
		Version:       p.Version,
		Screenshots:   database.StringList(p.Screenshots),
		FileURL:       p.FileURL,
		ContactNumber: p.ContactNumber,
		Views:         p.Views,
		Clicks:        p.Clicks,
		Status:        p.Status,
		CreatedAt:     p.CreatedAt,
	}
}

// OrderModel is the GORM model for orders table.
type OrderModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	BuyerID   int64     `gorm:"index;not null"`
	ProductID int64     `gorm:"index;not null"`
	Amount    float64   `gorm:"not null;default:0"`
	Status    string    `gorm:"type:varchar(20);default:completed"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Buyer       *UserModel    `gorm:"foreignKey:BuyerID"`
	Product     *ProductModel `gorm:"foreignKey:ProductID"`
	ProductName string        `gorm:"->;-:migration"`
}

// TableName specifies the table name for OrderModel.
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts OrderModel to domain Order.
func (m *OrderModel) ToDomain() *Order {
	return &Order{
		ID:          m.ID,
		BuyerID:     m.BuyerID,
		ProductID:   m.ProductID,
		Amount:      m.Amount,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		ProductName: m.ProductName,
	}
}

// OrderToModel converts domain Order to OrderModel.
func OrderToModel(o *Order) *OrderModel {
	return &OrderModel{
		ID:        o.ID,
		BuyerID:   o.BuyerID,
		ProductID: o.ProductID,
		Amount:    o.Amount,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}
}

// MessageModel is the GORM model for messages table.
type MessageModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	SenderID   int64     `gorm:"index:idx_messages_pair,priority:1;not null"`
	ReceiverID int64     `gorm:"index:idx_messages_pair,priority:2;not null"`
	Content    string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`

	SenderName string `gorm:"->;-:migration"`
}

// TableName specifies the table name for MessageModel.
func (MessageModel) TableName() string {
	return "messages"
}

// ToDomain converts MessageModel to domain ChatMessage.
func (m *MessageModel) ToDomain() *ChatMessage {
	return &ChatMessage{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
		SenderName: m.SenderName,
	}
}

// MessageToModel converts domain ChatMessage to MessageModel.
func MessageToModel(msg *ChatMessage) *MessageModel {
	return &MessageModel{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt,
	}
}

// ReviewModel is the GORM model for reviews table.
type ReviewModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	ProductID int64     `gorm:"index;not null"`
	UserID    int64     `gorm:"index;not null"`
	Rating    int       `gorm:"not null"`
	Comment   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	UserName string `gorm:"->;-:migration"`
}

// TableName specifies the table name for ReviewModel.
func (ReviewModel) TableName() string {
	return "reviews"
}

// ToDomain converts ReviewModel to domain Review.
func (m *ReviewModel) ToDomain() *Review {
	return &Review{
		ID:        m.ID,
		ProductID: m.ProductID,
		UserID:    m.UserID,
		Rating:    m.Rating,
		Comment:   m.Comment,
		CreatedAt: m.CreatedAt,
		UserName:  m.UserName,
	}
}

// ReviewToModel converts domain Review to ReviewModel.
func ReviewToModel(r *Review) *ReviewModel {
	return &ReviewModel{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

// Models lists every table for AutoMigrate, parents first.
func Models() []interface{} {
	return []interface{}{
		&UserModel{},
		&ProductModel{},
		&OrderModel{},
		&MessageModel{},
		&ReviewModel{},
	}
}
