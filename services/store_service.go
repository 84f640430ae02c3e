package services

import (
	"errors"
	"fmt"

	"pilot-onboarding-system/models"
	"pilot-onboarding-system/utils"

	"gorm.io/gorm"
)

type StoreService struct {
	DB      *gorm.DB
	Journal *JournalService
	Docs    utils.DocumentStore
}

func NewStoreService(db *gorm.DB, journal *JournalService, docs utils.DocumentStore) *StoreService {
	return &StoreService{DB: db, Journal: journal, Docs: docs}
}

// ListItems returns the catalog, in-stock items first.
func (s *StoreService) ListItems() ([]models.StoreItem, error) {
	var items []models.StoreItem
	err := s.DB.Order("stock = 0, name").Find(&items).Error
	return items, err
}

// CreateOrder deducts mana and stock and files the order, all in one
// transaction. The row lock keeps two pilots from buying the last item.
func (s *StoreService) CreateOrder(user *models.User, itemID uint, comment *string) (*models.Order, error) {
	var order models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var item models.StoreItem
		if err := lockForUpdate(tx).
			First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: Товар не найден", ErrNotFound)
			}
			return err
		}
		if item.Stock <= 0 {
			return ErrOutOfStock
		}

		var pilot models.User
		if err := lockForUpdate(tx).
			First(&pilot, user.ID).Error; err != nil {
			return err
		}
		if pilot.Mana < item.CostMana {
			return ErrNotEnoughMana
		}

		if err := tx.Model(&pilot).Update("mana", pilot.Mana-item.CostMana).Error; err != nil {
			return err
		}
		if err := tx.Model(&item).Update("stock", item.Stock-1).Error; err != nil {
			return err
		}

		order = models.Order{UserID: pilot.ID, ItemID: item.ID, Comment: comment}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		return s.Journal.LogEvent(tx, pilot.ID, models.EventOrderCreated,
			fmt.Sprintf("Заказ «%s» оформлен", item.Name),
			"Команда HR подтвердит и передаст приз.",
			map[string]any{"order_id": order.ID, "item_id": item.ID},
			0, -item.CostMana)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns orders for HR review, or one pilot's orders.
func (s *StoreService) ListOrders(userID *uint) ([]models.Order, error) {
	query := s.DB.Preload("Item").Order("created_at DESC")
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	} else {
		query = query.Preload("User")
	}
	var orders []models.Order
	err := query.Find(&orders).Error
	return orders, err
}

// UpdateOrderStatus moves an order through HR review.
func (s *StoreService) UpdateOrderStatus(orderID uint, status models.OrderStatus) (*models.Order, error) {
	var order models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Item").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: Заказ не найден", ErrNotFound)
			}
			return err
		}
		if err := tx.Model(&order).Update("status", status).Error; err != nil {
			return err
		}
		order.Status = status

		if status == models.OrderApproved {
			name := ""
			if order.Item != nil {
				name = order.Item.Name
			}
			return s.Journal.LogEvent(tx, order.UserID, models.EventOrderApproved,
				fmt.Sprintf("Заказ «%s» одобрен", name),
				"Скоро мы свяжемся для вручения.",
				map[string]any{"order_id": order.ID}, 0, 0)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// StoreItemInput is the HR payload for catalog edits. ImageURL and stock
// are tagged so an omitted field keeps the stored value.
type StoreItemInput struct {
	Name        *string             `json:"name"`
	Description *string             `json:"description"`
	CostMana    *int                `json:"cost_mana"`
	Stock       *int                `json:"stock"`
	ImageURL    utils.Field[string] `json:"image_url"`
}

// CreateItem adds a catalog entry.
func (s *StoreService) CreateItem(input StoreItemInput) (*models.StoreItem, error) {
	item := models.StoreItem{}
	if input.Name != nil {
		item.Name = *input.Name
	}
	if input.Description != nil {
		item.Description = *input.Description
	}
	if input.CostMana != nil {
		item.CostMana = *input.CostMana
	}
	if input.Stock != nil {
		item.Stock = *input.Stock
	}
	input.ImageURL.Apply(&item.ImageURL)
	if err := s.DB.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem applies a partial edit. A replaced image is deleted from the
// document store.
func (s *StoreService) UpdateItem(itemID uint, input StoreItemInput) (*models.StoreItem, error) {
	var item models.StoreItem
	if err := s.DB.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Товар не найден", ErrNotFound)
		}
		return nil, err
	}

	if input.Name != nil {
		item.Name = *input.Name
	}
	if input.Description != nil {
		item.Description = *input.Description
	}
	if input.CostMana != nil {
		item.CostMana = *input.CostMana
	}
	if input.Stock != nil {
		item.Stock = *input.Stock
	}
	if input.ImageURL.Set {
		if item.ImageURL != nil && (input.ImageURL.Value == nil || *input.ImageURL.Value != *item.ImageURL) {
			_ = s.Docs.Delete(*item.ImageURL)
		}
		item.ImageURL = input.ImageURL.Value
	}

	if err := s.DB.Save(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
