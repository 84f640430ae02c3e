package services

import (
	"testing"

	"pilot-onboarding-system/models"
	"pilot-onboarding-system/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreEnv(t *testing.T) (*testEnv, *StoreService) {
	t.Helper()
	env := newTestEnv(t)
	return env, NewStoreService(env.DB, env.Journal, env.Docs)
}

func createItem(t *testing.T, env *testEnv, name string, cost, stock int) *models.StoreItem {
	t.Helper()
	item := &models.StoreItem{Name: name, Description: "prize", CostMana: cost, Stock: stock}
	require.NoError(t, env.DB.Create(item).Error)
	return item
}

func TestCreateOrderDeductsManaAndStock(t *testing.T) {
	env, store := newStoreEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 100)
	item := createItem(t, env, "Футболка", 40, 2)

	order, err := store.CreateOrder(pilot, item.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)

	require.NoError(t, env.DB.First(pilot, pilot.ID).Error)
	assert.Equal(t, 60, pilot.Mana)
	require.NoError(t, env.DB.First(item, item.ID).Error)
	assert.Equal(t, 1, item.Stock)

	var entry models.JournalEntry
	require.NoError(t, env.DB.Where("user_id = ? AND event_type = ?",
		pilot.ID, models.EventOrderCreated).First(&entry).Error)
	assert.Equal(t, -40, entry.ManaDelta)
}

func TestCreateOrderNotEnoughMana(t *testing.T) {
	env, store := newStoreEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 30)
	item := createItem(t, env, "Худи", 40, 5)

	_, err := store.CreateOrder(pilot, item.ID, nil)
	assert.ErrorIs(t, err, ErrNotEnoughMana)

	require.NoError(t, env.DB.First(pilot, pilot.ID).Error)
	assert.Equal(t, 30, pilot.Mana, "failed order leaves mana untouched")
	require.NoError(t, env.DB.First(item, item.ID).Error)
	assert.Equal(t, 5, item.Stock)
}

func TestCreateOrderOutOfStock(t *testing.T) {
	env, store := newStoreEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 100)
	item := createItem(t, env, "Кружка", 10, 0)

	_, err := store.CreateOrder(pilot, item.ID, nil)
	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestUpdateOrderStatusApproved(t *testing.T) {
	env, store := newStoreEnv(t)
	pilot := createPilot(t, env.DB, "pilot@corp.test", 0, 100)
	item := createItem(t, env, "Рюкзак", 20, 1)

	order, err := store.CreateOrder(pilot, item.ID, nil)
	require.NoError(t, err)

	updated, err := store.UpdateOrderStatus(order.ID, models.OrderApproved)
	require.NoError(t, err)
	assert.Equal(t, models.OrderApproved, updated.Status)

	var entry models.JournalEntry
	require.NoError(t, env.DB.Where("user_id = ? AND event_type = ?",
		pilot.ID, models.EventOrderApproved).First(&entry).Error)
	assert.Contains(t, entry.Title, "Рюкзак")
}

func TestListItemsOrdering(t *testing.T) {
	env, store := newStoreEnv(t)
	createItem(t, env, "А: распродан", 10, 0)
	createItem(t, env, "Б: в наличии", 10, 3)

	items, err := store.ListItems()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Б: в наличии", items[0].Name, "in-stock items come first")
}

func TestUpdateItemImageReplacement(t *testing.T) {
	env, store := newStoreEnv(t)
	oldPath, err := env.Docs.Save([]byte("img"), "store", 0, "old.png")
	require.NoError(t, err)
	item := createItem(t, env, "Стикеры", 5, 10)
	require.NoError(t, env.DB.Model(item).Update("image_url", oldPath).Error)

	newPath := "store/user_0/new.png"
	updated, err := store.UpdateItem(item.ID, StoreItemInput{
		ImageURL: utils.SetTo(newPath),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ImageURL)
	assert.Equal(t, newPath, *updated.ImageURL)
	assert.Contains(t, env.Docs.deleted, oldPath)
}
