package memory

import (
	"github.com/shopspring/decimal"

	"little-lemon/internal/models"
)

// SeedDemo fills the store with staff, a customer and a small menu for
// local runs with storage.driver=memory.
func (s *Store) SeedDemo() {
	s.AddUser("admin", "admin@littlelemon.test", models.GroupManager)
	s.AddUser("mario", "mario@littlelemon.test", models.GroupDeliveryCrew)
	s.AddUser("adrian", "adrian@littlelemon.test")

	mains := s.AddCategory("main-course", "Main Course")
	desserts := s.AddCategory("desserts", "Desserts")

	s.AddMenuItem("Greek Salad", decimal.RequireFromString("12.50"), true, 0)
	s.AddMenuItem("Lemon Chicken", decimal.RequireFromString("18.00"), true, mains.ID)
	s.AddMenuItem("Bruschetta", decimal.RequireFromString("7.99"), false, 0)
	s.AddMenuItem("Lemon Dessert", decimal.RequireFromString("6.25"), false, desserts.ID)
}
