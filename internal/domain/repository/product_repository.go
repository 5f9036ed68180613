package repository

import "github.com/tu-usuario/almacen-api/internal/domain/entity"

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetBySKU(sku string) (*entity.Product, error)
	Update(product *entity.Product) error
	List(onlyActive bool, limit, offset int) ([]*entity.Product, error)
	// Deactivate marca el producto como inactivo; no hay borrado físico
	// mientras existan líneas de orden o inventario que lo referencien.
	Deactivate(id string) error
}
