package auth

import "rrnagar-backend/internal/models"

// CanCreateProduct reports whether id may create products.
func CanCreateProduct(id Identity) bool {
	return id.IsSupplier() || id.IsAdmin()
}

// CreatesTemplate reports whether products created by id are templates.
func CreatesTemplate(id Identity) bool {
	return id.IsAdmin()
}

// CanCloneTemplate reports whether id may base a new product on a template.
func CanCloneTemplate(id Identity) bool {
	return id.IsSupplier()
}

// NeedsCustodyCheck reports whether deciding CanDeleteProduct for id requires
// a custody lookup.
func NeedsCustodyCheck(id Identity, p *models.Product) bool {
	return id.IsSupplier() && !p.OwnedBy(id.ID)
}

// CanDeleteProduct reports whether id may delete p: admins always, suppliers
// when they own p or carry it.
func CanDeleteProduct(id Identity, p *models.Product, custodian bool) bool {
	switch {
	case id.IsAdmin():
		return true
	case id.IsSupplier():
		return p.OwnedBy(id.ID) || custodian
	default:
		return false
	}
}
