package models

// Tables is the AutoMigrate set, in dependency order.
var Tables = []interface{}{
	&Admin{},
	&Supplier{},
	&Customer{},
	&Category{},
	&Product{},
	&ProductSupplier{},
	&AuditLog{},
	&SessionRecord{},
}
