package database

import (
	"fmt"

	"github.com/sandeepkv93/product-catalog-service/internal/domain"

	"gorm.io/gorm"
)

func models() []any {
	return []any{&domain.Product{}}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models()...)
}

// Plan reports the tables and columns AutoMigrate would create, without
// touching the schema.
func Plan(db *gorm.DB) ([]string, error) {
	migrator := db.Migrator()
	var pending []string
	for _, m := range models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, fmt.Errorf("parse model: %w", err)
		}
		table := stmt.Schema.Table
		if !migrator.HasTable(m) {
			pending = append(pending, "create table "+table)
			continue
		}
		for _, field := range stmt.Schema.Fields {
			if field.DBName == "" {
				continue
			}
			if !migrator.HasColumn(m, field.DBName) {
				pending = append(pending, fmt.Sprintf("add column %s.%s", table, field.DBName))
			}
		}
		for _, idx := range stmt.Schema.ParseIndexes() {
			if !migrator.HasIndex(m, idx.Name) {
				pending = append(pending, fmt.Sprintf("create index %s on %s", idx.Name, table))
			}
		}
	}
	return pending, nil
}
