package catalog_repo

import (
	"strings"
	"testing"

	"tillbook/internal/core/id"
	"tillbook/internal/domain/catalogs/product"
)

func TestListQuery(t *testing.T) {
	repo := &ProductRepo{}
	tenantID := id.New()

	tests := []struct {
		name         string
		filter       product.ListFilter
		wantContains []string
		wantAbsent   []string
		wantArgs     int
	}{
		{
			name:   "no filter",
			filter: product.ListFilter{},
			wantContains: []string{
				"SELECT",
				"FROM products",
				"tenant_id = $1",
				"deleted_at IS NULL",
				"ORDER BY name",
			},
			wantAbsent: []string{"ILIKE", "LIMIT", "OFFSET"},
			wantArgs:   1,
		},
		{
			name:   "search matches sku or name",
			filter: product.ListFilter{Search: "cola"},
			wantContains: []string{
				"sku ILIKE $2",
				"name ILIKE $3",
				" OR ",
			},
			wantArgs: 3,
		},
		{
			name:         "active only",
			filter:       product.ListFilter{ActiveOnly: true},
			wantContains: []string{"is_active = $2"},
			wantArgs:     2,
		},
		{
			name:         "pagination",
			filter:       product.ListFilter{Limit: 20, Offset: 40},
			wantContains: []string{"LIMIT 20", "OFFSET 40"},
			wantArgs:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.listQuery(tenantID, tt.filter).ToSql()
			if err != nil {
				t.Fatalf("ToSql: %v", err)
			}

			for _, want := range tt.wantContains {
				if !strings.Contains(sql, want) {
					t.Errorf("sql missing %q:\n%s", want, sql)
				}
			}
			for _, absent := range tt.wantAbsent {
				if strings.Contains(sql, absent) {
					t.Errorf("sql unexpectedly contains %q:\n%s", absent, sql)
				}
			}
			if len(args) != tt.wantArgs {
				t.Errorf("args = %d, want %d", len(args), tt.wantArgs)
			}
		})
	}
}

func TestSearchPatternIsWrappedInWildcards(t *testing.T) {
	repo := &ProductRepo{}

	_, args, err := repo.listQuery(id.New(), product.ListFilter{Search: "abc"}).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if args[1] != "%abc%" || args[2] != "%abc%" {
		t.Errorf("search args = %v, want wrapped pattern", args[1:])
	}
}
