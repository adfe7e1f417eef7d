package sqlstore

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrations_OrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"010_indexes.sql":  {Data: []byte("SELECT 1;")},
		"002_coffee.sql":   {Data: []byte("SELECT 1;")},
		"001_initial.sql":  {Data: []byte("SELECT 1;")},
		"README.md":        {Data: []byte("notes")},
		"fixtures/003.sql": {Data: []byte("SELECT 1;")},
	}

	got, err := listMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []migration{
		{version: 1, file: "001_initial.sql"},
		{version: 2, file: "002_coffee.sql"},
		{version: 10, file: "010_indexes.sql"},
	}, got)
}

func TestListMigrations_RejectsUnversionedFile(t *testing.T) {
	fsys := fstest.MapFS{
		"initial.sql": {Data: []byte("SELECT 1;")},
	}

	_, err := listMigrations(fsys)
	assert.ErrorContains(t, err, "initial.sql")
}

func TestNameMatches(t *testing.T) {
	tests := []struct {
		lower string
		want  string
	}{
		{"lower", "lower(name) = lower(CAST(? AS TEXT))"},
		{"unicode_lower", "unicode_lower(name) = unicode_lower(CAST(? AS TEXT))"},
	}

	for _, tt := range tests {
		t.Run(tt.lower, func(t *testing.T) {
			r := &Repository{dialect: Dialect{Lower: tt.lower}}

			sqlStr, args, err := r.nameMatches("name", "Grindsmith").ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.want, sqlStr)
			assert.Equal(t, []interface{}{"Grindsmith"}, args)
		})
	}
}
