/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateConstraintName(t *testing.T) {
	fk := ForeignKeyConstraint{Table: "series", Column: "company_id"}
	assert.Equal(t, "fk_series_company_id", fk.GenerateConstraintName())

	fk.ConstraintName = "series_company"
	assert.Equal(t, "series_company", fk.GenerateConstraintName())
}

func TestValidateConstraints(t *testing.T) {
	fkm := &ForeignKeyManager{constraints: []ForeignKeyConstraint{
		{Table: "a", Column: "b_id", ReferenceTable: "b", ReferenceColumn: "id", OnDelete: "set null"},
		{Table: "a", Column: "c_id", ReferenceTable: "c", ReferenceColumn: "id", OnDelete: "DROP"},
		{Table: "", Column: "", ReferenceTable: "", ReferenceColumn: ""},
	}}
	errs := fkm.ValidateConstraints()
	assert.Len(t, errs, 3)
}

func TestMergeConstraintsReplacesByColumn(t *testing.T) {
	base := []ForeignKeyConstraint{
		{Table: "series", Column: "company_id", ReferenceTable: "companies", ReferenceColumn: "id", OnDelete: ActionRestrict},
	}
	merged := mergeConstraints(base, []ForeignKeyConstraint{
		{Table: "SERIES", Column: "company_id", ReferenceTable: "companies", ReferenceColumn: "id", OnDelete: ActionCascade},
		{Table: "characters", Column: "series_id", ReferenceTable: "series", ReferenceColumn: "id"},
	})
	require.Len(t, merged, 2)
	assert.Equal(t, ActionCascade, merged[0].OnDelete)
	assert.Equal(t, ActionRestrict, base[0].OnDelete)
}

func TestConfigurableForeignKeyManager(t *testing.T) {
	_, err := NewConfigurableForeignKeyManager(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	fkm, err := NewConfigurableForeignKeyManager(nil, "")
	require.NoError(t, err)
	fk, ok := fkm.Find("test_books", "publisher_id")
	require.True(t, ok)
	assert.Equal(t, ActionRestrict, fk.OnDelete)

	path := filepath.Join(t.TempDir(), "fk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`foreign_keys:
  - table: test_books
    column: publisher_id
    reference_table: test_publishers
    reference_column: id
    on_delete: CASCADE
`), 0o644))
	overridden, err := NewConfigurableForeignKeyManager(nil, path)
	require.NoError(t, err)
	fk, ok = overridden.Find("test_books", "publisher_id")
	require.True(t, ok)
	assert.Equal(t, ActionCascade, fk.OnDelete)
	assert.Equal(t, len(fkm.ListAllConstraints()), len(overridden.ListAllConstraints()))
}
