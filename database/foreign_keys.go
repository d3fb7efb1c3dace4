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
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"
)

// Referential actions accepted for ON DELETE / ON UPDATE.
const (
	ActionCascade  = "CASCADE"
	ActionRestrict = "RESTRICT"
	ActionSetNull  = "SET NULL"
	ActionNoAction = "NO ACTION"
)

var validActions = []string{ActionCascade, ActionRestrict, ActionSetNull, ActionNoAction}

// ForeignKeyConstraint describes a foreign key relationship between tables.
type ForeignKeyConstraint struct {
	Table           string
	Column          string
	ReferenceTable  string
	ReferenceColumn string
	OnDelete        string
	OnUpdate        string
	ConstraintName  string
}

// GenerateConstraintName returns the explicit name or a derived name.
func (fk *ForeignKeyConstraint) GenerateConstraintName() string {
	if fk.ConstraintName != "" {
		return fk.ConstraintName
	}
	return fmt.Sprintf("fk_%s_%s", fk.Table, fk.Column)
}

func (fk *ForeignKeyConstraint) key() string {
	return strings.ToLower(fk.Table + "." + fk.Column)
}

// apply adds the constraint to a CREATE TABLE query as an inline clause, which
// every supported dialect accepts (sqlite has no ALTER TABLE ADD CONSTRAINT).
func (fk *ForeignKeyConstraint) apply(q *bun.CreateTableQuery) *bun.CreateTableQuery {
	clause := "(?) REFERENCES ? (?)"
	if fk.OnDelete != "" {
		clause += " ON DELETE " + strings.ToUpper(fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		clause += " ON UPDATE " + strings.ToUpper(fk.OnUpdate)
	}
	return q.ForeignKey(clause, bun.Ident(fk.Column), bun.Ident(fk.ReferenceTable), bun.Ident(fk.ReferenceColumn))
}

var (
	foreignKeyRegistryMu sync.RWMutex
	foreignKeyRegistry   []ForeignKeyConstraint
)

// RegisterForeignKeys adds code-defined constraints. A later registration for
// the same table and column replaces the earlier one.
func RegisterForeignKeys(constraints ...ForeignKeyConstraint) {
	foreignKeyRegistryMu.Lock()
	defer foreignKeyRegistryMu.Unlock()
	foreignKeyRegistry = mergeConstraints(foreignKeyRegistry, constraints)
}

func getForeignKeyConstraints() []ForeignKeyConstraint {
	foreignKeyRegistryMu.RLock()
	defer foreignKeyRegistryMu.RUnlock()
	result := make([]ForeignKeyConstraint, len(foreignKeyRegistry))
	copy(result, foreignKeyRegistry)
	return result
}

func mergeConstraints(base, overrides []ForeignKeyConstraint) []ForeignKeyConstraint {
	result := make([]ForeignKeyConstraint, len(base))
	copy(result, base)
	for _, o := range overrides {
		replaced := false
		for i := range result {
			if result[i].key() == o.key() {
				result[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			result = append(result, o)
		}
	}
	return result
}

// ForeignKeyManager holds the effective constraint set used when creating tables.
type ForeignKeyManager struct {
	constraints []ForeignKeyConstraint
	logger      Logger
}

// NewForeignKeyManager creates a manager with the code-defined constraints.
func NewForeignKeyManager(logger Logger) *ForeignKeyManager {
	return &ForeignKeyManager{
		constraints: getForeignKeyConstraints(),
		logger:      logger,
	}
}

// GetConstraintsByTable returns the constraints defined for a table.
func (fkm *ForeignKeyManager) GetConstraintsByTable(tableName string) []ForeignKeyConstraint {
	var result []ForeignKeyConstraint
	for _, constraint := range fkm.constraints {
		if strings.EqualFold(constraint.Table, tableName) {
			result = append(result, constraint)
		}
	}
	return result
}

// Find returns the constraint on table.column, if any.
func (fkm *ForeignKeyManager) Find(table, column string) (ForeignKeyConstraint, bool) {
	for _, constraint := range fkm.constraints {
		if strings.EqualFold(constraint.Table, table) && strings.EqualFold(constraint.Column, column) {
			return constraint, true
		}
	}
	return ForeignKeyConstraint{}, false
}

// ListAllConstraints returns all configured constraints.
func (fkm *ForeignKeyManager) ListAllConstraints() []ForeignKeyConstraint {
	return fkm.constraints
}

// ApplyToCreateTable appends the constraints of table to q.
func (fkm *ForeignKeyManager) ApplyToCreateTable(q *bun.CreateTableQuery, table string) *bun.CreateTableQuery {
	for _, constraint := range fkm.GetConstraintsByTable(table) {
		q = constraint.apply(q)
		if fkm.logger != nil {
			fkm.logger.Debug("Foreign key attached", "constraint", constraint.GenerateConstraintName(), "on_delete", constraint.OnDelete)
		}
	}
	return q
}

// ValidateConstraints checks the configured constraints for common issues.
func (fkm *ForeignKeyManager) ValidateConstraints() []error {
	var errs []error
	for _, constraint := range fkm.constraints {
		if constraint.Table == "" || constraint.Column == "" {
			errs = append(errs, fmt.Errorf("table and column cannot be empty: %q.%q", constraint.Table, constraint.Column))
		}
		if constraint.ReferenceTable == "" || constraint.ReferenceColumn == "" {
			errs = append(errs, fmt.Errorf("reference cannot be empty: %s.%s", constraint.Table, constraint.Column))
		}
		if !isValidAction(constraint.OnDelete) {
			errs = append(errs, fmt.Errorf("invalid delete policy: %s, constraint: %s", constraint.OnDelete, constraint.GenerateConstraintName()))
		}
		if !isValidAction(constraint.OnUpdate) {
			errs = append(errs, fmt.Errorf("invalid update policy: %s, constraint: %s", constraint.OnUpdate, constraint.GenerateConstraintName()))
		}
	}
	return errs
}

func isValidAction(action string) bool {
	if action == "" {
		return true
	}
	for _, valid := range validActions {
		if strings.EqualFold(action, valid) {
			return true
		}
	}
	return false
}

// ForeignKeyConfig is the YAML structure that lists foreign key constraints.
type ForeignKeyConfig struct {
	ForeignKeys []ForeignKeyConstraintConfig `yaml:"foreign_keys"`
}

// ForeignKeyConstraintConfig describes a single foreign key in configuration.
type ForeignKeyConstraintConfig struct {
	Table           string `yaml:"table"`
	Column          string `yaml:"column"`
	ReferenceTable  string `yaml:"reference_table"`
	ReferenceColumn string `yaml:"reference_column"`
	OnDelete        string `yaml:"on_delete"`
	OnUpdate        string `yaml:"on_update,omitempty"`
	ConstraintName  string `yaml:"constraint_name,omitempty"`
	Description     string `yaml:"description,omitempty"`
}

// ToForeignKeyConstraint converts the config entry into a runtime constraint.
func (fkc *ForeignKeyConstraintConfig) ToForeignKeyConstraint() ForeignKeyConstraint {
	return ForeignKeyConstraint{
		Table:           fkc.Table,
		Column:          fkc.Column,
		ReferenceTable:  fkc.ReferenceTable,
		ReferenceColumn: fkc.ReferenceColumn,
		OnDelete:        fkc.OnDelete,
		OnUpdate:        fkc.OnUpdate,
		ConstraintName:  fkc.ConstraintName,
	}
}

// ConfigurableForeignKeyManager overlays constraints read from a YAML file on
// top of the code-defined ones. Entries are matched by table and column.
type ConfigurableForeignKeyManager struct {
	*ForeignKeyManager
	configPath string
}

// NewConfigurableForeignKeyManager loads configPath. An empty path yields the
// code-defined constraints; a missing or malformed file is an error.
func NewConfigurableForeignKeyManager(logger Logger, configPath string) (*ConfigurableForeignKeyManager, error) {
	manager := &ConfigurableForeignKeyManager{
		ForeignKeyManager: NewForeignKeyManager(logger),
		configPath:        configPath,
	}
	if configPath == "" {
		return manager, nil
	}

	overrides, err := manager.loadFromConfig()
	if err != nil {
		return nil, err
	}
	manager.constraints = mergeConstraints(manager.constraints, overrides)
	if logger != nil {
		logger.Info("Foreign key policy loaded", "config_path", configPath, "overrides", len(overrides))
	}
	return manager, nil
}

func (cfm *ConfigurableForeignKeyManager) loadFromConfig() ([]ForeignKeyConstraint, error) {
	data, err := os.ReadFile(cfm.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign key config: %w", err)
	}

	var config ForeignKeyConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse foreign key config: %w", err)
	}

	constraints := make([]ForeignKeyConstraint, 0, len(config.ForeignKeys))
	for _, fkConfig := range config.ForeignKeys {
		constraints = append(constraints, fkConfig.ToForeignKeyConstraint())
	}
	return constraints, nil
}
