package sheetssql

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
)

// GetTableAs reads every data row of the table for T and maps cells to
// fields by their ssql_header tag. The header and type rows are skipped.
func GetTableAs[T any](ctx context.Context, db *DB, tableName string) ([]T, error) {
	values, err := db.client.GetValues(ctx, db.spreadsheetID, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get table %s: %w", tableName, err)
	}

	if len(values) < 3 {
		return []T{}, nil
	}

	var zero T
	t := reflect.TypeOf(zero)

	columnIndexes := make(map[string]int)
	for i, header := range values[0] {
		if name, ok := header.(string); ok {
			columnIndexes[name] = i
		}
	}

	fieldMap := make(map[string]reflect.StructField)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if column := field.Tag.Get("ssql_header"); column != "" {
			fieldMap[column] = field
		}
	}

	dataRows := values[2:]
	results := make([]T, 0, len(dataRows))
	for rowIdx, row := range dataRows {
		result := reflect.New(t).Elem()

		for column, colIdx := range columnIndexes {
			field, ok := fieldMap[column]
			if !ok || colIdx >= len(row) || row[colIdx] == nil {
				continue
			}

			if err := setFieldValue(result.FieldByName(field.Name), row[colIdx]); err != nil {
				// Sheet rows are 1-based and data starts on row 3
				return nil, fmt.Errorf("row %d, column %s: %w", rowIdx+3, column, err)
			}
		}

		results = append(results, result.Interface().(T))
	}

	return results, nil
}

// setFieldValue converts a sheet cell to the field's type
func setFieldValue(field reflect.Value, cellValue any) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	cell, ok := cellValue.(string)
	if !ok {
		cell = fmt.Sprint(cellValue)
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(cell)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if cell == "" {
			field.SetInt(0)
			return nil
		}
		n, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse int: %w", err)
		}
		field.SetInt(n)

	case reflect.Bool:
		if cell == "" {
			field.SetBool(false)
			return nil
		}
		b, err := strconv.ParseBool(cell)
		if err != nil {
			return fmt.Errorf("failed to parse bool: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// InsertModels appends structs as rows to the table named after T
func InsertModels[T any](ctx context.Context, db *DB, models []T) error {
	if len(models) == 0 {
		return nil
	}

	t := reflect.TypeOf(models[0])
	rows := make([][]any, 0, len(models))
	for _, model := range models {
		rows = append(rows, modelRow(t, reflect.ValueOf(model)))
	}

	return db.InsertRows(ctx, toSnakeCase(t.Name()), rows)
}

// InsertModel appends one struct as a row to the table named after T
func InsertModel[T any](ctx context.Context, db *DB, model T) error {
	return InsertModels(ctx, db, []T{model})
}

func modelRow(t reflect.Type, v reflect.Value) []any {
	row := make([]any, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("ssql_header") == "" {
			continue
		}
		row = append(row, v.Field(i).Interface())
	}
	return row
}
