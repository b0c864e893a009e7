package validate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/formlogic/internal/form"
)

const bytesPerMB = 1_000_000

// checkTable enforces the row count rules, then validates every cell by
// its column's type.
func checkTable(spec form.TableSpec, grid form.Grid) string {
	rows := len(grid)
	if rows < spec.MinimumRows {
		return fmt.Sprintf("table must have at least %d rows", spec.MinimumRows)
	}
	if !spec.AddMoreRows && spec.MinimumRows > 0 && rows != spec.MinimumRows {
		return fmt.Sprintf("table must have exactly %d rows", spec.MinimumRows)
	}
	if spec.AddMoreRows && spec.MaximumRows > 0 && rows > spec.MaximumRows {
		return fmt.Sprintf("table must have at most %d rows", spec.MaximumRows)
	}

	for r, row := range grid {
		if len(row) != len(spec.Columns) {
			return fmt.Sprintf("row %d has %d cells for %d columns", r+1, len(row), len(spec.Columns))
		}
		for c, col := range spec.Columns {
			if reason := checkCell(col, strings.TrimSpace(row[c])); reason != "" {
				return fmt.Sprintf("row %d, column %q: %s", r+1, col.Title, reason)
			}
		}
	}
	return ""
}

func checkCell(col form.Column, cell string) string {
	if cell == "" {
		if col.Required {
			return RequiredMessage
		}
		return ""
	}
	switch col.ColumnType {
	case form.TypeDropdown:
		if !slices.Contains(col.Options, cell) {
			return "answer is not a valid option"
		}
	case form.TypeShortText:
	default:
		return fmt.Sprintf("unsupported column type %q", col.ColumnType)
	}
	return ""
}

func checkAttachment(spec form.AttachmentSpec, file form.File) string {
	if strings.TrimSpace(file.Name) == "" {
		return "attachment has no filename"
	}
	if spec.SizeMB > 0 && file.Size > int64(spec.SizeMB)*bytesPerMB {
		return fmt.Sprintf("attachment exceeds the %d MB limit", spec.SizeMB)
	}
	return ""
}
