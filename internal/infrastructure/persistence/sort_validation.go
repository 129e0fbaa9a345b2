package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes a sort direction to ASC or DESC; anything else is DESC
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "ASC") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, otherwise defaultField
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// OrderSortFields are the columns the order desk can sort by
var OrderSortFields = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"total":         true,
	"status":        true,
	"customer_name": true,
}

// orderClause builds an ORDER BY clause from whitelisted parts; id breaks ties
func orderClause(sortBy, sortDir string, allowed map[string]bool, defaultField string) string {
	field := ValidateSortField(sortBy, allowed, defaultField)
	dir := ValidateSortOrder(sortDir)
	return field + " " + dir + ", id " + dir
}
