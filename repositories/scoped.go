package repositories

import "gorm.io/gorm"

// updateScoped writes only the given columns of the row with id. A
// non-empty ownerID adds ownerColumn = ownerID to the match. It reports
// whether a row matched; a row removed meanwhile is never re-created.
func updateScoped(db *gorm.DB, model interface{}, id, ownerColumn, ownerID string, columns map[string]interface{}) (bool, error) {
	if len(columns) == 0 {
		return true, nil
	}
	query := db.Model(model).Where("id = ?", id)
	if ownerID != "" {
		query = query.Where(ownerColumn+" = ?", ownerID)
	}
	result := query.Updates(columns)
	return result.RowsAffected > 0, result.Error
}
