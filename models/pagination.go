package models

// MetaData describes one page of a listing.
type MetaData struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasMore    bool  `json:"has_more"`
}

// NewMetaData derives paging fields from a total count.
func NewMetaData(page, limit int, total int64) MetaData {
	var pages int64
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return MetaData{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
		HasMore:    total > int64(page*limit),
	}
}
