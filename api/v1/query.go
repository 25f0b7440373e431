package v1

import (
	"strconv"
	"strings"
	"time"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/utils"
	"github.com/gin-gonic/gin"
)

// pageRequest reads page and limit; invalid values fall back to defaults
func pageRequest(ctx *gin.Context, defaultLimit int) dto.PageRequest {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	return dto.NewPageRequest(page, limit, defaultLimit)
}

// dateQuery parses an optional date parameter. Plain YYYY-MM-DD upper
// bounds cover the whole day.
func dateQuery(ctx *gin.Context, key string, upper bool) (*time.Time, error) {
	raw := strings.TrimSpace(ctx.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(raw)
	if err != nil {
		return nil, apperrors.Field(key, "Invalid date")
	}
	if upper && len(raw) == len(utils.DateLayout) {
		t = utils.EndOfDay(t)
	}
	return &t, nil
}

// dateRangeQuery parses a pair of date parameters
func dateRangeQuery(ctx *gin.Context, fromKey, toKey string) (*time.Time, *time.Time, error) {
	from, err := dateQuery(ctx, fromKey, false)
	if err != nil {
		return nil, nil, err
	}
	to, err := dateQuery(ctx, toKey, true)
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

// boolQuery parses an optional boolean parameter
func boolQuery(ctx *gin.Context, key string) (*bool, error) {
	raw := strings.TrimSpace(ctx.Query(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.Field(key, key+" must be true or false")
	}
	return &value, nil
}
