package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"unionvote/internal/storage"
	"unionvote/internal/utils"

	"github.com/gin-gonic/gin"
)

// jsonError maps the storage sentinel errors onto HTTP statuses. Every
// error body is a JSON object with a single "message" field. Unknown
// errors (the upstream room provider included) propagate as 500 with
// the raw message.
func jsonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, storage.ErrConflict):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	}
}

func forbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, gin.H{"message": message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}

// paramID parses a numeric path parameter; on failure it writes a 404
// (a non-numeric id can never reference an entity).
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": name + " not found"})
		return 0, false
	}
	return uint(id), true
}

const postsPerPage = 30

// listQuery builds a PostQuery out of the sort/range/page parameters.
func listQuery(c *gin.Context) storage.PostQuery {
	sortBy := c.DefaultQuery("sort", storage.SortNew)
	switch sortBy {
	case storage.SortNew, storage.SortTop, storage.SortTrending:
	default:
		sortBy = storage.SortNew
	}

	var since time.Time
	switch c.DefaultQuery("range", "all") {
	case "day":
		since = time.Now().AddDate(0, 0, -1)
	case "week":
		since = time.Now().AddDate(0, 0, -7)
	case "month":
		since = time.Now().AddDate(0, -1, 0)
	case "year":
		since = time.Now().AddDate(-1, 0, 0)
	}

	page := utils.StringToInt(c.Query("page"))
	if page < 1 {
		page = 1
	}

	return storage.PostQuery{
		Sort:   sortBy,
		Since:  since,
		Limit:  postsPerPage,
		Offset: (page - 1) * postsPerPage,
	}
}
