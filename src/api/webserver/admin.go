package webserver

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ptrdsh/participatory-budgeting/src/api/importer"
	"github.com/ptrdsh/participatory-budgeting/src/api/types"
)

type Admin struct{ db *gorm.DB }

func NewAdmin(db *gorm.DB) Admin { return Admin{db: db} }

// Import ingests a new budget period from the three CSV exports
// (period, categories, items) posted as a multipart form. The new period
// becomes the active one.
func (a Admin) Import(c *gin.Context) {
	var user types.User
	if err := a.db.First(&user, c.GetUint64("uid")).Error; err != nil || !user.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"err": "admin access required"})
		return
	}

	files := make(map[string]io.Reader, 3)
	for _, name := range []string{"period", "categories", "items"} {
		fh, err := c.FormFile(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"err": "missing file: " + name})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
			return
		}
		defer f.Close()
		files[name] = f
	}

	parsed, err := importer.ParseCSV(files["period"], files["categories"], files["items"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	result, err := importer.Save(a.db, parsed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, result)
}
