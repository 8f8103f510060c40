package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/dealscope/internal/oppscan"
)

type estimateRequest struct {
	SourceIDs []string `json:"sourceIds" binding:"required"`
}

// OppScanSources lists the data source catalogue
func OppScanSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sources": oppscan.Catalogue})
}

// OppScanEstimate prices a selection of sources. Unknown ids are reported in
// the estimate rather than rejected.
func OppScanEstimate(c *gin.Context) {
	var req estimateRequest
	if !bindJSON(c, &req) {
		return
	}
	c.JSON(http.StatusOK, oppscan.Aggregate(req.SourceIDs))
}
