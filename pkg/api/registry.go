package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZentaChain/mirlink/pkg/protocol"
)

// EntryView is the JSON form of one registry entry
type EntryView struct {
	Code       uint8  `json:"code"`
	Name       string `json:"name"`
	Class      string `json:"class"`
	ClassID    uint8  `json:"class_id"`
	Size       int    `json:"size"`
	Compressed bool   `json:"compressed"`
}

// RegistryResponse lists every registered entry
type RegistryResponse struct {
	Fingerprint string      `json:"fingerprint"`
	Count       int         `json:"count"`
	Entries     []EntryView `json:"entries"`
}

// LookupResponse is the resolution of a single code
type LookupResponse struct {
	Code       uint8     `json:"code"`
	Registered bool      `json:"registered"`
	Resolved   EntryView `json:"resolved"`
}

func newEntryView(code uint8, attr protocol.Attribute) EntryView {
	return EntryView{
		Code:       code,
		Name:       attr.Name,
		Class:      attr.Class.String(),
		ClassID:    uint8(attr.Class),
		Size:       attr.Size,
		Compressed: attr.Class.IsCompressed(),
	}
}

// handleRegistry handles GET /api/v1/registry
func (s *Server) handleRegistry(c *gin.Context) {
	entries := s.registry.Entries()
	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, newEntryView(uint8(e.Kind), e.Attribute))
	}

	c.JSON(http.StatusOK, RegistryResponse{
		Fingerprint: s.registry.Fingerprint().Hex(),
		Count:       len(views),
		Entries:     views,
	})
}

// handleLookup handles GET /api/v1/registry/:code
func (s *Server) handleLookup(c *gin.Context) {
	code, err := protocol.ParseCode(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid code",
			Message: "code must be 0-255, decimal or 0x-prefixed hex",
		})
		return
	}

	attr := s.registry.Lookup(code)
	resolved := newEntryView(code, attr)
	if !s.registry.Registered(code) {
		resolved.Code = uint8(protocol.KindNone)
	}

	c.JSON(http.StatusOK, LookupResponse{
		Code:       code,
		Registered: s.registry.Registered(code),
		Resolved:   resolved,
	})
}
