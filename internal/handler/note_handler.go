package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studiora/backend/internal/service"
)

type NoteHandler struct {
	noteService *service.NoteService
}

type createNoteRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

type updateNoteRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Category *string `json:"category"`
}

func NewNoteHandler(noteService *service.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

func (h *NoteHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	notes, apiErr := h.noteService.List(c.Request.Context(), userID, service.NoteFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

func (h *NoteHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	note, apiErr := h.noteService.Get(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": note})
}

func (h *NoteHandler) Categories(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	categories, apiErr := h.noteService.Categories(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *NoteHandler) Create(c *gin.Context) {
	var req createNoteRequest
	if !bindJSON(c, &req, false) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	change, apiErr := h.noteService.Add(c.Request.Context(), userID, service.NoteInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"note": change.Value, "synced": change.Synced})
}

func (h *NoteHandler) Update(c *gin.Context) {
	var req updateNoteRequest
	if !bindJSON(c, &req, false) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	change, apiErr := h.noteService.Update(c.Request.Context(), userID, c.Param("id"), service.NotePatch{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": change.Value, "synced": change.Synced})
}

func (h *NoteHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	change, apiErr := h.noteService.Delete(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": change.Value, "synced": change.Synced})
}
