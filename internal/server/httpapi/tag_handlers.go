package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/habits/internal/common"
)

type createTagRequest struct {
	Name  string  `json:"name" validate:"required,max=50"`
	Color *string `json:"color" validate:"omitempty,hexcolor,max=10"`
}

func (a *api) listTags(w http.ResponseWriter, r *http.Request) {
	list, err := a.tags.List(r.Context())
	if err != nil {
		a.internalError(w, r, err, "Failed to get tags!")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": list})
}

func (a *api) createTag(w http.ResponseWriter, r *http.Request) {
	var req createTagRequest
	if !a.decodeAndValidate(w, r, &req, false) {
		return
	}

	tag, err := a.tags.Create(r.Context(), req.Name, req.Color)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			writeError(w, http.StatusConflict, "Tag with this name already exists")
			return
		}
		a.internalError(w, r, err, "Failed to create tag!")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"message": "Tag created successfully", "tag": tag})
}
