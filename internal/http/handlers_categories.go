package http

import (
	"fmt"
	"net/http"

	"bilancio/internal/core"
)

type categoryRow struct {
	core.Category
	Transactions int64
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request, id core.Identity) {
	ctx := r.Context()
	cats, err := s.categories.List(ctx, id)
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}

	counts, err := s.categories.TransactionCounts(ctx, id)
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}

	rows := make([]categoryRow, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, categoryRow{Category: c, Transactions: counts[c.ID]})
	}
	s.render(w, r, http.StatusOK, "categories.html", "Categories", "categories", rows)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, id core.Identity) {
	if err := parseForm(r); err != nil {
		s.fail(w, r, err, "/categories")
		return
	}
	if _, err := s.categories.Create(r.Context(), id, categoryInput(r)); err != nil {
		s.fail(w, r, err, "/categories")
		return
	}
	NewResponse(s.sessions).Success("Category added.").Redirect("/categories").Write(w)
}

func (s *Server) handleEditCategoryForm(w http.ResponseWriter, r *http.Request, id core.Identity) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err, "/categories")
		return
	}
	c, err := s.categories.Get(r.Context(), id, categoryID)
	if err != nil {
		s.fail(w, r, err, "/categories")
		return
	}
	s.render(w, r, http.StatusOK, "edit_category.html", "Edit category", "categories", c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request, id core.Identity) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err, "/categories")
		return
	}
	if err := parseForm(r); err != nil {
		s.fail(w, r, err, "/categories")
		return
	}

	err = s.categories.Update(r.Context(), id, categoryID, categoryInput(r))
	switch {
	case err == nil:
	case core.IsRecoverable(err) && !isAccessError(err):
		s.fail(w, r, err, fmt.Sprintf("/categories/%d/edit", categoryID))
		return
	default:
		s.fail(w, r, err, "/categories")
		return
	}
	NewResponse(s.sessions).Success("Category updated.").Redirect("/categories").Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, id core.Identity) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err, "/categories")
		return
	}
	if err := s.categories.Delete(r.Context(), id, categoryID); err != nil {
		s.fail(w, r, err, "/categories")
		return
	}
	NewResponse(s.sessions).Success("Category deleted.").Redirect("/categories").Write(w)
}
