package http

import (
	"errors"
	"net/http"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

// fail maps an operation error to a response. Recoverable errors become a
// notice on the page at back; everything else is logged and answered with 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	ctx := r.Context()
	switch {
	case errors.Is(err, core.ErrUnauthenticated):
		NewResponse(s.sessions).Info("Please log in to continue.").Redirect("/login").Write(w)
	case errors.Is(err, core.ErrNotFound):
		s.notFound(w, r)
	case core.IsRecoverable(err):
		log.FromContext(ctx).DebugContext(ctx, "Request rejected", log.FieldError, err, log.FieldPath, r.URL.Path)
		NewResponse(s.sessions).Error(userMessage(err)).Redirect(back).Write(w)
	default:
		log.NewStructuredLogger(log.FromContext(ctx)).LogInternalError(ctx, "Request failed", err, log.ComponentHTTP,
			log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")))
		s.render(w, r, http.StatusInternalServerError, "error.html", "Something went wrong", "", nil)
	}
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "not_found.html", "Not found", "", nil)
}

// isAccessError reports errors where the item cannot be shown again, so the
// user is sent back to the list rather than to the item's form.
func isAccessError(err error) bool {
	return errors.Is(err, core.ErrForbidden) || errors.Is(err, core.ErrNotFound)
}

// userMessage is the notice shown for a recoverable error.
func userMessage(err error) string {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		if ve.Field == "form" {
			return capitalize(ve.Reason) + "."
		}
		return capitalize(strings.ReplaceAll(ve.Field, "_", " ")+" "+ve.Reason) + "."
	case errors.Is(err, core.ErrForbidden):
		return "You do not have permission to change that."
	case errors.Is(err, core.ErrCategoryInUse):
		return "This category still has transactions and cannot be deleted."
	case errors.Is(err, core.ErrInvalidReference):
		return "Choose one of your own categories."
	case errors.Is(err, core.ErrExportFormatUnsupported):
		return "Unsupported export format."
	case errors.Is(err, core.ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, core.ErrNotFound):
		return "That item no longer exists."
	}
	return "Something went wrong."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
