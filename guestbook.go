package folio

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/guard"
	"github.com/eringen/folio/views"
)

// msgSaveFailed is flashed when the comment log rejects a write.
const msgSaveFailed = "Your comment could not be saved. Please try again later."

func (a *App) handleComments(c echo.Context) error {
	items, err := a.loadComments(c)
	if err != nil {
		return err
	}
	flashes, err := popFlashes(c)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Comments(views.CommentsPage{
		Comments:   items,
		Flashes:    flashes,
		CSRFToken:  CsrfToken(c),
		NameMax:    a.Config.CommentNameMax,
		MessageMax: a.Config.CommentMessageMax,
	}))
}

// handleCommentSubmit always answers with a redirect back to the guestbook;
// the outcome travels as a flash message.
func (a *App) handleCommentSubmit(c echo.Context) error {
	sub := guard.Submission{
		Name:     c.FormValue("name"),
		Message:  c.FormValue("message"),
		Honeypot: c.FormValue("website"),
	}
	last := ""
	if ck, err := c.Cookie(guard.CookieName); err == nil {
		last = ck.Value
	}

	ip := c.RealIP()
	res, err := a.Guard.Submit(sub, last, ip)
	message := res.Message
	if err != nil {
		c.Logger().Errorf("comment from %s not saved: %v", ip, err)
		message = msgSaveFailed
	} else {
		c.Logger().Infof("comment submission from %s: %s", ip, res.Outcome)
	}

	if err == nil && res.Outcome == guard.Accepted {
		c.SetCookie(&http.Cookie{
			Name:     guard.CookieName,
			Value:    res.Cookie,
			Path:     "/",
			MaxAge:   int(a.Config.CommentCookieMaxAge.Seconds()),
			HttpOnly: true,
			Secure:   a.Config.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	if err := addFlash(c, message); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/comments")
}

// flashSession returns the flash session. A cookie that no longer decodes
// (rotated secret, tampering) yields a fresh session instead of an error.
func flashSession(c echo.Context) (*sessions.Session, error) {
	sess, err := session.Get(sessionName, c)
	if sess == nil {
		return nil, err
	}
	return sess, nil
}

func addFlash(c echo.Context, message string) error {
	sess, err := flashSession(c)
	if err != nil {
		return err
	}
	sess.AddFlash(message)
	return sess.Save(c.Request(), c.Response())
}

func popFlashes(c echo.Context) ([]string, error) {
	sess, err := flashSession(c)
	if err != nil {
		return nil, err
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil, nil
	}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}
