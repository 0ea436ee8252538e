package web

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"embed"

	"github.com/gin-gonic/gin"

	"cafelist/internal/auth"
	"cafelist/internal/forms"
	"cafelist/internal/models"
	"cafelist/internal/storage"
)

//go:embed templates/*
var templateFS embed.FS

// Avatars shown next to the comment form, one picked at random per view.
var avatars = []string{
	"https://static.vecteezy.com/system/resources/thumbnails/005/076/592/small_2x/hacker-mascot-for-sports-and-esports-logo-free-vector.jpg",
	"https://cdn.shopify.com/shopifycloud/hatchful_web_two/bundles/4a14e7b2de7f6eaf5a6c98cb8c00b8de.png",
}

// Handler holds the dependencies the route handlers need. Nothing is
// read from package-level state.
type Handler struct {
	Store   *storage.Store
	Session *auth.SessionManager
}

func NewHandler(store *storage.Store, session *auth.SessionManager) *Handler {
	return &Handler{Store: store, Session: session}
}

// LoadTemplates parses the embedded views into the gin engine.
func (h *Handler) LoadTemplates(r *gin.Engine) error {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)
	return nil
}

// render wraps c.HTML, adding the auth status and any pending flash
// message to every payload.
func (h *Handler) render(c *gin.Context, status int, view string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	user := CurrentUser(c)
	data["IsLogin"] = user != nil
	data["User"] = user
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = forms.FieldErrors{}
	}
	if flash := h.Session.PopFlash(c.Writer, c.Request); flash != "" {
		data["Flash"] = flash
	}
	c.HTML(status, view, data)
}

// redirectWithFlash sets a one-shot message and redirects.
func (h *Handler) redirectWithFlash(c *gin.Context, location, message string) {
	if err := h.Session.SetFlash(c.Writer, message); err != nil {
		log.Printf("Failed to set flash: %v", err)
	}
	c.Redirect(http.StatusFound, location)
}

// cafeFromQuery resolves the ?id= parameter to a cafe, writing a 404
// and returning nil when the id is absent, malformed, or unknown.
func (h *Handler) cafeFromQuery(c *gin.Context) *models.Cafe {
	id, err := strconv.ParseUint(c.Query("id"), 10, 32)
	if err != nil {
		c.String(http.StatusNotFound, "Cafe not found")
		return nil
	}
	cafe, err := h.Store.CafeByID(uint(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.String(http.StatusNotFound, "Cafe not found")
		} else {
			c.String(http.StatusInternalServerError, "Database error")
		}
		return nil
	}
	return cafe
}

// Index lists all cafes ordered by name.
func (h *Handler) Index(c *gin.Context) {
	cafes, err := h.Store.ListCafes()
	if err != nil {
		c.String(http.StatusInternalServerError, "Database error")
		return
	}
	h.render(c, http.StatusOK, "index.html", gin.H{"Cafes": cafes})
}

// ShowCafe renders the detail page with the comment form.
func (h *Handler) ShowCafe(c *gin.Context) {
	cafe := h.cafeFromQuery(c)
	if cafe == nil {
		return
	}
	h.renderDetail(c, http.StatusOK, cafe, nil, "")
}

func (h *Handler) renderDetail(c *gin.Context, status int, cafe *models.Cafe, errs forms.FieldErrors, body string) {
	h.render(c, status, "caffe.html", gin.H{
		"Cafe":    cafe,
		"Avatar":  avatars[rand.Intn(len(avatars))],
		"DateNow": time.Now(),
		"Errors":  errs,
		"Body":    body,
	})
}

// PostReview creates a review on the cafe for the current user.
// Anonymous submissions are sent to the login page with a flash.
func (h *Handler) PostReview(c *gin.Context) {
	cafe := h.cafeFromQuery(c)
	if cafe == nil {
		return
	}

	user := CurrentUser(c)
	if user == nil {
		h.redirectWithFlash(c, "/login", "OOPS. You are not allowed to put a comment. Please login")
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "Bad form data")
		return
	}
	input, errs := forms.ParseComment(c.Request.PostForm)
	if !errs.Ok() {
		h.renderDetail(c, http.StatusOK, cafe, errs, c.Request.PostForm.Get("body"))
		return
	}

	review := &models.Review{
		Content: input.Body,
		UserID:  user.ID,
		CafeID:  cafe.ID,
	}
	if err := h.Store.CreateReview(review); err != nil {
		c.String(http.StatusInternalServerError, "Database error")
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/caffe?id=%d", cafe.ID))
}

// ShowRegister renders the registration form.
func (h *Handler) ShowRegister(c *gin.Context) {
	h.render(c, http.StatusOK, "register.html", nil)
}

// Register creates a user, logs the session in, and redirects to the
// listing. Duplicate name/email re-renders the form with an error.
func (h *Handler) Register(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "Bad form data")
		return
	}
	input, errs := forms.ParseRegister(c.Request.PostForm)
	if !errs.Ok() {
		h.render(c, http.StatusOK, "register.html", gin.H{
			"Errors": errs,
			"Values": c.Request.PostForm,
		})
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		c.String(http.StatusInternalServerError, "Registration failed")
		return
	}

	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
	}
	if err := h.Store.CreateUser(user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			h.render(c, http.StatusOK, "register.html", gin.H{
				"Errors": forms.FieldErrors{"email": "An account with this name or email already exists"},
				"Values": c.Request.PostForm,
			})
			return
		}
		c.String(http.StatusInternalServerError, "Database error")
		return
	}

	if err := h.Session.SetSession(c.Writer, user.ID); err != nil {
		log.Printf("Failed to set session: %v", err)
	}
	c.Redirect(http.StatusFound, "/")
}

// ShowLogin renders the login form.
func (h *Handler) ShowLogin(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", nil)
}

// Login authenticates by email and password. Both failure paths
// redirect back to the login page with a flash message.
func (h *Handler) Login(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "Bad form data")
		return
	}
	input, errs := forms.ParseLogin(c.Request.PostForm)
	if !errs.Ok() {
		h.render(c, http.StatusOK, "login.html", gin.H{
			"Errors": errs,
			"Values": c.Request.PostForm,
		})
		return
	}

	user, err := h.Store.UserByEmail(input.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.redirectWithFlash(c, "/login", "Email does not exist! Please try again.")
			return
		}
		c.String(http.StatusInternalServerError, "Database error")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		h.redirectWithFlash(c, "/login", "Password Incorrect! Please try again.")
		return
	}

	if err := h.Session.SetSession(c.Writer, user.ID); err != nil {
		log.Printf("Failed to set session: %v", err)
	}
	c.Redirect(http.StatusFound, "/")
}

// Logout clears the session unconditionally.
func (h *Handler) Logout(c *gin.Context) {
	h.Session.ClearSession(c.Writer)
	c.Redirect(http.StatusFound, "/")
}

// ShowAddCafe renders the cafe form. Auth is enforced by middleware.
func (h *Handler) ShowAddCafe(c *gin.Context) {
	h.render(c, http.StatusOK, "add_cafe.html", nil)
}

// AddCafe validates and creates a cafe owned by the current user.
func (h *Handler) AddCafe(c *gin.Context) {
	user := CurrentUser(c)

	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "Bad form data")
		return
	}
	input, errs := forms.ParseAddCafe(c.Request.PostForm)
	if !errs.Ok() {
		h.render(c, http.StatusOK, "add_cafe.html", gin.H{
			"Errors": errs,
			"Values": c.Request.PostForm,
		})
		return
	}

	cafe := &models.Cafe{
		Name:         input.Name,
		MapURL:       input.MapURL,
		ImgURL:       input.ImgURL,
		Location:     input.Location,
		HasSockets:   amenityFlag(input.HasSockets),
		HasToilet:    amenityFlag(input.HasToilet),
		HasWifi:      amenityFlag(input.HasWifi),
		CanTakeCalls: amenityFlag(input.CanTakeCalls),
		Seats:        input.Seats,
		CoffeePrice:  input.CoffeePrice,
		UserID:       user.ID,
	}
	if err := h.Store.CreateCafe(cafe); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			h.render(c, http.StatusOK, "add_cafe.html", gin.H{
				"Errors": forms.FieldErrors{"name": "A cafe with this name or map URL already exists"},
				"Values": c.Request.PostForm,
			})
			return
		}
		c.String(http.StatusInternalServerError, "Database error")
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func amenityFlag(v string) int {
	if v == "yes" {
		return 1
	}
	return 0
}

// DeleteCafe removes a cafe. Missing ids 404 before any auth check;
// only the owner may delete, and reviews go with the cafe.
func (h *Handler) DeleteCafe(c *gin.Context) {
	cafe := h.cafeFromQuery(c)
	if cafe == nil {
		return
	}

	user := CurrentUser(c)
	if user == nil {
		h.redirectWithFlash(c, "/login", "Please login to delete a cafe")
		return
	}
	if cafe.UserID != user.ID {
		h.redirectWithFlash(c, "/", "Only the owner can delete this cafe")
		return
	}

	if err := h.Store.DeleteCafe(cafe.ID); err != nil {
		c.String(http.StatusInternalServerError, "Database error")
		return
	}

	c.Redirect(http.StatusFound, "/")
}
