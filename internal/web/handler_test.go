package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cafelist/internal/auth"
	"cafelist/internal/config"
	"cafelist/internal/models"
	"cafelist/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	router  *gin.Engine
	store   *storage.Store
	session *auth.SessionManager
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}

	session := auth.NewSessionManager("", "", false)
	cfg := &config.Config{GinMode: gin.TestMode}

	router, err := NewRouter(cfg, NewHandler(store, session), nil)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}

	return &testApp{router: router, store: store, session: session}
}

func (app *testApp) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func (app *testApp) postForm(path string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func (app *testApp) createUser(t *testing.T, name, email, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	user := &models.User{Name: name, Email: email, PasswordHash: hash}
	if err := app.store.CreateUser(user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return user
}

func (app *testApp) createCafe(t *testing.T, owner *models.User, name string) *models.Cafe {
	t.Helper()
	cafe := &models.Cafe{
		Name:        name,
		MapURL:      "https://maps.example.com/" + name,
		ImgURL:      "https://img.example.com/" + name + ".jpg",
		Location:    "Somewhere",
		Seats:       10,
		CoffeePrice: "$3",
		UserID:      owner.ID,
	}
	if err := app.store.CreateCafe(cafe); err != nil {
		t.Fatalf("CreateCafe() error = %v", err)
	}
	return cafe
}

// sessionCookie logs the browser in as user without going through a route.
func (app *testApp) sessionCookie(t *testing.T, user *models.User) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	if err := app.session.SetSession(w, user.ID); err != nil {
		t.Fatalf("SetSession() error = %v", err)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name && c.MaxAge >= 0 {
			return c
		}
	}
	return nil
}

func validCafeForm() url.Values {
	return url.Values{
		"name":     {"Roasters"},
		"map_url":  {"https://maps.example.com/roasters"},
		"img_url":  {"https://img.example.com/roasters.jpg"},
		"location": {"Downtown"},
		"sockets":  {"yes"},
		"toilet":   {"yes"},
		"wifi":     {"no"},
		"calls":    {"no"},
		"seats":    {"30"},
		"price":    {"$2.80"},
	}
}

func TestIndex_Anonymous(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "alice", "a@x.com", "pw123")
	app.createCafe(t, user, "Roasters")

	w := app.get("/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Roasters") {
		t.Error("listing should contain the cafe")
	}
	if !strings.Contains(body, "Login") || strings.Contains(body, "Logout") {
		t.Error("anonymous listing should offer Login, not Logout")
	}
}

func TestRegister_CreatesUserAndLogsIn(t *testing.T) {
	app := newTestApp(t)

	w := app.postForm("/register", url.Values{
		"name":     {"alice"},
		"email":    {"a@x.com"},
		"password": {"pw123"},
	})
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}

	session := cookieNamed(w, "session")
	if session == nil {
		t.Fatal("register should set a session cookie")
	}

	user, err := app.store.UserByEmail("a@x.com")
	if err != nil {
		t.Fatalf("UserByEmail() error = %v", err)
	}
	if user.PasswordHash == "pw123" {
		t.Error("password stored in plaintext")
	}
	if !auth.CheckPassword(user.PasswordHash, "pw123") {
		t.Error("stored hash does not verify")
	}

	// The session is now authenticated: listing shows logout state.
	home := app.get("/", session)
	if !strings.Contains(home.Body.String(), "Logout (alice)") {
		t.Error("listing should show the authenticated state")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "alice", "a@x.com", "pw123")

	w := app.postForm("/register", url.Values{
		"name":     {"alice2"},
		"email":    {"a@x.com"},
		"password": {"pw123"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 re-render", w.Code)
	}
	if !strings.Contains(w.Body.String(), "already exists") {
		t.Error("duplicate register should show a friendly error")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "alice", "a@x.com", "pw123")

	w := app.postForm("/login", url.Values{
		"name":     {"alice"},
		"email":    {"a@x.com"},
		"password": {"wrong"},
	})
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
	if cookieNamed(w, "session") != nil {
		t.Error("failed login must not set a session")
	}

	flash := cookieNamed(w, "flash")
	if flash == nil {
		t.Fatal("failed login should carry a flash message")
	}
	followUp := app.get("/login", flash)
	if !strings.Contains(followUp.Body.String(), "Password Incorrect") {
		t.Error("login page should show the flash message")
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	app := newTestApp(t)

	w := app.postForm("/login", url.Values{
		"name":     {"alice"},
		"email":    {"nobody@x.com"},
		"password": {"pw123"},
	})
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}

	flash := cookieNamed(w, "flash")
	if flash == nil {
		t.Fatal("unknown email should carry a flash message")
	}
	followUp := app.get("/login", flash)
	if !strings.Contains(followUp.Body.String(), "Email does not exist") {
		t.Error("login page should show the flash message")
	}
}

func TestLogin_Success(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "alice", "a@x.com", "pw123")

	w := app.postForm("/login", url.Values{
		"name":     {"alice"},
		"email":    {"a@x.com"},
		"password": {"pw123"},
	})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Fatalf("status = %d, Location = %q", w.Code, w.Header().Get("Location"))
	}
	if cookieNamed(w, "session") == nil {
		t.Error("login should set a session cookie")
	}
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "alice", "a@x.com", "pw123")
	session := app.sessionCookie(t, user)

	w := app.get("/logout", session)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Fatalf("status = %d, Location = %q", w.Code, w.Header().Get("Location"))
	}

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("logout should expire the session cookie")
	}
}

func TestShowCafe_NotFound(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/caffe", "/caffe?id=abc", "/caffe?id=999"} {
		if w := app.get(path); w.Code != http.StatusNotFound {
			t.Errorf("GET %s: status = %d, want 404", path, w.Code)
		}
	}
}

func TestPostReview_AnonymousRejected(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "alice", "a@x.com", "pw123")
	cafe := app.createCafe(t, user, "Roasters")

	w := app.postForm("/caffe?id=1", url.Values{"body": {"nice"}})
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}

	got, err := app.store.CafeByID(cafe.ID)
	if err != nil {
		t.Fatalf("CafeByID() error = %v", err)
	}
	if len(got.Reviews) != 0 {
		t.Error("anonymous POST must not create a review")
	}
}

func TestPostReview_Authenticated(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "alice", "a@x.com", "pw123")
	cafe := app.createCafe(t, user, "Roasters")
	session := app.sessionCookie(t, user)

	w := app.postForm("/caffe?id=1", url.Values{"body": {"Great coffee"}}, session)
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}

	got, err := app.store.CafeByID(cafe.ID)
	if err != nil {
		t.Fatalf("CafeByID() error = %v", err)
	}
	if len(got.Reviews) != 1 || got.Reviews[0].Content != "Great coffee" {
		t.Fatalf("reviews = %+v", got.Reviews)
	}
	if got.Reviews[0].UserID != user.ID {
		t.Error("review should belong to the current user")
	}
}

func TestPostReview_EmptyBody(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "alice", "a@x.com", "pw123")
	cafe := app.createCafe(t, user, "Roasters")
	session := app.sessionCookie(t, user)

	w := app.postForm("/caffe?id=1", url.Values{"body": {"  "}}, session)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 re-render", w.Code)
	}

	got, _ := app.store.CafeByID(cafe.ID)
	if len(got.Reviews) != 0 {
		t.Error("empty comment must not create a review")
	}
}

func TestAddCafe_RequiresAuth(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/add_cafe")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Errorf("GET: status = %d, Location = %q", w.Code, w.Header().Get("Location"))
	}

	w = app.postForm("/add_cafe", validCafeForm())
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Errorf("POST: status = %d, Location = %q", w.Code, w.Header().Get("Location"))
	}

	cafes, _ := app.store.ListCafes()
	if len(cafes) != 0 {
		t.Error("anonymous POST must not create a cafe")
	}
}

func TestAddCafe_PlaceholderAmenityRejected(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "alice", "a@x.com", "pw123")
	session := app.sessionCookie(t, user)

	form := validCafeForm()
	form.Set("sockets", "Select yes or no")

	w := app.postForm("/add_cafe", form, session)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 re-render", w.Code)
	}
	if !strings.Contains(w.Body.String(), `class="error"`) {
		t.Error("form should show the amenity error")
	}

	cafes, _ := app.store.ListCafes()
	if len(cafes) != 0 {
		t.Error("invalid form must not create a cafe")
	}
}

func TestAddCafe_Success(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "alice", "a@x.com", "pw123")
	session := app.sessionCookie(t, user)

	w := app.postForm("/add_cafe", validCafeForm(), session)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Fatalf("status = %d, Location = %q", w.Code, w.Header().Get("Location"))
	}

	cafes, err := app.store.ListCafes()
	if err != nil {
		t.Fatalf("ListCafes() error = %v", err)
	}
	if len(cafes) != 1 {
		t.Fatalf("got %d cafes, want 1", len(cafes))
	}
	cafe := cafes[0]
	if cafe.UserID != user.ID {
		t.Error("cafe should be owned by the current user")
	}
	if cafe.HasSockets != 1 || cafe.HasWifi != 0 {
		t.Errorf("amenity flags = %d/%d", cafe.HasSockets, cafe.HasWifi)
	}
	if cafe.Seats != 30 {
		t.Errorf("Seats = %d, want 30", cafe.Seats)
	}
}

func TestAddCafe_Duplicate(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "alice", "a@x.com", "pw123")
	session := app.sessionCookie(t, user)

	if w := app.postForm("/add_cafe", validCafeForm(), session); w.Code != http.StatusFound {
		t.Fatalf("first add: status = %d", w.Code)
	}

	w := app.postForm("/add_cafe", validCafeForm(), session)
	if w.Code != http.StatusOK {
		t.Fatalf("duplicate add: status = %d, want 200 re-render", w.Code)
	}
	if !strings.Contains(w.Body.String(), "already exists") {
		t.Error("duplicate add should show a friendly error")
	}

	cafes, _ := app.store.ListCafes()
	if len(cafes) != 1 {
		t.Errorf("got %d cafes, want 1", len(cafes))
	}
}

func TestDelete_MissingID(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "alice", "a@x.com", "pw123")
	session := app.sessionCookie(t, user)

	// Missing ids 404 for everyone, authenticated or not.
	if w := app.get("/delete?id=42"); w.Code != http.StatusNotFound {
		t.Errorf("anonymous: status = %d, want 404", w.Code)
	}
	if w := app.get("/delete?id=42", session); w.Code != http.StatusNotFound {
		t.Errorf("authenticated: status = %d, want 404", w.Code)
	}
}

func TestDelete_AnonymousRedirected(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "alice", "a@x.com", "pw123")
	cafe := app.createCafe(t, user, "Roasters")

	w := app.get("/delete?id=1")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Fatalf("status = %d, Location = %q", w.Code, w.Header().Get("Location"))
	}

	if _, err := app.store.CafeByID(cafe.ID); err != nil {
		t.Error("cafe must survive an anonymous delete attempt")
	}
}

func TestDelete_OwnerOnly(t *testing.T) {
	app := newTestApp(t)
	owner := app.createUser(t, "alice", "a@x.com", "pw123")
	other := app.createUser(t, "bob", "b@x.com", "pw123")
	cafe := app.createCafe(t, owner, "Roasters")

	w := app.get("/delete?id=1", app.sessionCookie(t, other))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Fatalf("status = %d, Location = %q", w.Code, w.Header().Get("Location"))
	}
	if _, err := app.store.CafeByID(cafe.ID); err != nil {
		t.Error("cafe must survive a non-owner delete attempt")
	}

	w = app.get("/delete?id=1", app.sessionCookie(t, owner))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Fatalf("owner delete: status = %d, Location = %q", w.Code, w.Header().Get("Location"))
	}
	if _, err := app.store.CafeByID(cafe.ID); err == nil {
		t.Error("owner delete should remove the cafe")
	}
}

func TestStaleSessionResolvesAnonymous(t *testing.T) {
	app := newTestApp(t)

	// A validly signed cookie pointing at a user that no longer exists.
	stale := app.sessionCookie(t, &models.User{Model: gorm.Model{ID: 999}})

	w := app.get("/", stale)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if strings.Contains(w.Body.String(), "Logout") {
		t.Error("stale session should render as anonymous")
	}
}
