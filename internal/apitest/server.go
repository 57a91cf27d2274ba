// ABOUTME: In-memory fake of the newsdesk REST API for tests and local demos
// ABOUTME: Records every request so callers can assert on method, path and auth

package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/markalston/newsdesk/internal/client"
)

// DefaultToken is the bearer token issued by the fake login endpoint
const DefaultToken = "test-token"

// Call is one recorded request
type Call struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	ContentType   string
	Body          []byte
	// JSONPart and FileName are filled for multipart requests
	JSONPart []byte
	FileName string
}

// Query returns a single query parameter of the call
func (c Call) Query(key string) string {
	v, _ := url.ParseQuery(c.RawQuery)
	return v.Get(key)
}

type failure struct {
	status  int
	message string
}

type account struct {
	admin        client.Admin
	passwordHash []byte
}

func hashPassword(password string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		// only fails for passwords over 72 bytes
		panic(err)
	}
	return hash
}

func (a account) checkPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
}

// Server is the fake backend. The zero value is not usable; call New.
type Server struct {
	mu         sync.Mutex
	router     *mux.Router
	logger     *slog.Logger
	posts      map[int]client.Post
	categories map[int]client.Category
	admins     map[int]account
	nextID     int
	calls      []Call
	failures   map[string]failure

	envelope      bool
	requireAuth   bool
	loginIdentity bool
	token         string
}

// Option configures a Server
type Option func(*Server)

// WithEnvelope makes list endpoints answer {"content": [...]} instead of [...]
func WithEnvelope() Option {
	return func(s *Server) { s.envelope = true }
}

// WithRequireAuth rejects mutating and admin requests that lack the token
func WithRequireAuth() Option {
	return func(s *Server) { s.requireAuth = true }
}

// WithoutLoginIdentity makes the login answer carry only the token
func WithoutLoginIdentity() Option {
	return func(s *Server) { s.loginIdentity = false }
}

// WithToken sets the token issued on login
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithLogger logs each request, for dev-server use
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates an empty fake backend
func New(opts ...Option) *Server {
	s := &Server{
		posts:         make(map[int]client.Post),
		categories:    make(map[int]client.Category),
		admins:        make(map[int]account),
		failures:      make(map[string]failure),
		nextID:        1,
		loginIdentity: true,
		token:         DefaultToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.record, s.logRequest, s.injectFailures, s.authorize)

	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	r.HandleFunc("/posts", s.handleListPosts).Methods(http.MethodGet)
	r.HandleFunc("/posts/search", s.handleSearchPosts).Methods(http.MethodGet)
	r.HandleFunc("/posts/{id:[0-9]+}", s.handleGetPost).Methods(http.MethodGet)
	r.HandleFunc("/posts", s.handleSavePost).Methods(http.MethodPost)
	r.HandleFunc("/posts/{id:[0-9]+}", s.handleSavePost).Methods(http.MethodPut)
	r.HandleFunc("/posts/{id:[0-9]+}", s.handleDeletePost).Methods(http.MethodDelete)

	r.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	r.HandleFunc("/categories", s.handleSaveCategory).Methods(http.MethodPost)
	r.HandleFunc("/categories/{id:[0-9]+}", s.handleSaveCategory).Methods(http.MethodPut)
	r.HandleFunc("/categories/{id:[0-9]+}", s.handleDeleteCategory).Methods(http.MethodDelete)

	r.HandleFunc("/admins", s.handleListAdmins).Methods(http.MethodGet)
	r.HandleFunc("/admins", s.handleSaveAdmin).Methods(http.MethodPost)
	r.HandleFunc("/admins/{id:[0-9]+}", s.handleSaveAdmin).Methods(http.MethodPut)
	r.HandleFunc("/admins/{id:[0-9]+}", s.handleDeleteAdmin).Methods(http.MethodDelete)

	return r
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Token returns the token issued on login
func (s *Server) Token() string {
	return s.token
}

// Calls returns a copy of all recorded requests
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo returns recorded requests matching method and exact path
func (s *Server) CallsTo(method, path string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets recorded requests
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// FailNext makes the next request to method+path answer with status
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

// AddAdmin seeds an admin account that can log in
func (s *Server) AddAdmin(a client.Admin, password string) client.Admin {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.allocID()
	} else if a.ID >= s.nextID {
		s.nextID = a.ID + 1
	}
	s.admins[a.ID] = account{admin: a, passwordHash: hashPassword(password)}
	return a
}

// AddCategory seeds a category
func (s *Server) AddCategory(name string) client.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := client.Category{ID: s.allocID(), Name: name, Slug: slugify(name)}
	s.categories[c.ID] = c
	return c
}

// AddPost seeds a post; a non-zero ID is kept
func (s *Server) AddPost(p client.Post) client.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.allocID()
	} else if p.ID >= s.nextID {
		s.nextID = p.ID + 1
	}
	s.posts[p.ID] = s.withCategory(p)
	return s.posts[p.ID]
}

// Post returns a stored post
func (s *Server) Post(id int) (client.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	return p, ok
}

// Category returns a stored category
func (s *Server) Category(id int) (client.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	return c, ok
}

// Admin returns a stored admin
func (s *Server) Admin(id int) (client.Admin, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[id]
	return a.admin, ok
}

// CheckPassword reports whether password logs in the admin with id
func (s *Server) CheckPassword(id int, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[id]
	return ok && a.checkPassword(password)
}

func (s *Server) allocID() int {
	id := s.nextID
	s.nextID++
	return id
}

// withCategory fills the denormalized category fields of p. Caller holds mu.
func (s *Server) withCategory(p client.Post) client.Post {
	if c, ok := s.categories[p.CategoryID]; ok {
		p.CategoryName = c.Name
		p.CategorySlug = c.Slug
	} else {
		p.CategoryID = 0
		p.CategoryName = ""
		p.CategorySlug = ""
	}
	return p
}

// ---- middleware ----

// record stores the request before any other middleware can reject it
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		call := Call{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          body,
		}
		call.JSONPart, call.FileName = splitMultipart(call.ContentType, body)

		s.mu.Lock()
		s.calls = append(s.calls, call)
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.statusCode = code
	sw.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.logger == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		s.logger.Info("Request completed",
			"request_id", r.Header.Get("X-Request-ID"),
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"latency_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		f, ok := s.failures[key]
		if ok {
			delete(s.failures, key)
		}
		s.mu.Unlock()

		if ok {
			writeError(w, f.message, f.status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authorize enforces the bearer token on everything but login and public reads
func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.requireAuth || isPublic(r) {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			writeError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isPublic(r *http.Request) bool {
	if r.URL.Path == "/auth/login" {
		return true
	}
	if r.Method != http.MethodGet {
		return false
	}
	return strings.HasPrefix(r.URL.Path, "/posts") || r.URL.Path == "/categories"
}

// ---- auth ----

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req client.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	var found *account
	for _, a := range s.admins {
		if strings.EqualFold(a.admin.Email, req.Email) && a.checkPassword(req.Password) {
			a := a
			found = &a
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		writeError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	resp := client.LoginResponse{Token: s.token}
	if s.loginIdentity {
		resp.ID = found.admin.ID
		resp.Name = found.admin.Name
	}
	writeJSON(w, http.StatusOK, resp)
}

// ---- posts ----

func (s *Server) sortedPosts() []client.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]client.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts := s.sortedPosts()
	if size, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && size > 0 && size < len(posts) {
		posts = posts[:size]
	}
	s.writeList(w, posts)
}

func (s *Server) handleSearchPosts(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("title"))
	out := []client.Post{}
	for _, p := range s.sortedPosts() {
		if strings.Contains(strings.ToLower(p.Title), q) {
			out = append(out, p)
		}
	}
	s.writeList(w, out)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	p, ok := s.Post(pathID(r))
	if !ok {
		writeError(w, "Post not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSavePost(w http.ResponseWriter, r *http.Request) {
	var in client.PostInput
	file, ok := decodeMultipart(w, r, "post", &in)
	if !ok {
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeError(w, "title is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var p client.Post
	if r.Method == http.MethodPut {
		existing, found := s.posts[pathID(r)]
		if !found {
			writeError(w, "Post not found", http.StatusNotFound)
			return
		}
		p = existing
	} else {
		p.ID = s.allocID()
		p.DataPublication = time.Now().UTC().Format(time.RFC3339)
	}

	p.Title = in.Title
	p.Content = in.Content
	p.CategoryID = 0
	if in.Category != nil {
		p.CategoryID = in.Category.ID
	}
	switch {
	case file != "":
		p.ImageURL = "/uploads/" + file
	case in.ImageURL != "":
		p.ImageURL = in.ImageURL
	}

	s.posts[p.ID] = s.withCategory(p)
	writeJSON(w, statusFor(r), s.posts[p.ID])
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := pathID(r)
	if _, ok := s.posts[id]; !ok {
		writeError(w, "Post not found", http.StatusNotFound)
		return
	}
	delete(s.posts, id)
	w.WriteHeader(http.StatusNoContent)
}

// ---- categories ----

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]client.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	s.writeList(w, out)
}

func (s *Server) handleSaveCategory(w http.ResponseWriter, r *http.Request) {
	var in client.CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		writeError(w, "name is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var c client.Category
	if r.Method == http.MethodPut {
		existing, ok := s.categories[pathID(r)]
		if !ok {
			writeError(w, "Category not found", http.StatusNotFound)
			return
		}
		c = existing
	} else {
		c.ID = s.allocID()
	}
	c.Name = in.Name
	c.Slug = slugify(in.Name)
	s.categories[c.ID] = c

	for id, p := range s.posts {
		s.posts[id] = s.withCategory(p)
	}
	writeJSON(w, statusFor(r), c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := pathID(r)
	if _, ok := s.categories[id]; !ok {
		writeError(w, "Category not found", http.StatusNotFound)
		return
	}
	delete(s.categories, id)
	for pid, p := range s.posts {
		s.posts[pid] = s.withCategory(p)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- admins ----

func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]client.Admin, 0, len(s.admins))
	for _, a := range s.admins {
		out = append(out, a.admin)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	s.writeList(w, out)
}

func (s *Server) handleSaveAdmin(w http.ResponseWriter, r *http.Request) {
	var in client.AdminInput
	file, ok := decodeMultipart(w, r, "admin", &in)
	if !ok {
		return
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" {
		writeError(w, "name and email are required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var acc account
	if r.Method == http.MethodPut {
		existing, found := s.admins[pathID(r)]
		if !found {
			writeError(w, "Admin not found", http.StatusNotFound)
			return
		}
		acc = existing
	} else {
		if in.Password == "" {
			writeError(w, "password is required", http.StatusBadRequest)
			return
		}
		acc.admin.ID = s.allocID()
	}

	acc.admin.Name = in.Name
	acc.admin.Email = in.Email
	acc.admin.Bio = in.Bio
	if in.Password != "" {
		acc.passwordHash = hashPassword(in.Password)
	}
	switch {
	case file != "":
		acc.admin.ProfilePicture = "/uploads/" + file
	case in.ProfilePicture != "":
		acc.admin.ProfilePicture = in.ProfilePicture
	}

	s.admins[acc.admin.ID] = acc
	writeJSON(w, statusFor(r), acc.admin)
}

func (s *Server) handleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := pathID(r)
	if _, ok := s.admins[id]; !ok {
		writeError(w, "Admin not found", http.StatusNotFound)
		return
	}
	delete(s.admins, id)
	w.WriteHeader(http.StatusNoContent)
}

// ---- helpers ----

func (s *Server) writeList(w http.ResponseWriter, items any) {
	if s.envelope {
		writeJSON(w, http.StatusOK, map[string]any{"content": items})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, client.ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Status:  code,
	})
}

func statusFor(r *http.Request) int {
	if r.Method == http.MethodPost {
		return http.StatusCreated
	}
	return http.StatusOK
}

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

// decodeMultipart reads the JSON part named field into v and returns the
// uploaded file name, if any.
func decodeMultipart(w http.ResponseWriter, r *http.Request, field string, v any) (string, bool) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, "expected multipart body", http.StatusUnsupportedMediaType)
		return "", false
	}

	var raw []byte
	if fhs := r.MultipartForm.File[field]; len(fhs) > 0 {
		f, err := fhs[0].Open()
		if err != nil {
			writeError(w, "unreadable "+field+" part", http.StatusBadRequest)
			return "", false
		}
		raw, _ = io.ReadAll(f)
		f.Close()
	} else if vals := r.MultipartForm.Value[field]; len(vals) > 0 {
		raw = []byte(vals[0])
	}
	if len(raw) == 0 {
		writeError(w, "missing "+field+" part", http.StatusBadRequest)
		return "", false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		writeError(w, "invalid "+field+" part", http.StatusBadRequest)
		return "", false
	}

	if fhs := r.MultipartForm.File["file"]; len(fhs) > 0 {
		return fhs[0].Filename, true
	}
	return "", true
}

// splitMultipart extracts the JSON part and file name from a recorded body
func splitMultipart(contentType string, body []byte) ([]byte, string) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return nil, ""
	}

	var jsonPart []byte
	var fileName string
	mr := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	for {
		p, err := mr.NextPart()
		if err != nil {
			break
		}
		data, _ := io.ReadAll(p)
		if p.FormName() == "file" {
			fileName = p.FileName()
		} else {
			jsonPart = data
		}
	}
	return jsonPart, fileName
}

func slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
