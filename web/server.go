// ABOUTME: Web UI server with embedded templates
// ABOUTME: Browses the workspace directory and applies permission changes at localhost:8080
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/harperreed/ucadmin/agent"
	"github.com/harperreed/ucadmin/directory"
	"github.com/harperreed/ucadmin/grants"
	"github.com/harperreed/ucadmin/models"
	"github.com/harperreed/ucadmin/selection"
	"github.com/harperreed/ucadmin/viz"
	"go.uber.org/zap"
)

//go:embed templates/*
var templatesFS embed.FS

type Server struct {
	dir       *directory.Cached
	manager   *grants.Manager
	tools     *agent.Toolbox
	templates *template.Template
	logger    *zap.Logger
}

func NewServer(dir *directory.Cached, manager *grants.Manager, tools *agent.Toolbox, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	funcMap := template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		dir:       dir,
		manager:   manager,
		tools:     tools,
		templates: tmpl,
		logger:    logger.Named("web"),
	}, nil
}

// Router returns the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.requireSameOrigin)

	r.Get("/", s.handleDashboard)
	r.Get("/users", s.handleUsers)
	r.Get("/catalogs", s.handleCatalogs)
	r.Get("/schemas", s.handleSchemas)
	r.Get("/tables", s.handleTables)
	r.Get("/permissions", s.handlePermissionsForm)
	r.Post("/permissions", s.handlePermissionsSubmit)
	r.Post("/refresh", s.handleRefresh)
	r.Get("/graph", s.handleGraph)

	return r
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting web server", zap.String("addr", "http://"+addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	// The data map carries ContentTemplate to pick the content block in layout.html.
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template error", zap.String("template", name), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func page(title, content string) map[string]interface{} {
	return map[string]interface{}{
		"Title":           title,
		"ContentTemplate": content,
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := viz.GenerateDashboardStats(r.Context(), s.tools)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	stats.Cache = s.dir.Stats()

	data := page("Dashboard", "dashboard-content")
	data["Stats"] = stats
	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	data := page("Users & Groups", "users-content")
	principals, err := s.dir.ListPrincipals(r.Context())
	if err != nil {
		data["Error"] = fmt.Sprintf("Error fetching users and groups: %v", err)
	} else {
		data["Users"] = principals.Users
		data["Groups"] = principals.Groups
	}
	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleCatalogs(w http.ResponseWriter, r *http.Request) {
	data := page("Catalogs", "catalogs-content")
	catalogs, err := s.dir.ListCatalogs(r.Context())
	if err != nil {
		data["Error"] = fmt.Sprintf("Error fetching catalogs: %v", err)
	} else {
		data["Catalogs"] = catalogs
	}
	s.renderTemplate(w, "layout.html", data)
}

// picker is one select box with its options and current value.
type picker struct {
	Name     string
	Label    string
	Options  []string
	Selected string
}

// pick fills ctrl's cascade from the request down to depth levels. A value
// missing from the options falls back to the first option.
func pick(ctx context.Context, ctrl *selection.Controller, r *http.Request, depth int) ([]picker, error) {
	var pickers []picker

	levels := []struct {
		name, label string
		choices     func(context.Context) ([]string, error)
		selectFn    func(string)
	}{
		{"catalog", "Catalog", ctrl.CatalogChoices, ctrl.SelectCatalog},
		{"schema", "Schema", ctrl.SchemaChoices, ctrl.SelectSchema},
		{"table", "Table", ctrl.TableChoices, ctrl.SelectTable},
	}

	for _, level := range levels[:depth] {
		opts, err := level.choices(ctx)
		if err != nil {
			return pickers, err
		}
		selected := r.FormValue(level.name)
		if !containsString(opts, selected) {
			selected = opts[0]
		}
		level.selectFn(selected)
		pickers = append(pickers, picker{Name: level.name, Label: level.label, Options: opts, Selected: selected})
	}
	return pickers, nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (s *Server) handleSchemas(w http.ResponseWriter, r *http.Request) {
	data := page("Schemas", "schemas-content")
	ctrl := selection.NewController(s.dir)
	ctrl.SetObjectType(models.SecurableSchema)

	pickers, err := pick(r.Context(), ctrl, r, 1)
	data["Pickers"] = pickers
	if err != nil {
		data["Error"] = fmt.Sprintf("Error fetching schemas: %v", err)
		s.renderTemplate(w, "layout.html", data)
		return
	}

	data["Catalog"] = ctrl.Catalog()
	if ctrl.Catalog() == "" {
		data["Info"] = "No catalogs found or selected."
	} else {
		schemas, err := s.dir.ListSchemas(r.Context(), ctrl.Catalog())
		if err != nil {
			data["Error"] = fmt.Sprintf("Error fetching schemas: %v", err)
		} else {
			data["Schemas"] = schemas
		}
	}
	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	data := page("Tables", "tables-content")
	ctrl := selection.NewController(s.dir)
	ctrl.SetObjectType(models.SecurableTable)

	pickers, err := pick(r.Context(), ctrl, r, 2)
	data["Pickers"] = pickers
	if err != nil {
		data["Error"] = fmt.Sprintf("Error fetching tables: %v", err)
		s.renderTemplate(w, "layout.html", data)
		return
	}

	if ctrl.Catalog() == "" || ctrl.Schema() == "" {
		data["Info"] = "Select a catalog and schema to view tables."
	} else {
		data["Scope"] = grants.FullName(ctrl.Catalog(), ctrl.Schema())
		tables, err := s.dir.ListTables(r.Context(), ctrl.Catalog(), ctrl.Schema())
		if err != nil {
			data["Error"] = fmt.Sprintf("Error fetching tables: %v", err)
		} else {
			data["Tables"] = tables
		}
	}
	s.renderTemplate(w, "layout.html", data)
}

// permissionForm rebuilds the selection state from request values.
func (s *Server) permissionForm(r *http.Request) (*selection.Controller, map[string]interface{}) {
	ctx := r.Context()
	ctrl := selection.NewController(s.dir)
	data := page("Manage Permissions", "permissions-content")

	action, err := grants.ParseAction(r.FormValue("action"))
	if err != nil {
		action = models.ActionGrant
	}
	ctrl.SetAction(action)

	objectType, err := grants.ParseSecurableType(r.FormValue("type"))
	if err != nil {
		objectType = models.SecurableCatalog
	}
	ctrl.SetObjectType(objectType)

	// Without a principal listing the principal is typed in instead.
	principals, err := ctrl.PrincipalOptions(ctx)
	if err != nil {
		data["Error"] = fmt.Sprintf("Error fetching principals for selection: %v", err)
		data["FreePrincipal"] = true
	}
	ctrl.SelectPrincipal(r.FormValue("principal"))

	privilege := r.FormValue("privilege")
	if privilege == "" {
		privilege = string(models.PrivSelect)
	}
	if err := ctrl.SetPrivilege(privilege); err != nil {
		data["Error"] = fmt.Sprintf("❌ Invalid privilege: %s. Please select a valid privilege.", privilege)
	}

	if selection.UsesHierarchy(objectType) {
		pickers, err := pick(ctx, ctrl, r, selection.Depth(objectType))
		if err != nil {
			data["Error"] = fmt.Sprintf("Error fetching objects: %v", err)
		}
		data["Pickers"] = pickers
	} else {
		ctrl.SetObjectName(r.FormValue("name"))
		data["FreeName"] = true
	}

	types := make([]string, 0, len(models.SecurableTypes()))
	for _, t := range models.SecurableTypes() {
		types = append(types, string(t))
	}
	privs := make([]string, 0, len(models.Privileges()))
	for _, p := range models.Privileges() {
		privs = append(privs, string(p))
	}

	data["Principals"] = principals
	data["Principal"] = ctrl.Principal()
	data["Types"] = types
	data["Type"] = string(objectType)
	data["Privileges"] = privs
	data["Privilege"] = string(ctrl.Privilege())
	data["Actions"] = []string{string(models.ActionGrant), string(models.ActionRevoke)}
	data["Action"] = string(ctrl.Action())
	data["Name"] = ctrl.ObjectName()
	data["CanSubmit"] = ctrl.CanSubmit()
	return ctrl, data
}

func (s *Server) handlePermissionsForm(w http.ResponseWriter, r *http.Request) {
	_, data := s.permissionForm(r)
	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handlePermissionsSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	ctrl, data := s.permissionForm(r)
	if !ctrl.CanSubmit() {
		w.WriteHeader(http.StatusUnprocessableEntity)
		data["Warning"] = "Please fill in the Principal, Object Name, and Privilege."
		s.renderTemplate(w, "layout.html", data)
		return
	}

	result, err := s.manager.Apply(r.Context(), ctrl.Request())
	if err != nil {
		var invalid *grants.InvalidPrivilegeError
		switch {
		case errors.As(err, &invalid):
			w.WriteHeader(http.StatusUnprocessableEntity)
			data["Error"] = fmt.Sprintf("❌ Invalid privilege: %s. Please select a valid privilege.", invalid.Value)
		case directory.IsRemote(err):
			w.WriteHeader(http.StatusBadGateway)
			data["Error"] = fmt.Sprintf("❌ Operation Failed: %v", err)
		default:
			w.WriteHeader(http.StatusUnprocessableEntity)
			data["Error"] = fmt.Sprintf("❌ %v", err)
		}
		s.renderTemplate(w, "layout.html", data)
		return
	}

	data["Success"] = "✅ " + result.Message
	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.dir.Refresh()
	target := r.Header.Get("Referer")
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	catalogs, err := s.tools.ListCatalogsAndSchemas(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	dot, err := viz.CatalogGraph(r.Context(), catalogs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = w.Write([]byte(dot))
}
