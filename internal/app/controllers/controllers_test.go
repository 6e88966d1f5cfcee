package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/app/models/dto"
	"github.com/yigit/examhub/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

// withPrincipal stands in for JWTAuth
func withPrincipal(p models.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, p.ID)
		c.Set(middleware.ContextRole, p.Role)
		c.Next()
	}
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		db     Pinger
		status int
		want   string
	}{
		{"no database", nil, http.StatusOK, "ok"},
		{"database up", fakePinger{}, http.StatusOK, "ok"},
		{"database down", fakePinger{err: errors.New("refused")}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthController(tt.db, zerolog.Nop()).Health)

			w := serve(r, http.MethodGet, "/health", "")
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			var resp dto.HealthResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.want {
				t.Errorf("health status = %q, want %q", resp.Status, tt.want)
			}
		})
	}
}

func TestRequestRejectedBeforeService(t *testing.T) {
	student := models.Principal{ID: 10, Role: models.RoleStudent}
	teacher := models.Principal{ID: 2, Role: models.RoleTeacher}

	exams := NewExamController(nil, zerolog.Nop())
	questions := NewQuestionController(nil, zerolog.Nop())
	proctoring := NewProctoringController(nil, zerolog.Nop())

	tests := []struct {
		name      string
		principal *models.Principal
		method    string
		route     string
		path      string
		body      string
		handler   gin.HandlerFunc
		status    int
	}{
		{"unknown exam status", &teacher, http.MethodGet, "/exams", "/exams?status=Paused", "", exams.ListExams, http.StatusBadRequest},
		{"no principal", nil, http.MethodGet, "/exams", "/exams", "", exams.ListExams, http.StatusUnauthorized},
		{"malformed exam id", &student, http.MethodPost, "/exams/:id/start", "/exams/abc/start", "", exams.StartExam, http.StatusBadRequest},
		{"zero exam id", &teacher, http.MethodDelete, "/exams/:id", "/exams/0", "", exams.DeleteExam, http.StatusBadRequest},
		{"malformed student filter", &teacher, http.MethodGet, "/exams/:id/answers", "/exams/1/answers?studentId=x", "", questions.ListAnswers, http.StatusBadRequest},
		{"missing answers body", &student, http.MethodPost, "/exams/:id/answers", "/exams/1/answers", "{}", questions.SubmitAnswers, http.StatusBadRequest},
		{"broken json", &student, http.MethodPost, "/exams/:id/answers", "/exams/1/answers", "{", questions.SubmitAnswers, http.StatusBadRequest},
		{"missing event type", &student, http.MethodPost, "/exams/:id/proctoring", "/exams/1/proctoring", `{"details":{}}`, proctoring.LogEvent, http.StatusBadRequest},
		{"assign without students", &teacher, http.MethodPost, "/exams/:id/candidates", "/exams/1/candidates", `{"studentIds":[]}`, exams.AssignCandidates, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			handlers := []gin.HandlerFunc{}
			if tt.principal != nil {
				handlers = append(handlers, withPrincipal(*tt.principal))
			}
			handlers = append(handlers, tt.handler)
			r.Handle(tt.method, tt.route, handlers...)

			w := serve(r, tt.method, tt.path, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}

			var resp dto.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Success || resp.Error == nil {
				t.Errorf("expected an error envelope, got %s", w.Body.String())
			}
		})
	}
}

func TestOptionalQueryID(t *testing.T) {
	tests := []struct {
		query string
		want  *int64
		ok    bool
	}{
		{"", nil, true},
		{"?studentId=12", int64Ptr(12), true},
		{"?studentId=-3", nil, false},
		{"?studentId=abc", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var (
				got *int64
				ok  bool
			)
			r := gin.New()
			r.GET("/x", func(c *gin.Context) {
				got, ok = optionalQueryID(c, "studentId", "student")
				if ok {
					c.Status(http.StatusNoContent)
				}
			})
			serve(r, http.MethodGet, "/x"+tt.query, "")

			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("id = %v, want %v", got, tt.want)
			}
		})
	}
}

func int64Ptr(v int64) *int64 { return &v }
