package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	t.Run("Generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		id := w.Header().Get(RequestIDHeader)
		if id == "" {
			t.Fatal("Expected a generated request ID header")
		}
		if w.Body.String() != id {
			t.Errorf("Context request ID %q does not match header %q", w.Body.String(), id)
		}
	})

	t.Run("Propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Header().Get(RequestIDHeader) != "abc-123" || w.Body.String() != "abc-123" {
			t.Errorf("Expected request ID to be propagated, got header %q body %q", w.Header().Get(RequestIDHeader), w.Body.String())
		}
	})
}

func TestStructuredLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	router := gin.New()
	router.Use(RequestID(), StructuredLogger(logger))
	router.POST("/fail", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "bad"})
	})

	req := httptest.NewRequest(http.MethodPost, "/fail?x=1", strings.NewReader(`{"a":1}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("Expected a log entry")
	}
	if entry.Level != logrus.WarnLevel || entry.Message != "Client error" {
		t.Errorf("Unexpected entry %s %q", entry.Level, entry.Message)
	}
	if entry.Data["status_code"] != http.StatusBadRequest {
		t.Errorf("status_code = %v", entry.Data["status_code"])
	}
	if entry.Data["request_body"] != `{"a":1}` {
		t.Errorf("request_body = %v", entry.Data["request_body"])
	}
	if entry.Data["query"] != "x=1" {
		t.Errorf("query = %v", entry.Data["query"])
	}
	if entry.Data["request_id"] == "" {
		t.Error("Expected request_id field")
	}
}

func TestRecovery(t *testing.T) {
	logger, hook := test.NewNullLogger()

	router := gin.New()
	router.Use(Recovery(logger))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
	var body MessageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Message != "Internal server error" {
		t.Errorf("Unexpected body %s", w.Body.String())
	}
	if hook.LastEntry() == nil || hook.LastEntry().Data["panic"] != "boom" {
		t.Error("Expected panic to be logged")
	}
}

func TestErrorHandler(t *testing.T) {
	logger, _ := test.NewNullLogger()

	router := gin.New()
	router.Use(ErrorHandler(logger))
	router.GET("/public", func(c *gin.Context) {
		c.Error(errStr("bad input")).SetType(gin.ErrorTypePublic)
	})
	router.GET("/private", func(c *gin.Context) {
		c.Error(errStr("disk on fire"))
	})

	tests := []struct {
		path string
		code int
		msg  string
	}{
		{"/public", http.StatusBadRequest, "bad input"},
		{"/private", http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.code {
				t.Errorf("Expected %d, got %d", tt.code, w.Code)
			}
			var body MessageResponse
			json.Unmarshal(w.Body.Bytes(), &body)
			if body.Message != tt.msg {
				t.Errorf("Expected message %q, got %q", tt.msg, body.Message)
			}
		})
	}
}

type errStr string

func (e errStr) Error() string { return string(e) }

func TestRateLimiter(t *testing.T) {
	logger, _ := test.NewNullLogger()

	router := gin.New()
	router.Use(RateLimiter(0.001, 2, logger))
	router.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("Expected burst of 2 to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after burst, got %d", codes[2])
	}
}

func TestRequestSizeLimit(t *testing.T) {
	router := gin.New()
	router.Use(RequestSizeLimit(8))
	router.POST("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name string
		body string
		code int
	}{
		{"Small", `{}`, http.StatusOK},
		{"Large", `{"a":"0123456789"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)))
			if w.Code != tt.code {
				t.Errorf("Expected %d, got %d", tt.code, w.Code)
			}
		})
	}
}
