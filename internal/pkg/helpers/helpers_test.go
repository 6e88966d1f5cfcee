package helpers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCalculateOffsetLimit(t *testing.T) {
	tests := []struct {
		page, size int
		offset     uint64
		limit      int
	}{
		{1, 10, 0, 10},
		{3, 10, 20, 10},
		{0, 10, 0, 10},
		{2, 0, uint64(DefaultPageSize), DefaultPageSize},
		{1, MaxPageSize + 1, 0, DefaultPageSize},
	}
	for _, tt := range tests {
		offset, limit := CalculateOffsetLimit(tt.page, tt.size)
		if offset != tt.offset || limit != tt.limit {
			t.Errorf("CalculateOffsetLimit(%d, %d) = %d, %d; want %d, %d", tt.page, tt.size, offset, limit, tt.offset, tt.limit)
		}
	}
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(45, 5, 10)
	if info.TotalPages != 5 || info.CurrentPage != 5 {
		t.Errorf("got %+v", info)
	}

	info = NewPaginationInfo(45, 9, 10)
	if info.CurrentPage != 9 || info.TotalPages != 5 {
		t.Errorf("page past the end should be reported as requested, got %+v", info)
	}
	if offset, _ := CalculateOffsetLimit(9, 10); offset != uint64(info.CurrentPage-1)*uint64(info.PageSize) {
		t.Errorf("offset %d does not match reported page %d", offset, info.CurrentPage)
	}

	info = NewPaginationInfo(0, 1, 10)
	if info.TotalPages != 1 {
		t.Errorf("empty result should report one page, got %d", info.TotalPages)
	}
}

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/users?page=3&size=500", nil)

	page, size := ParsePaginationParams(c)
	if page != 3 || size != DefaultPageSize {
		t.Errorf("got page=%d size=%d", page, size)
	}
}

func TestNullIfBlank(t *testing.T) {
	if NullIfBlank("   ") != nil {
		t.Error("blank should be nil")
	}
	if v := NullIfBlank(" CS "); v == nil || *v != "CS" {
		t.Errorf("got %v", v)
	}
	if TrimPtr(nil) != nil {
		t.Error("nil should stay nil")
	}
}
