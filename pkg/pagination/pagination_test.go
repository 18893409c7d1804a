package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, target string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor(t, "/")
	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected default offset 0, got %d", p.Offset)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	p := paramsFor(t, "/?limit=50&offset=10")
	if p.Limit != 50 {
		t.Errorf("expected limit 50, got %d", p.Limit)
	}
	if p.Offset != 10 {
		t.Errorf("expected offset 10, got %d", p.Offset)
	}
}

func TestFromContext_ClampsLimit(t *testing.T) {
	p := paramsFor(t, "/?limit=500")
	if p.Limit != MaxLimit {
		t.Errorf("expected limit capped at %d, got %d", MaxLimit, p.Limit)
	}
}

func TestFromContext_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		target string
		limit  int
		offset int
	}{
		{"negative offset", "/?offset=-5", DefaultLimit, 0},
		{"zero limit", "/?limit=0", DefaultLimit, 0},
		{"non-numeric limit", "/?limit=abc", DefaultLimit, 0},
		{"non-numeric offset", "/?offset=xyz", DefaultLimit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := paramsFor(t, tt.target)
			if p.Limit != tt.limit {
				t.Errorf("expected limit %d, got %d", tt.limit, p.Limit)
			}
			if p.Offset != tt.offset {
				t.Errorf("expected offset %d, got %d", tt.offset, p.Offset)
			}
		})
	}
}

func TestNewResponse(t *testing.T) {
	data := []string{"a", "b", "c"}

	r := NewResponse(data, 10, 3, 0)
	if r.Total != 10 {
		t.Errorf("expected total 10, got %d", r.Total)
	}
	if !r.HasMore {
		t.Error("expected has_more when offset+limit < total")
	}

	r2 := NewResponse(data, 3, 3, 0)
	if r2.HasMore {
		t.Error("expected has_more false when the page reaches the end")
	}

	r3 := NewResponse(nil, 25, 10, 20)
	if r3.HasMore {
		t.Error("expected has_more false on the last partial page")
	}
}
