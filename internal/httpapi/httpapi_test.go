package httpapi

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/ironsheep/pump-curve-digitizer/internal/digitizer"
	"github.com/ironsheep/pump-curve-digitizer/internal/testchart"
)

// multipartBody builds a form with an optional image part and text fields.
func multipartBody(t *testing.T, image []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if image != nil {
		fw, err := mw.CreateFormFile("image", "pump.png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func standardChart() *testchart.Chart {
	chart := testchart.Standard()
	chart.Lines = []testchart.Line{{
		From: image.Pt(80, 200), To: image.Pt(360, 60),
		Color: color.Black, Thickness: 3,
	}}
	return chart
}

func TestDigitize(t *testing.T) {
	chart := standardChart()
	h := NewHandler(chart.Reader(), nil)

	body, ctype := multipartBody(t, chart.PNG(), map[string]string{"curves": " head ,", "grid_points": "20"})
	req := httptest.NewRequest(http.MethodPost, "/api/digitize", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type %q", ct)
	}

	var res digitizer.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if res.Source.Name != "pump.png" {
		t.Errorf("source name %q", res.Source.Name)
	}
	if len(res.Grid) != 20 {
		t.Errorf("grid has %d points, want 20", len(res.Grid))
	}
	if _, ok := res.Curve("head"); !ok {
		t.Error("head curve missing")
	}
}

func TestDigitize_BadRequests(t *testing.T) {
	chart := standardChart()

	tests := []struct {
		name       string
		image      []byte
		fields     map[string]string
		wantStatus int
		wantError  string
	}{
		{"no image", nil, nil, http.StatusBadRequest, "No image provided"},
		{"not an image", []byte("hello"), nil, http.StatusBadRequest, ""},
		{"bad grid points", chart.PNG(), map[string]string{"grid_points": "x"}, http.StatusBadRequest, "grid_points must be an integer of at least 2"},
		{"blank chart", testchart.Standard().PNG(), nil, http.StatusUnprocessableEntity, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(chart.Reader(), nil)
			body, ctype := multipartBody(t, tt.image, tt.fields)
			req := httptest.NewRequest(http.MethodPost, "/api/digitize", body)
			req.Header.Set("Content-Type", ctype)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var out map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if out["error"] == "" {
				t.Error("missing error message")
			}
			if tt.wantError != "" && out["error"] != tt.wantError {
				t.Errorf("error: got %q, want %q", out["error"], tt.wantError)
			}
		})
	}
}

func TestRoutes(t *testing.T) {
	h := NewHandler(standardChart().Reader(), nil)

	tests := []struct {
		method, path string
		wantStatus   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/api/digitize", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.wantStatus {
			t.Errorf("%s %s: got %d, want %d", tt.method, tt.path, rec.Code, tt.wantStatus)
		}
	}
}

func TestSplitCurves(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"head", []string{"head"}},
		{"head, efficiency ,,bhp", []string{"head", "efficiency", "bhp"}},
	}
	for _, tt := range tests {
		if got := splitCurves(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitCurves(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
