package hycom

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/model"
)

var defaultBox = model.Box{West: -131, East: -121, South: 39, North: 53}

func TestRequest_URL_Backfill(t *testing.T) {
	req := Request{
		RunType: model.BackfillU,
		Day:     time.Date(2012, 1, 25, 0, 0, 0, 0, time.UTC),
		Box:     defaultBox,
		Testing: true,
	}

	raw, err := req.URL("http://ncss.hycom.org/thredds/ncss")
	if err != nil {
		t.Fatalf("URL() error = %v", err)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("generated url does not parse: %v", err)
	}
	if u.Path != "/thredds/ncss/GLBu0.08/expt_93.0" {
		t.Errorf("path = %s", u.Path)
	}

	q := u.Query()
	want := map[string]string{
		"var":               "surf_el",
		"north":             "53",
		"south":             "39",
		"west":              "229",
		"east":              "239",
		"disableProjSubset": "on",
		"horizStride":       "1",
		"time_start":        "2012-01-25-T00:00:00Z",
		"time_end":          "2012-01-25-T00:00:00Z",
		"timeStride":        "8",
		"vertCoord":         "",
		"addLatLon":         "true",
		"accept":            "netcdf",
	}
	for k, v := range want {
		if !q.Has(k) {
			t.Errorf("missing query parameter %s", k)
			continue
		}
		if got := q.Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}

	if !strings.Contains(raw, "?var=surf_el&north=53&south=39&west=229&east=239&") {
		t.Errorf("unexpected parameter order in %s", raw)
	}
}

func TestRequest_URL_DatasetPerRunType(t *testing.T) {
	tests := []struct {
		runType model.RunType
		want    string
	}{
		{model.Forecast, "/GLBy0.08/expt_93.0/data/forecasts/FMRC_best.ncd"},
		{model.BackfillU, "/GLBu0.08/expt_93.0"},
		{model.BackfillY, "/GLBy0.08/expt_93.0"},
	}

	for _, tt := range tests {
		t.Run(string(tt.runType), func(t *testing.T) {
			req := Request{RunType: tt.runType, Day: time.Now(), Box: defaultBox}
			raw, err := req.URL("http://ncss.hycom.org/thredds/ncss/")
			if err != nil {
				t.Fatalf("URL() error = %v", err)
			}
			u, _ := url.Parse(raw)
			if u.Path != "/thredds/ncss"+tt.want {
				t.Errorf("path = %s, want suffix %s", u.Path, tt.want)
			}
		})
	}
}

func TestRequest_FullVariables(t *testing.T) {
	req := Request{RunType: model.BackfillY, Day: time.Now(), Box: defaultBox, Accept: AcceptNetCDF4}

	raw, err := req.URL("http://localhost")
	if err != nil {
		t.Fatalf("URL() error = %v", err)
	}
	u, _ := url.Parse(raw)
	if got := u.Query().Get("var"); got != "surf_el,water_temp,salinity,water_u,water_v" {
		t.Errorf("var = %q", got)
	}
	if got := u.Query().Get("accept"); got != "netcdf4" {
		t.Errorf("accept = %q", got)
	}
}

func TestRequest_Variables_NotShared(t *testing.T) {
	req := Request{Testing: true}
	vars := req.Variables()
	vars[0] = "mutated"
	if req.Variables()[0] != "surf_el" {
		t.Fatal("Variables() must return a copy")
	}
}

func TestRequest_URL_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"unknown run type", Request{RunType: "hindcast", Box: defaultBox}},
		{"unknown accept", Request{RunType: model.Forecast, Box: defaultBox, Accept: "grib"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.req.URL("http://localhost"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
