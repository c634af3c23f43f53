package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/vacstat/internal/adapters/http/api"
	"github.com/okian/vacstat/internal/adapters/repository"
	"github.com/okian/vacstat/internal/adapters/source"
	"github.com/okian/vacstat/internal/domain/model"
	"github.com/okian/vacstat/internal/domain/normalize"
	"github.com/okian/vacstat/internal/domain/report"
	"github.com/okian/vacstat/internal/domain/stats"
	"github.com/okian/vacstat/internal/domain/types"
	"github.com/okian/vacstat/pkg/logger"
	"github.com/okian/vacstat/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDeps reads the body through source.Read so size and parse errors
// surface the way they do in the real service.
type mockDeps struct {
	store     *repository.MemoryStore
	submitErr error
	citiesErr error
	maxBytes  int64
}

func newMockDeps() *mockDeps {
	return &mockDeps{store: repository.NewMemoryStore(), maxBytes: 1 << 20}
}

func (m *mockDeps) Submit(ctx context.Context, r io.Reader, profession string) (repository.Entry, error) {
	if _, err := source.Read(r); err != nil {
		return repository.Entry{}, err
	}
	if m.submitErr != nil {
		return repository.Entry{}, m.submitErr
	}
	at := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	res, err := stats.Equalize(stats.Aggregate([]model.Record{
		{Name: "Программист", Salary: 1000, Location: "Москва", PublishedAt: at},
		{Name: "Водитель", Salary: 500, Location: "Казань", PublishedAt: at},
	}, profession))
	if err != nil {
		return repository.Entry{}, err
	}
	return m.store.Save(ctx, "r1", report.Build(res))
}

func (m *mockDeps) GetReport(ctx context.Context, id string) (repository.Entry, error) {
	return m.store.Get(ctx, id)
}

func (m *mockDeps) Cities(ctx context.Context, id, by string, limit int) ([]types.Entry, error) {
	if m.citiesErr != nil {
		return nil, m.citiesErr
	}
	e, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	entries := e.Report.TopSalary
	if by == "share" {
		entries = e.Report.TopShare
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *mockDeps) MaxUploadBytes() int64 { return m.maxBytes }
func (m *mockDeps) TopCities() int        { return 10 }

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats(context.Context) map[string]interface{} { return m.stats }

const csvBody = "name,salary_from,salary_to,salary_currency,area_name,published_at\n" +
	"Программист,1,2,RUR,Москва,2022-01-01T00:00:00+0300\n"

func newMux(deps *mockDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}).Register(mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) (code, message string) {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body.Code, body.Message
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(newMockDeps())

		Convey("Then health and metrics endpoints should expose Prometheus text", func() {
			for _, path := range []string{"/healthz", "/metrics"} {
				w := do(mux, http.MethodGet, path, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "go_goroutines")
			}
		})

		Convey("Then the stats endpoint should return JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then a POST to stats should not be found", func() {
			w := do(mux, http.MethodPost, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestReportsHandler(t *testing.T) {
	Convey("Given a reports API", t, func() {
		deps := newMockDeps()
		mux := newMux(deps)

		Convey("When a valid CSV is posted", func() {
			w := do(mux, http.MethodPost, "/reports?profession=Программист", csvBody)

			Convey("Then it should be created and retrievable", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				var created struct {
					ID     string          `json:"id"`
					Report json.RawMessage `json:"report"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &created), ShouldBeNil)
				So(created.ID, ShouldEqual, "r1")
				So(string(created.Report), ShouldContainSubstring, `"profession":"Программист"`)

				got := do(mux, http.MethodGet, "/reports/r1", "")
				So(got.Code, ShouldEqual, http.StatusOK)
				So(got.Body.String(), ShouldContainSubstring, `"salary_by_city":{"Москва":1000,"Казань":500}`)
			})

			Convey("Then the city ranking should be served", func() {
				c := do(mux, http.MethodGet, "/reports/r1/cities?by=salary&limit=1", "")
				So(c.Code, ShouldEqual, http.StatusOK)
				var entries []types.Entry
				So(json.Unmarshal(c.Body.Bytes(), &entries), ShouldBeNil)
				So(entries, ShouldResemble, []types.Entry{{Rank: 1, City: "Москва", Value: 1000}})

				s := do(mux, http.MethodGet, "/reports/r1/cities?by=share", "")
				So(s.Code, ShouldEqual, http.StatusOK)
				So(json.Unmarshal(s.Body.Bytes(), &entries), ShouldBeNil)
				So(len(entries), ShouldEqual, 2)
				So(entries[0].Value, ShouldEqual, 0.5)
			})
		})

		Convey("When an empty body is posted", func() {
			w := do(mux, http.MethodPost, "/reports", "")

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				code, msg := decodeError(w)
				So(code, ShouldEqual, "empty_input")
				So(msg, ShouldContainSubstring, "api.post_report")
			})
		})

		Convey("When normalization fails", func() {
			deps.submitErr = normalize.AtRow(&normalize.Error{
				Row: -1, Field: model.FieldCurrency, Value: "GBP", Err: normalize.ErrUnknownCurrency,
			}, 4)
			w := do(mux, http.MethodPost, "/reports", csvBody)

			Convey("Then the message should carry the failure", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				code, msg := decodeError(w)
				So(code, ShouldEqual, "normalization_error")
				So(msg, ShouldContainSubstring, "GBP")
			})
		})

		Convey("When the body exceeds the upload limit", func() {
			deps.maxBytes = 16
			w := do(mux, http.MethodPost, "/reports", csvBody)

			Convey("Then it should be rejected as too large", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				code, _ := decodeError(w)
				So(code, ShouldEqual, "payload_too_large")
			})
		})

		Convey("When an unexpected error occurs", func() {
			deps.submitErr = errors.New("disk on fire")
			w := do(mux, http.MethodPost, "/reports", csvBody)

			Convey("Then it should be an internal error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When an unknown report is requested", func() {
			w := do(mux, http.MethodGet, "/reports/nope", "")
			c := do(mux, http.MethodGet, "/reports/nope/cities", "")

			Convey("Then it should not be found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(c.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestCitiesHandler_Validation(t *testing.T) {
	Convey("Given a stored report", t, func() {
		deps := newMockDeps()
		mux := newMux(deps)
		So(do(mux, http.MethodPost, "/reports", csvBody).Code, ShouldEqual, http.StatusCreated)

		Convey("Then bad query values should be rejected", func() {
			cases := map[string]string{
				"/reports/r1/cities?by=count":  "bad_request",
				"/reports/r1/cities?limit=0":   "bad_request",
				"/reports/r1/cities?limit=abc": "bad_request",
				"/reports/r1/cities?limit=11":  "limit_exceeded",
			}
			for target, want := range cases {
				w := do(mux, http.MethodGet, target, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				code, _ := decodeError(w)
				So(code, ShouldEqual, want)
			}
		})

		Convey("Then a cancelled upstream should be unavailable", func() {
			deps.citiesErr = context.Canceled
			w := do(mux, http.MethodGet, "/reports/r1/cities", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given API errors", t, func() {
		cause := errors.New("boom")

		Convey("Then kinds and causes should both unwrap", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		})

		Convey("Then NewKind and Wrap should format their parts", func() {
			So(api.NewKind("api.op", api.ErrNotFound).Error(), ShouldEqual, "api.op: not found")
			So(api.Wrap("api.op", cause).Error(), ShouldEqual, "api.op: boom")
			So(errors.Is(api.Wrap("api.op", cause), api.ErrInternal), ShouldBeFalse)
		})
	})
}

func errorsByComponent(class string) float64 {
	families, err := metrics.GetRegistry().Gather()
	So(err, ShouldBeNil)
	for _, mf := range families {
		if mf.GetName() != "vacstat_pipeline_errors_by_component_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "error_type" && l.GetValue() == class {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a wrapped handler", t, func() {
		status := http.StatusOK
		h := api.MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			if status != http.StatusOK {
				w.WriteHeader(status)
			}
			_, _ = w.Write([]byte("body"))
		}, "test")

		serve := func() *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))
			return w
		}

		Convey("Then an implicit 200 should pass through", func() {
			w := serve()
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldEqual, "body")
		})

		Convey("Then failures should be counted by class", func() {
			for st, class := range map[int]string{
				http.StatusRequestEntityTooLarge: "payload_too_large",
				http.StatusNotFound:              "not_found",
				http.StatusBadRequest:            "bad_request",
				http.StatusInternalServerError:   "internal_error",
				http.StatusServiceUnavailable:    "unavailable",
			} {
				before := errorsByComponent(class)
				status = st
				So(serve().Code, ShouldEqual, st)
				So(errorsByComponent(class), ShouldEqual, before+1)
			}
		})
	})
}
