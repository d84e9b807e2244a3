package v1alpha1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	handlers "github.com/jarvis-platform/orchestrator/internal/handlers/v1alpha1"
	"github.com/jarvis-platform/orchestrator/internal/service"
	"github.com/jarvis-platform/orchestrator/internal/store/model"
)

var _ = Describe("podcast handler", func() {
	var (
		fake   *fakeService
		router *chi.Mux
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	decode := func(rr *httptest.ResponseRecorder) map[string]any {
		out := map[string]any{}
		Expect(json.Unmarshal(rr.Body.Bytes(), &out)).To(Succeed())
		return out
	}

	BeforeEach(func() {
		fake = newFakeService()
		router = chi.NewRouter()
		handlers.RegisterApi(router, handlers.NewServiceHandler(fake))
	})

	Context("health", func() {
		It("reports the number of known jobs", func() {
			fake.jobs["a"] = model.Job{ID: "a"}
			rr := do(http.MethodGet, "/health", "")
			Expect(rr.Code).To(Equal(http.StatusOK))

			body := decode(rr)
			Expect(body).To(HaveKeyWithValue("status", "healthy"))
			Expect(body).To(HaveKeyWithValue("service", "orchestrator"))
			Expect(body).To(HaveKeyWithValue("active_jobs", BeNumerically("==", 1)))
			Expect(body).To(HaveKey("timestamp"))
		})
	})

	Context("generate", func() {
		It("accepts a valid request", func() {
			rr := do(http.MethodPost, "/api/podcast/generate", `{"agent_type":"market_analysis","user_id":"u1","news_count":5}`)
			Expect(rr.Code).To(Equal(http.StatusAccepted))

			body := decode(rr)
			Expect(body).To(HaveKeyWithValue("status", "pending"))
			Expect(body).To(HaveKeyWithValue("job_id", Not(BeEmpty())))

			Expect(fake.submitted).To(HaveLen(1))
			req := fake.submitted[0]
			Expect(req.AgentType).To(Equal(model.AgentTypeMarketAnalysis))
			Expect(req.AgentName).To(Equal(model.DefaultAgentName))
			Expect(req.NewsCount).To(Equal(5))
		})

		It("applies defaults to an empty object", func() {
			rr := do(http.MethodPost, "/api/podcast/generate", `{}`)
			Expect(rr.Code).To(Equal(http.StatusAccepted))
			Expect(fake.submitted[0].NewsCount).To(Equal(model.DefaultNewsCount))
		})

		DescribeTable("rejects invalid payloads",
			func(payload, detail string) {
				rr := do(http.MethodPost, "/api/podcast/generate", payload)
				Expect(rr.Code).To(Equal(http.StatusBadRequest))
				Expect(decode(rr)["detail"]).To(ContainSubstring(detail))
				Expect(fake.submitted).To(BeEmpty())
			},
			Entry("malformed json", `{"agent_type":`, "invalid request body"),
			Entry("unknown agent type", `{"agent_type":"weather"}`, "agent_type"),
			Entry("too many news", `{"news_count":100}`, "news_count"),
			Entry("wrong type", `{"news_count":"three"}`, "invalid request body"),
		)

		It("returns 503 while shutting down", func() {
			fake.submitErr = service.ErrServiceShuttingDown
			rr := do(http.MethodPost, "/api/podcast/generate", `{}`)
			Expect(rr.Code).To(Equal(http.StatusServiceUnavailable))
		})

		It("returns 500 on unexpected errors", func() {
			fake.submitErr = errors.New("store exploded")
			rr := do(http.MethodPost, "/api/podcast/generate", `{}`)
			Expect(rr.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Context("status", func() {
		It("returns the job", func() {
			fake.jobs["job-1"] = model.Job{ID: "job-1", Status: model.JobStatusRunning}
			rr := do(http.MethodGet, "/api/podcast/status/job-1", "")
			Expect(rr.Code).To(Equal(http.StatusOK))

			body := decode(rr)
			Expect(body).To(HaveKeyWithValue("id", "job-1"))
			Expect(body).To(HaveKeyWithValue("status", "running"))
		})

		It("returns 404 for unknown jobs", func() {
			rr := do(http.MethodGet, "/api/podcast/status/nope", "")
			Expect(rr.Code).To(Equal(http.StatusNotFound))
			Expect(decode(rr)["detail"]).To(Equal("job nope not found"))
		})
	})

	Context("result", func() {
		It("returns a completed result", func() {
			fake.results["job-1"] = model.PodcastResult{JobID: "job-1", AudioPath: "/tmp/a.mp3", AudioDuration: 230.5}
			rr := do(http.MethodGet, "/api/podcast/result/job-1", "")
			Expect(rr.Code).To(Equal(http.StatusOK))

			body := decode(rr)
			Expect(body).To(HaveKeyWithValue("audio_path", "/tmp/a.mp3"))
			Expect(body).To(HaveKeyWithValue("audio_duration", 230.5))
		})

		It("returns 202 with the status while processing", func() {
			fake.jobs["job-1"] = model.Job{ID: "job-1", Status: model.JobStatusRunning}
			rr := do(http.MethodGet, "/api/podcast/result/job-1", "")
			Expect(rr.Code).To(Equal(http.StatusAccepted))
			Expect(decode(rr)).To(HaveKeyWithValue("status", "running"))
		})

		It("returns 404 for unknown jobs", func() {
			rr := do(http.MethodGet, "/api/podcast/result/nope", "")
			Expect(rr.Code).To(Equal(http.StatusNotFound))
		})
	})

	Context("debug", func() {
		It("lists jobs", func() {
			fake.jobs["a"] = model.Job{ID: "a"}
			fake.jobs["b"] = model.Job{ID: "b"}

			rr := do(http.MethodGet, "/api/debug/jobs", "")
			Expect(rr.Code).To(Equal(http.StatusOK))

			body := decode(rr)
			Expect(body).To(HaveKeyWithValue("total_jobs", BeNumerically("==", 2)))
			Expect(body["jobs"]).To(ConsistOf("a", "b"))
		})

		It("starts a test pipeline", func() {
			rr := do(http.MethodPost, "/api/debug/test-pipeline", "")
			Expect(rr.Code).To(Equal(http.StatusAccepted))
			Expect(fake.submitted).To(HaveLen(1))
			Expect(fake.submitted[0].UserID).To(Equal("test_user"))
			Expect(fake.submitted[0].NewsCount).To(Equal(3))
		})
	})
})

type fakeService struct {
	mu        sync.Mutex
	jobs      map[string]model.Job
	results   map[string]model.PodcastResult
	submitted []model.PodcastRequest
	submitErr error
}

func newFakeService() *fakeService {
	return &fakeService{
		jobs:    map[string]model.Job{},
		results: map[string]model.PodcastResult{},
	}
}

func (f *fakeService) Submit(_ context.Context, req model.PodcastRequest) (model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return model.Job{}, f.submitErr
	}
	f.submitted = append(f.submitted, req)
	return model.NewJob(req), nil
}

func (f *fakeService) GetStatus(_ context.Context, id string) (model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return model.Job{}, service.NewErrJobNotFound(id)
	}
	return job, nil
}

func (f *fakeService) GetResult(_ context.Context, id string) (model.PodcastResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.results[id]; ok {
		return r, nil
	}
	job, ok := f.jobs[id]
	if !ok {
		return model.PodcastResult{}, service.NewErrJobNotFound(id)
	}
	return model.PodcastResult{}, service.NewErrJobNotReady(id, job.Status)
}

func (f *fakeService) ListJobs(_ context.Context) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.jobs))
	for id := range f.jobs {
		ids = append(ids, id)
	}
	return ids
}

func (f *fakeService) ActiveJobs(_ context.Context) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}
