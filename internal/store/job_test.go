package store_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	st "github.com/jarvis-platform/orchestrator/internal/store"
	"github.com/jarvis-platform/orchestrator/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("job store", func() {
	var (
		store *st.JobStore
		ctx   context.Context
	)

	newJob := func(id string) model.Job {
		return model.NewJob(model.PodcastRequest{ID: id, UserID: "u1"}.WithDefaults())
	}

	BeforeEach(func() {
		store = st.NewJobStore()
		ctx = context.TODO()
	})

	Context("create and get", func() {
		It("returns the created job", func() {
			Expect(store.Create(ctx, newJob("job-1"))).To(Succeed())

			job, err := store.Get(ctx, "job-1")
			Expect(err).To(BeNil())
			Expect(job.ID).To(Equal("job-1"))
			Expect(job.Status).To(Equal(model.JobStatusPending))
			Expect(job.Request.AgentName).To(Equal(model.DefaultAgentName))
		})

		It("returns ErrRecordNotFound for unknown ids", func() {
			_, err := store.Get(ctx, "missing")
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})

		It("rejects jobs without id", func() {
			Expect(store.Create(ctx, model.Job{})).NotTo(Succeed())
		})

		It("overwrites a job submitted twice with the same id", func() {
			Expect(store.Create(ctx, newJob("job-1"))).To(Succeed())
			Expect(store.UpdateStatus(ctx, "job-1", model.JobStatusFailed, nil, "boom")).To(Succeed())

			Expect(store.Create(ctx, newJob("job-1"))).To(Succeed())
			job, err := store.Get(ctx, "job-1")
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusPending))
			Expect(job.Error).To(BeEmpty())
			Expect(store.Count(ctx)).To(Equal(1))
		})

		It("hands out copies", func() {
			j := newJob("job-1")
			j.Request.Metadata["k"] = "v"
			Expect(store.Create(ctx, j)).To(Succeed())
			j.Request.Metadata["k"] = "changed"

			got, err := store.Get(ctx, "job-1")
			Expect(err).To(BeNil())
			got.Request.Metadata["k"] = "changed again"
			got.Status = model.JobStatusCompleted

			again, err := store.Get(ctx, "job-1")
			Expect(err).To(BeNil())
			Expect(again.Request.Metadata["k"]).To(Equal("v"))
			Expect(again.Status).To(Equal(model.JobStatusPending))
		})
	})

	Context("update status", func() {
		It("walks the lifecycle and attaches the result", func() {
			Expect(store.Create(ctx, newJob("job-1"))).To(Succeed())
			Expect(store.UpdateStatus(ctx, "job-1", model.JobStatusRunning, nil, "")).To(Succeed())

			result := &model.PodcastResult{JobID: "job-1", Script: "hello", AudioDuration: 12.5}
			Expect(store.UpdateStatus(ctx, "job-1", model.JobStatusCompleted, result, "")).To(Succeed())

			job, err := store.Get(ctx, "job-1")
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusCompleted))
			Expect(job.Result).NotTo(BeNil())
			Expect(job.Result.Script).To(Equal("hello"))
		})

		It("records the error of a failed job", func() {
			Expect(store.Create(ctx, newJob("job-1"))).To(Succeed())
			Expect(store.UpdateStatus(ctx, "job-1", model.JobStatusFailed, nil, "news stage failed")).To(Succeed())

			job, err := store.Get(ctx, "job-1")
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusFailed))
			Expect(job.Error).To(Equal("news stage failed"))
			Expect(job.Result).To(BeNil())
		})

		It("never leaves a terminal state", func() {
			Expect(store.Create(ctx, newJob("job-1"))).To(Succeed())
			Expect(store.UpdateStatus(ctx, "job-1", model.JobStatusCompleted, nil, "")).To(Succeed())

			err := store.UpdateStatus(ctx, "job-1", model.JobStatusRunning, nil, "")
			Expect(err).To(MatchError(st.ErrInvalidTransition))

			job, _ := store.Get(ctx, "job-1")
			Expect(job.Status).To(Equal(model.JobStatusCompleted))
		})

		It("returns ErrRecordNotFound for unknown ids", func() {
			err := store.UpdateStatus(ctx, "missing", model.JobStatusRunning, nil, "")
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})
	})

	Context("list", func() {
		It("orders ids by creation time", func() {
			for _, id := range []string{"c", "a", "b"} {
				Expect(store.Create(ctx, newJob(id))).To(Succeed())
				time.Sleep(2 * time.Millisecond)
			}
			Expect(store.ListIDs(ctx)).To(Equal([]string{"c", "a", "b"}))
		})

		It("returns an empty list for an empty store", func() {
			Expect(store.ListIDs(ctx)).To(BeEmpty())
		})
	})

	Context("retention", func() {
		It("evicts only terminal jobs older than the cutoff", func() {
			Expect(store.Create(ctx, newJob("done"))).To(Succeed())
			Expect(store.Create(ctx, newJob("failed"))).To(Succeed())
			Expect(store.Create(ctx, newJob("running"))).To(Succeed())
			Expect(store.UpdateStatus(ctx, "done", model.JobStatusCompleted, nil, "")).To(Succeed())
			Expect(store.UpdateStatus(ctx, "failed", model.JobStatusFailed, nil, "x")).To(Succeed())
			Expect(store.UpdateStatus(ctx, "running", model.JobStatusRunning, nil, "")).To(Succeed())

			Expect(store.DeleteFinishedBefore(ctx, time.Now().Add(-time.Hour))).To(Equal(0))
			Expect(store.DeleteFinishedBefore(ctx, time.Now().Add(time.Second))).To(Equal(2))
			Expect(store.ListIDs(ctx)).To(Equal([]string{"running"}))
		})
	})

	Context("concurrency", func() {
		It("handles parallel writers and readers on different jobs", func() {
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					id := fmt.Sprintf("job-%d", i)
					Expect(store.Create(ctx, newJob(id))).To(Succeed())
					Expect(store.UpdateStatus(ctx, id, model.JobStatusRunning, nil, "")).To(Succeed())
					_, err := store.Get(ctx, id)
					Expect(err).To(BeNil())
					_ = store.ListIDs(ctx)
				}(i)
			}
			wg.Wait()
			Expect(store.Count(ctx)).To(Equal(50))
		})
	})
})
