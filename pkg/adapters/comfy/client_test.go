package comfy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stencil/pkg/domain"
)

func sampleJob() domain.JobGraph {
	return domain.JobGraph{
		"3": {ClassType: "KSampler", Inputs: map[string]any{
			"seed":  42,
			"model": domain.DependencyRef{NodeID: "1", Slot: 0},
		}},
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/system_stats", r.URL.Path)
		fmt.Fprint(w, `{"system":{}}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	assert.NoError(t, c.Ping(context.Background()))
}

func TestPingUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1")
	assert.Error(t, c.Ping(context.Background()))
}

func TestSubmit(t *testing.T) {
	var got submitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prompt", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"prompt_id":"abc-123"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, WithClientID("session-1"))
	id, err := c.Submit(context.Background(), sampleJob())

	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)
	assert.Equal(t, "session-1", got.ClientID)
	// The dependency ref travels as the two-element wire pair.
	assert.Equal(t, []any{"1", float64(0)}, got.Prompt["3"].Inputs["model"])
}

func TestSubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid prompt"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Submit(context.Background(), sampleJob())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "invalid prompt")
}

func TestSubmitMissingPromptID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Submit(context.Background(), sampleJob())
	assert.Error(t, err)
}

func historyServer(t *testing.T, responses ...string) *httptest.Server {
	var calls atomic.Int64
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1) - 1
		if int(n) >= len(responses) {
			n = int64(len(responses) - 1)
		}
		fmt.Fprint(w, responses[n])
	}))
}

func TestPollCompletes(t *testing.T) {
	srv := historyServer(t,
		`{}`,
		`{"p1":{"status":{"completed":false}}}`,
		`{"p1":{"status":{"completed":true}}}`,
	)
	defer srv.Close()

	c := New(srv.URL)
	outcome, err := c.Poll(context.Background(), "p1", time.Second, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, outcome)
}

func TestPollBackendError(t *testing.T) {
	srv := historyServer(t,
		`{"p1":{"status":{"completed":false,"error":{"node_id":"3","message":"OOM"}}}}`,
	)
	defer srv.Close()

	c := New(srv.URL)
	outcome, err := c.Poll(context.Background(), "p1", time.Second, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, domain.JobErrored, outcome)
}

func TestPollNullErrorIsNotAnError(t *testing.T) {
	srv := historyServer(t,
		`{"p1":{"status":{"completed":true,"error":null}}}`,
	)
	defer srv.Close()

	c := New(srv.URL)
	outcome, err := c.Poll(context.Background(), "p1", time.Second, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, outcome)
}

func TestPollTimesOut(t *testing.T) {
	srv := historyServer(t, `{}`)
	defer srv.Close()

	c := New(srv.URL)
	start := time.Now()
	outcome, err := c.Poll(context.Background(), "p1", 100*time.Millisecond, 10*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, domain.JobTimedOut, outcome)
	assert.Less(t, time.Since(start), time.Second, "timeout must bound the wait")
}

func TestPollSwallowsTransientFailures(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "backend busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"p1":{"status":{"completed":true}}}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	outcome, err := c.Poll(context.Background(), "p1", time.Second, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, outcome)
}

func TestPollHonorsCancellation(t *testing.T) {
	srv := historyServer(t, `{}`)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	c := New(srv.URL)
	outcome, err := c.Poll(ctx, "p1", time.Minute, 5*time.Millisecond)

	assert.Equal(t, domain.JobTimedOut, outcome)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchArtifacts(t *testing.T) {
	srv := historyServer(t, `{
		"p1": {
			"status": {"completed": true},
			"outputs": {
				"9": {"images": [{"filename": "monster_1_3_00001_.png", "subfolder": "", "type": "output"}]},
				"12": {"images": []}
			}
		}
	}`)
	defer srv.Close()

	c := New(srv.URL)
	outputs, err := c.FetchArtifacts(context.Background(), "p1")

	require.NoError(t, err)
	require.Contains(t, outputs, "9")
	assert.NotContains(t, outputs, "12", "empty image lists are dropped")
	assert.Equal(t, "monster_1_3_00001_.png", outputs["9"][0].Filename)
}

func TestFetchArtifactsUnknownJob(t *testing.T) {
	srv := historyServer(t, `{}`)
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.FetchArtifacts(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/view", r.URL.Path)
		assert.Equal(t, "monster_1_3_00001_.png", r.URL.Query().Get("filename"))
		assert.Equal(t, "output", r.URL.Query().Get("type"))
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	data, err := c.Download(context.Background(), domain.ArtifactDescriptor{
		Filename: "monster_1_3_00001_.png",
		Type:     "output",
	})

	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload/image", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		f, header, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		assert.Equal(t, "3.png", header.Filename)
		fmt.Fprint(w, `{"name":"3.png"}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	assert.NoError(t, c.Upload(context.Background(), "3.png", []byte("img")))
}

func TestUploadRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.Upload(context.Background(), "3.png", []byte("img"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3.png")
}

func TestClientIDIsStable(t *testing.T) {
	c := New("http://localhost")
	assert.NotEmpty(t, c.ClientID())
	assert.Equal(t, c.ClientID(), c.ClientID())
}
