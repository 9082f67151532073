package nsg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testCreds() Credentials {
	return Credentials{Username: "alice", Password: "secret", AppKey: "app-key-1"}
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(testCreds(), Options{BaseURL: srv.URL}), srv
}

func TestTestConnection_UnauthorizedIsTransportError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))

	err := client.TestConnection(context.Background())
	if err == nil {
		t.Fatalf("expected error for 401")
	}
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if terr.Status != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", terr.Status)
	}
	if !terr.AuthFailure() {
		t.Fatalf("expected auth failure classification")
	}
	var perr *ParseError
	if errors.As(err, &perr) {
		t.Fatalf("401 must never surface as a ParseError")
	}
}

func TestTestConnection_SendsAuthAndAppKey(t *testing.T) {
	var gotUser, gotPass, gotKey string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		gotKey = r.Header.Get("cipres-appkey")
		fmt.Fprint(w, "<joblist/>")
	}))

	if err := client.TestConnection(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUser != "alice" || gotPass != "secret" {
		t.Fatalf("expected basic auth alice/secret, got %s/%s", gotUser, gotPass)
	}
	if gotKey != "app-key-1" {
		t.Fatalf("expected app key header, got %q", gotKey)
	}
}

func TestListJobs(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, listDocTwoJobs)
	}))

	jobs, err := client.ListJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/job/alice" {
		t.Fatalf("expected collection path /job/alice, got %q", gotPath)
	}
	if len(jobs) != 2 || jobs[0].JobID != "NGBW-JOB-1" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
}

func TestJobStatus_ReferenceFormsResolveIdentically(t *testing.T) {
	var paths []string
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		fmt.Fprint(w, statusDoc("NGBW-JOB-ABC123"))
	}))

	refs := []string{
		"NGBW-JOB-ABC123",
		"/job/alice/NGBW-JOB-ABC123",
		srv.URL + "/job/alice/NGBW-JOB-ABC123",
	}
	for _, ref := range refs {
		status, err := client.JobStatus(context.Background(), ref)
		if err != nil {
			t.Fatalf("ref %q: unexpected error: %v", ref, err)
		}
		if status.JobID != "NGBW-JOB-ABC123" {
			t.Fatalf("ref %q: unexpected status %+v", ref, status)
		}
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(paths))
	}
	for _, p := range paths {
		if p != "/job/alice/NGBW-JOB-ABC123" {
			t.Fatalf("expected all reference forms to resolve to the same path, got %v", paths)
		}
	}
}

func TestJobStatus_ForeignURLRejected(t *testing.T) {
	requests := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))

	_, err := client.JobStatus(context.Background(), "https://elsewhere.example.com/v1/job/alice/NGBW-JOB-1")
	if err == nil {
		t.Fatalf("expected error for out-of-endpoint URL")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if requests != 0 {
		t.Fatalf("expected no request to be issued, got %d", requests)
	}
}

func TestSubmitJob_MultipartForm(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "model.zip")
	payload := bytes.Repeat([]byte("z"), 512)
	if err := os.WriteFile(archive, payload, 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	var gotTool, gotEmail, gotFilename string
	var gotFile []byte
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/job/alice" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		gotTool = r.FormValue("tool")
		gotEmail = r.FormValue("metadata.statusEmail")
		f, hdr, err := r.FormFile("input.infile_")
		if err != nil {
			t.Errorf("file part: %v", err)
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		defer f.Close()
		gotFilename = hdr.Filename
		gotFile, _ = io.ReadAll(f)
		fmt.Fprint(w, statusDoc("NGBW-JOB-NEW"))
	}))

	status, err := client.SubmitJob(context.Background(), archive, "PY_EXPANSE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.JobID != "NGBW-JOB-NEW" {
		t.Fatalf("unexpected status %+v", status)
	}
	if gotTool != "PY_EXPANSE" {
		t.Fatalf("expected tool part, got %q", gotTool)
	}
	if gotEmail != "true" {
		t.Fatalf("expected statusEmail flag, got %q", gotEmail)
	}
	if gotFilename != "model.zip" {
		t.Fatalf("expected archive basename as part filename, got %q", gotFilename)
	}
	if !bytes.Equal(gotFile, payload) {
		t.Fatalf("archive bytes corrupted in transit: %d vs %d", len(gotFile), len(payload))
	}
}

func TestSubmitJob_RejectionCarriesStatusAndBody(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "model.zip")
	if err := os.WriteFile(archive, []byte("zip"), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "tool UNKNOWN_TOOL is not configured", http.StatusBadRequest)
	}))

	_, err := client.SubmitJob(context.Background(), archive, "UNKNOWN_TOOL")
	if err == nil {
		t.Fatalf("expected submit rejection")
	}
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if terr.Status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", terr.Status)
	}
	if !strings.Contains(terr.Body, "UNKNOWN_TOOL") {
		t.Fatalf("expected the diagnostic body to be preserved, got %q", terr.Body)
	}
}

func TestSubmitJob_MissingArchive(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	_, err := client.SubmitJob(context.Background(), filepath.Join(t.TempDir(), "absent.zip"), "PY_EXPANSE")
	if err == nil {
		t.Fatalf("expected error for missing archive")
	}
}

// resultsHandler serves the documents for a complete download flow: the job
// status, the output manifest, and the file contents themselves.
func resultsHandler(t *testing.T, base func() string, files map[string][]byte, sizes map[string]int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/job/alice/NGBW-JOB-DL":
			fmt.Fprintf(w, `<jobstatus>
				<selfUri><url>%[1]s/job/alice/NGBW-JOB-DL</url></selfUri>
				<jobHandle>NGBW-JOB-DL</jobHandle>
				<jobStage>COMPLETED</jobStage>
				<resultsUri><url>%[1]s/job/alice/NGBW-JOB-DL/output</url></resultsUri>
			</jobstatus>`, base())
		case r.URL.Path == "/job/alice/NGBW-JOB-DL/output":
			var b strings.Builder
			b.WriteString("<results><jobfiles>")
			for name, size := range sizes {
				fmt.Fprintf(&b, `<jobfile>
					<downloadUri><url>%s/download/%s</url></downloadUri>
					<filename>%s</filename>
					<length>%d</length>
				</jobfile>`, base(), name, name, size)
			}
			b.WriteString("</jobfiles></results>")
			fmt.Fprint(w, b.String())
		case strings.HasPrefix(r.URL.Path, "/download/"):
			name := strings.TrimPrefix(r.URL.Path, "/download/")
			data, ok := files[name]
			if !ok {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			w.Write(data)
		default:
			http.NotFound(w, r)
		}
	}
}

func TestDownloadResults_StreamsWithProgress(t *testing.T) {
	content := bytes.Repeat([]byte("x"), 24000)
	files := map[string][]byte{"result.tar.gz": content}
	sizes := map[string]int{"result.tar.gz": 24000}

	var baseURL string
	client, srv := newTestClient(t, resultsHandler(t, func() string { return baseURL }, files, sizes))
	baseURL = srv.URL

	outDir := filepath.Join(t.TempDir(), "results")
	type call struct {
		name        string
		transferred uint64
		total       uint64
	}
	var calls []call
	downloaded, err := client.DownloadResults(context.Background(), "NGBW-JOB-DL", outDir, func(name string, tr, tot uint64) {
		calls = append(calls, call{name, tr, tot})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(downloaded) != 1 {
		t.Fatalf("expected 1 downloaded file, got %d", len(downloaded))
	}
	got := downloaded[0]
	if got.Filename != "result.tar.gz" || got.Size != 24000 {
		t.Fatalf("unexpected record: %+v", got)
	}
	data, err := os.ReadFile(got.LocalPath)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Fatalf("downloaded bytes differ: %d vs %d", len(data), len(content))
	}

	if len(calls) < 2 {
		t.Fatalf("expected multiple progress calls for a multi-chunk file, got %d", len(calls))
	}
	var prev uint64
	for _, c := range calls {
		if c.name != "result.tar.gz" {
			t.Fatalf("unexpected filename in progress call: %q", c.name)
		}
		if c.total != 24000 {
			t.Fatalf("expected manifest-declared total 24000, got %d", c.total)
		}
		if c.transferred < prev {
			t.Fatalf("progress went backwards: %d after %d", c.transferred, prev)
		}
		prev = c.transferred
	}
	if calls[len(calls)-1].transferred != 24000 {
		t.Fatalf("expected final progress call at 24000, got %d", calls[len(calls)-1].transferred)
	}
}

func TestDownloadResults_NotReady(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<jobstatus>
			<jobHandle>NGBW-JOB-WAIT</jobHandle>
			<jobStage>RUNNING</jobStage>
		</jobstatus>`)
	}))

	_, err := client.DownloadResults(context.Background(), "NGBW-JOB-WAIT", t.TempDir(), nil)
	if err == nil {
		t.Fatalf("expected results-not-ready error")
	}
	var nre *ResultsNotReadyError
	if !errors.As(err, &nre) {
		t.Fatalf("expected ResultsNotReadyError, got %T: %v", err, err)
	}
	if nre.JobID != "NGBW-JOB-WAIT" || nre.Stage != "RUNNING" {
		t.Fatalf("unexpected error detail: %+v", nre)
	}
	var terr *TransportError
	if errors.As(err, &terr) {
		t.Fatalf("missing results must not be a transport failure")
	}
}

func TestDownloadResults_FailedTransferAbortsAndNamesFile(t *testing.T) {
	files := map[string][]byte{"ok.txt": []byte("fine")}
	sizes := map[string]int{"ok.txt": 4, "missing.bin": 99}

	var baseURL string
	client, srv := newTestClient(t, resultsHandler(t, func() string { return baseURL }, files, sizes))
	baseURL = srv.URL

	// The manifest advertises missing.bin but its download endpoint 500s.
	downloaded, err := client.DownloadResults(context.Background(), "NGBW-JOB-DL", t.TempDir(), nil)
	if err == nil {
		t.Fatalf("expected download failure")
	}
	if !strings.Contains(err.Error(), "missing.bin") {
		t.Fatalf("expected the failing filename in the error, got %v", err)
	}
	if downloaded != nil {
		t.Fatalf("expected no partial success accumulation, got %+v", downloaded)
	}
}
