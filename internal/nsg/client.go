package nsg

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultBaseURL is the production NSG REST endpoint.
const DefaultBaseURL = "https://nsgr.sdsc.edu:8443/cipresrest/v1"

const (
	appKeyHeader = "cipres-appkey"
	filePartName = "input.infile_"
	chunkSize    = 8 * 1024

	defaultTimeout       = 30 * time.Second
	defaultUploadTimeout = 60 * time.Second
)

// Credentials authenticate every request: HTTP basic auth plus the
// gateway's application key header.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	AppKey   string `json:"app_key"`
}

// Options tune a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL       string
	Timeout       time.Duration // API calls (list, status, manifest)
	UploadTimeout time.Duration // job submission; scale up for large archives
}

// ProgressFunc observes a file transfer. It is called after every chunk,
// including the final one, so transferred == total marks completion. total
// is the manifest-declared size.
type ProgressFunc func(filename string, transferred, total uint64)

// Client talks to one gateway endpoint on behalf of one user. Operations
// are synchronous and never retry; retry policy belongs to the caller.
type Client struct {
	baseURL string
	creds   Credentials
	api     *http.Client
	upload  *http.Client
	// Streaming transfers carry no overall deadline (result archives can be
	// arbitrarily large); cancellation comes from the request context.
	stream *http.Client
}

func NewClient(creds Credentials, opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	uploadTimeout := opts.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = defaultUploadTimeout
	}
	return &Client{
		baseURL: baseURL,
		creds:   creds,
		api:     &http.Client{Timeout: timeout},
		upload:  &http.Client{Timeout: uploadTimeout},
		stream:  &http.Client{Timeout: 0},
	}
}

// BaseURL returns the configured endpoint.
func (c *Client) BaseURL() string { return c.baseURL }

// Username returns the authenticated account name.
func (c *Client) Username() string { return c.creds.Username }

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.creds.Username, c.creds.Password)
	req.Header.Set(appKeyHeader, c.creds.AppKey)
	return req, nil
}

// get fetches path and returns the response body. Non-2xx responses become
// a TransportError carrying the status and whatever diagnostic body the
// server sent.
func (c *Client) get(ctx context.Context, op, path string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", &TransportError{Op: op, Err: err}
	}
	resp, err := c.api.Do(req)
	if err != nil {
		return "", &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &TransportError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return string(body), nil
}

// TestConnection verifies the credentials by fetching the user's job
// collection. Any non-2xx response is reported as a transport failure;
// use TransportError.AuthFailure to distinguish rejected credentials.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.get(ctx, "test connection", "/job/"+c.creds.Username)
	return err
}

// ListJobs fetches and decodes the user's job collection.
func (c *Client) ListJobs(ctx context.Context) ([]JobSummary, error) {
	body, err := c.get(ctx, "list jobs", "/job/"+c.creds.Username)
	if err != nil {
		return nil, err
	}
	return ParseJobList(body)
}

// resolveJobPath normalizes the three accepted job reference forms (full
// URL under this endpoint, rooted /job/ path, bare handle) into one request
// path.
func (c *Client) resolveJobPath(ref string) (string, error) {
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return c.endpointPath("job reference", ref)
	case strings.HasPrefix(ref, "/job/"):
		return ref, nil
	default:
		return "/job/" + c.creds.Username + "/" + ref, nil
	}
}

// endpointPath strips the configured endpoint prefix from a server-provided
// URL. A URL under some other endpoint cannot be requested with these
// credentials and is rejected outright.
func (c *Client) endpointPath(field, rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, c.baseURL) {
		return "", &ValidationError{Field: field, Value: rawURL, Msg: "not under endpoint " + c.baseURL}
	}
	return strings.TrimPrefix(rawURL, c.baseURL), nil
}

// JobStatus fetches and decodes the status of one job. ref may be a job
// handle, a /job/... path, or a full URL under the configured endpoint.
func (c *Client) JobStatus(ctx context.Context, ref string) (JobStatus, error) {
	path, err := c.resolveJobPath(ref)
	if err != nil {
		return JobStatus{}, err
	}
	body, err := c.get(ctx, "get job status", path)
	if err != nil {
		return JobStatus{}, err
	}
	return ParseJobStatus(body)
}

// SubmitJob uploads archivePath to run under the named tool and returns the
// freshly created job's status. The archive streams through the multipart
// body rather than being buffered whole.
func (c *Client) SubmitJob(ctx context.Context, archivePath, tool string) (JobStatus, error) {
	if strings.TrimSpace(tool) == "" {
		return JobStatus{}, &ValidationError{Field: "tool", Value: tool, Msg: "tool name is required"}
	}
	if _, err := os.Stat(archivePath); err != nil {
		return JobStatus{}, fmt.Errorf("read archive %s: %w", archivePath, err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeSubmitForm(mw, archivePath, tool))
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/job/"+c.creds.Username, pr)
	if err != nil {
		return JobStatus{}, &TransportError{Op: "submit job", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.upload.Do(req)
	if err != nil {
		return JobStatus{}, &TransportError{Op: "submit job", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return JobStatus{}, &TransportError{Op: "submit job", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The rejection body usually names the actual problem (bad tool,
		// malformed archive), so keep it.
		return JobStatus{}, &TransportError{Op: "submit job", Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return ParseJobStatus(string(body))
}

func writeSubmitForm(mw *multipart.Writer, archivePath, tool string) error {
	if err := mw.WriteField("tool", tool); err != nil {
		return err
	}
	part, err := mw.CreateFormFile(filePartName, filepath.Base(archivePath))
	if err != nil {
		return err
	}
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("read archive %s: %w", archivePath, err)
	}
	defer f.Close()
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("read archive %s: %w", archivePath, err)
	}
	if err := mw.WriteField("metadata.statusEmail", "true"); err != nil {
		return err
	}
	return mw.Close()
}

// DownloadResults fetches every file a finished job produced into
// outputDir, in manifest order, strictly one at a time. progress (optional)
// is invoked per chunk for the file currently transferring; because files
// are sequential it never needs to be reentrant-safe. The first failed
// transfer aborts the whole operation. A job whose results are not yet
// retrievable yields a ResultsNotReadyError, which callers should treat as
// "poll again later" rather than as a fault.
func (c *Client) DownloadResults(ctx context.Context, ref, outputDir string, progress ProgressFunc) ([]DownloadedFile, error) {
	status, err := c.JobStatus(ctx, ref)
	if err != nil {
		return nil, err
	}
	if status.ResultsURI == "" {
		return nil, &ResultsNotReadyError{JobID: status.JobID, Stage: status.Stage}
	}

	resultsPath, err := c.endpointPath("results URL", status.ResultsURI)
	if err != nil {
		return nil, err
	}
	body, err := c.get(ctx, "list results", resultsPath)
	if err != nil {
		return nil, err
	}
	files, err := ParseOutputFiles(body)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", outputDir, err)
	}

	downloaded := make([]DownloadedFile, 0, len(files))
	for _, file := range files {
		localPath := filepath.Join(outputDir, file.Filename)
		if err := c.downloadFile(ctx, file, localPath, progress); err != nil {
			return nil, err
		}
		downloaded = append(downloaded, DownloadedFile{
			Filename:  file.Filename,
			LocalPath: localPath,
			Size:      file.Size,
		})
	}
	return downloaded, nil
}

func (c *Client) downloadFile(ctx context.Context, file OutputFile, localPath string, progress ProgressFunc) error {
	downloadPath, err := c.endpointPath("download URL", file.DownloadURI)
	if err != nil {
		return err
	}
	op := "download " + file.Filename

	req, err := c.newRequest(ctx, http.MethodGet, downloadPath, nil)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	resp, err := c.stream.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{Op: op, Status: resp.StatusCode}
	}

	dst, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", localPath, err)
	}

	buf := make([]byte, chunkSize)
	var written uint64
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				dst.Close()
				return fmt.Errorf("write %s: %w", localPath, werr)
			}
			written += uint64(n)
			if progress != nil {
				progress(file.Filename, written, file.Size)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			dst.Close()
			return &TransportError{Op: op, Err: rerr}
		}
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("write %s: %w", localPath, err)
	}
	// Empty files produce no chunks; emit one completion call so the sink
	// still observes the transfer deterministically.
	if written == 0 && progress != nil {
		progress(file.Filename, 0, file.Size)
	}
	return nil
}
