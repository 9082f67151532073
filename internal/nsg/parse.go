package nsg

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"
)

// The gateway's XML documents are walked in a single forward pass over the
// token stream. A small context enum tracks which structural element the
// walker is inside, because the same tag name means different things in
// different places (a bare <url> is a self reference, a <url> under
// <resultsUri> points at the output manifest, a <url> under <downloadUri>
// inside a <jobfile> is a file fetch location). Scratch fields accumulate
// values while a context is active and are frozen into a record when its
// closing tag arrives.
type parseContext int

const (
	ctxNone                parseContext = iota
	ctxSelfRef                          // inside <selfUri>
	ctxResultsRef                       // inside <resultsUri>
	ctxMessage                          // inside <message>
	ctxManifestEntry                    // inside <jobfile>
	ctxManifestDownloadRef              // inside <jobfile><downloadUri>
)

// ParseJobList decodes the user's job collection document. Every complete
// <selfUri> block carrying both a <url> and a <title> yields one summary
// (the title is the job handle); blocks missing either field are skipped.
func ParseJobList(doc string) ([]JobSummary, error) {
	d := xml.NewDecoder(strings.NewReader(doc))

	jobs := []JobSummary{}
	ctx := ctxNone
	field := ""
	var url, title string

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Doc: "job list", Offset: d.InputOffset(), Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "selfUri":
				ctx = ctxSelfRef
				url, title = "", ""
			default:
				field = t.Name.Local
			}
		case xml.EndElement:
			if t.Name.Local == "selfUri" {
				if url != "" && title != "" {
					jobs = append(jobs, JobSummary{JobID: title, URL: url})
				}
				ctx = ctxNone
			}
			field = ""
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" || ctx != ctxSelfRef {
				continue
			}
			switch field {
			case "url":
				url = text
			case "title":
				title = text
			}
		}
	}
	return jobs, nil
}

// ParseJobStatus decodes a single-job status document. Scalar fields are
// overwrite-on-reencounter: if the server repeats a tag, the last occurrence
// wins with no warning (a quirk of the upstream documents, preserved here).
// The first bare <url> becomes the self reference; a <url> inside
// <resultsUri> becomes the results reference. The job handle is required and
// its absence is only fatal once the whole document has been walked.
func ParseJobStatus(doc string) (JobStatus, error) {
	d := xml.NewDecoder(strings.NewReader(doc))

	var status JobStatus
	ctx := ctxNone
	field := ""
	var msg JobMessage

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return JobStatus{}, &ParseError{Doc: "job status", Offset: d.InputOffset(), Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "resultsUri":
				ctx = ctxResultsRef
			case "message":
				ctx = ctxMessage
				msg = JobMessage{}
			default:
				field = t.Name.Local
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "resultsUri":
				ctx = ctxNone
			case "message":
				if ctx == ctxMessage {
					status.Messages = append(status.Messages, msg)
				}
				ctx = ctxNone
			}
			field = ""
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			switch field {
			case "jobHandle":
				status.JobID = text
			case "jobStage":
				status.Stage = text
			case "failed":
				status.Failed = text == "true"
			case "dateSubmitted":
				status.DateSubmitted = text
			case "url":
				if ctx == ctxResultsRef {
					status.ResultsURI = text
				} else if status.SelfURI == "" {
					status.SelfURI = text
				}
			case "stage":
				if ctx == ctxMessage {
					msg.Stage = text
				}
			case "text":
				if ctx == ctxMessage {
					msg.Text = text
				}
			case "timestamp":
				if ctx == ctxMessage {
					msg.Timestamp = text
				}
			}
		}
	}

	if status.JobID == "" {
		return JobStatus{}, &ParseError{Doc: "job status", MissingField: "jobHandle"}
	}
	return status, nil
}

// ParseOutputFiles decodes a job's output manifest. A <jobfile> entry is
// emitted only when filename, download location, and a numeric <length> were
// all seen before its closing tag; incomplete entries (including those with
// a non-numeric length) are dropped without failing the rest of the parse.
func ParseOutputFiles(doc string) ([]OutputFile, error) {
	d := xml.NewDecoder(strings.NewReader(doc))

	files := []OutputFile{}
	ctx := ctxNone
	field := ""
	var filename, uri string
	var size uint64
	var sizeOK bool

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Doc: "output manifest", Offset: d.InputOffset(), Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "jobfile":
				ctx = ctxManifestEntry
				filename, uri, size, sizeOK = "", "", 0, false
			case "downloadUri":
				if ctx == ctxManifestEntry {
					ctx = ctxManifestDownloadRef
				}
			default:
				field = t.Name.Local
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "jobfile":
				if filename != "" && uri != "" && sizeOK {
					files = append(files, OutputFile{Filename: filename, DownloadURI: uri, Size: size})
				}
				ctx = ctxNone
			case "downloadUri":
				if ctx == ctxManifestDownloadRef {
					ctx = ctxManifestEntry
				}
			}
			field = ""
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" || (ctx != ctxManifestEntry && ctx != ctxManifestDownloadRef) {
				continue
			}
			switch field {
			case "filename":
				filename = text
			case "length":
				size, sizeOK = 0, false
				if n, err := strconv.ParseUint(text, 10, 64); err == nil {
					size, sizeOK = n, true
				}
			case "url":
				if ctx == ctxManifestDownloadRef {
					uri = text
				}
			}
		}
	}
	return files, nil
}
