package core

import (
	"context"
	"encoding/json"
	"io"
	"time"
)

// Job status values as last observed from the processing service. The gateway
// never invents transitions; every poll is a fresh upstream query.
const (
	JobStatusSubmitted  = "submitted"
	JobStatusProcessing = "processing"
	JobStatusComplete   = "complete"
	JobStatusFailed     = "failed"
)

type (
	// Job is an ephemeral view onto one asynchronous unit of work owned by
	// the processing service.
	Job struct {
		ID     string `json:"jobId"`
		Status string `json:"status,omitempty"`
	}

	// UploadRecord is one ledger entry for a blob that was stored and
	// submitted for processing.
	UploadRecord struct {
		ID           string    `json:"id"`
		JobID        string    `json:"jobId,omitempty"`
		OriginalName string    `json:"originalName"`
		StoredName   string    `json:"storedName"`
		Size         int64     `json:"size"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	// BlobStore persists uploaded binaries. Save assigns a collision-free
	// stored name; client-supplied names are never reused directly. Stored
	// blobs are write-once.
	BlobStore interface {
		Save(ctx context.Context, originalName string, r io.Reader) (storedName string, size int64, err error)
		Open(ctx context.Context, storedName string) (io.ReadCloser, error)
	}

	// UploadLedger records submissions for the upload history view.
	UploadLedger interface {
		Record(ctx context.Context, rec *UploadRecord) error
		ListRecent(ctx context.Context, limit int) ([]UploadRecord, error)
	}
)

// JobFromResponse pulls the job identifier and initial status out of the raw
// submission response. The processing service has used both snake_case and
// camelCase field names, so both are accepted; an unrecognized shape yields a
// zero Job rather than an error since the body is forwarded opaquely anyway.
func JobFromResponse(raw json.RawMessage) Job {
	var body struct {
		JobID   string `json:"job_id"`
		JobIDCC string `json:"jobId"`
		ID      string `json:"id"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return Job{}
	}

	job := Job{Status: body.Status}
	switch {
	case body.JobID != "":
		job.ID = body.JobID
	case body.JobIDCC != "":
		job.ID = body.JobIDCC
	default:
		job.ID = body.ID
	}
	return job
}
