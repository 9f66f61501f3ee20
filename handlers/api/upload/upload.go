// Package upload implements the NetCDF upload pipeline: accept one file,
// persist it, forward it to the processing service, and expose job-status
// polling plus the submission history.
package upload

import (
	"argo-gateway/core"
	"argo-gateway/envelope"
	"argo-gateway/mlservice"
	"errors"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// MaxUploadSize caps accepted files at 100 MiB, enforced before any storage
// write.
const MaxUploadSize = 100 << 20

// multipart boundaries and part headers need headroom beyond the file cap.
const maxRequestSize = MaxUploadSize + 10<<10

var allowedExtensions = map[string]bool{
	".nc":     true,
	".netcdf": true,
}

// allowedFile reports whether the client-supplied filename carries an
// accepted NetCDF extension.
func allowedFile(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// HandleUpload accepts a single multipart "file" field, stores it under a
// collision-free name, and streams it to the processing service.
func HandleUpload(blobs core.BlobStore, ledger core.UploadLedger, client *mlservice.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

		file, header, err := r.FormFile("file")
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				envelope.Error(w, r, http.StatusBadRequest, "File exceeds the 100 MiB limit")
				return
			}
			envelope.Error(w, r, http.StatusBadRequest, "No file uploaded")
			return
		}
		defer file.Close()

		if header.Size > MaxUploadSize {
			envelope.Error(w, r, http.StatusBadRequest, "File exceeds the 100 MiB limit")
			return
		}

		if !allowedFile(header.Filename) {
			envelope.Error(w, r, http.StatusBadRequest, "Only NetCDF files are allowed")
			return
		}

		log := logrus.WithFields(logrus.Fields{
			"filename": header.Filename,
			"size":     header.Size,
		})

		storedName, size, err := blobs.Save(r.Context(), header.Filename, file)
		if err != nil {
			log.WithError(err).Error("Failed to store uploaded file")
			envelope.Error(w, r, http.StatusInternalServerError, "Error storing uploaded file")
			return
		}
		log = log.WithField("stored_name", storedName)

		blob, err := blobs.Open(r.Context(), storedName)
		if err != nil {
			log.WithError(err).Error("Failed to reopen stored file")
			envelope.Error(w, r, http.StatusInternalServerError, "Error processing uploaded file")
			return
		}
		defer blob.Close()

		contentType := header.Header.Get("Content-Type")
		data, err := client.SubmitFile(r.Context(), "/api/upload/process", header.Filename, contentType, blob)
		if err != nil {
			log.WithError(err).Error("Failed to submit file for processing")
			envelope.Error(w, r, http.StatusInternalServerError, "Error processing uploaded file")
			return
		}

		job := core.JobFromResponse(data)
		log.WithField("job_id", job.ID).Info("File submitted for processing")

		rec := &core.UploadRecord{
			ID:           ulid.Make().String(),
			JobID:        job.ID,
			OriginalName: header.Filename,
			StoredName:   storedName,
			Size:         size,
			CreatedAt:    time.Now().UTC(),
		}
		if err := ledger.Record(r.Context(), rec); err != nil {
			// History is best effort; the submission already succeeded.
			log.WithError(err).Warn("Failed to record upload in ledger")
		}

		envelope.OKWithMessage(w, r, "File uploaded and processed successfully", data)
	}
}

// HandleStatus polls the processing service for the current state of a job.
// Every call is a fresh upstream query; nothing is cached locally.
func HandleStatus(client *mlservice.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobId")
		if jobID == "" {
			envelope.Error(w, r, http.StatusBadRequest, "Job id is required")
			return
		}

		data, err := client.GetJSON(r.Context(), "/api/upload/status/"+url.PathEscape(jobID), nil)
		if err != nil {
			logrus.WithError(err).WithField("job_id", jobID).Error("Failed to check upload status")
			envelope.Error(w, r, http.StatusInternalServerError, "Error checking upload status")
			return
		}

		envelope.OK(w, r, data)
	}
}

// HandleHistory lists recent upload-ledger entries, newest first.
func HandleHistory(ledger core.UploadLedger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := ledger.ListRecent(r.Context(), 50)
		if err != nil {
			logrus.WithError(err).Error("Failed to list upload history")
			envelope.Error(w, r, http.StatusInternalServerError, "Error fetching upload history")
			return
		}

		if records == nil {
			records = []core.UploadRecord{}
		}
		envelope.OK(w, r, records)
	}
}
