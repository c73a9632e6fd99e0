package api

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/yegors/complaint-desk/internal/audio"
	"github.com/yegors/complaint-desk/internal/complaints"
	"github.com/yegors/complaint-desk/pkg/logger"
)

// audioField is the multipart field carrying the recording
const audioField = "audio"

// uploadError is a client-facing upload failure
type uploadError struct {
	status  int
	message string
	err     error
}

func (e *uploadError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func (e *uploadError) Unwrap() error {
	return e.err
}

// maxUploadBytes is the configured size limit in bytes
func (h *Handler) maxUploadBytes() int64 {
	return int64(h.upload.MaxSizeMB) << 20
}

// acceptList renders the accepted formats for messages and the file input
func (h *Handler) acceptList() string {
	exts := make([]string, 0, len(h.upload.AcceptedFormats))
	for _, f := range h.upload.AcceptedFormats {
		exts = append(exts, "."+f)
	}
	return strings.Join(exts, ",")
}

// receiveUpload streams the audio part of a multipart request to disk,
// checking its format and hashing it on the way. The returned cleanup
// removes the stored file.
func (h *Handler) receiveUpload(w http.ResponseWriter, r *http.Request) (complaints.Upload, func(), error) {
	noop := func() {}

	if limit := h.maxUploadBytes(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	reader, err := r.MultipartReader()
	if err != nil {
		return complaints.Upload{}, noop, &uploadError{status: http.StatusBadRequest, message: "expected a multipart form upload", err: err}
	}

	part, err := nextAudioPart(reader)
	if err != nil {
		return complaints.Upload{}, noop, classifyReadError(err, "missing audio file")
	}
	defer part.Close()

	filename := filepath.Base(part.FileName())
	buffered := bufio.NewReaderSize(part, 4096)
	head, err := buffered.Peek(audio.SniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return complaints.Upload{}, noop, classifyReadError(err, "failed to read audio file")
	}
	if len(head) == 0 {
		return complaints.Upload{}, noop, &uploadError{status: http.StatusBadRequest, message: "audio file is empty"}
	}

	format, err := audio.Accept(filename, head, h.upload.AcceptedFormats)
	if err != nil {
		return complaints.Upload{}, noop, &uploadError{
			status:  http.StatusUnsupportedMediaType,
			message: fmt.Sprintf("only %s audio files are accepted", h.acceptList()),
			err:     err,
		}
	}

	var playback time.Duration
	if format == audio.FormatWAV {
		header, err := audio.ParseWAVHeader(head)
		if err != nil {
			return complaints.Upload{}, noop, &uploadError{
				status:  http.StatusUnsupportedMediaType,
				message: "malformed WAV header",
				err:     err,
			}
		}
		playback = header.Duration()
	}

	path := filepath.Join(h.upload.Dir, uuid.NewString()+"."+format)
	file, err := os.Create(path)
	if err != nil {
		return complaints.Upload{}, noop, fmt.Errorf("failed to create upload file: %w", err)
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.logger.WithError(err).Warn("Failed to remove upload", logger.String("path", path))
		}
	}

	digester := audio.NewDigester()
	_, copyErr := io.Copy(io.MultiWriter(file, digester), buffered)
	closeErr := file.Close()
	if copyErr != nil {
		cleanup()
		return complaints.Upload{}, noop, classifyReadError(copyErr, "failed to read audio file")
	}
	if closeErr != nil {
		cleanup()
		return complaints.Upload{}, noop, fmt.Errorf("failed to write upload file: %w", closeErr)
	}

	upload := complaints.Upload{
		Path:     path,
		Filename: filename,
		Digest:   digester.Sum(),
		Size:     digester.Size(),
		Duration: playback,
	}

	fields := []logger.Field{
		logger.String("file", upload.Filename),
		logger.String("size", humanize.Bytes(uint64(upload.Size))),
		logger.String("digest", upload.Digest),
	}
	if playback > 0 {
		fields = append(fields, logger.Duration("playback", playback))
	}
	h.logger.Info("Received audio upload", fields...)

	return upload, cleanup, nil
}

// nextAudioPart skips to the audio file part of the form
func nextAudioPart(reader *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := reader.NextPart()
		if err != nil {
			return nil, err
		}
		if part.FormName() == audioField && part.FileName() != "" {
			return part, nil
		}
		part.Close()
	}
}

// classifyReadError maps body read failures to client errors
func classifyReadError(err error, message string) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return &uploadError{
			status:  http.StatusRequestEntityTooLarge,
			message: fmt.Sprintf("audio file exceeds %s", humanize.IBytes(uint64(maxErr.Limit))),
			err:     err,
		}
	}
	return &uploadError{status: http.StatusBadRequest, message: message, err: err}
}

// uploadStatus returns the HTTP status for an upload failure
func uploadStatus(err error) (int, string) {
	var ue *uploadError
	if errors.As(err, &ue) {
		return ue.status, ue.message
	}
	return http.StatusInternalServerError, "failed to store upload"
}
