package controller

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/formsink/formsink/internal/submissions/domain"
)

// maxBodyBytes caps how much of a submission body is read.
const maxBodyBytes = 10 << 20

const headerContentType = "Content-Type"

// parseFormBody decodes the request body into FormData, preserving the order
// fields were posted in. Echo's own binding goes through url.Values, which is
// a map and loses order, so both encodings are parsed by hand here.
func parseFormBody(r *http.Request) (*domain.FormData, error) {
	ct := r.Header.Get(headerContentType)
	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		mediaType = ""
	}

	if mediaType == "multipart/form-data" {
		return parseMultipart(r.Body, params["boundary"])
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return parseURLEncoded(string(body)), nil
}

// parseURLEncoded parses application/x-www-form-urlencoded content. Pairs
// that fail to unescape are skipped rather than failing the submission.
func parseURLEncoded(body string) *domain.FormData {
	fields := domain.NewFormData()
	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			continue
		}
		fields.Append(key, value)
	}
	return fields
}

// parseMultipart reads multipart parts in wire order. File parts are not form
// fields and are skipped.
func parseMultipart(body io.Reader, boundary string) (*domain.FormData, error) {
	fields := domain.NewFormData()
	if boundary == "" {
		return fields, nil
	}
	mr := multipart.NewReader(io.LimitReader(body, maxBodyBytes), boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if part.FileName() != "" || part.FormName() == "" {
			continue
		}
		value, err := io.ReadAll(io.LimitReader(part, maxBodyBytes))
		if err != nil {
			return nil, err
		}
		fields.Append(part.FormName(), string(value))
	}
	return fields, nil
}
