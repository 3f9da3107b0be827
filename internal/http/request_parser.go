package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ledger/internal/core"
)

const maxBodyBytes = 1 << 20

var errTrailingData = errors.New("unexpected data after JSON object")

// RequestBodyParser reads a JSON object or a form-encoded body; callers
// read fields by name without caring which one arrived.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	err      error
}

func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if p.err == nil {
		p.err = p.parse()
	}
	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errBadRequest, p.err)
	}
	return p
}

func (p *RequestBodyParser) parse() error {
	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}
	if trimmed[0] == '{' {
		// Numbers stay as their literal text so amounts never pass through float64.
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			return err
		}
		if _, err := dec.Token(); err != io.EOF {
			return errTrailingData
		}
		return nil
	}
	var err error
	p.formData, err = url.ParseQuery(trimmed)
	return err
}

// Err is non-nil when the body could not be read or decoded.
func (p *RequestBodyParser) Err() error {
	return p.err
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// Get returns the trimmed field value, or "" when absent.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		return sanitizeInput(stringValue(p.jsonData[key]))
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Raw is Get without trimming, for secrets.
func (p *RequestBodyParser) Raw(key string) string {
	if p.jsonData != nil {
		return stringValue(p.jsonData[key])
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// ID reads a required positive integer id.
func (p *RequestBodyParser) ID(key string) (int64, error) {
	id, err := p.OptionalID(key)
	if err != nil {
		return 0, err
	}
	if id == nil {
		return 0, fmt.Errorf("%w: %s", core.ErrMissingField, key)
	}
	return *id, nil
}

// OptionalID is nil for an absent or empty field. Writes are strict, so a
// present value that is not a positive integer is an error.
func (p *RequestBodyParser) OptionalID(key string) (*int64, error) {
	raw := p.Get(key)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: %s must be a positive integer", errInvalidID, key)
	}
	return &id, nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput trims and strips control characters other than tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
