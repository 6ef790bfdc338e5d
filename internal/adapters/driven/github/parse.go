package github

import (
	"bytes"
	"fmt"
	"mime"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/custodia-labs/tokenbridge/internal/core/domain"
)

// Provider error fields. GitHub reports a bad code with a 2xx status and
// these fields instead of tokens.
const (
	fieldError            = "error"
	fieldErrorDescription = "error_description"
	fieldErrorURI         = "error_uri"
)

// ParseTokenResponse decodes a token endpoint body. JSON is detected from the
// content type or a leading '{'; anything else is read as form-encoded
// key=value pairs joined by '&'. Unknown keys are logged and skipped. Every
// failure wraps domain.ErrUpstream.
func ParseTokenResponse(contentType string, body []byte, logger logrus.FieldLogger) (*domain.TokenBundle, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	fields := &tokenFields{seen: make(map[string]bool), logger: logger}

	var err error
	if isJSON(contentType, body) {
		err = fields.readJSON(body)
	} else {
		err = fields.readForm(body)
	}
	if err != nil {
		return nil, err
	}
	return fields.bundle()
}

func isJSON(contentType string, body []byte) bool {
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			if mediaType == "application/json" || strings.HasSuffix(mediaType, "+json") {
				return true
			}
		}
	}
	return bytes.HasPrefix(bytes.TrimSpace(body), []byte("{"))
}

type tokenFields struct {
	out       domain.TokenBundle
	seen      map[string]bool
	errCode   string
	errDetail string
	logger    logrus.FieldLogger
}

func (f *tokenFields) readForm(body []byte) error {
	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return fmt.Errorf("%w: malformed form response: %v", domain.ErrUpstream, err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := f.set(key, values.Get(key)); err != nil {
			return err
		}
	}
	return nil
}

func (f *tokenFields) readJSON(body []byte) error {
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("%w: malformed JSON response", domain.ErrUpstream)
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return fmt.Errorf("%w: JSON response is not an object", domain.ErrUpstream)
	}

	var err error
	doc.ForEach(func(key, value gjson.Result) bool {
		var raw string
		switch value.Type {
		case gjson.String:
			raw = value.Str
		case gjson.Number:
			if isKnownField(key.Str) && !isNumericField(key.Str) {
				err = fmt.Errorf("%w: %s must be a string", domain.ErrUpstream, key.Str)
				return false
			}
			raw = value.Raw
		case gjson.Null:
			raw = ""
		default:
			if isKnownField(key.Str) {
				err = fmt.Errorf("%w: %s has unexpected type", domain.ErrUpstream, key.Str)
				return false
			}
		}
		err = f.set(key.Str, raw)
		return err == nil
	})
	return err
}

func (f *tokenFields) set(key, value string) error {
	switch key {
	case domain.FieldAccessToken:
		f.out.AccessToken = value
	case domain.FieldRefreshToken:
		f.out.RefreshToken = value
	case domain.FieldScope:
		f.out.Scope = value
	case domain.FieldTokenType:
		f.out.TokenType = value
	case domain.FieldExpiresIn:
		n, err := parseSeconds(key, value)
		if err != nil {
			return err
		}
		f.out.ExpiresIn = n
	case domain.FieldRefreshTokenExpiresIn:
		n, err := parseSeconds(key, value)
		if err != nil {
			return err
		}
		f.out.RefreshTokenExpiresIn = n
	case fieldError:
		f.errCode = value
		return nil
	case fieldErrorDescription:
		f.errDetail = value
		return nil
	case fieldErrorURI:
		return nil
	default:
		f.logger.WithField("key", key).Info("skipping unknown token response field")
		return nil
	}
	if value != "" {
		f.seen[key] = true
	}
	return nil
}

func (f *tokenFields) bundle() (*domain.TokenBundle, error) {
	if f.errCode != "" {
		f.logger.WithFields(logrus.Fields{
			"error":             f.errCode,
			"error_description": f.errDetail,
		}).Warn("provider refused the code")
		return nil, fmt.Errorf("%w: provider error %s", domain.ErrUpstream, f.errCode)
	}
	for _, field := range domain.RequiredTokenFields {
		if !f.seen[field] {
			return nil, fmt.Errorf("%w: missing %s", domain.ErrUpstream, field)
		}
	}
	out := f.out
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	return &out, nil
}

func parseSeconds(key, value string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer", domain.ErrUpstream, key)
	}
	return n, nil
}

func isNumericField(key string) bool {
	return key == domain.FieldExpiresIn || key == domain.FieldRefreshTokenExpiresIn
}

func isKnownField(key string) bool {
	for _, field := range domain.RequiredTokenFields {
		if key == field {
			return true
		}
	}
	return key == fieldError || key == fieldErrorDescription
}
