package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/okian/telcoguard/internal/adapters/remote"
	"github.com/okian/telcoguard/internal/domain/model"
)

// readBody reads at most limit bytes of the request body.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}

// decodeProfile parses one wire profile. Missing required keys are
// reported together under ErrMissingFields.
func decodeProfile(raw []byte) (model.CustomerProfile, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return model.CustomerProfile{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if missing := remote.MissingFields(fields); len(missing) > 0 {
		return model.CustomerProfile{}, fmt.Errorf("%w: [%s]", ErrMissingFields, strings.Join(missing, ", "))
	}
	var w remote.WireProfile
	if err := json.Unmarshal(raw, &w); err != nil {
		return model.CustomerProfile{}, fmt.Errorf("invalid profile: %w", err)
	}
	return remote.DecodeProfile(w)
}

// decodeValidProfile also enforces the documented numeric ranges.
func decodeValidProfile(raw []byte) (model.CustomerProfile, error) {
	p, err := decodeProfile(raw)
	if err != nil {
		return model.CustomerProfile{}, err
	}
	if err := p.Validate(); err != nil {
		return model.CustomerProfile{}, err
	}
	return p, nil
}
