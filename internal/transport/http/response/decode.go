package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/domain"
)

// DecodeJSON decodes a JSON request body into dst and rejects trailing data
// after the first value ({}{} bodies).
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		return domain.ErrInvalidJSON(err)
	}

	if err := dec.Decode(&struct{}{}); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.ErrInvalidJSON(err)
	}
	return domain.ErrInvalidJSON(errors.New("multiple JSON values"))
}
