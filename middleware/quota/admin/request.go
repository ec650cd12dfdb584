package admin

import (
	"encoding/json"
	"fmt"
	"net/http"

	"quota-gateway/middleware/quota/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SetQuotaRequest é o corpo de PUT /quotas/{principal}/{resource}.
type SetQuotaRequest struct {
	Limit *int64 `json:"limit" validate:"required,min=0"`
	Unit  string `json:"unit" validate:"max=32"`
}

// CheckRequest é o corpo de POST /check.
type CheckRequest struct {
	Principal       string `json:"principal"`
	Resource        string `json:"resource" validate:"required"`
	RequestedAmount int64  `json:"requested_amount" validate:"min=0"`
}

// CheckResponse é a resposta de POST /check.
type CheckResponse struct {
	Allowed bool                  `json:"allowed"`
	Reason  string                `json:"reason,omitempty"`
	Quota   *domain.ResourceQuota `json:"quota,omitempty"`
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}
