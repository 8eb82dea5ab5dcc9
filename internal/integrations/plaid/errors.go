package plaid

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrProductNotReady marks the upstream PRODUCT_NOT_READY condition, common
// in sandbox right after linking. Callers translate it into a
// "try again shortly" message instead of a generic failure.
var ErrProductNotReady = errors.New("product not ready")

// APIError is a structured upstream error response.
type APIError struct {
	Type    string `json:"error_type"`
	Code    string `json:"error_code"`
	Message string `json:"error_message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("aggregation API error %s: %s", e.Code, e.Message)
}

// ProductsNotAuthorizedError reports the products the upstream rejected on a
// link-token request; the client retries once without them.
type ProductsNotAuthorizedError struct {
	Products []string
}

func (e *ProductsNotAuthorizedError) Error() string {
	return fmt.Sprintf("client not authorized for products: %s", strings.Join(e.Products, ", "))
}

var unauthorizedProductsRe = regexp.MustCompile(`products: \[(.+?)\]`)

// parseUnauthorizedProducts extracts product names from the upstream
// "client is not authorized to access the following products: [...]" message.
func parseUnauthorizedProducts(message string) []string {
	match := unauthorizedProductsRe.FindStringSubmatch(message)
	if match == nil {
		return nil
	}
	raw := strings.ReplaceAll(match[1], `\"`, `"`)
	raw = strings.ReplaceAll(raw, "'", "")
	var products []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(strings.Trim(strings.TrimSpace(part), `"`))
		if name != "" {
			products = append(products, name)
		}
	}
	return products
}

func classifyAPIError(apiErr *APIError) error {
	if apiErr.Code == "PRODUCT_NOT_READY" {
		return fmt.Errorf("%w: %s", ErrProductNotReady, apiErr.Message)
	}
	if strings.Contains(apiErr.Message, "not authorized to access the following products") {
		return &ProductsNotAuthorizedError{Products: parseUnauthorizedProducts(apiErr.Message)}
	}
	return apiErr
}
